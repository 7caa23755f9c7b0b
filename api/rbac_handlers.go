package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"aegis/rbac"
)

// getRoles returns the full role catalog.
func (a *API) getRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Roles(), a.logger)
}

// getRole returns a single role by identifier.
func (a *API) getRole(w http.ResponseWriter, r *http.Request) {
	roleID := mux.Vars(r)["id"]
	role, ok := a.catalog.RoleByID(roleID)
	if !ok {
		writeError(w, http.StatusNotFound, "Role not found", nil, a.logger)
		return
	}
	writeJSON(w, http.StatusOK, role, a.logger)
}

// getPermissions returns the full permission catalog.
func (a *API) getPermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Permissions(), a.logger)
}

// getPermissionMatrix returns the role-to-permission matrix for the admin
// panel.
func (a *API) getPermissionMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Matrix(), a.logger)
}

// assignRoleRequest is the payload for creating a role assignment.
type assignRoleRequest struct {
	Identity  string     `json:"identity" validate:"required,max=255"`
	RoleID    string     `json:"role_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// assignRole appends a role assignment for an identity. The role must
// resolve in the catalog; unknown roles are rejected and nothing is
// recorded.
func (a *API) assignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err, a.logger)
		return
	}

	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Validation failed: "+err.Error(), nil, a.logger)
		return
	}

	if _, ok := a.catalog.RoleByID(req.RoleID); !ok {
		writeError(w, http.StatusUnprocessableEntity, "Unknown role: "+req.RoleID, nil, a.logger)
		return
	}

	assignedBy := ""
	if principal, ok := GetPrincipal(r.Context()); ok {
		assignedBy = principal.Identity
	}

	assignment := &rbac.RoleAssignment{
		ID:         uuid.New().String(),
		Identity:   req.Identity,
		RoleID:     req.RoleID,
		AssignedBy: assignedBy,
		AssignedAt: time.Now().UTC(),
		ExpiresAt:  req.ExpiresAt,
	}

	if err := a.assignmentStorage.AppendAssignment(r.Context(), assignment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record role assignment", err, a.logger)
		return
	}

	a.logger.Infow("Role assigned",
		"identity", req.Identity,
		"role", req.RoleID,
		"assigned_by", assignedBy)
	writeJSON(w, http.StatusCreated, assignment, a.logger)
}

// getAssignments returns the assignment history for an identity.
func (a *API) getAssignments(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		writeError(w, http.StatusBadRequest, "identity query parameter is required", nil, a.logger)
		return
	}

	assignments, err := a.assignmentStorage.GetAssignmentsByIdentity(r.Context(), identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load assignments", err, a.logger)
		return
	}
	writeJSON(w, http.StatusOK, assignments, a.logger)
}
