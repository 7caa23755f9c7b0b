package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/core"
	"aegis/rbac"
	"aegis/soc"
)

func TestGetRoles(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodGet, "/api/v1/roles", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var roles []rbac.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Len(t, roles, 3)
}

func TestGetRole(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodGet, "/api/v1/roles/diplomat", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var role rbac.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &role))
	assert.Equal(t, "Diplomat", role.Name)
	assert.Equal(t, 3, role.Level)

	rec = h.request(t, http.MethodGet, "/api/v1/roles/super_admin", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPermissionsAndMatrix(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodGet, "/api/v1/permissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var permissions []rbac.Permission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &permissions))
	assert.Len(t, permissions, 17)

	rec = h.request(t, http.MethodGet, "/api/v1/permissions/matrix", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matrix rbac.PermissionMatrix
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matrix))
	assert.Len(t, matrix.Matrix, 3)
	assert.Contains(t, matrix.Matrix[rbac.RoleAdminStaff], rbac.PermUsersView)
}

func TestAssignRole(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodPost, "/api/v1/roles/assignments", token,
		[]byte(`{"identity":"user-7","role_id":"consultant"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var assignment rbac.RoleAssignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, "user-7", assignment.Identity)
	assert.Equal(t, rbac.RoleConsultant, assignment.RoleID)
	assert.Equal(t, "admin-1", assignment.AssignedBy)

	history, err := h.assignment.GetAssignmentsByIdentity(context.Background(), "user-7")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAssignRole_UnknownRoleRecordsNothing(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodPost, "/api/v1/roles/assignments", token,
		[]byte(`{"identity":"user-7","role_id":"super_admin"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	history, err := h.assignment.GetAssignmentsByIdentity(context.Background(), "user-7")
	require.NoError(t, err)
	assert.Empty(t, history, "rejected assignments must not be recorded")
}

func TestAssignRole_ValidationFailures(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodPost, "/api/v1/roles/assignments", token,
		[]byte(`{"role_id":"consultant"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.request(t, http.MethodPost, "/api/v1/roles/assignments", token, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAssignments(t *testing.T) {
	h := newTestHarness(t)
	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodPost, "/api/v1/roles/assignments", token,
		[]byte(`{"identity":"user-9","role_id":"diplomat"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.request(t, http.MethodGet, "/api/v1/roles/assignments?identity=user-9", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []rbac.RoleAssignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, rbac.RoleDiplomat, history[0].RoleID)

	rec = h.request(t, http.MethodGet, "/api/v1/roles/assignments", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboard(t *testing.T) {
	h := newTestHarness(t)

	recorder := soc.NewRecorder(h.eventStore, nil, h.api.logger)
	_, err := recorder.LogAuthFailure(context.Background(), "user-1", "203.0.113.10", "curl/8.0", "bad otp")
	require.NoError(t, err)

	token := h.token(t, "consultant-1", rbac.RoleConsultant)
	rec := h.request(t, http.MethodGet, "/api/v1/soc/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics soc.DashboardMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.TotalEvents)
	assert.Equal(t, 1, metrics.ActiveIncidents)
	require.Len(t, metrics.RecentEvents, 1)
}

func TestGetEvents_Filters(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	recorder := soc.NewRecorder(h.eventStore, nil, h.api.logger)
	_, err := recorder.LogAuthFailure(ctx, "user-1", "203.0.113.10", "curl/8.0", "bad otp")
	require.NoError(t, err)
	_, err = recorder.LogAuthFailure(ctx, "user-2", "203.0.113.11", "curl/8.0", "bad otp")
	require.NoError(t, err)

	token := h.token(t, "consultant-1", rbac.RoleConsultant)

	rec := h.request(t, http.MethodGet, "/api/v1/soc/events?type=AUTH_FAILURE", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []core.SecurityEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 2)

	rec = h.request(t, http.MethodGet, "/api/v1/soc/events?identity=user-2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "user-2", events[0].Identity)

	// Missing and conflicting filters are rejected
	rec = h.request(t, http.MethodGet, "/api/v1/soc/events", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.request(t, http.MethodGet, "/api/v1/soc/events?type=AUTH_FAILURE&identity=user-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateEventStatus(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	recorder := soc.NewRecorder(h.eventStore, nil, h.api.logger)
	event, err := recorder.LogAuthFailure(ctx, "user-1", "203.0.113.10", "curl/8.0", "bad otp")
	require.NoError(t, err)

	token := h.token(t, "admin-1", rbac.RoleAdminStaff)

	rec := h.request(t, http.MethodPut, fmt.Sprintf("/api/v1/soc/events/%s/status", event.ID), token,
		[]byte(`{"status":"ACKNOWLEDGED"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated core.SecurityEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, core.EventStatusAcknowledged, updated.Status)

	// Unknown event
	rec = h.request(t, http.MethodPut, "/api/v1/soc/events/SOC-missing/status", token,
		[]byte(`{"status":"RESOLVED"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Lifecycle violation: resolve then try to reopen
	rec = h.request(t, http.MethodPut, fmt.Sprintf("/api/v1/soc/events/%s/status", event.ID), token,
		[]byte(`{"status":"RESOLVED"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.request(t, http.MethodPut, fmt.Sprintf("/api/v1/soc/events/%s/status", event.ID), token,
		[]byte(`{"status":"INVESTIGATING"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown status value
	rec = h.request(t, http.MethodPut, fmt.Sprintf("/api/v1/soc/events/%s/status", event.ID), token,
		[]byte(`{"status":"REOPENED"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
