// Package rbac provides the role/permission catalog and the authorization
// evaluator for the aegis access-control layer.
//
// The catalog is a static registry built once at process start; roles and
// permissions are immutable afterwards, so all reads are lock-free.
// Evaluation functions are pure and raise no errors.
package rbac

import "time"

// PermissionAction is the action kind a permission grants on its module
type PermissionAction string

const (
	ActionView   PermissionAction = "view"
	ActionCreate PermissionAction = "create"
	ActionUpdate PermissionAction = "update"
	ActionDelete PermissionAction = "delete"
	ActionManage PermissionAction = "manage"
)

// Permission is an atomic, named capability token (e.g. "documents.view")
type Permission struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Module string           `json:"module"`
	Action PermissionAction `json:"action"`
}

// Role is a named bundle of permissions assignable to identities.
// Level is the hierarchy level (higher = more privileged); it is
// informational only and not used for inheritance.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	Permissions []string `json:"permissions"`
}

// Permission identifiers
const (
	PermPassportView      = "passport.view"
	PermPassportRenew     = "passport.renew"
	PermPassportApply     = "passport.apply"
	PermConsularAccess    = "consular.access"
	PermConsularSubmit    = "consular.submit"
	PermTravelManage      = "travel.manage"
	PermTravelView        = "travel.view"
	PermTravelRequest     = "travel.request"
	PermDocumentsView     = "documents.view"
	PermDocumentsUpload   = "documents.upload"
	PermDocumentsDownload = "documents.download"
	PermEmbassyComm       = "embassy.communicate"
	PermVisaView          = "visa.view"
	PermVisaProcess       = "visa.process"
	PermReportsView       = "reports.view"
	PermReportsGenerate   = "reports.generate"
	PermUsersView         = "users.view"
)

// Role identifiers
const (
	RoleDiplomat   = "diplomat"
	RoleAdminStaff = "admin_staff"
	RoleConsultant = "consultant"
)

// defaultRoles returns the fixed role definitions
func defaultRoles() []Role {
	return []Role{
		{
			ID:          RoleDiplomat,
			Name:        "Diplomat",
			Description: "Full access to diplomatic services and consular affairs",
			Level:       3,
			Permissions: []string{
				PermPassportView, PermPassportRenew, PermPassportApply,
				PermConsularAccess, PermConsularSubmit,
				PermTravelManage, PermTravelRequest,
				PermDocumentsView, PermDocumentsUpload, PermDocumentsDownload,
				PermEmbassyComm,
				PermVisaView, PermVisaProcess,
			},
		},
		{
			ID:          RoleAdminStaff,
			Name:        "Admin Staff",
			Description: "Administrative access to internal systems",
			Level:       2,
			Permissions: []string{
				PermDocumentsView, PermDocumentsUpload,
				PermTravelView,
				PermReportsView, PermReportsGenerate,
				PermUsersView,
			},
		},
		{
			ID:          RoleConsultant,
			Name:        "Consultant",
			Description: "Limited view-only access",
			Level:       1,
			Permissions: []string{
				PermDocumentsView,
				PermReportsView,
			},
		},
	}
}

// defaultPermissions returns the fixed permission definitions
func defaultPermissions() []Permission {
	return []Permission{
		{ID: PermPassportView, Name: "View Passport", Module: "passport", Action: ActionView},
		{ID: PermPassportRenew, Name: "Renew Passport", Module: "passport", Action: ActionUpdate},
		{ID: PermPassportApply, Name: "Apply Passport", Module: "passport", Action: ActionCreate},
		{ID: PermConsularAccess, Name: "Consular Access", Module: "consular", Action: ActionView},
		{ID: PermConsularSubmit, Name: "Submit Consular Request", Module: "consular", Action: ActionCreate},
		{ID: PermTravelManage, Name: "Manage Travel", Module: "travel", Action: ActionManage},
		{ID: PermTravelView, Name: "View Travel", Module: "travel", Action: ActionView},
		{ID: PermTravelRequest, Name: "Request Travel", Module: "travel", Action: ActionCreate},
		{ID: PermDocumentsView, Name: "View Documents", Module: "documents", Action: ActionView},
		{ID: PermDocumentsUpload, Name: "Upload Documents", Module: "documents", Action: ActionCreate},
		{ID: PermDocumentsDownload, Name: "Download Documents", Module: "documents", Action: ActionView},
		{ID: PermEmbassyComm, Name: "Embassy Communication", Module: "embassy", Action: ActionManage},
		{ID: PermVisaView, Name: "View Visa", Module: "visa", Action: ActionView},
		{ID: PermVisaProcess, Name: "Process Visa", Module: "visa", Action: ActionUpdate},
		{ID: PermReportsView, Name: "View Reports", Module: "reports", Action: ActionView},
		{ID: PermReportsGenerate, Name: "Generate Reports", Module: "reports", Action: ActionCreate},
		{ID: PermUsersView, Name: "View Users", Module: "users", Action: ActionView},
	}
}

// Catalog is the read-only registry of roles and permissions.
// Construct with NewCatalog; safe for concurrent use without locks.
type Catalog struct {
	roles       []Role
	permissions []Permission
	rolesByID   map[string]*Role
}

// NewCatalog builds the catalog from the fixed registry.
func NewCatalog() *Catalog {
	c := &Catalog{
		roles:       defaultRoles(),
		permissions: defaultPermissions(),
		rolesByID:   make(map[string]*Role),
	}
	for i := range c.roles {
		c.rolesByID[c.roles[i].ID] = &c.roles[i]
	}
	return c
}

// Roles returns all roles
func (c *Catalog) Roles() []Role {
	out := make([]Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// RoleByID looks up a role by identifier. An unknown role is a normal
// non-exceptional result, reported through the second return value.
func (c *Catalog) RoleByID(id string) (Role, bool) {
	role, ok := c.rolesByID[id]
	if !ok {
		return Role{}, false
	}
	return *role, true
}

// Permissions returns all permission definitions
func (c *Catalog) Permissions() []Permission {
	out := make([]Permission, len(c.permissions))
	copy(out, c.permissions)
	return out
}

// PermissionsOf returns the permission identifiers granted to a role.
// Unknown roles yield an empty set, not an error.
func (c *Catalog) PermissionsOf(roleID string) []string {
	role, ok := c.rolesByID[roleID]
	if !ok {
		return []string{}
	}
	out := make([]string, len(role.Permissions))
	copy(out, role.Permissions)
	return out
}

// PermissionMatrix is the admin-panel view of the full catalog
type PermissionMatrix struct {
	Roles       []Role              `json:"roles"`
	Permissions []Permission        `json:"permissions"`
	Matrix      map[string][]string `json:"matrix"`
}

// Matrix returns the full role-to-permission matrix for the admin panel.
func (c *Catalog) Matrix() PermissionMatrix {
	matrix := make(map[string][]string, len(c.roles))
	for _, role := range c.roles {
		matrix[role.ID] = c.PermissionsOf(role.ID)
	}
	return PermissionMatrix{
		Roles:       c.Roles(),
		Permissions: c.Permissions(),
		Matrix:      matrix,
	}
}

// RoleAssignment is an append-only identity-to-role binding record
type RoleAssignment struct {
	ID         string     `json:"id"`
	Identity   string     `json:"identity"`
	RoleID     string     `json:"role_id"`
	AssignedBy string     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
