package core

// Principal is the authenticated actor consumed by the access guard.
//
// Granted permissions are denormalized from the role at assertion time, so
// role edits after session creation never change an in-flight session's
// authority. Principals are produced by the identity/session boundary, not
// by this core.
type Principal struct {
	// Identity is the national-ID token of the authenticated user.
	// Guaranteed non-empty by the identity collaborator.
	Identity string `json:"identity"`

	// Role is the assigned role identifier. A role that does not resolve
	// in the catalog yields zero granted permissions, not an error.
	Role string `json:"role"`

	// Permissions is the resolved set of granted permission identifiers.
	Permissions []string `json:"permissions"`
}
