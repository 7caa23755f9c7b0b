package rbac

// HasPermission reports whether the required permission is in the granted
// set. A pure membership test; no side effects.
func HasPermission(granted []string, required string) bool {
	for _, p := range granted {
		if p == required {
			return true
		}
	}
	return false
}

// HasAny reports whether the granted set intersects the required set.
//
// An empty required set returns true for any granted set: an endpoint with
// no declared requirement is open to any authenticated principal. Callers
// must not rely on this for truly public endpoints; that distinction
// belongs to the access guard.
func HasAny(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, p := range required {
		if HasPermission(granted, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every required permission is in the granted set.
func HasAll(granted []string, required []string) bool {
	for _, p := range required {
		if !HasPermission(granted, p) {
			return false
		}
	}
	return true
}
