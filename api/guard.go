package api

import (
	"net/http"
	"time"

	"aegis/metrics"
	"aegis/rbac"
)

// RequirePermissions wraps a handler so only principals holding at least one
// of the named permissions pass. Unauthenticated requests get 401 without a
// security event; authenticated-but-denied requests are recorded as an
// RBAC_VIOLATION and get 403. An empty permission list only requires
// authentication.
func (a *API) RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				metrics.AccessDenials.WithLabelValues("unauthenticated").Inc()
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"error":     "ACCESS_DENIED",
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				}, a.logger)
				return
			}

			if rbac.HasAny(principal.Permissions, permissions) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.AccessDenials.WithLabelValues("insufficient_permissions").Inc()
			a.logger.Warnw("Access denied",
				"identity", principal.Identity,
				"role", principal.Role,
				"required_permissions", permissions,
				"path", r.URL.Path)

			// Recording failure must not mask the denial response.
			if a.recorder != nil {
				if _, err := a.recorder.LogRBACViolation(r.Context(), principal.Identity, principal.Role,
					permissions, getRealIP(r), r.UserAgent()); err != nil {
					a.logger.Errorf("Failed to record access violation: %v", err)
				}
			}

			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error":               "RBAC_VIOLATION",
				"requiredPermissions": permissions,
				"userRole":            principal.Role,
				"timestamp":           time.Now().UTC().Format(time.RFC3339),
			}, a.logger)
		})
	}
}
