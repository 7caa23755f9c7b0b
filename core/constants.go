package core

import "time"

// Risk score bounds for suspicious activity events. Scores outside this
// range are rejected at the boundary before reaching the recorder.
const (
	MinRiskScore = 0
	MaxRiskScore = 100
)

// Risk score thresholds for severity classification. A risk-scored event's
// severity is always derived from the score, overriding any caller hint.
const (
	RiskScoreCritical = 80
	RiskScoreHigh     = 60
)

// SeverityForRiskScore derives event severity from a numeric risk score.
// The LOW severity is never produced by this path; it is reserved for
// manually classified events.
func SeverityForRiskScore(score int) Severity {
	switch {
	case score >= RiskScoreCritical:
		return SeverityCritical
	case score >= RiskScoreHigh:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// HTTPClientTimeout bounds outbound calls to the detection-and-response
// service so a slow external endpoint cannot stall a recording request.
const HTTPClientTimeout = 10 * time.Second

// Source component tags attached to recorded events
const (
	SourceSSOGateway     = "NAFATH_SSO"
	SourceRBACGuard      = "RBAC_GUARD"
	SourceUBAEngine      = "UBA_ENGINE"
	SourceSessionMonitor = "SESSION_MONITOR"
)
