package service

import (
	"strings"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

// Scoring weights. Each positive check adds checkWeight, each negative
// check subtracts negativeWeight, and the result is clamped to [0,1].
const (
	checkWeight            = 0.25
	negativeWeight         = 0.5
	compatibilityThreshold = 0.25

	// Conversations longer than this need a human to untangle them.
	longConversationLimit = 6
)

var elementPatterns = []string{
	"element", "selector", "css", "xpath", "not found",
	"cannot find", "unable to locate", "reselect",
}

var visibilityPatterns = []string{
	"not showing", "not visible", "hidden", "display",
	"visibility rule", "visibility", "not appearing",
}

var configurationPatterns = []string{
	"configuration", "settings", "rule", "condition",
}

var simpleResolutionPatterns = []string{
	"reselect", "css selector", "visibility rule",
	"element property", "configuration change",
}

var codeChangePatterns = []string{
	"custom code", "javascript", "advanced", "code change",
	"backend", "database",
}

// Score applies the deterministic diagnostics rule set to one ticket.
// No model call is involved: the same inputs always yield the same
// output.
func Score(t models.Ticket, s models.TicketSummary) models.DiagnosticsCompatibleTicket {
	issue := strings.ToLower(s.IssueSummary + " " + s.DerivedCategory)
	resolution := strings.ToLower(s.ResolutionSummary)

	checks := models.DiagnosticsCheck{
		ElementDetection:      containsAny(issue, elementPatterns),
		VisibilityRules:       containsAny(issue, visibilityPatterns),
		ConfigurationIssue:    containsAny(issue, configurationPatterns),
		SimpleCSSFix:          containsAny(resolution, simpleResolutionPatterns),
		RequiresCodeChange:    containsAny(issue, codeChangePatterns) || containsAny(resolution, codeChangePatterns),
		RequiresHumanAnalysis: s.CommentCount > longConversationLimit,
	}

	score := 0.0
	for _, positive := range []bool{checks.ElementDetection, checks.VisibilityRules, checks.SimpleCSSFix, checks.ConfigurationIssue} {
		if positive {
			score += checkWeight
		}
	}
	for _, negative := range []bool{checks.RequiresCodeChange, checks.RequiresHumanAnalysis} {
		if negative {
			score -= negativeWeight
		}
	}
	score = clamp01(score)

	compatible := score > compatibilityThreshold &&
		!checks.RequiresCodeChange && !checks.RequiresHumanAnalysis

	email := s.AuthorEmail
	if email == "" {
		email = t.AuthorEmail
	}

	return models.DiagnosticsCompatibleTicket{
		TicketID:           s.TicketID,
		IsCompatible:       compatible,
		CompatibilityScore: score,
		Checks:             checks,
		Recommendation:     recommendFor(checks, compatible),
		AuthorEmail:        email,
	}
}

// recommendFor picks one templated recommendation. Negative checks win
// outright; among positives the most specific rule that fired wins.
func recommendFor(checks models.DiagnosticsCheck, compatible bool) string {
	switch {
	case checks.RequiresCodeChange:
		return "Requires a code change; route to engineering support"
	case checks.RequiresHumanAnalysis:
		return "Long conversation; requires human support analysis"
	case !compatible:
		return "Requires human support"
	case checks.SimpleCSSFix:
		return "Guided CSS selector fix available in diagnostics"
	case checks.VisibilityRules:
		return "Diagnostics visibility checks can self-resolve this issue"
	case checks.ElementDetection:
		return "Diagnostics element re-detection can self-resolve this issue"
	case checks.ConfigurationIssue:
		return "Diagnostics configuration walkthrough recommended"
	default:
		return "Can be automated with diagnostics"
	}
}

func containsAny(haystack string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
