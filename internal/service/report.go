package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

const complexIssuesCap = 10

// Compile folds per-ticket summaries and scores into the aggregate
// report. Pure aggregation, no model calls.
func Compile(meta models.AnalysisMetadata, summaries []models.TicketSummary, scored []models.DiagnosticsCompatibleTicket, complexThreshold int) models.AnalysisResults {
	categories := newDistribution()
	resolutionTypes := newDistribution()
	var compatible []models.DiagnosticsCompatibleTicket
	var complexIssues []models.ComplexIssue

	scoredByID := map[string]models.DiagnosticsCompatibleTicket{}
	for _, sc := range scored {
		scoredByID[sc.TicketID] = sc
		if sc.IsCompatible {
			compatible = append(compatible, sc)
		}
	}

	for _, s := range summaries {
		categories.add(s.DerivedCategory)
		resolutionTypes.add(s.ResolutionType)

		sc := scoredByID[s.TicketID]
		if sc.Checks.RequiresHumanAnalysis || s.CommentCount > complexThreshold {
			complexIssues = append(complexIssues, models.ComplexIssue{
				TicketID:     s.TicketID,
				Issue:        s.IssueSummary,
				CommentCount: s.CommentCount,
			})
		}
	}

	sort.SliceStable(complexIssues, func(i, j int) bool {
		return complexIssues[i].CommentCount > complexIssues[j].CommentCount
	})
	if len(complexIssues) > complexIssuesCap {
		complexIssues = complexIssues[:complexIssuesCap]
	}

	total := len(summaries)
	percentage := 0.0
	formatted := "0%"
	if total > 0 {
		percentage = float64(len(compatible)) / float64(total) * 100
		formatted = fmt.Sprintf("%.1f%%", percentage)
	}

	analysis := models.DiagnosticsAnalysis{
		Summary: models.DiagnosticsSummary{
			TotalTickets:         total,
			CompatibleCount:      len(compatible),
			CompatiblePercentage: formatted,
			ComplexIssuesCount:   len(complexIssues),
		},
		CategoryDistribution:       categories.sorted(),
		ResolutionTypeDistribution: resolutionTypes.sorted(),
		CompatibleTickets:          compatible,
		ComplexIssues:              complexIssues,
		Recommendations:            buildRecommendations(categories, compatible, percentage, total),
	}

	return models.AnalysisResults{
		Metadata:        meta,
		TicketSummaries: summaries,
		Diagnostics:     analysis,
		OutreachList:    compileOutreach(summaries, compatible),
	}
}

// buildRecommendations synthesizes rollout guidance from the aggregate
// distributions. Every reason cites the statistic it rests on.
func buildRecommendations(categories *distribution, compatible []models.DiagnosticsCompatibleTicket, percentage float64, total int) []models.Recommendation {
	var recs []models.Recommendation

	top := categories.sorted()
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) > 0 {
		names := make([]string, 0, len(top))
		covered := 0
		for _, c := range top {
			names = append(names, c.Name)
			covered += c.Count
		}
		recs = append(recs, models.Recommendation{
			Type:           "Focus Area",
			Recommendation: fmt.Sprintf("Prioritize diagnostics for: %s", strings.Join(names, ", ")),
			Reason:         fmt.Sprintf("These categories account for %d of %d tickets", covered, total),
		})
	}

	if percentage > 50 {
		recs = append(recs, models.Recommendation{
			Type:           "High Impact",
			Recommendation: "Diagnostics could potentially resolve the majority of tickets automatically",
			Reason:         fmt.Sprintf("%.1f%% of tickets match diagnostics patterns", percentage),
		})
	}

	patterns := newDistribution()
	for _, sc := range compatible {
		if sc.Checks.ElementDetection {
			patterns.add("element detection")
		}
		if sc.Checks.VisibilityRules {
			patterns.add("visibility rules")
		}
		if sc.Checks.SimpleCSSFix {
			patterns.add("simple css fix")
		}
		if sc.Checks.ConfigurationIssue {
			patterns.add("configuration issue")
		}
	}
	fired := patterns.sorted()
	if len(fired) > 3 {
		fired = fired[:3]
	}
	for _, p := range fired {
		recs = append(recs, models.Recommendation{
			Type:           "Feature Enhancement",
			Recommendation: fmt.Sprintf("Enhance diagnostics for '%s' issues", p.Name),
			Reason:         fmt.Sprintf("Appears in %d compatible tickets", p.Count),
		})
	}

	return recs
}

// compileOutreach lists authors of compatible tickets, de-duplicated by
// email so each contact is reached once. First compatible ticket wins.
func compileOutreach(summaries []models.TicketSummary, compatible []models.DiagnosticsCompatibleTicket) []models.AuthorOutreach {
	compatibleIDs := map[string]struct{}{}
	for _, sc := range compatible {
		compatibleIDs[sc.TicketID] = struct{}{}
	}

	seen := map[string]struct{}{}
	var out []models.AuthorOutreach
	for _, s := range summaries {
		if _, ok := compatibleIDs[s.TicketID]; !ok {
			continue
		}
		if s.AuthorEmail == "" {
			continue
		}
		if _, dup := seen[s.AuthorEmail]; dup {
			continue
		}
		seen[s.AuthorEmail] = struct{}{}
		out = append(out, models.AuthorOutreach{
			TicketID:            s.TicketID,
			AuthorEmail:         s.AuthorEmail,
			IssueSummary:        s.IssueSummary,
			ResolutionSummary:   s.ResolutionSummary,
			DerivedCategory:     s.DerivedCategory,
			ResolutionType:      s.ResolutionType,
			CouldUseDiagnostics: true,
		})
	}
	return out
}

// distribution is a counter that remembers first-seen insertion order
// so equal counts sort deterministically.
type distribution struct {
	order  []string
	counts map[string]int
}

func newDistribution() *distribution {
	return &distribution{counts: map[string]int{}}
}

func (d *distribution) add(name string) {
	if name == "" {
		name = "Unknown"
	}
	if _, ok := d.counts[name]; !ok {
		d.order = append(d.order, name)
	}
	d.counts[name]++
}

func (d *distribution) sorted() []models.CategoryCount {
	out := make([]models.CategoryCount, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, models.CategoryCount{Name: name, Count: d.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
