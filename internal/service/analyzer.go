package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/whatfix/ticket-analyzer/backend/internal/ai"
	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

// Analyzer drives the per-ticket pipeline: summarize, score, then
// compile the aggregate report. One instance serves one job; it holds
// no state across runs.
type Analyzer struct {
	Provider                ai.Provider
	Logger                  zerolog.Logger
	ComplexCommentThreshold int
}

// Run processes the aggregated tickets sequentially, reporting progress
// after each ticket. Summarization failures degrade single tickets;
// only context cancellation aborts the run.
func (a *Analyzer) Run(ctx context.Context, totalRawRows int, tickets []models.Ticket, progress func(current, total int)) (models.AnalysisResults, error) {
	total := len(tickets)
	summaries := make([]models.TicketSummary, 0, total)
	scored := make([]models.DiagnosticsCompatibleTicket, 0, total)

	for i, t := range tickets {
		if err := ctx.Err(); err != nil {
			return models.AnalysisResults{}, err
		}

		summary := Summarize(ctx, a.Provider, t)
		if summary.SummaryError != "" {
			a.Logger.Warn().
				Str("ticket_id", t.TicketID).
				Str("reason", summary.SummaryError).
				Msg("ticket summary degraded")
		}
		summaries = append(summaries, summary)
		scored = append(scored, Score(t, summary))

		if progress != nil {
			progress(i+1, total)
		}
	}

	meta := models.AnalysisMetadata{
		AnalyzedAt:    time.Now().UTC(),
		LLMProvider:   a.Provider.Name(),
		TotalRawRows:  totalRawRows,
		UniqueTickets: total,
	}
	return Compile(meta, summaries, scored, a.ComplexCommentThreshold), nil
}
