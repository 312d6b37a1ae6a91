package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/whatfix/ticket-analyzer/backend/internal/ai"
	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

const summarizePrompt = `You are analyzing a support ticket conversation between a customer and support agent.

Please analyze the conversation and respond with ONLY a JSON object of the following structure, without any markdown fences:
{
    "issue": "Precise description of the customer's problem",
    "resolution": "Exact steps taken by support to resolve the issue",
    "category": "Primary category of the issue (e.g., Element Selection, Content Visibility, Configuration, CSS Selector, Performance, etc.)",
    "resolution_type": "Type of resolution (e.g., Reselection, CSS Addition, Configuration Change, Bug Fix, User Education, etc.)"
}

Focus on:
1. What exactly wasn't working from the customer's perspective
2. What specific technical actions the support agent took
3. Whether the issue was truly resolved
4. The root technical cause (not just symptoms)`

type modelOutput struct {
	Issue          string `json:"issue"`
	Resolution     string `json:"resolution"`
	Category       string `json:"category"`
	ResolutionType string `json:"resolution_type"`
}

// Summarize runs the language model over one ticket conversation. It
// never fails the job: malformed model output or a provider error
// degrades to a placeholder summary with the error recorded, and the
// pipeline moves on to the next ticket.
func Summarize(ctx context.Context, provider ai.Provider, t models.Ticket) models.TicketSummary {
	summary := baseSummary(t)

	raw, err := provider.Complete(ctx, BuildPrompt(t))
	if err != nil {
		return placeholderSummary(summary, fmt.Sprintf("provider error: %v", err))
	}

	out, err := parseModelOutput(raw)
	if err != nil {
		return placeholderSummary(summary, err.Error())
	}

	summary.IssueSummary = out.Issue
	summary.ResolutionSummary = out.Resolution
	summary.DerivedCategory = out.Category
	summary.ResolutionType = out.ResolutionType
	if summary.DerivedCategory == "" {
		summary.DerivedCategory = "Unknown"
	}
	if summary.ResolutionType == "" {
		summary.ResolutionType = "Unknown"
	}
	return summary
}

// BuildPrompt renders the full ordered conversation plus the optional
// original category and root cause into one completion prompt.
func BuildPrompt(t models.Ticket) string {
	var b strings.Builder
	b.WriteString(summarizePrompt)
	b.WriteString("\n\nSubject: ")
	b.WriteString(t.Subject)
	if t.OriginalCategory != "" {
		b.WriteString("\nOriginal category: ")
		b.WriteString(t.OriginalCategory)
	}
	if t.OriginalRootCause != "" {
		b.WriteString("\nOriginal root cause: ")
		b.WriteString(t.OriginalRootCause)
	}
	b.WriteString("\n\nConversation:\n")
	for i, c := range t.Comments {
		fmt.Fprintf(&b, "\nComment %d (%s): %s\n", i+1, c.AuthorRole, c.Body)
	}
	return b.String()
}

func baseSummary(t models.Ticket) models.TicketSummary {
	meta := models.ConversationMetadata{}
	for _, c := range t.Comments {
		switch c.AuthorRole {
		case models.RoleCustomer:
			meta.CustomerMessages++
		case models.RoleAgent:
			meta.AgentMessages++
		}
	}
	meta.TotalExchanges = meta.CustomerMessages + meta.AgentMessages

	return models.TicketSummary{
		TicketID:          t.TicketID,
		EntID:             t.EntID,
		Subject:           t.Subject,
		OriginalCategory:  t.OriginalCategory,
		OriginalRootCause: t.OriginalRootCause,
		CommentCount:      len(t.Comments),
		Conversation:      meta,
		AuthorEmail:       t.AuthorEmail,
	}
}

func placeholderSummary(s models.TicketSummary, reason string) models.TicketSummary {
	s.IssueSummary = "Summary unavailable"
	s.ResolutionSummary = "Summary unavailable"
	s.DerivedCategory = "Unknown"
	s.ResolutionType = "Unknown"
	s.SummaryError = reason
	return s
}

func parseModelOutput(raw string) (modelOutput, error) {
	var out modelOutput
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return modelOutput{}, fmt.Errorf("malformed model output: %v", err)
	}
	if out.Issue == "" || out.Resolution == "" {
		return modelOutput{}, fmt.Errorf("malformed model output: missing issue or resolution")
	}
	return out, nil
}

// Models wrap JSON in markdown fences despite instructions; tolerate it.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
