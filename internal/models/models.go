package models

import "time"

// Author roles inferred for ticket comments.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleUnknown  = "unknown"
)

type Comment struct {
	TicketID   string     `json:"ticket_id"`
	CommentID  string     `json:"comment_id"`
	Body       string     `json:"body"`
	AuthorRole string     `json:"author_role"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// Ticket is one support case: an ordered conversation grouped from CSV rows.
// Comments keep input row order, which stands in for chronology.
type Ticket struct {
	TicketID          string    `json:"ticket_id"`
	EntID             string    `json:"ent_id"`
	Subject           string    `json:"subject"`
	OriginalCategory  string    `json:"original_category"`
	OriginalRootCause string    `json:"original_root_cause"`
	Comments          []Comment `json:"comments"`
	AuthorEmail       string    `json:"author_email"`
}

type ConversationMetadata struct {
	TotalExchanges   int `json:"total_exchanges"`
	CustomerMessages int `json:"customer_messages"`
	AgentMessages    int `json:"agent_messages"`
}

type TicketSummary struct {
	TicketID          string               `json:"ticket_id"`
	EntID             string               `json:"ent_id"`
	Subject           string               `json:"subject"`
	IssueSummary      string               `json:"issue_summary"`
	ResolutionSummary string               `json:"resolution_summary"`
	DerivedCategory   string               `json:"derived_category"`
	ResolutionType    string               `json:"resolution_type"`
	OriginalCategory  string               `json:"original_category"`
	OriginalRootCause string               `json:"original_root_cause"`
	CommentCount      int                  `json:"comment_count"`
	Conversation      ConversationMetadata `json:"conversation_metadata"`
	AuthorEmail       string               `json:"author_email"`
	SummaryError      string               `json:"summary_error,omitempty"`
}

// DiagnosticsCheck holds the six independent rule outcomes.
type DiagnosticsCheck struct {
	ElementDetection      bool `json:"element_detection"`
	VisibilityRules       bool `json:"visibility_rules"`
	SimpleCSSFix          bool `json:"simple_css_fix"`
	ConfigurationIssue    bool `json:"configuration_issue"`
	RequiresCodeChange    bool `json:"requires_code_change"`
	RequiresHumanAnalysis bool `json:"requires_human_analysis"`
}

type DiagnosticsCompatibleTicket struct {
	TicketID           string           `json:"ticket_id"`
	IsCompatible       bool             `json:"is_diagnostics_compatible"`
	CompatibilityScore float64          `json:"compatibility_score"`
	Checks             DiagnosticsCheck `json:"checks"`
	Recommendation     string           `json:"recommendation"`
	AuthorEmail        string           `json:"author_email"`
}

// CategoryCount keeps distribution entries in presentation order
// (count descending, first-seen tie-break).
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ComplexIssue struct {
	TicketID     string `json:"ticket_id"`
	Issue        string `json:"issue"`
	CommentCount int    `json:"comment_count"`
}

type Recommendation struct {
	Type           string `json:"type"`
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

type AuthorOutreach struct {
	TicketID            string `json:"ticket_id"`
	AuthorEmail         string `json:"author_email"`
	IssueSummary        string `json:"issue_summary"`
	ResolutionSummary   string `json:"resolution_summary"`
	DerivedCategory     string `json:"derived_category"`
	ResolutionType      string `json:"resolution_type"`
	CouldUseDiagnostics bool   `json:"could_use_diagnostics"`
}

type DiagnosticsSummary struct {
	TotalTickets         int    `json:"total_tickets"`
	CompatibleCount      int    `json:"diagnostics_compatible_count"`
	CompatiblePercentage string `json:"diagnostics_compatible_percentage"`
	ComplexIssuesCount   int    `json:"complex_issues_count"`
}

type DiagnosticsAnalysis struct {
	Summary                    DiagnosticsSummary            `json:"summary"`
	CategoryDistribution       []CategoryCount               `json:"category_distribution"`
	ResolutionTypeDistribution []CategoryCount               `json:"resolution_type_distribution"`
	CompatibleTickets          []DiagnosticsCompatibleTicket `json:"diagnostics_compatible_tickets"`
	ComplexIssues              []ComplexIssue                `json:"complex_issues"`
	Recommendations            []Recommendation              `json:"recommendations"`
}

type AnalysisMetadata struct {
	AnalyzedAt    time.Time `json:"analyzed_at"`
	LLMProvider   string    `json:"llm_provider"`
	TotalRawRows  int       `json:"total_raw_rows"`
	UniqueTickets int       `json:"unique_tickets"`
}

// AnalysisResults is the aggregate envelope returned to pollers of a
// completed job. Results are regenerated on every run, never persisted.
type AnalysisResults struct {
	Metadata        AnalysisMetadata    `json:"metadata"`
	TicketSummaries []TicketSummary     `json:"ticket_summaries"`
	Diagnostics     DiagnosticsAnalysis `json:"diagnostics_analysis"`
	OutreachList    []AuthorOutreach    `json:"author_outreach_list"`
}

// Job statuses. Both completed and error are terminal; the only way out
// of a terminal state is explicit cleanup.
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

type AnalysisJob struct {
	JobID              string           `json:"job_id"`
	Status             string           `json:"status"`
	CurrentTicket      int              `json:"current_ticket"`
	TotalTickets       int              `json:"total_tickets"`
	ProgressPercentage float64          `json:"progress_percentage"`
	Error              string           `json:"error,omitempty"`
	Results            *AnalysisResults `json:"results,omitempty"`
}
