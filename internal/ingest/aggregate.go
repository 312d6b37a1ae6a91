package ingest

import (
	"regexp"
	"strings"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

var (
	metadataLineRe = regexp.MustCompile(`(Email|Phone|IP|User Agent|Country|City|URL|Chat ID):\s*[^\n]+\n?`)
	messageSentRe  = regexp.MustCompile(`(?s)Message sent:.*?(\n\n|\z)`)
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^\)]*\)`)
	mdLinkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	emailRe        = regexp.MustCompile(`Email:\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
)

// Phrase lists used by the author-role heuristic. This is a policy
// decision, not a correctness guarantee: a tie scores as unknown.
var agentIndicators = []string{
	"thank you for reaching out",
	"whatfix support team",
	"regards,",
	"i've reselected",
	"i've checked",
	"please check on your end",
	"i'll close this thread",
	"happy to assist",
}

var customerIndicators = []string{
	"hi, i added",
	"i cannot",
	"please help",
	"any help would be",
	"i'm trying to",
	"thanks for your help",
}

// Aggregate groups rows into tickets keyed by ticket id. Tickets come
// back in first-seen order and comments keep input row order, so
// identical input always yields identical output. Every row becomes
// exactly one comment: cleaning normalizes text but never drops a row.
func Aggregate(rows []Row) []models.Ticket {
	byID := map[string]int{}
	var tickets []models.Ticket

	for _, row := range rows {
		idx, ok := byID[row.TicketID]
		if !ok {
			idx = len(tickets)
			byID[row.TicketID] = idx
			tickets = append(tickets, models.Ticket{
				TicketID:          row.TicketID,
				EntID:             row.EntID,
				Subject:           row.Subject,
				OriginalCategory:  row.Subcategory,
				OriginalRootCause: row.RootCause,
			})
		}

		t := &tickets[idx]
		if t.AuthorEmail == "" {
			if m := emailRe.FindStringSubmatch(row.Body); m != nil {
				t.AuthorEmail = m[1]
			}
		}

		body := CleanCommentBody(row.Body)
		t.Comments = append(t.Comments, models.Comment{
			TicketID:   row.TicketID,
			CommentID:  row.CommentID,
			Body:       body,
			AuthorRole: InferAuthorRole(body),
		})
	}
	return tickets
}

// CleanCommentBody strips metadata blocks, markdown noise, and excess
// whitespace from a raw Zendesk comment body.
func CleanCommentBody(body string) string {
	body = messageSentRe.ReplaceAllString(body, "")
	body = metadataLineRe.ReplaceAllString(body, "")
	body = imageRe.ReplaceAllString(body, "[Image]")
	body = mdLinkRe.ReplaceAllString(body, "$1")
	body = whitespaceRe.ReplaceAllString(body, " ")
	return strings.TrimSpace(body)
}

// InferAuthorRole scores agent and customer indicator phrases against
// the comment body. A tie, including the zero/zero case, is unknown.
func InferAuthorRole(body string) string {
	lower := strings.ToLower(body)

	agentScore := 0
	for _, phrase := range agentIndicators {
		if strings.Contains(lower, phrase) {
			agentScore++
		}
	}
	customerScore := 0
	for _, phrase := range customerIndicators {
		if strings.Contains(lower, phrase) {
			customerScore++
		}
	}

	switch {
	case agentScore > customerScore:
		return models.RoleAgent
	case customerScore > agentScore:
		return models.RoleCustomer
	default:
		return models.RoleUnknown
	}
}
