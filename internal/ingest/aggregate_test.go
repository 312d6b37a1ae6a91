package ingest

import (
	"reflect"
	"testing"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

func sampleRows() []Row {
	return []Row{
		{TicketID: "T1", CommentID: "C1", Body: "Hi, I added a smart tip but it is not showing. Please help. Email: jane@corp.example", EntID: "E1", Subject: "Smart tip missing"},
		{TicketID: "T2", CommentID: "C2", Body: "The launcher is broken", EntID: "E2", Subject: "Launcher broken", RootCause: "Config", Subcategory: "Configuration"},
		{TicketID: "T1", CommentID: "C3", Body: "Thank you for reaching out. I've checked the element and fixed it. Regards, Sam", EntID: "E1", Subject: "Smart tip missing"},
	}
}

func TestAggregateGroupsByTicket(t *testing.T) {
	tickets := Aggregate(sampleRows())

	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}
	if tickets[0].TicketID != "T1" || tickets[1].TicketID != "T2" {
		t.Fatalf("tickets not in first-seen order: %s, %s", tickets[0].TicketID, tickets[1].TicketID)
	}
	if len(tickets[0].Comments) != 2 {
		t.Errorf("T1 should hold 2 comments, got %d", len(tickets[0].Comments))
	}
	if len(tickets[1].Comments) != 1 {
		t.Errorf("T2 should hold 1 comment, got %d", len(tickets[1].Comments))
	}

	// Every input row becomes exactly one comment.
	total := 0
	for _, tk := range tickets {
		total += len(tk.Comments)
	}
	if total != 3 {
		t.Errorf("comment total %d does not match 3 input rows", total)
	}

	if tickets[0].Comments[0].CommentID != "C1" || tickets[0].Comments[1].CommentID != "C3" {
		t.Errorf("comment order not preserved: %+v", tickets[0].Comments)
	}
	if tickets[1].OriginalCategory != "Configuration" || tickets[1].OriginalRootCause != "Config" {
		t.Errorf("optional ticket fields lost: %+v", tickets[1])
	}
}

func TestAggregateDeterministic(t *testing.T) {
	a := Aggregate(sampleRows())
	b := Aggregate(sampleRows())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same rows produced different tickets:\n%+v\n%+v", a, b)
	}
}

func TestAggregateExtractsAuthorEmail(t *testing.T) {
	rows := []Row{
		{TicketID: "T1", CommentID: "C1", Body: "No email here"},
		{TicketID: "T1", CommentID: "C2", Body: "Email: first@corp.example\nsome text"},
		{TicketID: "T1", CommentID: "C3", Body: "Email: second@corp.example\nmore text"},
	}
	tickets := Aggregate(rows)
	if tickets[0].AuthorEmail != "first@corp.example" {
		t.Fatalf("expected first matched email to win, got %q", tickets[0].AuthorEmail)
	}
}

func TestCleanCommentBody(t *testing.T) {
	raw := "Message sent: via chat\n\nEmail: jane@corp.example\nHi, the ![screenshot](http://img.example/a.png) shows the [docs page](http://docs.example) is  broken"
	got := CleanCommentBody(raw)
	want := "Hi, the [Image] shows the docs page is broken"
	if got != want {
		t.Fatalf("CleanCommentBody = %q, want %q", got, want)
	}
}

func TestInferAuthorRole(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"Thank you for reaching out! I've checked the selector. Regards, Sam", models.RoleAgent},
		{"I cannot see the flow, please help", models.RoleCustomer},
		{"The widget renders twice on the dashboard", models.RoleUnknown},
		// One indicator each side is a tie.
		{"Thank you for reaching out, but I cannot reproduce it", models.RoleUnknown},
	}
	for _, tc := range cases {
		if got := InferAuthorRole(tc.body); got != tc.want {
			t.Errorf("InferAuthorRole(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
