package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Required columns of the Zendesk export. Names are matched exactly
// (case-sensitive) after trimming whitespace and a possible BOM.
const (
	ColTicketID    = "Zendesk Tickets ID"
	ColCommentID   = "Zendesk Comments ID"
	ColCommentBody = "Zendesk Comments Body"
	ColEntID       = "Zendesk Tickets Ent ID"
	ColSubject     = "Zendesk Tickets Subject"

	ColRootCause   = "Zendesk Tickets Root Cause"
	ColSubcategory = "Support Ticket Output Gpt Subcategory"
)

var requiredColumns = []string{ColTicketID, ColCommentID, ColCommentBody, ColEntID, ColSubject}

// ErrPayloadTooLarge is returned before any parsing when the upload
// exceeds the configured size bound.
var ErrPayloadTooLarge = errors.New("payload exceeds upload size limit")

// ValidationError reports required columns absent from the header row.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Row is one comment line of the export, in input order.
type Row struct {
	TicketID    string
	CommentID   string
	Body        string
	EntID       string
	Subject     string
	RootCause   string
	Subcategory string
}

// Parse reads the CSV export into typed rows. size is the declared
// payload size in bytes; maxBytes bounds it. Row order is preserved and
// no column is imputed beyond the declared optionals.
func Parse(r io.Reader, size int64, maxBytes int64) ([]Row, error) {
	if maxBytes > 0 && size > maxBytes {
		return nil, ErrPayloadTooLarge
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := headerIndex(headers)

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, Row{
			TicketID:    getField(rec, index, ColTicketID),
			CommentID:   getField(rec, index, ColCommentID),
			Body:        getField(rec, index, ColCommentBody),
			EntID:       getField(rec, index, ColEntID),
			Subject:     getField(rec, index, ColSubject),
			RootCause:   getField(rec, index, ColRootCause),
			Subcategory: getField(rec, index, ColSubcategory),
		})
	}
	return rows, nil
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.TrimSpace(h)
}
