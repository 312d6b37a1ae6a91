package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/whatfix/ticket-analyzer/backend/internal/config"
	"github.com/whatfix/ticket-analyzer/backend/internal/jobs"
	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

const sampleCSV = `Zendesk Tickets ID,Zendesk Comments ID,Zendesk Comments Body,Zendesk Tickets Ent ID,Zendesk Tickets Subject
T1,C1,"Hi, I added a smart tip but it is hidden on the page. Please help. Email: jane@corp.example",E1,Smart tip not visible
T1,C2,"Thank you for reaching out. I've checked the visibility rule and fixed it. Regards, Sam",E1,Smart tip not visible
T2,C3,"I cannot launch the flow, any help would be appreciated",E2,Flow fails to start
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracker := jobs.New(time.Hour, zerolog.Nop())
	t.Cleanup(tracker.Close)

	h := &Handler{
		Tracker: tracker,
		Cfg: config.Config{
			MaxUploadSizeMB:         1,
			DefaultLLMProvider:      "mock",
			ComplexCommentThreshold: 5,
		},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/health", h.Health)
	r.POST("/api/analyze", h.Analyze)
	r.GET("/api/progress/:id", h.Progress)
	r.DELETE("/api/analysis/:id", h.CleanupAnalysis)
	r.GET("/api/analysis/:id/outreach.csv", h.OutreachCSV)
	r.GET("/api/runs/latest", h.RunsLatest)
	r.POST("/api/debug/score", h.DebugScore)
	return r
}

func makeUploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func pollUntilDone(t *testing.T, r *gin.Engine, id string) models.AnalysisJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(r, httptest.NewRequest(http.MethodGet, "/api/progress/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("progress returned %d: %s", rec.Code, rec.Body.String())
		}
		var job models.AnalysisJob
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			t.Fatalf("failed to decode progress: %v", err)
		}
		if job.Status != models.JobStatusProcessing {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analysis never finished")
	return models.AnalysisJob{}
}

func TestAnalyzeLifecycle(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, makeUploadRequest(t, "tickets.csv", sampleCSV, map[string]string{"llm_provider": "mock"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze returned %d: %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		AnalysisID string `json:"analysis_id"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if submitted.AnalysisID == "" {
		t.Fatalf("missing analysis_id: %s", rec.Body.String())
	}

	job := pollUntilDone(t, r, submitted.AnalysisID)
	if job.Status != models.JobStatusCompleted {
		t.Fatalf("job ended as %s: %s", job.Status, job.Error)
	}
	if job.TotalTickets != 2 || job.CurrentTicket != 2 {
		t.Errorf("unexpected progress counters: %+v", job)
	}
	if job.Results == nil {
		t.Fatal("completed job carries no results")
	}
	if job.Results.Metadata.TotalRawRows != 3 || job.Results.Metadata.UniqueTickets != 2 {
		t.Errorf("unexpected metadata: %+v", job.Results.Metadata)
	}
	if len(job.Results.TicketSummaries) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(job.Results.TicketSummaries))
	}
	if len(job.Results.OutreachList) != 1 || job.Results.OutreachList[0].AuthorEmail != "jane@corp.example" {
		t.Errorf("unexpected outreach list: %+v", job.Results.OutreachList)
	}

	// Outreach CSV download for the completed job.
	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/analysis/"+submitted.AnalysisID+"/outreach.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("outreach returned %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jane@corp.example") {
		t.Errorf("outreach CSV missing contact: %s", rec.Body.String())
	}

	// Cleanup, then everything about the job is gone.
	rec = do(r, httptest.NewRequest(http.MethodDelete, "/api/analysis/"+submitted.AnalysisID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup returned %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/progress/"+submitted.AnalysisID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("cleaned job should 404, got %d", rec.Code)
	}
	rec = do(r, httptest.NewRequest(http.MethodDelete, "/api/analysis/"+submitted.AnalysisID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeated cleanup should 404, got %d", rec.Code)
	}
}

func TestAnalyzeMissingRequiredColumn(t *testing.T) {
	r := newTestRouter(t)
	csv := "Zendesk Tickets ID,Zendesk Comments ID,Zendesk Comments Body\nT1,C1,hello\n"

	rec := do(r, makeUploadRequest(t, "tickets.csv", csv, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "VALIDATION_ERROR") || !strings.Contains(body, "Zendesk Tickets Subject") {
		t.Errorf("missing columns not reported: %s", body)
	}
}

func TestAnalyzeRejectsMissingFile(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	rec := do(r, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeRejectsNonCSV(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, makeUploadRequest(t, "tickets.txt", sampleCSV, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeRejectsUnsupportedProvider(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, makeUploadRequest(t, "tickets.csv", sampleCSV, map[string]string{"llm_provider": "palm"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "UNSUPPORTED_PROVIDER") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestAnalyzeRejectsOversizeUpload(t *testing.T) {
	r := newTestRouter(t)
	big := sampleCSV + strings.Repeat("T9,C9,padding padding padding,E9,subject\n", 40000)

	rec := do(r, makeUploadRequest(t, "tickets.csv", big, nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestAnalyzeMissingProviderKey(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, makeUploadRequest(t, "tickets.csv", sampleCSV, map[string]string{"llm_provider": "openai"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "PROVIDER_AUTH_ERROR") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestProgressUnknownID(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/progress/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Analysis ID not found") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if body["status"] != "ok" || body["default_provider"] != "mock" || body["run_history"] != "disabled" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestRunsLatestDisabled(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/runs/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a store, got %d", rec.Code)
	}
}

func TestDebugScore(t *testing.T) {
	r := newTestRouter(t)
	payload := `{"issue_summary":"element is hidden","resolution_summary":"reselect the element","comment_count":2}`

	req := httptest.NewRequest(http.MethodPost, "/api/debug/score", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := do(r, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var scored models.DiagnosticsCompatibleTicket
	if err := json.Unmarshal(rec.Body.Bytes(), &scored); err != nil {
		t.Fatalf("failed to decode score: %v", err)
	}
	if !scored.Checks.ElementDetection || !scored.Checks.VisibilityRules {
		t.Errorf("expected element and visibility checks to fire: %+v", scored.Checks)
	}
	if !scored.IsCompatible {
		t.Errorf("expected compatible result: %+v", scored)
	}
}

func TestDebugScoreValidation(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/debug/score", strings.NewReader(`{"comment_count":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(r, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing issue_summary, got %d", rec.Code)
	}
}
