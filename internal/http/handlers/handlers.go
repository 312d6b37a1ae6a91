package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/whatfix/ticket-analyzer/backend/internal/ai"
	"github.com/whatfix/ticket-analyzer/backend/internal/config"
	"github.com/whatfix/ticket-analyzer/backend/internal/db"
	"github.com/whatfix/ticket-analyzer/backend/internal/ingest"
	"github.com/whatfix/ticket-analyzer/backend/internal/jobs"
	"github.com/whatfix/ticket-analyzer/backend/internal/models"
	"github.com/whatfix/ticket-analyzer/backend/internal/service"
)

type Handler struct {
	Tracker   *jobs.Tracker
	Store     *db.Store // nil when run history is disabled
	Cfg       config.Config
	Validator *validator.Validate
	Logger    zerolog.Logger
}

type AnalyzeRequest struct {
	Provider string `validate:"omitempty,oneof=gemini openai anthropic mock"`
	APIKey   string
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	history := "disabled"
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		history = "ok"
		if err := h.Store.Ping(ctx); err != nil {
			history = "unreachable"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"default_provider": h.Cfg.DefaultLLMProvider,
		"run_history":      history,
	})
}

// @Summary Submit a ticket CSV for analysis
// @Description Starts a background analysis job over the uploaded Zendesk export
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "tickets.csv"
// @Param llm_provider formData string false "gemini|openai|anthropic|mock"
// @Param api_key formData string false "provider API key"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 413 {object} map[string]any
// @Router /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required", nil)
		return
	}
	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".csv" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "only CSV files are supported", nil)
		return
	}

	maxBytes := h.Cfg.MaxUploadSizeMB << 20
	if fileHeader.Size > maxBytes {
		writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			fmt.Sprintf("file exceeds %dMB limit", h.Cfg.MaxUploadSizeMB), nil)
		return
	}

	req := AnalyzeRequest{
		Provider: strings.TrimSpace(c.PostForm("llm_provider")),
		APIKey:   strings.TrimSpace(c.PostForm("api_key")),
	}
	if req.Provider == "" {
		req.Provider = h.Cfg.DefaultLLMProvider
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "UNSUPPORTED_PROVIDER", "unsupported llm provider", err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to open upload", err.Error())
		return
	}
	defer f.Close()

	rows, err := ingest.Parse(f, fileHeader.Size, maxBytes)
	if err != nil {
		var vErr *ingest.ValidationError
		switch {
		case errors.Is(err, ingest.ErrPayloadTooLarge):
			writeError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error(), nil)
		case errors.As(err, &vErr):
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "CSV validation failed", vErr.Missing)
		default:
			writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "failed to parse CSV", err.Error())
		}
		return
	}
	tickets := ingest.Aggregate(rows)

	provider, err := ai.New(context.Background(), h.providerConfig(req))
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			writeError(c, http.StatusBadRequest, "PROVIDER_AUTH_ERROR", "api key required for selected provider", nil)
			return
		}
		writeError(c, http.StatusBadRequest, "UNSUPPORTED_PROVIDER", err.Error(), nil)
		return
	}

	analyzer := &service.Analyzer{
		Provider:                provider,
		Logger:                  h.Logger.With().Str("component", "analyzer").Logger(),
		ComplexCommentThreshold: h.Cfg.ComplexCommentThreshold,
	}
	totalRows := len(rows)

	id, err := h.Tracker.Submit(len(tickets), func(ctx context.Context, jobID string, report func(int)) (models.AnalysisResults, error) {
		defer provider.Close()

		var runID string
		if h.Store != nil {
			rid, err := h.Store.CreateRun(ctx, jobID, provider.Name())
			if err != nil {
				h.Logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to record analysis run")
			} else {
				runID = rid
			}
		}

		results, err := analyzer.Run(ctx, totalRows, tickets, func(current, total int) {
			report(current)
		})

		if h.Store != nil && runID != "" {
			h.finishRun(runID, results, err)
		}
		return results, err
	})
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to submit analysis job")
		writeError(c, http.StatusInternalServerError, "SUBMIT_ERROR", "failed to start analysis", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis_id": id, "message": "Analysis started"})
}

// finishRun records the terminal run state with its own deadline: the
// job context may already be cancelled by cleanup.
func (h *Handler) finishRun(runID string, results models.AnalysisResults, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := "SUCCESS"
	if runErr != nil {
		status = "FAILED"
	}
	stats, _ := json.Marshal(db.StatsFromResults(results))
	if err := h.Store.FinishRun(ctx, runID, status, stats); err != nil {
		h.Logger.Warn().Err(err).Str("run_id", runID).Msg("failed to finish analysis run record")
	}
}

// @Summary Poll analysis progress
// @Tags analysis
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} models.AnalysisJob
// @Failure 404 {object} map[string]any
// @Router /api/progress/{analysis_id} [get]
func (h *Handler) Progress(c *gin.Context) {
	job, err := h.Tracker.Poll(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Analysis ID not found", nil)
		return
	}
	c.JSON(http.StatusOK, job)
}

// @Summary Clean up a finished analysis
// @Tags analysis
// @Produce json
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/analysis/{analysis_id} [delete]
func (h *Handler) CleanupAnalysis(c *gin.Context) {
	if err := h.Tracker.Cleanup(c.Param("id")); err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Analysis ID not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Analysis data cleaned up"})
}

// @Summary Download the outreach list as CSV
// @Tags analysis
// @Produce text/csv
// @Param analysis_id path string true "Analysis ID"
// @Success 200 {string} string "CSV payload"
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/analysis/{analysis_id}/outreach.csv [get]
func (h *Handler) OutreachCSV(c *gin.Context) {
	job, err := h.Tracker.Poll(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Analysis ID not found", nil)
		return
	}
	if job.Status != models.JobStatusCompleted || job.Results == nil {
		writeError(c, http.StatusConflict, "NOT_COMPLETED", "analysis has not completed", gin.H{"status": job.Status})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="diagnostics_outreach.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Ticket ID", "Author Email", "Issue Summary", "Resolution Summary", "Category", "Resolution Type"})
	for _, o := range job.Results.OutreachList {
		_ = w.Write([]string{o.TicketID, o.AuthorEmail, o.IssueSummary, o.ResolutionSummary, o.DerivedCategory, o.ResolutionType})
	}
	w.Flush()
}

// @Summary Latest recorded analysis run
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "run history is disabled", nil)
		return
	}
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

type DebugScoreRequest struct {
	IssueSummary      string `json:"issue_summary" validate:"required"`
	ResolutionSummary string `json:"resolution_summary"`
	DerivedCategory   string `json:"derived_category"`
	CommentCount      int    `json:"comment_count"`
}

// @Summary Debug the diagnostics scorer against a hand-written summary
// @Tags debug
// @Accept json
// @Produce json
// @Success 200 {object} models.DiagnosticsCompatibleTicket
// @Failure 400 {object} map[string]any
// @Router /api/debug/score [post]
func (h *Handler) DebugScore(c *gin.Context) {
	var req DebugScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	summary := models.TicketSummary{
		TicketID:          "debug",
		IssueSummary:      req.IssueSummary,
		ResolutionSummary: req.ResolutionSummary,
		DerivedCategory:   req.DerivedCategory,
		CommentCount:      req.CommentCount,
	}
	c.JSON(http.StatusOK, service.Score(models.Ticket{TicketID: "debug"}, summary))
}

func (h *Handler) providerConfig(req AnalyzeRequest) ai.Config {
	cfg := ai.Config{Provider: req.Provider, APIKey: req.APIKey}
	switch req.Provider {
	case ai.ProviderGemini:
		cfg.Model = h.Cfg.GeminiModel
		if cfg.APIKey == "" {
			cfg.APIKey = h.Cfg.GeminiAPIKey
		}
	case ai.ProviderOpenAI:
		cfg.Model = h.Cfg.OpenAIModel
		cfg.BaseURL = h.Cfg.OpenAIBaseURL
		if cfg.APIKey == "" {
			cfg.APIKey = h.Cfg.OpenAIAPIKey
		}
	case ai.ProviderAnthropic:
		cfg.Model = h.Cfg.AnthropicModel
		cfg.BaseURL = h.Cfg.AnthropicBaseURL
		if cfg.APIKey == "" {
			cfg.APIKey = h.Cfg.AnthropicAPIKey
		}
	}
	return cfg
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
