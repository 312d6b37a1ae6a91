package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/whatfix/ticket-analyzer/backend/internal/utils"
)

// MockProvider answers without any network call. Output is a stable
// function of the prompt, which keeps pipeline tests deterministic.
type MockProvider struct{}

func (MockProvider) Name() string { return ProviderMock }

func (MockProvider) Close() error { return nil }

func (MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	issue := "User unable to display smart tip in preview mode"
	resolution := "Reselected the smart tip element and added necessary CSS selector"
	category := "Element Selection"
	resolutionType := "Reselection"

	// Sniff only the conversation section; the instruction preamble
	// mentions category names and would always match otherwise.
	lower := strings.ToLower(prompt)
	if i := strings.Index(lower, "conversation:"); i >= 0 {
		lower = lower[i:]
	}
	switch {
	case strings.Contains(lower, "css") || strings.Contains(lower, "selector"):
		category = "CSS Selector"
		resolutionType = "CSS Addition"
	case strings.Contains(lower, "visibility") || strings.Contains(lower, "hidden"):
		issue = "Content hidden by a visibility rule"
		resolution = "Adjusted the visibility rule configuration"
		category = "Visibility Rules"
		resolutionType = "Configuration Change"
	case strings.Contains(lower, "custom code") || strings.Contains(lower, "javascript"):
		issue = "Widget requires custom code to render"
		resolution = "Escalated for a custom code change"
		category = "Custom Code"
		resolutionType = "Code Change"
	}

	h := utils.HashStringToUint64(prompt)
	if category == "Element Selection" && h%3 == 0 {
		resolutionType = "User Education"
	}

	b, err := json.Marshal(map[string]string{
		"issue":           issue,
		"resolution":      resolution,
		"category":        category,
		"resolution_type": resolutionType,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
