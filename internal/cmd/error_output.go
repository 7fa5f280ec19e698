package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/mdoutline/internal/api"
	"github.com/salmonumbrella/mdoutline/internal/output"
	"github.com/salmonumbrella/mdoutline/internal/paste"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

// errorEnvelope is the structured form of a command error.
type errorEnvelope struct {
	Error errorDetail `json:"error" yaml:"error"`
}

type errorDetail struct {
	Message  string `json:"message" yaml:"message"`
	Category string `json:"category" yaml:"category"`
	Type     string `json:"type" yaml:"type"`
}

// buildErrorEnvelope classifies err. Later matches win, so a paste failure
// caused by an API error reports the API error type.
func buildErrorEnvelope(err error) errorEnvelope {
	detail := errorDetail{Message: err.Error(), Category: "system", Type: "error"}

	var unexpected *paste.UnexpectedError
	if errors.As(err, &unexpected) {
		detail.Type = "unexpected"
	}

	if errors.Is(err, paste.ErrEmptyInput) {
		detail.Type = "empty_input"
		detail.Category = "user"
	}

	if errors.Is(err, paste.ErrNoClipboard) {
		detail.Type = "no_clipboard"
		detail.Category = "user"
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		detail.Type = "cancelled"
	}

	var authErr api.AuthenticationError
	if errors.As(err, &authErr) {
		detail.Type = "auth"
		detail.Category = "user"
	}

	var validationErr api.ValidationError
	if errors.As(err, &validationErr) {
		detail.Type = "validation"
		detail.Category = "user"
	}

	var notFoundErr api.NotFoundError
	if errors.As(err, &notFoundErr) {
		detail.Type = "not_found"
		detail.Category = "user"
	}

	var rateErr api.RateLimitError
	if errors.As(err, &rateErr) {
		detail.Type = "rate_limit"
		detail.Category = "system"
	}

	return errorEnvelope{Error: detail}
}
