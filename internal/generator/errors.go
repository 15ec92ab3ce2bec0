package generator

import (
	"errors"
	"fmt"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/ai/llm"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/rules"
)

// UnsupportedIndicatorError is the structured rejection returned when the
// conversation asks for an indicator outside the supported set. The
// request is rejected up front rather than silently generating a template
// without it.
type UnsupportedIndicatorError struct {
	Requested   string
	Alternative string
}

func (e *UnsupportedIndicatorError) Error() string {
	if e.Alternative == "" {
		return fmt.Sprintf("indicator %q is not supported", e.Requested)
	}
	return fmt.Sprintf("indicator %q is not supported; consider %q instead", e.Requested, e.Alternative)
}

// IsRetryable reports whether a pipeline failure may succeed on a full
// re-run. Backend failures (timeouts, non-success status, empty output)
// are transient; validation and unsupported-indicator failures are
// permanent. Retry always restarts the pipeline from extraction —
// intermediate artifacts such as indicator ids are not stable across
// backend calls.
func IsRetryable(err error) bool {
	var backendErr *llm.BackendError
	if errors.As(err, &backendErr) {
		return true
	}
	var validationErr *rules.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	var unsupportedErr *UnsupportedIndicatorError
	if errors.As(err, &unsupportedErr) {
		return false
	}
	return false
}
