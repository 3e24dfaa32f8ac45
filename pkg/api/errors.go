package api

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/masking"
	"github.com/arenahq/arena/pkg/scoring"
)

// errMasker redacts credential-shaped substrings (bearer tokens, OpenAI-
// style keys, JWTs) that can end up embedded in an upstream error message
// before it is ever written into a JSON response body.
var errMasker = masking.NewService()

// respondError maps a pkg/scoring (or corpus/judge) error to the HTTP
// status code the protocol promises and writes the JSON error envelope.
// Internal failures are logged with their full (unredacted) detail before
// the redacted message is sent to the client (spec.md §7).
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scoring.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scoring.ErrTerminated), errors.Is(err, scoring.ErrCompetitionEnded):
		status = http.StatusConflict
	case isValidationError(err):
		status = http.StatusBadRequest
	case isBudgetError(err):
		status = http.StatusPaymentRequired
	}

	if status == http.StatusInternalServerError {
		slog.Error("internal error", "path", c.Request.URL.Path, "method", c.Request.Method, "error", err, "stack", string(debug.Stack()))
	}

	c.JSON(status, gin.H{
		"status":  "error",
		"message": errMasker.Redact(err.Error()),
	})
}

func isValidationError(err error) bool {
	var v *scoring.ValidationError
	return errors.As(err, &v)
}

func isBudgetError(err error) bool {
	var b *scoring.BudgetError
	return errors.As(err, &b)
}
