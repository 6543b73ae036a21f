// Package handler exposes the HTTP API on gin.
package handler

import (
	"net/http"

	"github.com/yourorg/backtest-service/internal/errs"
)

// statusForError maps the service error taxonomy to HTTP status codes.
// Caller mistakes are 400s, upstream data source failures are 502s and
// everything else is a 500.
func statusForError(err error) int {
	switch errs.KindOf(err) {
	case errs.KindConfig, errs.KindValidation, errs.KindStrategy:
		return http.StatusBadRequest
	case errs.KindAdapter:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
