package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/copywriter-backend/internal/api/httpx"
	"github.com/baharkarakas/copywriter-backend/internal/api/validate"
	"github.com/baharkarakas/copywriter-backend/internal/generator"
	"github.com/baharkarakas/copywriter-backend/internal/middleware"
	"github.com/baharkarakas/copywriter-backend/internal/services"
)

type insufficientResp struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	TokensRemaining int64  `json:"tokensRemaining"`
	TokensRequired  int64  `json:"tokensRequired"`
}

// writeError maps a service error onto its HTTP status and body.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ib *services.InsufficientBalanceError
	var ve validate.Errs
	switch {
	case errors.As(err, &ib):
		httpx.WriteJSON(w, http.StatusForbidden, insufficientResp{
			Message:         "Insufficient tokens. Please upgrade your plan.",
			TokensRemaining: ib.Remaining,
			TokensRequired:  ib.Required,
		})
	case errors.As(err, &ve):
		httpx.WriteFailDetails(w, http.StatusBadRequest, "validation_error", ve.Error(), ve)
	case errors.Is(err, services.ErrMissingPrompt):
		httpx.WriteFail(w, http.StatusBadRequest, "validation_error", "Please provide a prompt")
	case services.IsValidation(err):
		httpx.WriteFail(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteFail(w, http.StatusNotFound, "not_found", "Generation not found")
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteFail(w, http.StatusForbidden, "forbidden", "Not authorized to access this generation")
	case errors.Is(err, generator.ErrRateLimited):
		w.Header().Set("Retry-After", "30")
		httpx.WriteFail(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again in a moment.")
	case errors.Is(err, generator.ErrBackend):
		slog.Error("generation backend", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteFail(w, http.StatusBadGateway, "generation_failed", "Content generation failed")
	default:
		slog.Error(fallback, "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteFail(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
