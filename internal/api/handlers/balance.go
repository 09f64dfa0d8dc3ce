package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/copywriter-backend/internal/api/httpx"
	"github.com/baharkarakas/copywriter-backend/internal/api/validate"
	"github.com/baharkarakas/copywriter-backend/internal/middleware"
	"github.com/baharkarakas/copywriter-backend/internal/services"
)

type BalanceHandler struct {
	Ledger *services.BalanceService
}

func NewBalanceHandler(l *services.BalanceService) *BalanceHandler {
	return &BalanceHandler{Ledger: l}
}

func (h *BalanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	b, err := h.Ledger.Current(r.Context(), uid)
	if err != nil {
		writeError(w, r, err, "Failed to fetch balance")
		return
	}
	httpx.WriteOK(w, http.StatusOK, b)
}

type creditReq struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// Credit serves the admin top-up route.
func (h *BalanceHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err, "Failed to credit balance")
		return
	}
	b, err := h.Ledger.Credit(r.Context(), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		writeError(w, r, err, "Failed to credit balance")
		return
	}
	httpx.WriteOK(w, http.StatusOK, b)
}
