package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/copywriter-backend/internal/api/httpx"
	"github.com/baharkarakas/copywriter-backend/internal/api/validate"
	"github.com/baharkarakas/copywriter-backend/internal/middleware"
	"github.com/baharkarakas/copywriter-backend/internal/models"
	"github.com/baharkarakas/copywriter-backend/internal/services"
)

type GenerationHandler struct {
	Gen     *services.GenerationService
	History *services.HistoryService
}

func NewGenerationHandler(g *services.GenerationService, h *services.HistoryService) *GenerationHandler {
	return &GenerationHandler{Gen: g, History: h}
}

type generateReq struct {
	Prompt string `json:"prompt" validate:"max=20000"`
	Model  string `json:"model" validate:"omitempty,max=100"`
}

// Generate returns the POST handler for one content type.
func (h *GenerationHandler) Generate(ct models.ContentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.generate(w, r, ct)
	}
}

func (h *GenerationHandler) generate(w http.ResponseWriter, r *http.Request, ct models.ContentType) {
	uid, _ := middleware.UserID(r.Context())

	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFail(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err, "Content generation failed")
		return
	}

	res, err := h.Gen.Generate(r.Context(), uid, ct, req.Prompt, req.Model)
	if err != nil {
		writeError(w, r, err, "Content generation failed")
		return
	}
	httpx.WriteOK(w, http.StatusCreated, res)
}

func (h *GenerationHandler) HistoryList(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	res, err := h.History.History(r.Context(), uid, page, limit)
	if err != nil {
		writeError(w, r, err, "Failed to fetch generation history")
		return
	}
	httpx.WriteOK(w, http.StatusOK, res)
}

func (h *GenerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	st, err := h.History.Stats(r.Context(), uid)
	if err != nil {
		writeError(w, r, err, "Failed to fetch statistics")
		return
	}
	httpx.WriteOK(w, http.StatusOK, st)
}

func (h *GenerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	g, err := h.Gen.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch generation")
		return
	}
	httpx.WriteOK(w, http.StatusOK, g)
}

func (h *GenerationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	if err := h.Gen.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, "Failed to delete generation")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Generation deleted successfully"})
}

// queryInt returns 0 for a missing or malformed value; the service applies defaults.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
