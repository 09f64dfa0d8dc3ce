package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/api/httpx"
	"github.com/baharkarakas/copywriter-backend/internal/auth"
)

// AuthHandler issues tokens for local development. Real identity issuance
// lives outside this service.
type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv}
}

type loginReq struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv != "dev" {
		httpx.WriteFail(w, http.StatusNotImplemented, "not_implemented", "login is handled by the identity provider")
		return
	}

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		httpx.WriteFail(w, http.StatusBadRequest, "bad_request", "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}
	h.issue(w, req.UserID, req.Role)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteFail(w, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}
	claims, err := h.TM.ParseRefresh(req.RefreshToken)
	if err != nil {
		httpx.WriteFail(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		return
	}
	h.issue(w, claims.UserID, claims.Role)
}

func (h *AuthHandler) issue(w http.ResponseWriter, userID, role string) {
	access, refresh, exp, err := h.TM.GeneratePair(userID, role)
	if err != nil {
		httpx.WriteFail(w, http.StatusInternalServerError, "internal_error", "token generation failed")
		return
	}
	httpx.WriteOK(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Truncate(time.Second).Seconds()),
	})
}
