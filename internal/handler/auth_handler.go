// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/oralarith/internal/auth"
	"github.com/hitoshi/oralarith/internal/middleware"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, nickname, password string) error
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// registerRequest は登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	TTL      int64  `json:"ttl"`
	Nickname string `json:"nickname"`
}

// Handle はtypeパラメータに応じて登録またはログインを処理する。
// POST /auth?type=register|login
func (h *AuthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("type") {
	case "register":
		h.register(w, r)
	case "login":
		h.login(w, r)
	default:
		writeUnknownType(w)
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.service.Register(r.Context(), req.Email, req.Nickname, req.Password); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Success"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	// フロントエンドは別オリジンのため、Secure時はSameSite=Noneとする
	sameSite := http.SameSiteLaxMode
	if h.config.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(res.TTL),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: sameSite,
	})

	writeJSON(w, http.StatusCreated, loginResponse{
		Message:  "Cookie Set",
		Token:    res.Token,
		TTL:      res.TTL,
		Nickname: res.Nickname,
	})
}
