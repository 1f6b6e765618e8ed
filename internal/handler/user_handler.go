package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/oralarith/internal/middleware"
	"github.com/hitoshi/oralarith/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Get はプロフィールの全フィールドを返す。
	Get(ctx context.Context, userID int64) (*model.UserProfile, error)
}

// UserHandler はプロフィール参照のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Handle はログイン中ユーザーのプロフィールを返す。
// GET|POST /user?type=get
func (h *UserHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("type") != "get" {
		writeUnknownType(w)
		return
	}

	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}
