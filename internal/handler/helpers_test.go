package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hitoshi/oralarith/internal/middleware"
)

// withUserID はセッションミドルウェア通過後と同じコンテキストをリクエストに設定する。
func withUserID(r *http.Request, userID int64) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// decodeErrorBody はエラーレスポンスのボディをデコードする。
func decodeErrorBody(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
