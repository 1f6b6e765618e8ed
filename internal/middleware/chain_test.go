package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// TestMiddlewareChain_FullStack は Recovery -> Logging -> SecurityHeaders -> CORS -> Session の
// チェーンがchi.Routerで正しく動作し、ログにuser_idが記録されることを検証する。
func TestMiddlewareChain_FullStack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(NewRecoveryMiddleware())
	r.Use(NewLoggingMiddleware(logger, nil))
	r.Use(NewSecurityHeadersMiddleware())
	r.Use(NewCORSMiddleware("http://localhost:3000"))

	r.Group(func(r chi.Router) {
		r.Use(NewSessionMiddleware(validatorFor("chain-token", 12345678)))
		r.Get("/user", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]int64{"uid": userID})
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/user?type=get", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "chain-token"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	if uid, ok := entry["user_id"].(float64); !ok || int64(uid) != 12345678 {
		t.Errorf("user_id = %v, want 12345678", entry["user_id"])
	}
	if entry["type"] != "get" {
		t.Errorf("type = %v, want get", entry["type"])
	}
}

// TestMiddlewareChain_PreflightSkipsSession はプリフライトがセッション検証前に200で終わることを検証する。
func TestMiddlewareChain_PreflightSkipsSession(t *testing.T) {
	r := chi.NewRouter()
	r.Use(NewCORSMiddleware("http://localhost:3000"))
	r.Group(func(r chi.Router) {
		r.Use(NewSessionMiddleware(validatorFor("x", 1)))
		r.HandleFunc("/quiz", func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		})
	})

	req := httptest.NewRequest(http.MethodOptions, "/quiz", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestMiddlewareChain_RecoveryReturnsJSON はpanic時に統一フォーマットの500が返ることを検証する。
func TestMiddlewareChain_RecoveryReturnsJSON(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if body := decodeErrorBody(t, resp); body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}

// TestMiddlewareChain_RateLimitAfterSession はセッション後のレート制限がユーザー単位で働くことを検証する。
func TestMiddlewareChain_RateLimitAfterSession(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := NewCORSMiddleware("http://localhost:3000")(
		NewSessionMiddleware(validatorFor("rate-token", 12345678))(
			rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			}))))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/quiz?type=save_mistake", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "rate-token"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusCreated {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusCreated)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/quiz?type=save_mistake", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "rate-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 3: status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}
