package middleware

import "net/http"

// NewCORSMiddleware はフロントエンド(FRONT_END_URL)からのCookie付きリクエストを許可する。
// credentials付きのためワイルドカードは使えず、許可オリジンは常に設定値1つだけを返す。
// OPTIONSのプリフライトは後段に渡さず200で終える。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	corsHeaders := [][2]string{
		{"Access-Control-Allow-Origin", allowedOrigin},
		{"Access-Control-Allow-Methods", "GET, POST, OPTIONS"},
		{"Access-Control-Allow-Headers", "Content-Type"},
		{"Access-Control-Allow-Credentials", "true"},
		{"Access-Control-Max-Age", "86400"},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range corsHeaders {
				h.Set(kv[0], kv[1])
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
