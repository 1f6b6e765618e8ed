package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/oralarith/internal/middleware"
	"github.com/hitoshi/oralarith/internal/model"
)

// maxBodyBytes はリクエストボディの最大サイズ。
const maxBodyBytes = 1 << 20

// messageResponse は処理結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// writeUnknownType は未対応のtypeパラメータに対するエラーを書き込む。
func writeUnknownType(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewUnknownTypeError())
}

// decodeBody はリクエストボディをJSONとしてvに読み込む。
//
// ボディはJSONそのもの、またはJSONをbase64エンコードした文字列のどちらでも受け付ける。
// 空のボディは空オブジェクトとして扱い、必須パラメータの検証はサービス層に委ねる。
func decodeBody(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return model.NewInvalidBodyError()
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] != '{' {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return model.NewInvalidBodyError()
		}
		raw = bytes.TrimSpace(decoded)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return model.NewInvalidBodyError()
	}
	return nil
}

// flexString は文字列または数値のJSON値を文字列として受け取る。
// 誤答の問題・解答はクライアントによって数値で送られることがある。
type flexString string

// UnmarshalJSON はJSONの文字列・数値・真偽値を文字列に変換する。
func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = flexString(strconv.FormatBool(b))
	return nil
}

// ptr はflexStringのポインタを*stringに変換する。nilはnilのまま返す。
func (f *flexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}
