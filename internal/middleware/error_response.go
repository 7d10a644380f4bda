package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/caresync/internal/model"
)

// ErrorBody はAPIエラーレスポンスのエラー部分。
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// StatusForError はエラー種別に対応するHTTPステータスコードを返す。
// DataError以外のエラーは500として扱う。
func StatusForError(err error) int {
	var dataErr *model.DataError
	if !errors.As(err, &dataErr) {
		return http.StatusInternalServerError
	}
	switch dataErr.Kind {
	case model.ErrKindNotFound:
		return http.StatusNotFound
	case model.ErrKindValidation:
		return http.StatusBadRequest
	case model.ErrKindStorageFailure:
		return http.StatusInternalServerError
	case model.ErrKindRemoteFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ステータスコードはエラー種別から導出する。DataError以外のエラーは
// 詳細をログのみに残すべきであり、ここでは一般的なメッセージに置き換える。
func WriteErrorResponse(w http.ResponseWriter, err error) {
	statusCode := StatusForError(err)

	kind := string(model.ErrKindStorageFailure)
	message := "内部エラーが発生しました。"

	var dataErr *model.DataError
	if errors.As(err, &dataErr) {
		kind = string(dataErr.Kind)
		message = dataErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success: false,
		Error: ErrorBody{
			Kind:    kind,
			Message: message,
		},
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success: false,
		Error: ErrorBody{
			Kind:    string(model.ErrKindStorageFailure),
			Message: "内部エラーが発生しました。",
		},
	})
}
