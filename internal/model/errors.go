package model

import (
	"errors"
	"fmt"
)

// ErrorKind はデータ層エラーの分類を表す。
// 呼び出し側はKindだけでリトライ可否やUI表示を判断できる。
type ErrorKind string

const (
	// ErrKindNotFound は指定IDのエンティティが存在しないことを示す。
	ErrKindNotFound ErrorKind = "NOT_FOUND"
	// ErrKindValidation は入力不正（メール重複、認証情報不一致など）を示す。
	ErrKindValidation ErrorKind = "VALIDATION"
	// ErrKindStorageFailure はローカルストアのシリアライズ・容量エラーを示す。
	ErrKindStorageFailure ErrorKind = "STORAGE_FAILURE"
	// ErrKindRemoteFailure はリモートバックエンドのネットワーク・認可・サーバーエラーを示す。
	// 上流のメッセージをそのまま保持する。
	ErrKindRemoteFailure ErrorKind = "REMOTE_FAILURE"
)

// DataError はデータ層の統一エラーフォーマットを表す。
// すべての失敗は例外ではなく値として呼び出し側に返される。
type DataError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *DataError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// AsDataError はエラーチェーンからDataErrorを取り出す。
func AsDataError(err error) (*DataError, bool) {
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return dataErr, true
	}
	return nil, false
}

// NewNotFoundError はエンティティ未検出エラーを生成する。
func NewNotFoundError(entity, id string) *DataError {
	return &DataError{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("%sが見つかりません: %s", entity, id),
	}
}

// NewValidationError は入力不正エラーを生成する。
func NewValidationError(message string) *DataError {
	return &DataError{
		Kind:    ErrKindValidation,
		Message: message,
	}
}

// NewStorageFailureError はローカルストア障害エラーを生成する。
func NewStorageFailureError(err error) *DataError {
	return &DataError{
		Kind:    ErrKindStorageFailure,
		Message: fmt.Sprintf("ローカルストアへの書き込みに失敗しました: %v", err),
	}
}

// NewRemoteFailureError はリモートバックエンド障害エラーを生成する。
// 上流のエラーメッセージを加工せずそのまま保持する。
func NewRemoteFailureError(err error) *DataError {
	return &DataError{
		Kind:    ErrKindRemoteFailure,
		Message: err.Error(),
	}
}
