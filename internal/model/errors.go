// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// Message には内部の例外文字列やSQLを含めてはならない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeInvalidTimestamp      = "INVALID_TIMESTAMP"
	ErrCodeInvalidDuration       = "INVALID_DURATION"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeInvalidPin            = "INVALID_PIN"
	ErrCodeInvalidLimit          = "INVALID_LIMIT"
	ErrCodeInvalidNoteKind       = "INVALID_NOTE_KIND"
	ErrCodeUserAlreadyExists     = "USER_ALREADY_EXISTS"
	ErrCodeSessionNotFound       = "SESSION_NOT_FOUND"
	ErrCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
)

// NewUnauthorizedError はトークンが欠落・失効・不明な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Token is invalid or expired.",
		Category: "auth",
		Action:   "Log in again to obtain a new token.",
	}
}

// NewAuthenticationError はログイン時の資格情報不一致エラーを生成する。
// どちらの項目が誤っているかは明かさない。
func NewAuthenticationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Login failed.",
		Category: "auth",
		Action:   "Check the identifier and PIN and try again.",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "The request body could not be parsed.",
		Category: "validation",
		Action:   "Send a well-formed JSON request body.",
	}
}

// NewInvalidTimestampError はタイムスタンプの形式不正エラーを生成する。
func NewInvalidTimestampError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimestamp,
		Message:  fmt.Sprintf("Invalid timestamp: %s", field),
		Category: "validation",
		Action:   "Use the format YYYY-MM-DD HH:MM:SS.",
	}
}

// NewInvalidDurationError は継続時間の形式不正エラーを生成する。
func NewInvalidDurationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDuration,
		Message:  "Invalid duration.",
		Category: "validation",
		Action:   "Use the format H:MM:SS.",
	}
}

// NewMissingFieldError は必須項目の欠落エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("Required field is missing: %s", field),
		Category: "validation",
		Action:   "Fill in all required fields.",
	}
}

// NewInvalidPinError はPINの形式不正エラーを生成する。
func NewInvalidPinError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPin,
		Message:  "PIN must consist of 4 to 8 digits.",
		Category: "validation",
		Action:   "Choose a numeric PIN of 4 to 8 digits.",
	}
}

// NewInvalidLimitError は一覧取得件数の範囲外エラーを生成する。
func NewInvalidLimitError(limit int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLimit,
		Message:  fmt.Sprintf("Invalid limit: %d", limit),
		Category: "validation",
		Action:   "Specify a limit between 1 and 100.",
	}
}

// NewInvalidNoteKindError はノート種別が長すぎる場合のエラーを生成する。
func NewInvalidNoteKindError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidNoteKind,
		Message:  "Note type is too long.",
		Category: "validation",
		Action:   "Use a note type of at most 32 characters.",
	}
}

// NewConflictError は既に登録済みの利用者を再登録しようとした場合のエラーを生成する。
func NewConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "User already exists.",
		Category: "conflict",
		Action:   "Log in with the existing account.",
	}
}

// NewSessionNotFoundError はログアウト対象のセッションが存在しない場合のエラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "Token is invalid or expired.",
		Category: "auth",
		Action:   "The session has already ended.",
	}
}

// NewDependencyError は永続化ストアへの到達不能エラーを生成する。
func NewDependencyError() *APIError {
	return &APIError{
		Code:     ErrCodeDependencyUnavailable,
		Message:  "The service is temporarily unavailable.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// IsAPIErrorCode はerrのチェーン中に指定コードのAPIErrorが含まれるかを返す。
func IsAPIErrorCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
