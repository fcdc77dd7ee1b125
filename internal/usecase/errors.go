package usecase

import (
	"errors"
	"net/http"
)

var (
	//入力不正（何も保存しない）
	ErrValidation = errors.New("validation error")
	//現在の状態から許されない遷移
	ErrIllegalTransition = errors.New("illegal status transition")
	//閲覧・操作権限なし
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	//DBの読み書きに失敗
	ErrTransientStorage = errors.New("storage unavailable")
)

// 外部に出すメッセージ
const (
	msgOrderNotFound  = "order not found"
	msgPhoneMismatch  = "phone number does not match"
	msgStorageFailure = "service temporarily unavailable"
	msgIllegalStatus  = "illegal status transition"
	msgReasonRequired = "cancellation_reason is required"
	msgUnauthorized   = "unauthorized"
)

// HTTPError carries the status and message a handler should answer with.
// Err is one of the sentinels above, so callers can still use errors.Is.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError picks the sentinel from the status code.
func NewHTTPError(status int, msg string) *HTTPError {
	return &HTTPError{Status: status, Message: msg, Err: sentinelFor(status)}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusConflict:
		return ErrIllegalTransition
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return ErrTransientStorage
	}
	return nil
}

func validationError(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusUnprocessableEntity, Message: msg, Err: ErrValidation}
}

func illegalTransition() *HTTPError {
	return &HTTPError{Status: http.StatusConflict, Message: msgIllegalStatus, Err: ErrIllegalTransition}
}

func orderNotFound() *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: msgOrderNotFound, Err: ErrNotFound}
}

// 権限なしもNotFoundと同じ見え方にする
func accessDenied() *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: msgOrderNotFound, Err: ErrAccessDenied}
}

func phoneMismatch() *HTTPError {
	return &HTTPError{Status: http.StatusUnprocessableEntity, Message: msgPhoneMismatch, Err: ErrAccessDenied}
}

func storageError(err error) *HTTPError {
	return &HTTPError{Status: http.StatusServiceUnavailable, Message: msgStorageFailure, Err: errors.Join(ErrTransientStorage, err)}
}
