// Package errors 提供统一错误辅助与车辆识别失败分类，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误（可按需扩展错误码）
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
)

// Kind 识别失败类别；仅用于选择提示文案与 HTTP 映射，不作为对外错误码
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindBadRequest        Kind = "bad_request"
	KindUnauthorized      Kind = "unauthorized"
	KindRateLimited       Kind = "rate_limited"
	KindAPIError          Kind = "api_error"
	KindNetworkError      Kind = "network_error"
	KindMalformedResponse Kind = "malformed_response"
	KindEmptyResult       Kind = "empty_result"
)

// Error 表示一次识别请求的终态失败
type Error struct {
	Kind    Kind
	Message string
	// Status 上游 HTTP 状态码，仅 KindAPIError 等收到响应的类别非零
	Status int
	// ServerMessage 上游 error.message，可能为空
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindNetworkError {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 支持 errors.Is(err, KindX) 与 errors.Is(err, &Error{Kind: X})
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return t != nil && e.Kind == t.Kind
	}
	return false
}

// Error 使 Kind 可直接作为 errors.Is 的 target
func (k Kind) Error() string { return string(k) }

// New 创建指定类别的错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf 返回 err 链中第一个 *Error 的类别，不存在时返回空
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As 透传标准库 errors.As，避免调用方同时导入两个 errors 包
func As(err error, target any) bool { return errors.As(err, target) }

// Is 透传标准库 errors.Is
func Is(err, target error) bool { return errors.Is(err, target) }

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
