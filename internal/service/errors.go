package service

import "errors"

// ErrorKind 业务错误分类，handler 据此映射 HTTP 状态码
type ErrorKind string

const (
	KindSelfReference ErrorKind = "self_reference"
	KindNotFound      ErrorKind = "not_found"
	KindForbidden     ErrorKind = "forbidden"
	KindConflict      ErrorKind = "conflict"
	KindUnauthorized  ErrorKind = "unauthorized"
)

// Error 预期内、可恢复的业务错误；存储层异常不会包装成它
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func selfReference(msg string) *Error { return &Error{Kind: KindSelfReference, Message: msg} }
func notFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func forbidden(msg string) *Error     { return &Error{Kind: KindForbidden, Message: msg} }
func conflict(msg string) *Error      { return &Error{Kind: KindConflict, Message: msg} }
func unauthorized(msg string) *Error  { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf 提取业务错误分类；非业务错误返回 ("", false)
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
