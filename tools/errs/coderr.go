package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Error codes for the feed core. Codes map onto HTTP statuses at the API
// boundary; everything in between passes *CodeError values around.
const (
	CodeNotFound         = 10404
	CodeInvalidArgument  = 10400
	CodeStoreUnavailable = 10503
	CodeCacheUnavailable = 10504
)

var (
	ErrNotFound         = NewCodeError(CodeNotFound, "record not found")
	ErrInvalidArgument  = NewCodeError(CodeInvalidArgument, "invalid argument")
	ErrStoreUnavailable = NewCodeError(CodeStoreUnavailable, "store unavailable")
	// ErrCacheUnavailable never crosses the cache boundary; it exists so the
	// cache layer can log a classified reason before degrading to a miss.
	ErrCacheUnavailable = NewCodeError(CodeCacheUnavailable, "cache unavailable")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context; the original predefined
// error stays untouched so errors.Is keeps matching by code.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// WrapMsg attaches a detail plus a stack via pkg/errors.
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	return pkgerrors.WithStack(e.WithDetail(toString(msg, kv)))
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Code extracts the CodeError code from err, or 0 when err carries none.
func Code(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}

func New(msg string) error { return pkgerrors.New(msg) }

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.WithStack(err)
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, toString(msg, kv))
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(toStr(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(toStr(kv[i+1]))
		}
	}
	return sb.String()
}

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprint(v)
	}
}
