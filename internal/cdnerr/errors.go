package cdnerr

import (
	"net/http"

	perrors "github.com/jmgilman/go/errors"
)

// Kind 是边缘节点对外暴露的错误分类，与 HTTP 状态码一一对应。
type Kind string

const (
	KindBadRequest        Kind = "bad_request"
	KindNotFound          Kind = "not_found"
	KindOriginFailure     Kind = "origin_failure"
	KindTransformFailure  Kind = "transform_failure"
	KindFilesystemFailure Kind = "filesystem_failure"
	KindUnknown           Kind = "unknown"
)

var kindCodes = map[Kind]perrors.ErrorCode{
	KindBadRequest:        perrors.CodeInvalidInput,
	KindNotFound:          perrors.CodeNotFound,
	KindOriginFailure:     perrors.CodeNetwork,
	KindTransformFailure:  perrors.CodeExecutionFailed,
	KindFilesystemFailure: perrors.CodeInternal,
}

var codeKinds = func() map[perrors.ErrorCode]Kind {
	out := make(map[perrors.ErrorCode]Kind, len(kindCodes))
	for kind, code := range kindCodes {
		out[code] = kind
	}
	return out
}()

// BadRequest 表示客户端提交的 Host/路径/查询串无法解析，永不重试。
func BadRequest(format string, args ...interface{}) error {
	return perrors.Newf(perrors.CodeInvalidInput, format, args...)
}

// NotFound 表示源站明确答复对象不存在。
func NotFound(format string, args ...interface{}) error {
	return perrors.Newf(perrors.CodeNotFound, format, args...)
}

// OriginFailure 包装源站传输/存储错误（非 not-found），分类为可重试。
func OriginFailure(cause error, format string, args ...interface{}) error {
	return build(cause, perrors.CodeNetwork, format, args...)
}

// TransformFailure 包装解码或处理失败；原图仍保留在缓存中。
func TransformFailure(cause error, format string, args ...interface{}) error {
	return build(cause, perrors.CodeExecutionFailed, format, args...)
}

// FilesystemFailure 表示缓存目录不可读/不可写，属于节点级故障。
func FilesystemFailure(cause error, format string, args ...interface{}) error {
	return build(cause, perrors.CodeInternal, format, args...)
}

func build(cause error, code perrors.ErrorCode, format string, args ...interface{}) error {
	if cause == nil {
		return perrors.Newf(code, format, args...)
	}
	return perrors.Wrapf(cause, code, format, args...)
}

// With 为错误追加一条上下文字段（tenant/path/key 等），nil 保持 nil。
func With(err error, key string, value interface{}) error {
	if err == nil {
		return nil
	}
	return perrors.WithContext(err, key, value)
}

// KindOf 根据错误码还原分类，非平台错误返回 KindUnknown。
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if kind, ok := codeKinds[perrors.GetCode(err)]; ok {
		return kind
	}
	return KindUnknown
}

// Is 判断 err 是否属于指定分类。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status 将错误分类映射为 HTTP 状态码，未知错误一律按 500 处理。
func Status(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Response 生成返回给客户端的 JSON 错误体。
func Response(err error) *perrors.ErrorResponse {
	return perrors.ToJSON(err)
}

// Retryable 报告调用方是否可以在新的请求中重试（仅源站失败为 true）。
func Retryable(err error) bool {
	return perrors.IsRetryable(err)
}
