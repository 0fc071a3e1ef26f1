package identity

import (
	"net"
	"path"
	"strings"

	"github.com/any-hub/img-edge/internal/cdnerr"
)

// Identity 描述一次图片请求的租户作用域身份，构造后不可变。
type Identity struct {
	Tenant     string
	OriginPath string
	RawQuery   string

	stem string
	ext  string
	mime string
}

// Stem 返回不含扩展名的源路径（保留目录部分）。
func (id Identity) Stem() string {
	return id.stem
}

// Ext 返回请求路径的扩展名（不含点，保留原始大小写）。
func (id Identity) Ext() string {
	return id.ext
}

// MIMEType 返回由请求路径扩展名推导出的内容类型。
func (id Identity) MIMEType() string {
	return id.mime
}

// Resolve 将 Host/路径/查询串解析为 Identity，任何不满足约束的输入都返回 BadRequest。
func Resolve(host, requestPath, rawQuery string) (Identity, error) {
	tenant, err := tenantFromHost(host)
	if err != nil {
		return Identity{}, err
	}

	originPath, err := cleanPath(requestPath)
	if err != nil {
		return Identity{}, cdnerr.With(err, "tenant", tenant)
	}

	base := path.Base(originPath)
	dot := strings.LastIndex(base, ".")
	if dot < 0 {
		return Identity{}, withPath(cdnerr.BadRequest("path %q has no file extension", requestPath), tenant, requestPath)
	}
	if dot == 0 {
		return Identity{}, withPath(cdnerr.BadRequest("path %q has no file name before the extension", requestPath), tenant, requestPath)
	}
	ext := base[dot+1:]
	if ext == "" {
		return Identity{}, withPath(cdnerr.BadRequest("path %q ends with an empty extension", requestPath), tenant, requestPath)
	}
	mime, ok := MIMEType(ext)
	if !ok {
		return Identity{}, withPath(cdnerr.BadRequest("unsupported image extension %q", ext), tenant, requestPath)
	}

	return Identity{
		Tenant:     tenant,
		OriginPath: originPath,
		RawQuery:   rawQuery,
		stem:       strings.TrimSuffix(originPath, "."+ext),
		ext:        ext,
		mime:       mime,
	}, nil
}

// NormalizeHost 去掉端口与末尾的点并转为小写，供租户解析与日志复用。
func NormalizeHost(raw string) string {
	host := strings.TrimSpace(raw)
	if host == "" {
		return ""
	}
	if strings.Contains(host, ":") {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		} else if idx := strings.LastIndex(host, ":"); idx > -1 && !strings.Contains(host[:idx], ":") {
			host = host[:idx]
		}
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

func tenantFromHost(raw string) (string, error) {
	host := NormalizeHost(raw)
	idx := strings.Index(host, ".")
	if idx <= 0 {
		return "", cdnerr.With(cdnerr.BadRequest("host %q has no tenant label", raw), "host", raw)
	}
	return host[:idx], nil
}

func cleanPath(raw string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", cdnerr.With(cdnerr.BadRequest("request path is empty"), "path", raw)
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", cdnerr.With(cdnerr.BadRequest("path %q escapes the tenant root", raw), "path", raw)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+trimmed), "/")
	if strings.HasSuffix(trimmed, "/") || cleaned == "" {
		return "", cdnerr.With(cdnerr.BadRequest("path %q does not name a file", raw), "path", raw)
	}
	return cleaned, nil
}

func withPath(err error, tenant, requestPath string) error {
	return cdnerr.With(cdnerr.With(err, "tenant", tenant), "path", requestPath)
}
