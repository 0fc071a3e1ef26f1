package identity

import "strings"

// mimeTypes 为静态扩展名表，未收录的扩展名在解析阶段即被拒绝。
var mimeTypes = map[string]string{
	"gif":  "image/gif",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"jpe":  "image/jpeg",
	"jif":  "image/jpeg",
	"jfif": "image/jpeg",
	"jfi":  "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"bmp":  "image/bmp",
}

// MIMEType 按扩展名（不含点，大小写不敏感）查找内容类型。
func MIMEType(ext string) (string, bool) {
	mime, ok := mimeTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return mime, ok
}
