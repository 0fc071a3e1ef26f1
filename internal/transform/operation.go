package transform

import (
	"image"
	"strconv"
	"strings"
)

const (
	opResize  = "resize"
	opCrop    = "crop"
	opPad     = "pad"
	opEffect  = "effect"
	opQuality = "quality"
)

// Operation 是变换链中的一个步骤：Key 标识操作类别，Canonical 给出稳定的序列化，
// Apply 在解码后的图像上执行像素处理。
type Operation interface {
	Key() string
	Canonical() string
	Apply(img image.Image) (image.Image, error)
}

// canonicalCall 以 name(k=v,...) 形式序列化，字段顺序由调用方固定。
func canonicalCall(name string, fields ...string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i := 0; i+1 < len(fields); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(fields[i])
		b.WriteByte('=')
		b.WriteString(fields[i+1])
	}
	b.WriteByte(')')
	return b.String()
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
