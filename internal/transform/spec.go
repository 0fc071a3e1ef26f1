package transform

import (
	"fmt"
	"image"
	"strings"
)

// Spec 为有序、不可变的变换链；零值即空链（直通）。
// maxDimension 为 0 时按 DefaultMaxDimension 限制输出边长。
type Spec struct {
	ops          []Operation
	canonical    string
	maxDimension int
}

// sizer 由会改变画布尺寸的操作实现，在分配像素之前给出输出尺寸。
type sizer interface {
	OutputSize(in image.Point) image.Point
}

// ErrOutputTooLarge 表示某一步会把图像边长放大到上限之外。
type ErrOutputTooLarge struct {
	Op     string
	Output image.Point
	Limit  int
}

func (e *ErrOutputTooLarge) Error() string {
	return fmt.Sprintf("%s would produce %dx%d, above the %d pixel limit", e.Op, e.Output.X, e.Output.Y, e.Limit)
}

// NewSpec 按给定顺序组装变换链并计算规范形式。
func NewSpec(ops ...Operation) Spec {
	if len(ops) == 0 {
		return Spec{}
	}
	owned := make([]Operation, len(ops))
	copy(owned, ops)

	parts := make([]string, len(owned))
	for i, op := range owned {
		parts[i] = op.Canonical()
	}
	return Spec{ops: owned, canonical: strings.Join(parts, "|")}
}

// WithMaxDimension 返回输出边长上限为 n 的副本；规范形式不变。
func (s Spec) WithMaxDimension(n int) Spec {
	s.maxDimension = n
	return s
}

// MaxDimension 返回执行时允许的最大输出边长。
func (s Spec) MaxDimension() int {
	if s.maxDimension <= 0 {
		return DefaultMaxDimension
	}
	return s.maxDimension
}

// Empty 表示无需任何变换。
func (s Spec) Empty() bool {
	return len(s.ops) == 0
}

// Len 返回操作数量。
func (s Spec) Len() int {
	return len(s.ops)
}

// Operations 返回操作副本，调用方修改不会影响 Spec。
func (s Spec) Operations() []Operation {
	out := make([]Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Canonical 返回用于缓存键推导的规范字符串，空链为 ""。
func (s Spec) Canonical() string {
	return s.canonical
}

func (s Spec) String() string {
	if s.Empty() {
		return "identity"
	}
	return s.canonical
}

// Quality 返回链中的质量设置（若有）。
func (s Spec) Quality() (Quality, bool) {
	for i := len(s.ops) - 1; i >= 0; i-- {
		if q, ok := s.ops[i].(Quality); ok {
			return q, true
		}
	}
	return Quality{}, false
}

// Apply 按声明顺序依次执行每个操作，不做任何重排。
// 任何一步若会把某条边放大到 MaxDimension 之外，执行前即返回 *ErrOutputTooLarge。
func (s Spec) Apply(img image.Image) (image.Image, error) {
	limit := s.MaxDimension()
	out := img
	for _, op := range s.ops {
		if sz, ok := op.(sizer); ok {
			in := out.Bounds().Size()
			planned := sz.OutputSize(in)
			if grows(planned.X, in.X, limit) || grows(planned.Y, in.Y, limit) {
				return nil, &ErrOutputTooLarge{Op: op.Canonical(), Output: planned, Limit: limit}
			}
		}
		next, err := op.Apply(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// grows 报告某条边是否被放大且超过上限；不放大的操作不受上限约束。
func grows(out, in, limit int) bool {
	return out > limit && out > in
}
