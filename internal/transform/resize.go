package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FitMode 决定 Resize 如何在给定宽高内安放图像。
type FitMode string

const (
	// FitScale 等比缩小到给定边界内，不放大。
	FitScale FitMode = "scale"
	// FitWidth 等比缩放到精确宽度。
	FitWidth FitMode = "width"
	// FitHeight 等比缩放到精确高度。
	FitHeight FitMode = "height"
	// FitCrop 等比填满宽高后居中裁剪。
	FitCrop FitMode = "crop"
	// FitPad 等比放入宽高后以白色居中补边。
	FitPad FitMode = "pad"
)

var fitModes = map[string]FitMode{
	"width":  FitWidth,
	"height": FitHeight,
	"crop":   FitCrop,
	"pad":    FitPad,
}

// resampleFilter 为所有缩放共用的重采样滤波器。
var resampleFilter = imaging.Lanczos

func init() {
	MustRegister(OperationMetadata{
		Key:         opResize,
		Description: "Resize to width and/or height; fit selects width|height|crop|pad, default scales down preserving aspect",
		Params:      []string{"width", "height", "fit"},
		Idempotent:  true,
	})
}

// Resize 由 width/height/fit 合并而成；0 表示未指定该维度。
type Resize struct {
	Width  int
	Height int
	Fit    FitMode
}

func (r Resize) Key() string { return opResize }

func (r Resize) Canonical() string {
	fields := make([]string, 0, 6)
	if r.Width > 0 {
		fields = append(fields, "w", itoa(r.Width))
	}
	if r.Height > 0 {
		fields = append(fields, "h", itoa(r.Height))
	}
	fields = append(fields, "fit", string(r.Fit))
	return canonicalCall(opResize, fields...)
}

// OutputSize 在分配像素前按 fit 模式推算输出尺寸，算法与 imaging 的取整一致。
func (r Resize) OutputSize(in image.Point) image.Point {
	switch r.Fit {
	case FitWidth:
		return image.Pt(r.Width, scaleSide(r.Width, in.X, in.Y))
	case FitHeight:
		return image.Pt(scaleSide(r.Height, in.Y, in.X), r.Height)
	case FitCrop, FitPad:
		return image.Pt(r.Width, r.Height)
	default:
		// scale 只缩小，输出不超过输入
		return in
	}
}

// scaleSide 返回将 from 边缩放到 to 后，other 边按比例得到的长度。
func scaleSide(to, from, other int) int {
	if from <= 0 {
		return 0
	}
	v := math.Floor(float64(to)*float64(other)/float64(from) + 0.5)
	if v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func (r Resize) Apply(img image.Image) (image.Image, error) {
	switch r.Fit {
	case FitScale:
		return scaleDown(img, r.Width, r.Height), nil
	case FitWidth:
		return imaging.Resize(img, r.Width, 0, resampleFilter), nil
	case FitHeight:
		return imaging.Resize(img, 0, r.Height, resampleFilter), nil
	case FitCrop:
		return imaging.Fill(img, r.Width, r.Height, imaging.Center, resampleFilter), nil
	case FitPad:
		fitted := scaleDown(img, r.Width, r.Height)
		canvas := imaging.New(r.Width, r.Height, defaultPadColor)
		return imaging.PasteCenter(canvas, fitted), nil
	default:
		return nil, fmt.Errorf("unknown fit mode %q", r.Fit)
	}
}

func scaleDown(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	if (width == 0 || bounds.Dx() <= width) && (height == 0 || bounds.Dy() <= height) {
		return imaging.Clone(img)
	}
	if width > 0 && height > 0 {
		return imaging.Fit(img, width, height, resampleFilter)
	}
	return imaging.Resize(img, width, height, resampleFilter)
}

// resizeBuilder 收集分散在查询串中的 width/height/fit，最后合并为一个 Resize。
type resizeBuilder struct {
	width  int
	height int
	fit    FitMode
}

func (b *resizeBuilder) set(name, value string, maxDimension int) error {
	switch name {
	case "width":
		n, err := parseDimension(name, value, maxDimension)
		if err != nil {
			return err
		}
		b.width = n
	case "height":
		n, err := parseDimension(name, value, maxDimension)
		if err != nil {
			return err
		}
		b.height = n
	case "fit":
		mode, ok := fitModes[value]
		if !ok {
			return badParam(name, value, "fit must be one of width, height, crop, pad")
		}
		b.fit = mode
	}
	return nil
}

func (b *resizeBuilder) build() (Resize, error) {
	op := Resize{Width: b.width, Height: b.height, Fit: b.fit}
	switch op.Fit {
	case "":
		if op.Width == 0 && op.Height == 0 {
			return Resize{}, badParam("fit", "", "resize needs a width or a height")
		}
		op.Fit = FitScale
	case FitWidth:
		if op.Width == 0 || op.Height != 0 {
			return Resize{}, badParam("fit", string(op.Fit), "fit=width takes a width and no height")
		}
	case FitHeight:
		if op.Height == 0 || op.Width != 0 {
			return Resize{}, badParam("fit", string(op.Fit), "fit=height takes a height and no width")
		}
	case FitCrop, FitPad:
		if op.Width == 0 || op.Height == 0 {
			return Resize{}, badParam("fit", string(op.Fit), fmt.Sprintf("fit=%s needs both width and height", op.Fit))
		}
	}
	return op, nil
}
