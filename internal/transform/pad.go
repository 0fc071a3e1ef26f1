package transform

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

func init() {
	MustRegister(OperationMetadata{
		Key:         opPad,
		Description: "Add a border of <amount> pixels on every side, filled with an optional color (default white)",
		Params:      []string{"pad"},
	})
}

// Pad 在四周各补 Amount 像素的边框。
type Pad struct {
	Amount int
	Color  color.NRGBA
}

func (p Pad) Key() string { return opPad }

func (p Pad) Canonical() string {
	return canonicalCall(opPad, "n", itoa(p.Amount), "color", formatColor(p.Color))
}

// OutputSize 返回补边后的画布尺寸。
func (p Pad) OutputSize(in image.Point) image.Point {
	return image.Pt(in.X+2*p.Amount, in.Y+2*p.Amount)
}

func (p Pad) Apply(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx()+2*p.Amount, bounds.Dy()+2*p.Amount, p.Color)
	return imaging.Paste(canvas, img, image.Pt(p.Amount, p.Amount)), nil
}

// parsePad 解析 <amount>[,<color>]。
func parsePad(value string, maxDimension int) (Pad, error) {
	parts := strings.Split(value, ",")
	amount, err := parseBounded("pad", value, parts[0], 1, maxDimension)
	if err != nil {
		return Pad{}, err
	}
	if len(parts) == 1 {
		return Pad{Amount: amount, Color: defaultPadColor}, nil
	}
	c, err := parseColor(value, parts[1:])
	if err != nil {
		return Pad{}, err
	}
	return Pad{Amount: amount, Color: c}, nil
}
