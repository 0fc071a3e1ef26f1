package transform

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var defaultPadColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// parseColor 接受 6 位十六进制（可带 #）或十进制 R,G,B[,A] 分量。
func parseColor(raw string, parts []string) (color.NRGBA, error) {
	switch len(parts) {
	case 1:
		digits := strings.TrimPrefix(strings.TrimSpace(parts[0]), "#")
		if len(digits) != 6 {
			return color.NRGBA{}, badParam("pad", raw, "color must be 6 hex digits or R,G,B[,A]")
		}
		rgb, err := hex.DecodeString(digits)
		if err != nil {
			return color.NRGBA{}, badParam("pad", raw, "color must be 6 hex digits or R,G,B[,A]")
		}
		return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}, nil
	case 3, 4:
		channels := [4]uint8{0, 0, 0, 0xff}
		for i, part := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return color.NRGBA{}, badParam("pad", raw, fmt.Sprintf("color component %q must be 0-255", strings.TrimSpace(part)))
			}
			channels[i] = uint8(n)
		}
		return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}, nil
	default:
		return color.NRGBA{}, badParam("pad", raw, "color must be 6 hex digits or R,G,B[,A]")
	}
}

// formatColor 以 rrggbbaa 小写十六进制输出，作为规范形式。
func formatColor(c color.NRGBA) string {
	return hex.EncodeToString([]byte{c.R, c.G, c.B, c.A})
}
