package transform

import (
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	blurSigma    = 1.5
	sharpenSigma = 1.0
)

// EffectInfo 描述一个具名滤镜及其是否对自身输出幂等。
type EffectInfo struct {
	Name       string `json:"name"`
	Idempotent bool   `json:"idempotent"`
}

type effectKernel struct {
	idempotent bool
	apply      func(image.Image) *image.NRGBA
}

var effects = map[string]effectKernel{
	"grayscale": {idempotent: true, apply: imaging.Grayscale},
	"invert":    {apply: imaging.Invert},
	"blur": {apply: func(img image.Image) *image.NRGBA {
		return imaging.Blur(img, blurSigma)
	}},
	"sharpen": {apply: func(img image.Image) *image.NRGBA {
		return imaging.Sharpen(img, sharpenSigma)
	}},
}

func init() {
	MustRegister(OperationMetadata{
		Key:         opEffect,
		Description: "Apply a named filter: " + strings.Join(effectNames(), ", "),
		Params:      []string{"effect"},
	})
}

// Effects 返回所有可用滤镜（按名称排序）。
func Effects() []EffectInfo {
	names := effectNames()
	out := make([]EffectInfo, len(names))
	for i, name := range names {
		out[i] = EffectInfo{Name: name, Idempotent: effects[name].idempotent}
	}
	return out
}

func effectNames() []string {
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Effect 为具名滤镜操作。
type Effect struct {
	Name string
}

func (e Effect) Key() string { return opEffect }

func (e Effect) Canonical() string {
	return canonicalCall(opEffect, "name", e.Name)
}

func (e Effect) Apply(img image.Image) (image.Image, error) {
	return effects[e.Name].apply(img), nil
}

func parseEffect(value string) (Effect, error) {
	name := strings.ToLower(value)
	if _, ok := effects[name]; !ok {
		return Effect{}, badParam("effect", value, "unknown effect, expected one of "+strings.Join(effectNames(), ", "))
	}
	return Effect{Name: name}, nil
}
