package identity

import (
	"crypto/sha1"
	"encoding/hex"
)

// Keys 为一次请求在缓存中的两个位置：原图与衍生图，均相对于租户目录。
type Keys struct {
	Tenant     string
	Original   string
	Derivative string
}

// DeriveKeys 根据 Identity 与变换链规范形式计算缓存键；规范形式为空时衍生键与原图键相同。
func DeriveKeys(id Identity, canonical string) Keys {
	keys := Keys{
		Tenant:     id.Tenant,
		Original:   id.OriginPath,
		Derivative: id.OriginPath,
	}
	if canonical == "" {
		return keys
	}
	sum := sha1.Sum([]byte(canonical))
	keys.Derivative = id.Stem() + "-" + hex.EncodeToString(sum[:]) + "." + id.Ext()
	return keys
}

// Transformed 表示衍生键是否指向独立文件。
func (k Keys) Transformed() bool {
	return k.Derivative != k.Original
}

// OriginKey 返回源站对象键（tenant/originPath），也是单飞去重的键。
func (k Keys) OriginKey() string {
	return k.Tenant + "/" + k.Original
}

// DerivativeKey 返回带租户前缀的衍生图键，用于日志与变换去重。
func (k Keys) DerivativeKey() string {
	return k.Tenant + "/" + k.Derivative
}
