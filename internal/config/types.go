package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// 源站后端类型。
const (
	OriginHTTP  = "http"
	OriginS3    = "s3"
	OriginMinIO = "minio"
	OriginDisk  = "disk"
)

// GlobalConfig 描述节点级运行参数。
type GlobalConfig struct {
	ListenPort              int      `mapstructure:"ListenPort"`
	LogLevel                string   `mapstructure:"LogLevel"`
	LogFilePath             string   `mapstructure:"LogFilePath"`
	LogMaxSize              int      `mapstructure:"LogMaxSize"`
	LogMaxBackups           int      `mapstructure:"LogMaxBackups"`
	LogCompress             bool     `mapstructure:"LogCompress"`
	StoragePath             string   `mapstructure:"StoragePath"`
	OriginTimeout           Duration `mapstructure:"OriginTimeout"`
	MaxConcurrentPulls      int      `mapstructure:"MaxConcurrentPulls"`
	MaxConcurrentTransforms int      `mapstructure:"MaxConcurrentTransforms"`
	MaxDimension            int      `mapstructure:"MaxDimension"`
	SpecCacheSize           int      `mapstructure:"SpecCacheSize"`
}

// OriginConfig 描述源站对象存储；不同 Type 使用不同字段子集。
type OriginConfig struct {
	Type      string `mapstructure:"Type"`
	BaseURL   string `mapstructure:"BaseURL"`
	Endpoint  string `mapstructure:"Endpoint"`
	Region    string `mapstructure:"Region"`
	Bucket    string `mapstructure:"Bucket"`
	Prefix    string `mapstructure:"Prefix"`
	AccessKey string `mapstructure:"AccessKey"`
	SecretKey string `mapstructure:"SecretKey"`
	UseSSL    bool   `mapstructure:"UseSSL"`
	PathStyle bool   `mapstructure:"PathStyle"`
	Path      string `mapstructure:"Path"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Origin OriginConfig `mapstructure:"Origin"`
}

// HasCredentials 表示是否配置了静态访问密钥。
func (o OriginConfig) HasCredentials() bool {
	return o.AccessKey != "" && o.SecretKey != ""
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供日志字段使用。
func (o OriginConfig) AuthMode() string {
	if o.HasCredentials() {
		return "credentialed"
	}
	return "anonymous"
}

// Describe 返回不含密钥的源站摘要，用于日志与诊断接口。
func (o OriginConfig) Describe() string {
	switch o.Type {
	case OriginHTTP:
		return o.Type + ":" + o.BaseURL
	case OriginDisk:
		return o.Type + ":" + o.Path
	default:
		target := o.Bucket
		if o.Prefix != "" {
			target += "/" + strings.Trim(o.Prefix, "/")
		}
		return o.Type + ":" + target
	}
}
