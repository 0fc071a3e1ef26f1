package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultListenPort         = 5000
	defaultOriginTimeout      = 30 * time.Second
	defaultMaxConcurrentPulls = 32
	defaultMaxDimension       = 8192
	defaultSpecCacheSize      = 4096
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyOriginDefaults(&cfg.Origin)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absStorage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.StoragePath = absStorage

	if cfg.Origin.Type == OriginDisk {
		absOrigin, err := filepath.Abs(cfg.Origin.Path)
		if err != nil {
			return nil, fmt.Errorf("无法解析源站目录: %w", err)
		}
		cfg.Origin.Path = absOrigin
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", defaultListenPort)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StoragePath", "./storage")
	v.SetDefault("OriginTimeout", "30s")
	v.SetDefault("MaxConcurrentPulls", defaultMaxConcurrentPulls)
	v.SetDefault("MaxConcurrentTransforms", 0)
	v.SetDefault("MaxDimension", defaultMaxDimension)
	v.SetDefault("SpecCacheSize", defaultSpecCacheSize)
	v.SetDefault("Origin.Type", OriginHTTP)
	v.SetDefault("Origin.UseSSL", true)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = defaultListenPort
	}
	if g.OriginTimeout.DurationValue() == 0 {
		g.OriginTimeout = Duration(defaultOriginTimeout)
	}
	if g.MaxConcurrentPulls == 0 {
		g.MaxConcurrentPulls = defaultMaxConcurrentPulls
	}
	if g.MaxDimension == 0 {
		g.MaxDimension = defaultMaxDimension
	}
}

func applyOriginDefaults(o *OriginConfig) {
	o.Type = strings.ToLower(strings.TrimSpace(o.Type))
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	o.Prefix = strings.Trim(strings.TrimSpace(o.Prefix), "/")
	if o.Type == OriginS3 && o.Region == "" && o.Endpoint == "" {
		o.Region = "us-east-1"
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
