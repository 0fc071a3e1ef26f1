package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const supportedOriginTypeList = "http|s3|minio|disk"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError("Global.LogLevel", "无法识别的日志级别")
		}
	}
	if g.OriginTimeout.DurationValue() <= 0 {
		return newFieldError("Global.OriginTimeout", "必须大于 0")
	}
	if g.MaxConcurrentPulls <= 0 {
		return newFieldError("Global.MaxConcurrentPulls", "必须大于 0")
	}
	if g.MaxConcurrentTransforms < 0 {
		return newFieldError("Global.MaxConcurrentTransforms", "不能为负数")
	}
	if g.MaxDimension <= 0 {
		return newFieldError("Global.MaxDimension", "必须大于 0")
	}
	if g.SpecCacheSize < 0 {
		return newFieldError("Global.SpecCacheSize", "不能为负数")
	}

	return c.Origin.validate()
}

func (o *OriginConfig) validate() error {
	o.Type = strings.ToLower(strings.TrimSpace(o.Type))
	if (o.AccessKey == "") != (o.SecretKey == "") {
		return newFieldError(originField("AccessKey/SecretKey"), "必须同时提供或同时留空")
	}

	switch o.Type {
	case OriginHTTP:
		if err := validateURL(o.BaseURL); err != nil {
			return fmt.Errorf("%s: %w", originField("BaseURL"), err)
		}
	case OriginS3:
		if o.Bucket == "" {
			return newFieldError(originField("Bucket"), "不能为空")
		}
		if o.Endpoint != "" {
			if err := validateURL(o.Endpoint); err != nil {
				return fmt.Errorf("%s: %w", originField("Endpoint"), err)
			}
		}
	case OriginMinIO:
		if o.Bucket == "" {
			return newFieldError(originField("Bucket"), "不能为空")
		}
		if err := validateEndpointHost(o.Endpoint); err != nil {
			return fmt.Errorf("%s: %w", originField("Endpoint"), err)
		}
	case OriginDisk:
		if strings.TrimSpace(o.Path) == "" {
			return newFieldError(originField("Path"), "不能为空")
		}
	case "":
		return newFieldError(originField("Type"), "不能为空")
	default:
		return newFieldError(originField("Type"), "仅支持 "+supportedOriginTypeList)
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("缺少地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host: %s", raw)
	}
	return nil
}

// validateEndpointHost 校验 MinIO 端点为 host[:port]，不允许带协议或路径。
func validateEndpointHost(raw string) error {
	if raw == "" {
		return errors.New("缺少端点")
	}
	if strings.Contains(raw, "://") {
		return errors.New("端点不应包含协议头，请使用 UseSSL 控制")
	}
	if strings.Contains(raw, "/") || strings.Contains(raw, " ") {
		return errors.New("端点不允许包含路径或空格")
	}
	return nil
}
