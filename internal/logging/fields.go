package logging

import (
	perrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供租户/路径/缓存结果字段，供图片请求日志复用。
func RequestFields(tenant, originPath, cacheStatus string) logrus.Fields {
	return logrus.Fields{
		"tenant":       tenant,
		"origin_path":  originPath,
		"cache_status": cacheStatus,
	}
}

// KeyFields 为源站拉取与变换日志提供缓存键字段。
func KeyFields(action, key string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"key":    key,
	}
}

// ErrorFields 将分类错误的 code/classification/context 展开为日志字段。
func ErrorFields(err error) logrus.Fields {
	if err == nil {
		return logrus.Fields{}
	}
	fields := logrus.Fields{
		"error":          err.Error(),
		"error_code":     string(perrors.GetCode(err)),
		"classification": string(perrors.GetClassification(err)),
	}
	if resp := perrors.ToJSON(err); resp != nil {
		for k, v := range resp.Context {
			fields["error_"+k] = v
		}
	}
	return fields
}
