package config

import (
	"runtime"
	"time"
)

// Limits 汇总运行期生效的并发与超时参数，零值字段已按默认值填充。
type Limits struct {
	OriginTimeout           time.Duration
	MaxConcurrentPulls      int
	MaxConcurrentTransforms int
	MaxDimension            int
	SpecCacheSize           int
}

// RuntimeLimits 根据全局配置计算最终并发上限，未配置变换并发时按 CPU 数量。
func (c *Config) RuntimeLimits() Limits {
	g := c.Global
	limits := Limits{
		OriginTimeout:           g.OriginTimeout.DurationValue(),
		MaxConcurrentPulls:      g.MaxConcurrentPulls,
		MaxConcurrentTransforms: g.MaxConcurrentTransforms,
		MaxDimension:            g.MaxDimension,
		SpecCacheSize:           g.SpecCacheSize,
	}
	if limits.OriginTimeout <= 0 {
		limits.OriginTimeout = defaultOriginTimeout
	}
	if limits.MaxConcurrentPulls <= 0 {
		limits.MaxConcurrentPulls = defaultMaxConcurrentPulls
	}
	if limits.MaxConcurrentTransforms <= 0 {
		limits.MaxConcurrentTransforms = runtime.NumCPU()
	}
	if limits.MaxDimension <= 0 {
		limits.MaxDimension = defaultMaxDimension
	}
	return limits
}
