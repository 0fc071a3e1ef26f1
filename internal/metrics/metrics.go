// Package metrics exports the edge node's request, origin-pull and transform
// counters to Prometheus. A nil *Recorder is valid and records nothing, so
// components can be constructed without metrics in tests.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "img_edge"

// Recorder 汇总所有 Prometheus 指标。
type Recorder struct {
	gatherer prometheus.Gatherer

	requests          *prometheus.CounterVec
	originPulls       *prometheus.CounterVec
	originPullSeconds prometheus.Histogram
	transforms        *prometheus.CounterVec
	transformSeconds  prometheus.Histogram
}

// NewRecorder 在独立 Registry 上注册全部指标。
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Image requests by response status and cache outcome.",
		}, []string{"status", "cache"}),
		originPulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_pulls_total",
			Help:      "Origin fetches by result (ok, not_found, error).",
		}, []string{"result"}),
		originPullSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "origin_pull_duration_seconds",
			Help:      "Latency of origin fetches including the cache write.",
			Buckets:   prometheus.DefBuckets,
		}),
		transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transforms_total",
			Help:      "Derivative renders by result (ok, error).",
		}, []string{"result"}),
		transformSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Latency of decode, transform and encode for one derivative.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	collectors := []prometheus.Collector{
		r.requests, r.originPulls, r.originPullSeconds, r.transforms, r.transformSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return r, nil
}

// ObserveRequest 记录一次图片请求的最终状态码与缓存结果。
func (r *Recorder) ObserveRequest(status int, cacheStatus string) {
	if r == nil {
		return
	}
	if cacheStatus == "" {
		cacheStatus = "none"
	}
	r.requests.WithLabelValues(strconv.Itoa(status), cacheStatus).Inc()
}

// ObservePull 记录一次真实的源站拉取。
func (r *Recorder) ObservePull(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.originPulls.WithLabelValues(result).Inc()
	r.originPullSeconds.Observe(elapsed.Seconds())
}

// ObserveTransform 记录一次衍生图渲染。
func (r *Recorder) ObserveTransform(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.transforms.WithLabelValues(result).Inc()
	r.transformSeconds.Observe(elapsed.Seconds())
}

// Gatherer 暴露底层 Registry，供测试直接读取指标。
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// Handler 返回 Prometheus 文本格式的 HTTP 处理器。
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}
