package metrics

import "github.com/prometheus/client_golang/prometheus"

// 流水线指标.
var (
	// FilesUploaded 按去重判定统计的上传计数.
	FilesUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidvault_files_uploaded_total",
			Help: "Total number of uploaded files by dedup verdict",
		},
		[]string{"verdict"},
	)

	// PipelineStageTotal 按阶段与结果统计的流水线推进计数.
	PipelineStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidvault_pipeline_stage_total",
			Help: "Total number of pipeline stage executions by outcome",
		},
		[]string{"stage", "outcome"},
	)

	// PipelineStageDuration 单阶段处理耗时.
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bidvault_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// StaleRecovered 滞留恢复计数.
	StaleRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bidvault_pipeline_stale_recovered_total",
			Help: "Total number of stale pipeline tasks recovered",
		},
	)
)

// registerPipelineMetrics 注册流水线指标到包内注册表.
func registerPipelineMetrics() {
	registry.MustRegister(
		FilesUploaded,
		PipelineStageTotal,
		PipelineStageDuration,
		StaleRecovered,
	)
}
