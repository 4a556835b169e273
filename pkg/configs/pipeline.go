package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultMaxConcurrentTasks 流水线并发解析文件数上限.
	DefaultMaxConcurrentTasks = 10
	// DefaultParsingTimeout 单阶段处理超时（秒）.
	DefaultParsingTimeout = 300
)

// PipelineConfig 解析流水线配置.
type PipelineConfig struct {
	MaxConcurrentTasks int  `mapstructure:"max_concurrent_tasks" rule:"min=1,max=128"`
	ParsingTimeout     int  `mapstructure:"parsing_timeout"      rule:"min=10"`  // 单阶段超时（秒）
	ClassifyPageSample int  `mapstructure:"classify_page_sample" rule:"min=1"`   // 分类采样页数
	MinRangePages      int  `mapstructure:"min_range_pages"      rule:"min=1"`   // 财报年份区间最小页数
	RecoveryInterval   int  `mapstructure:"recovery_interval"    rule:"min=10"`  // 滞留状态恢复扫描间隔（秒）
	OrphanSweep        bool `mapstructure:"orphan_sweep"`                        // 启用文件系统孤儿清理
}

// GetParsingTimeout 返回单阶段超时.
func (c *PipelineConfig) GetParsingTimeout() time.Duration {
	return time.Duration(c.ParsingTimeout) * time.Second
}

// GetRecoveryInterval 返回恢复扫描间隔.
func (c *PipelineConfig) GetRecoveryInterval() time.Duration {
	return time.Duration(c.RecoveryInterval) * time.Second
}

// setDefaults 设置流水线配置的默认值.
func (c *PipelineConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.max_concurrent_tasks", DefaultMaxConcurrentTasks)
	v.SetDefault("pipeline.parsing_timeout", DefaultParsingTimeout)
	v.SetDefault("pipeline.classify_page_sample", 20)
	v.SetDefault("pipeline.min_range_pages", 3)
	v.SetDefault("pipeline.recovery_interval", 300)
	v.SetDefault("pipeline.orphan_sweep", true)
}
