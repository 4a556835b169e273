package configs

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultEmbeddingChunkSize 章节内容分块字符数默认值.
const DefaultEmbeddingChunkSize = 1000

// EmbeddingConfig 外部向量化服务配置.
// 索引阶段按章节分块提交，向量计算本身由外部服务完成.
type EmbeddingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"   rule:"omitempty,url"`
	Timeout   int    `mapstructure:"timeout"    rule:"min=1"`   // 单批提交超时（秒）
	ChunkSize int    `mapstructure:"chunk_size" rule:"min=100"` // 章节内容分块字符数
}

// GetTimeoutDuration 返回单批提交超时.
func (c *EmbeddingConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// setDefaults 设置向量服务配置的默认值.
func (c *EmbeddingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.enabled", false)
	v.SetDefault("embedding.endpoint", "http://localhost:9600/embed")
	v.SetDefault("embedding.timeout", 60)
	v.SetDefault("embedding.chunk_size", DefaultEmbeddingChunkSize)
}
