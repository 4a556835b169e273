package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/bidvault/pkg/configs"
)

// EmbeddingClient 外部向量化服务的 HTTP 客户端，带熔断保护.
type EmbeddingClient struct {
	cfg     configs.EmbeddingConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewEmbeddingClient 创建向量化客户端.
func NewEmbeddingClient(cfg configs.EmbeddingConfig, cbCfg configs.CircuitBreakerConfig) *EmbeddingClient {
	settings := gobreaker.Settings{
		Name:        "embedding-engine",
		MaxRequests: cbCfg.MaxRequestsInHalf,
		Interval:    time.Duration(cbCfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cbCfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cbCfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cbCfg.FailureRate
		},
	}

	return &EmbeddingClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.GetTimeoutDuration()},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Enabled 判断向量化是否可用.
func (c *EmbeddingClient) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.client != nil
}

// ChunkSize 返回配置的切块字符数.
func (c *EmbeddingClient) ChunkSize() int {
	if c == nil || c.cfg.ChunkSize <= 0 {
		return configs.DefaultEmbeddingChunkSize
	}

	return c.cfg.ChunkSize
}

// Chunk 按字符数将文本切块，块边界优先落在换行处.
func Chunk(text string, size int) []string {
	if size <= 0 || text == "" {
		if text == "" {
			return nil
		}

		return []string{text}
	}

	runes := []rune(text)

	var chunks []string

	for len(runes) > 0 {
		if len(runes) <= size {
			chunks = append(chunks, string(runes))
			break
		}

		cut := size

		// 在窗口后半段寻找最近的换行作为切点
		for i := size - 1; i > size/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}

	return chunks
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float64 `json:"vectors"`
}

// Embed 提交文本块并返回向量条数.
// 熔断打开或服务不可用时返回错误，由调用方决定是否构成阶段失败.
func (c *EmbeddingClient) Embed(ctx context.Context, chunks []string) (int, error) {
	if !c.Enabled() {
		return 0, fmt.Errorf("embedding disabled")
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	payload, err := sonic.Marshal(embedRequest{Texts: chunks})
	if err != nil {
		return 0, fmt.Errorf("encode embed request: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embedding service status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var out embedResponse
		if err := sonic.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode embed response: %w", err)
		}

		return len(out.Vectors), nil
	})
	if err != nil {
		return 0, err
	}

	n, _ := result.(int)

	return n, nil
}
