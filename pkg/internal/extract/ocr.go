package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sony/gobreaker"

	"github.com/yeisme/bidvault/pkg/configs"
)

// OCRClient 外部 OCR 服务的 HTTP 客户端，带熔断保护.
// 进程级共享，通过 InitOCR 在启动阶段显式构建.
type OCRClient struct {
	cfg     configs.OCRConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

var (
	ocrOnce     sync.Once
	ocrInstance *OCRClient
)

// InitOCR 构建进程级 OCR 客户端，重复调用无效.
// OCR 未启用时客户端存在但 Enabled 返回 false.
func InitOCR(cfg configs.OCRConfig, cbCfg configs.CircuitBreakerConfig) {
	ocrOnce.Do(func() {
		ocrInstance = newOCRClient(cfg, cbCfg)
	})
}

// OCR 返回进程级 OCR 客户端；未初始化时返回禁用状态的客户端.
func OCR() *OCRClient {
	if ocrInstance == nil {
		return &OCRClient{}
	}

	return ocrInstance
}

func newOCRClient(cfg configs.OCRConfig, cbCfg configs.CircuitBreakerConfig) *OCRClient {
	settings := gobreaker.Settings{
		Name:        "ocr-engine",
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

	return &OCRClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.GetTimeoutDuration()},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Enabled 判断 OCR 是否可用.
func (c *OCRClient) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.client != nil
}

type ocrRequest struct {
	Image    string `json:"image"` // base64 编码的图片字节
	Language string `json:"language,omitempty"`
}

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Recognize 提交一张图片并返回识别文本.
// 熔断打开或服务不可用时返回错误，由调用方降级.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("ocr disabled")
	}

	payload, err := sonic.Marshal(ocrRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Language: c.cfg.Language,
	})
	if err != nil {
		return "", fmt.Errorf("encode ocr request: %w", err)
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
			return nil, fmt.Errorf("ocr service status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var out ocrResponse
		if err := sonic.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode ocr response: %w", err)
		}

		return out.Text, nil
	})
	if err != nil {
		return "", err
	}

	text, _ := result.(string)

	return text, nil
}
