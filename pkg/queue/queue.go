// Package queue 管理消息队列，用于异步驱动文件解析流水线.
//
// 概览
//   - 采用发布/订阅模型，解耦"上传、解析、归档、索引"等环节
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic），跨语言易解析
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "bv.file.uploaded",
//	    "trace_id": "optional-trace-id",
//	    "producer": "bidvault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// Go 端：发布/订阅示例
//
//	// 1) 构造负载
//	payload := queue.FileUploadedPayload{
//	  File: queue.FileRef{
//	    FileID: "8f2c...",
//	    Filename: "投标文件.pdf",
//	    SHA256: "ab12...",
//	    Size: 42,
//	  },
//	  Verdict: "new",
//	}
//
//	// 2) 构造 watermill 消息（可选设置 TraceID/Producer）
//	msg, _ := queue.NewWatermillMessage(
//	  queue.TopicFileUploaded, payload,
//	  queue.WithTraceID("trace-xyz"),
//	  queue.WithProducer("bidvault"),
//	)
//
//	// 3) 通过 MQ 客户端发布
//	//   client, _ := mq.New(ctx)
//	//   _ = client.Publish(ctx, queue.TopicFileUploaded, msg)
//
//	// 4) 订阅（简化展示）
//	//   ch, _ := client.Subscribe(ctx, queue.TopicFileUploaded)
//	//   for m := range ch {
//	//       env, _ := queue.ParseWatermillMessage[queue.FileUploadedPayload](m)
//	//       // 使用 env.Header / env.Payload ...
//	//       m.Ack()
//	//   }
//
// 注意事项
//  1. occurred_at 为 UTC，RFC3339 格式
//  2. version 便于后向兼容，建议消费者忽略未知字段
//  3. Header.topic 与消息中间件的 Subject/Topic 可能重复，意在离线可追踪
//  4. 生命周期事件以 主题|文件ID|状态 的哈希作为消息 ID，重发同一事件天然幂等

// 参考：topics.go（主题）、payloads.go（负载）、internal/storage/mq（MQ 客户端封装）.
package queue

import (
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// DeterministicID 由若干确定性键拼接生成消息 ID，同一事件重发得到同一 ID.
func DeterministicID(parts ...string) string {
	h := xxhash.New()

	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("|")
	}

	return fmt.Sprintf("%016x", h.Sum64())
}

// NewWatermillMessage 构造一个 watermill 消息，设置 ID 与元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))

	if header.Version != "" {
		msg.Metadata.Set("version", header.Version)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
