package queue

import (
	"testing"
)

// TestDeterministicID 同一事件重发得到同一消息 ID.
func TestDeterministicID(t *testing.T) {
	a := DeterministicID(TopicFileUploaded, "f1", "uploaded")
	b := DeterministicID(TopicFileUploaded, "f1", "uploaded")

	if a != b {
		t.Errorf("同参数应得到同一 ID: %s != %s", a, b)
	}

	if len(a) != 16 {
		t.Errorf("ID 长度 = %d, want 16", len(a))
	}

	if a == DeterministicID(TopicFileUploaded, "f2", "uploaded") {
		t.Error("不同文件不应撞 ID")
	}

	if a == DeterministicID(TopicFileParsed, "f1", "uploaded") {
		t.Error("不同主题不应撞 ID")
	}
}

// TestEnvelopeRoundtrip 信封编码后能还原头部与负载.
func TestEnvelopeRoundtrip(t *testing.T) {
	payload := FileUploadedPayload{
		File:    FileRef{FileID: "f1", Filename: "投标文件.pdf", SHA256: "ab12", Size: 42},
		Verdict: "new",
		Version: 1,
	}

	msg, err := NewWatermillMessage(TopicFileUploaded, payload,
		WithTraceID("trace-xyz"), WithProducer("bidvault"))
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	env, err := ParseFileUploaded(msg)
	if err != nil {
		t.Fatalf("ParseFileUploaded: %v", err)
	}

	if env.Header.Topic != TopicFileUploaded || env.Header.TraceID != "trace-xyz" {
		t.Errorf("header = %+v", env.Header)
	}

	if env.Header.Producer != "bidvault" || env.Header.Version != PayloadVersionV1 {
		t.Errorf("header = %+v", env.Header)
	}

	if env.Payload.File.FileID != "f1" || env.Payload.Verdict != "new" {
		t.Errorf("payload = %+v", env.Payload)
	}

	if env.Header.OccurredAt.IsZero() {
		t.Error("occurred_at 未填充")
	}
}
