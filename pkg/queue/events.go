package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// publishStage 统一的生命周期事件发布：确定性消息 ID 保证重发幂等.
func publishStage[T any](pub message.Publisher, topic, fileID, status string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	msg.UUID = DeterministicID(topic, fileID, status)

	return pub.Publish(topic, msg)
}

// PublishFileUploaded 发布 bv.file.uploaded 事件。
// 文件落盘且记录入库后发布，流水线订阅该主题领取解析任务。
func PublishFileUploaded(pub message.Publisher, payload FileUploadedPayload, opts ...func(*EventHeader)) error {
	return publishStage(pub, TopicFileUploaded, payload.File.FileID, "uploaded", payload, opts...)
}

// PublishFileStage 发布阶段推进事件（parse.started/parsed/archived/indexed）。
func PublishFileStage(pub message.Publisher, topic string, payload FileStagePayload, opts ...func(*EventHeader)) error {
	return publishStage(pub, topic, payload.File.FileID, payload.Status, payload, opts...)
}

// PublishFileFailed 发布阶段失败事件。
func PublishFileFailed(pub message.Publisher, topic string, payload FileFailedPayload, opts ...func(*EventHeader)) error {
	return publishStage(pub, topic, payload.File.FileID, payload.Status, payload, opts...)
}

// PublishFileDeleted 发布 bv.file.deleted 事件。
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	return publishStage(pub, TopicFileDeleted, payload.File.FileID, "deleted", payload, opts...)
}

// ParseFileUploaded 将 Watermill 消息解析为强类型 Envelope（FileUploadedPayload）。
func ParseFileUploaded(msg *message.Message) (Message[FileUploadedPayload], error) {
	return ParseWatermillMessage[FileUploadedPayload](msg)
}

// ParseFileStage 将 Watermill 消息解析为强类型 Envelope（FileStagePayload）。
func ParseFileStage(msg *message.Message) (Message[FileStagePayload], error) {
	return ParseWatermillMessage[FileStagePayload](msg)
}
