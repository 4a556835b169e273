// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：bv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：file(文件生命周期)、chapter(章节抽取)、image(图片提取)、finreport(财报切分)、index(向量索引)
// 状态：开始(started)、完成(ed/无后缀)、失败(failed)

const (
	// 文件生命周期领域.
	TopicFileUploaded      = "bv.file.uploaded"       // 文件已落盘并建立记录，等待流水线领取
	TopicFileParseStarted  = "bv.file.parse.started"  // 解析阶段开始（状态推进到 parsing）
	TopicFileParsed        = "bv.file.parsed"         // 解析完成，章节/图片/元数据已入库
	TopicFileParseFailed   = "bv.file.parse.failed"   // 解析失败，错误详情已写入记录
	TopicFileArchived      = "bv.file.archived"       // 归档完成，语义文件名与归档路径生效
	TopicFileArchiveFailed = "bv.file.archive.failed" // 归档失败
	TopicFileIndexed       = "bv.file.indexed"        // 向量索引完成，文件进入终态
	TopicFileIndexFailed   = "bv.file.index.failed"   // 向量索引失败
	TopicFileDeleted       = "bv.file.deleted"        // 文件记录及衍生产物被删除（含覆盖上传）
	TopicFileRecovered     = "bv.file.recovered"      // 滞留任务被恢复重新排队

	// 衍生产物领域.
	TopicChapterExtracted = "bv.chapter.extracted" // 章节大纲与正文已写入
	TopicImageExtracted   = "bv.image.extracted"   // 嵌入图片已落盘并登记
	TopicFinreportSplit   = "bv.finreport.split"   // 财报按年份切分归档完成

	// 向量索引领域.
	TopicIndexRequested = "bv.index.requested" // 请求对已归档文件建立向量索引
)

// 通配订阅模式（NATS 通配符语法）.
const (
	PatternFileAll    = "bv.file.>"
	PatternFileFailed = "bv.file.*.failed"
)

// 主题分组，用于批量操作或权限控制.
var (
	// 文件生命周期相关主题集合.
	FileTopics = []string{
		TopicFileUploaded, TopicFileParseStarted, TopicFileParsed,
		TopicFileParseFailed, TopicFileArchived, TopicFileArchiveFailed,
		TopicFileIndexed, TopicFileIndexFailed, TopicFileDeleted,
		TopicFileRecovered,
	}

	// 衍生产物相关主题集合.
	ArtifactTopics = []string{
		TopicChapterExtracted, TopicImageExtracted, TopicFinreportSplit,
	}
)
