package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobStaleRecovery = "pipeline.stale_recovery"
	JobOrphanSweep   = "storage.orphan_sweep"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	// CronOrphanSweep 每天 03:30 扫描暂存目录孤儿文件.
	CronOrphanSweep = "30 3 * * *"
)
