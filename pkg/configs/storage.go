package configs

import (
	"github.com/spf13/viper"
)

const (
	// DefaultMaxFileSize 单文件上传上限（50MB）.
	DefaultMaxFileSize = 50 * 1024 * 1024
)

// StorageConfig 文档落盘目录与上传限制配置.
type StorageConfig struct {
	UploadDir         string   `mapstructure:"upload_dir"         rule:"required"` // 新上传文件暂存目录
	ImageDir          string   `mapstructure:"image_dir"          rule:"required"` // 提取图片根目录
	ArchiveDir        string   `mapstructure:"archive_dir"        rule:"required"` // 归档树根目录
	MaxFileSize       int64    `mapstructure:"max_file_size"      rule:"min=1"`    // 单文件字节上限
	AllowedExtensions []string `mapstructure:"allowed_extensions"`                 // 上传后缀白名单（小写，含点号）
	ImageExtensions   []string `mapstructure:"image_extensions"`                   // image_only 模式额外放行的后缀
	MirrorToS3        bool     `mapstructure:"mirror_to_s3"`                       // 归档树同步写入对象存储
}

// IsAllowedExtension 判断扩展名是否在白名单内（imageOnly 时图片后缀也放行）.
func (c *StorageConfig) IsAllowedExtension(ext string, imageOnly bool) bool {
	for _, e := range c.AllowedExtensions {
		if e == ext {
			return true
		}
	}

	if imageOnly {
		for _, e := range c.ImageExtensions {
			if e == ext {
				return true
			}
		}
	}

	return false
}

// setDefaults 设置存储配置的默认值.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.upload_dir", "data/uploads")
	v.SetDefault("storage.image_dir", "data/images")
	v.SetDefault("storage.archive_dir", "data/archive")
	v.SetDefault("storage.max_file_size", DefaultMaxFileSize)
	v.SetDefault("storage.allowed_extensions", []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".txt"})
	v.SetDefault("storage.image_extensions", []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp"})
	v.SetDefault("storage.mirror_to_s3", false)
}
