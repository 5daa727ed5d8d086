package model

import (
	"fmt"
	"time"
)

// MaxDescriptionLength 视频简介在视频库中保留的最大字符数
const MaxDescriptionLength = 200

// VideoRecord 视频库中一条已完成下载的记录，创建后不再修改
type VideoRecord struct {
	Title        string  `json:"title"`
	Duration     *int    `json:"duration"` // 时长（秒）
	Uploader     *string `json:"uploader"` // 上传者
	Description  *string `json:"description"`
	FileSize     *int64  `json:"file_size"` // 文件大小（字节），下载后无法定位文件时为空
	FileName     string  `json:"file_path"` // 仅保存文件名，作为视频库内的自然键
	DownloadedAt string  `json:"downloaded_at"`
}

// NewVideoRecord 根据探测到的元数据和落盘结果构建视频记录
func NewVideoRecord(title string, duration *int, uploader, description *string, fileSize *int64, fileName string) VideoRecord {
	return VideoRecord{
		Title:        title,
		Duration:     duration,
		Uploader:     uploader,
		Description:  TruncateDescription(description),
		FileSize:     fileSize,
		FileName:     fileName,
		DownloadedAt: time.Now().Format(time.RFC3339),
	}
}

// TruncateDescription 截断过长的视频简介，超出部分以省略号结尾
func TruncateDescription(description *string) *string {
	if description == nil {
		return nil
	}
	runes := []rune(*description)
	if len(runes) <= MaxDescriptionLength {
		return description
	}
	truncated := string(runes[:MaxDescriptionLength]) + "..."
	return &truncated
}

// FormatFileSize 将字节数格式化为可读的文件大小
func FormatFileSize(bytes *int64) string {
	if bytes == nil {
		return "未知"
	}
	size := float64(*bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", size)
}

// FormatDuration 将秒数格式化为 mm:ss 或 hh:mm:ss
func FormatDuration(seconds *int) string {
	if seconds == nil {
		return "未知"
	}
	hours := *seconds / 3600
	minutes := (*seconds % 3600) / 60
	secs := *seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
