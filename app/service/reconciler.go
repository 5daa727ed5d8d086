package service

import (
	"os"
	"path/filepath"
	"strings"
	"video-vault/app/extractor"
	"video-vault/app/model"
	"video-vault/app/store"
)

// Reconciler 视频库对账器
//
// 把提取引擎下载后给出的预期输出路径解析为磁盘上的真实文件，
// 并据此构建视频记录。该步骤永不失败：定位不到文件时生成一条
// 文件大小为空的降级记录，因为下载本身已经成功。
type Reconciler struct {
	downloadDir string
}

// NewReconciler 创建视频库对账器
func NewReconciler(downloadDir string) *Reconciler {
	return &Reconciler{downloadDir: downloadDir}
}

// Resolve 根据预期输出路径和探测到的元数据构建视频记录
func (r *Reconciler) Resolve(expectedPath string, meta *extractor.Metadata) model.VideoRecord {
	fileName := filepath.Base(expectedPath)
	actualPath := filepath.Join(r.downloadDir, fileName)

	// 预期路径不存在时，按文件名主干前缀在下载目录中查找。
	// 引擎的文件名清洗可能改写扩展名或分隔符。
	if _, err := os.Stat(actualPath); err != nil {
		if matched := r.findByStem(fileName); matched != "" {
			fileName = matched
			actualPath = filepath.Join(r.downloadDir, matched)
		}
	}

	var fileSize *int64
	if info, err := os.Stat(actualPath); err == nil {
		size := info.Size()
		fileSize = &size
	}

	return model.NewVideoRecord(meta.Title, meta.Duration, meta.Uploader, meta.Description, fileSize, fileName)
}

// findByStem 在下载目录中查找与给定文件名主干同前缀的第一个文件
func (r *Reconciler) findByStem(fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if stem == "" {
		return ""
	}

	entries, err := os.ReadDir(r.downloadDir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == store.FileName || strings.HasSuffix(name, ".tmp") {
			continue
		}
		if strings.HasPrefix(name, stem) {
			return name
		}
	}
	return ""
}
