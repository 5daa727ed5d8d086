package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
	"video-vault/app/logger"

	"resty.dev/v3"
)

// ThumbnailFetcher 封面图下载器
//
// 在视频下载成功后尽力把封面图保存为同名 .jpg 附属文件，
// 任何失败只记录日志，不影响下载任务的结果。
type ThumbnailFetcher struct {
	downloadDir string
	logger      *logger.Logger
	client      *resty.Client
}

// NewThumbnailFetcher 创建封面图下载器
func NewThumbnailFetcher(downloadDir string, log *logger.Logger) *ThumbnailFetcher {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &ThumbnailFetcher{
		downloadDir: downloadDir,
		logger:      log,
		client:      client,
	}
}

// Fetch 下载封面图并保存在视频文件旁边
func (t *ThumbnailFetcher) Fetch(ctx context.Context, thumbnailURL, videoFileName string) {
	stem := strings.TrimSuffix(videoFileName, filepath.Ext(videoFileName))
	if stem == "" {
		return
	}
	savePath := filepath.Join(t.downloadDir, stem+".jpg")

	resp, err := t.client.R().
		SetContext(ctx).
		Get(thumbnailURL)
	if err != nil {
		t.logger.Warnf("下载封面图失败: %s, 错误: %v", thumbnailURL, err)
		return
	}
	if resp.StatusCode() != 200 {
		t.logger.Warnf("下载封面图失败: %s, 状态码: %d", thumbnailURL, resp.StatusCode())
		return
	}

	if err := os.WriteFile(savePath, resp.Bytes(), 0644); err != nil {
		t.logger.Warnf("保存封面图失败: %s, 错误: %v", savePath, err)
		return
	}
	t.logger.Debugf("封面图已保存: %s", savePath)
}

// Close 释放HTTP客户端资源
func (t *ThumbnailFetcher) Close() {
	t.client.Close()
}
