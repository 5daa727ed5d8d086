package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"video-vault/app/logger"
	"video-vault/app/registry"
	"video-vault/app/service"
	"video-vault/app/store"

	"github.com/gin-gonic/gin"
)

// DownloadHandler 下载任务处理器
type DownloadHandler struct {
	logger      *logger.Logger
	service     *service.DownloadService
	registry    *registry.Registry
	store       *store.Store
	downloadDir string
}

// NewDownloadHandler 创建下载任务处理器
func NewDownloadHandler(
	svc *service.DownloadService,
	reg *registry.Registry,
	st *store.Store,
	downloadDir string,
	log *logger.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		logger:      log,
		service:     svc,
		registry:    reg,
		store:       st,
		downloadDir: downloadDir,
	}
}

// submitRequest 下载提交请求体
type submitRequest struct {
	URL string `json:"url"`
}

// SubmitDownload 提交一个视频下载任务
func (h *DownloadHandler) SubmitDownload(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	id, err := h.service.Submit(req.URL)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Errorf("提交下载任务失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"video_id": id, "message": "开始下载视频"})
}

// GetStatus 查询下载任务状态
func (h *DownloadHandler) GetStatus(c *gin.Context) {
	id := c.Param("id")

	job, exists := h.registry.Get(id)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载任务不存在"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListVideos 列出视频库中的全部记录
func (h *DownloadHandler) ListVideos(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Load())
}

// DeleteVideo 删除视频文件及其视频库记录
//
// 文件已经不存在时视为删除成功（幂等）。
func (h *DownloadHandler) DeleteVideo(c *gin.Context) {
	fileName := c.Param("filename")
	if fileName == "" || fileName == "." || fileName == ".." || fileName != filepath.Base(fileName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的文件名"})
		return
	}

	// 尽力删除视频文件
	path := filepath.Join(h.downloadDir, fileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Errorf("删除视频文件失败: %s, 错误: %v", path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除视频文件失败"})
		return
	}

	// 从视频库中移除记录
	if err := h.store.Remove(fileName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除视频记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "视频删除成功"})
}
