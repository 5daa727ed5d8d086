package server

import (
	"context"
	"net/http"
	"video-vault/app/config"
	"video-vault/app/extractor"
	"video-vault/app/handler"
	"video-vault/app/logger"
	"video-vault/app/registry"
	"video-vault/app/service"
	"video-vault/app/store"
	"video-vault/app/watcher"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config *config.Config
	Logger *logger.Logger
	gin    *gin.Engine
	http   *http.Server

	registry        *registry.Registry
	store           *store.Store
	downloadService *service.DownloadService
	maintenance     *service.MaintenanceService
	libraryWatcher  *watcher.LibraryWatcher
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	router := gin.Default()

	// 组装下载编排的核心组件
	reg := registry.New()
	st := store.New(cfg.Download.Dir, log)
	engine := extractor.NewYtDlp(cfg.Download.YtDlpPath, log)
	downloadService := service.NewDownloadService(&cfg.Download, log, reg, st, engine)

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config:          cfg,
		Logger:          log,
		registry:        reg,
		store:           st,
		downloadService: downloadService,
	}

	if cfg.Maintenance.Enabled {
		s.maintenance = service.NewMaintenanceService(&cfg.Maintenance, cfg.Download.Dir, st, log)
	}
	if cfg.Watcher.Enabled {
		s.libraryWatcher = watcher.New(cfg.Download.Dir, st, log)
	}

	// 设置路由
	s.setupRoutes()

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	// 启动后台服务
	if s.maintenance != nil {
		if err := s.maintenance.Start(); err != nil {
			return err
		}
	}
	if s.libraryWatcher != nil {
		if err := s.libraryWatcher.Start(); err != nil {
			return err
		}
	}

	return s.http.ListenAndServe()
}

// Shutdown 优雅停止服务器
func (s *Server) Shutdown(ctx context.Context) error {
	// 停止后台服务
	if s.libraryWatcher != nil {
		if err := s.libraryWatcher.Stop(); err != nil {
			s.Logger.Errorf("停止下载目录监控失败: %v", err)
		}
	}
	if s.maintenance != nil {
		s.maintenance.Stop()
	}

	return s.http.Shutdown(ctx)
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes() {
	downloadHandler := handler.NewDownloadHandler(
		s.downloadService, s.registry, s.store, s.Config.Download.Dir, s.Logger)

	// 健康检查
	s.gin.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API路由组
	api := s.gin.Group("/api")
	{
		api.POST("/download", downloadHandler.SubmitDownload)
		api.GET("/status/:id", downloadHandler.GetStatus)
		api.GET("/videos", downloadHandler.ListVideos)
		api.DELETE("/videos/:filename", downloadHandler.DeleteVideo)
	}

	// 下载目录作为静态文件提供，用于视频播放
	s.gin.Static("/downloads", s.Config.Download.Dir)
}
