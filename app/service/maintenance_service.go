package service

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"video-vault/app/config"
	"video-vault/app/logger"
	"video-vault/app/store"

	"github.com/robfig/cron/v3"
)

// staleTempAge 残留临时文件的清理阈值
const staleTempAge = 24 * time.Hour

// MaintenanceService 定时维护服务
//
// 周期性清理下载目录中的残留临时文件，并核对视频库记录
// 与磁盘文件的偏差（文件大小变化、文件丢失）。
type MaintenanceService struct {
	logger      *logger.Logger
	cfg         *config.MaintenanceConfig
	downloadDir string
	store       *store.Store
	cron        *cron.Cron
	mu          sync.Mutex
	isRunning   bool
}

// NewMaintenanceService 创建定时维护服务
func NewMaintenanceService(cfg *config.MaintenanceConfig, downloadDir string, st *store.Store, log *logger.Logger) *MaintenanceService {
	return &MaintenanceService{
		logger:      log,
		cfg:         cfg,
		downloadDir: downloadDir,
		store:       st,
		cron:        cron.New(),
	}
}

// Start 启动定时维护任务
func (s *MaintenanceService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	schedule := s.cfg.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("定时维护服务已启动, 调度: %s", schedule)
	return nil
}

// Stop 停止定时维护任务
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.Info("定时维护服务已停止")
}

// runOnce 执行一轮维护
func (s *MaintenanceService) runOnce() {
	s.cleanStaleTempFiles()
	s.reconcileRecords()
}

// cleanStaleTempFiles 清理下载目录中长时间残留的临时文件
func (s *MaintenanceService) cleanStaleTempFiles() {
	entries, err := os.ReadDir(s.downloadDir)
	if err != nil {
		s.logger.Warnf("读取下载目录失败: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < staleTempAge {
			continue
		}
		path := filepath.Join(s.downloadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warnf("清理临时文件失败: %s, 错误: %v", path, err)
			continue
		}
		s.logger.Infof("已清理残留临时文件: %s", path)
	}
}

// reconcileRecords 核对视频库记录与磁盘文件的偏差
func (s *MaintenanceService) reconcileRecords() {
	for _, record := range s.store.Load() {
		path := filepath.Join(s.downloadDir, record.FileName)
		info, err := os.Stat(path)
		if err != nil {
			// 只记录丢失，不主动删除记录，删除由目录监控负责
			s.logger.Warnf("视频库记录对应的文件不存在: %s", record.FileName)
			continue
		}

		size := info.Size()
		if record.FileSize == nil || *record.FileSize != size {
			record.FileSize = &size
			if err := s.store.Append(record); err != nil {
				s.logger.Warnf("更新视频记录大小失败: %s, 错误: %v", record.FileName, err)
				continue
			}
			s.logger.Infof("已更新视频记录大小: %s -> %d 字节", record.FileName, size)
		}
	}
}
