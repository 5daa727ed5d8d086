package service

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
	"video-vault/app/config"
	"video-vault/app/extractor"
	"video-vault/app/logger"
	"video-vault/app/model"
	"video-vault/app/registry"
	"video-vault/app/store"

	"github.com/patrickmn/go-cache"
)

// ErrEmptyURL 提交的视频地址为空
var ErrEmptyURL = fmt.Errorf("视频地址不能为空")

// DownloadService 下载编排服务
//
// 每个任务在独立协程中端到端运行：调用提取引擎、把进度通知翻译为
// 任务状态、对账落盘文件并最终写入视频库。并发下载数由信号量限制，
// 超出容量的任务以 queued 状态等待空闲槽位。
type DownloadService struct {
	logger     *logger.Logger
	cfg        *config.DownloadConfig
	registry   *registry.Registry
	store      *store.Store
	engine     extractor.Engine
	reconciler *Reconciler
	thumbnails *ThumbnailFetcher
	probeCache *cache.Cache
	workers    chan struct{} // 控制并发下载数的信号量
}

// NewDownloadService 创建下载编排服务
func NewDownloadService(
	cfg *config.DownloadConfig,
	log *logger.Logger,
	reg *registry.Registry,
	st *store.Store,
	engine extractor.Engine,
) *DownloadService {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	cacheTTL := time.Duration(cfg.ProbeCacheMinutes) * time.Minute
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	s := &DownloadService{
		logger:     log,
		cfg:        cfg,
		registry:   reg,
		store:      st,
		engine:     engine,
		reconciler: NewReconciler(cfg.Dir),
		probeCache: cache.New(cacheTTL, 10*time.Minute),
		workers:    make(chan struct{}, maxConcurrent),
	}
	if cfg.FetchThumbnail {
		s.thumbnails = NewThumbnailFetcher(cfg.Dir, log)
	}
	return s
}

// Submit 提交一个下载任务，返回分配的任务ID
//
// 空地址在分配任务ID之前同步拒绝。有空闲槽位时任务立即进入
// downloading 状态，否则以 queued 状态等待。
func (s *DownloadService) Submit(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrEmptyURL
	}

	id := s.registry.NextID()

	// 尝试立即占用下载槽位
	select {
	case s.workers <- struct{}{}:
		if err := s.registry.Create(id, model.JobStatusDownloading); err != nil {
			<-s.workers
			return "", err
		}
		go s.runJob(id, url, true)
	default:
		if err := s.registry.Create(id, model.JobStatusQueued); err != nil {
			return "", err
		}
		go s.runJob(id, url, false)
	}

	s.logger.Infof("已提交下载任务: ID=%s, URL=%s", id, url)
	return id, nil
}

// runJob 运行单个下载任务直至完成或失败
func (s *DownloadService) runJob(id, url string, slotHeld bool) {
	if !slotHeld {
		// 等待空闲下载槽位
		s.workers <- struct{}{}
		s.registry.Update(id, func(job *model.JobState) {
			job.Status = model.JobStatusDownloading
		})
	}
	defer func() { <-s.workers }()

	ctx := context.Background()

	// 探测视频元数据
	meta, err := s.probe(ctx, url)
	if err != nil {
		s.fail(id, url, err)
		return
	}

	opts := extractor.FetchOptions{
		QualityCeiling: s.cfg.QualityCeiling,
		OutputTemplate: filepath.Join(s.cfg.Dir, s.cfg.OutputTemplate),
	}

	// 下载视频，把引擎的进度通知翻译为任务状态
	expectedPath, err := s.engine.Fetch(ctx, url, opts, func(p extractor.Progress) {
		s.applyProgress(id, p)
	})
	if err != nil {
		s.fail(id, url, err)
		return
	}

	// 对账落盘文件并构建视频记录
	record := s.reconciler.Resolve(expectedPath, meta)

	// 尽力下载封面图附属文件，失败不影响任务结果
	if s.thumbnails != nil && meta.Thumbnail != "" {
		s.thumbnails.Fetch(ctx, meta.Thumbnail, record.FileName)
	}

	// 写入视频库失败只记录日志，任务本身仍视为完成：
	// 从提取引擎的角度下载已经成功，视频库待修复后可见
	if err := s.store.Append(record); err != nil {
		s.logger.Errorf("保存视频记录失败: ID=%s, 文件=%s, 错误=%v", id, record.FileName, err)
	}

	s.registry.Update(id, func(job *model.JobState) {
		job.SetCompleted(&record)
	})
	s.logger.Infof("下载任务完成: ID=%s, 文件=%s", id, record.FileName)
}

// probe 探测视频元数据，结果带 TTL 缓存避免同一地址重复探测
func (s *DownloadService) probe(ctx context.Context, url string) (*extractor.Metadata, error) {
	if cached, found := s.probeCache.Get(url); found {
		return cached.(*extractor.Metadata), nil
	}

	meta, err := s.engine.Probe(ctx, url)
	if err != nil {
		return nil, err
	}
	s.probeCache.Set(url, meta, cache.DefaultExpiration)
	return meta, nil
}

// applyProgress 把一次引擎进度通知写入任务注册表
func (s *DownloadService) applyProgress(id string, p extractor.Progress) {
	if p.Finished {
		s.registry.Update(id, func(job *model.JobState) {
			job.SetProcessing()
		})
		return
	}

	// 精确总大小优先，缺失时参考估算值
	total := p.TotalBytes
	if total <= 0 {
		total = p.TotalBytesEstimate
	}
	if total <= 0 {
		return
	}

	percent := ComputePercent(p.DownloadedBytes, total)
	s.registry.Update(id, func(job *model.JobState) {
		job.SetProgress(percent)
	})
}

// fail 把任务标记为失败终态
func (s *DownloadService) fail(id, url string, err error) {
	s.logger.Errorf("下载任务失败: ID=%s, URL=%s, 错误=%v", id, url, err)
	s.registry.Update(id, func(job *model.JobState) {
		job.SetFailed(err)
	})
}

// ComputePercent 按已下载字节数计算进度百分比，限制在 [0,100] 并保留一位小数
func ComputePercent(downloaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	percent := float64(downloaded) / float64(total) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return math.Round(percent*10) / 10
}
