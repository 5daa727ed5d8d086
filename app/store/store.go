package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"video-vault/app/logger"
	"video-vault/app/model"
)

// FileName 视频库元数据文档的文件名
const FileName = "videos_info.json"

// Store 视频库元数据存储
//
// 视频库以单个 JSON 文档的形式保存在下载目录中，每次变更整体重写。
// 所有读-改-写序列由同一把互斥锁串行化，避免并发完成的任务丢失记录。
type Store struct {
	mu     sync.Mutex
	path   string
	logger *logger.Logger
}

// New 创建指向下载目录中元数据文档的存储实例
func New(downloadDir string, log *logger.Logger) *Store {
	return &Store{
		path:   filepath.Join(downloadDir, FileName),
		logger: log,
	}
}

// Path 返回元数据文档的路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取视频库的全部记录
//
// 文档不存在返回空列表；文档损坏记录警告后同样返回空列表，不向调用方抛错。
func (s *Store) Load() []model.VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// loadLocked 在持有锁的前提下读取文档
func (s *Store) loadLocked() []model.VideoRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("读取视频信息文件失败: %v", err)
		}
		return []model.VideoRecord{}
	}

	var records []model.VideoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warnf("解析视频信息文件失败: %v", err)
		return []model.VideoRecord{}
	}
	return records
}

// saveLocked 在持有锁的前提下整体重写文档
func (s *Store) saveLocked(records []model.VideoRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.logger.Errorf("序列化视频信息失败: %v", err)
		return fmt.Errorf("序列化视频信息失败: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Errorf("保存视频信息文件失败: %v", err)
		return fmt.Errorf("保存视频信息文件失败: %w", err)
	}
	return nil
}

// Save 以给定记录整体重写视频库
func (s *Store) Save(records []model.VideoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(records)
}

// Append 向视频库追加一条记录
//
// 写入前重新读取文档，以便拾取进程外的修改。文件名相同的已有记录会被
// 新记录替换，保证同名文件在视频库中至多一条记录。
func (s *Store) Append(record model.VideoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	replaced := false
	for i := range records {
		if records[i].FileName == record.FileName {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}
	return s.saveLocked(records)
}

// Remove 从视频库中移除指定文件名的记录，文件名不存在时为无操作
func (s *Store) Remove(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	remaining := make([]model.VideoRecord, 0, len(records))
	for _, record := range records {
		if record.FileName != fileName {
			remaining = append(remaining, record)
		}
	}
	return s.saveLocked(remaining)
}

// Contains 检查视频库中是否存在指定文件名的记录
func (s *Store) Contains(fileName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.loadLocked() {
		if record.FileName == fileName {
			return true
		}
	}
	return false
}
