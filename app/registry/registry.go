package registry

import (
	"fmt"
	"strconv"
	"sync"
	"video-vault/app/model"
)

// Registry 进程内的下载任务注册表
//
// 每个任务只由其所属的下载协程写入，轮询接口并发读取。
// 任务条目在进程生命周期内不会删除。
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*model.JobState
	nextID int
}

// New 创建空的任务注册表
func New() *Registry {
	return &Registry{
		jobs: make(map[string]*model.JobState),
	}
}

// NextID 分配下一个任务ID，进程生命周期内单调递增
func (r *Registry) NextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	return strconv.Itoa(r.nextID)
}

// Create 以给定初始状态注册新任务，任务ID已存在视为前置条件违规
func (r *Registry) Create(id string, status model.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return fmt.Errorf("任务已存在: %s", id)
	}

	r.jobs[id] = &model.JobState{
		ID:       id,
		Status:   status,
		Progress: 0,
	}
	return nil
}

// Update 对指定任务应用状态转换
//
// 只允许持有该任务的下载协程调用。终态任务不再接受任何转换。
func (r *Registry) Update(id string, mutate func(*model.JobState)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists || job.Status.IsTerminal() {
		return
	}
	mutate(job)
}

// Get 返回任务状态的只读快照，未知任务ID返回 false
func (r *Registry) Get(id string) (model.JobState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return model.JobState{}, false
	}
	return *job, true
}

// Count 返回注册表中的任务数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jobs)
}
