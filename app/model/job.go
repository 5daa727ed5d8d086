package model

// JobStatus 下载任务状态
type JobStatus string

// 状态常量
const (
	JobStatusQueued      JobStatus = "queued"      // 等待空闲下载槽位
	JobStatusDownloading JobStatus = "downloading" // 下载中
	JobStatusProcessing  JobStatus = "processing"  // 字节传输完成，等待后处理（如容器封装）
	JobStatusCompleted   JobStatus = "completed"   // 已完成
	JobStatusFailed      JobStatus = "failed"      // 失败
)

// String 返回状态的字符串表示
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal 检查状态是否为终态，终态不再发生任何转换
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobState 单个下载任务的瞬时状态，仅在进程生命周期内存在
type JobState struct {
	ID       string       `json:"id"`
	Status   JobStatus    `json:"status"`
	Progress float64      `json:"progress"`             // 0 到 100，保留一位小数
	Record   *VideoRecord `json:"video_info,omitempty"` // 仅在 completed 状态存在
	Error    string       `json:"error,omitempty"`      // 仅在 failed 状态存在
}

// SetProgress 更新下载进度
func (j *JobState) SetProgress(progress float64) {
	j.Progress = progress
}

// SetProcessing 设置为后处理状态，进度固定为 100
func (j *JobState) SetProcessing() {
	j.Status = JobStatusProcessing
	j.Progress = 100
}

// SetCompleted 设置为已完成状态并附加视频记录
func (j *JobState) SetCompleted(record *VideoRecord) {
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Record = record
	j.Error = ""
}

// SetFailed 设置为失败状态并记录错误信息
func (j *JobState) SetFailed(err error) {
	j.Status = JobStatusFailed
	j.Progress = 0
	j.Error = err.Error()
}
