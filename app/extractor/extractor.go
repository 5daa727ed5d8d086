package extractor

import "context"

// Metadata 提取引擎在下载前探测到的视频元数据
type Metadata struct {
	Title       string  `json:"title"`
	Duration    *int    `json:"duration"`    // 时长（秒）
	Uploader    *string `json:"uploader"`    // 上传者
	Description *string `json:"description"` // 简介（未截断）
	Thumbnail   string  `json:"thumbnail"`   // 封面图地址
}

// Progress 提取引擎下载过程中上报的一次进度通知
type Progress struct {
	DownloadedBytes    int64 // 已下载字节数
	TotalBytes         int64 // 精确总字节数，未知时为 0
	TotalBytesEstimate int64 // 估算总字节数，仅在精确值缺失时参考
	Finished           bool  // 字节传输已完成，后处理可能仍在进行
}

// ProgressFunc 进度通知回调，由提取引擎在下载协程内同步调用
type ProgressFunc func(Progress)

// FetchOptions 下载参数
type FetchOptions struct {
	QualityCeiling int    // 画质上限（如 720），选择不超过该高度的最佳画质
	OutputTemplate string // 输出文件名模板（含下载目录）
}

// Engine 外部视频提取引擎
//
// 引擎负责理解远程视频站点、探测元数据并执行实际传输，
// 对本系统而言是一个不透明的能力边界。
type Engine interface {
	// Probe 仅探测视频元数据，不执行下载
	Probe(ctx context.Context, url string) (*Metadata, error)

	// Fetch 下载视频并通过回调上报进度，返回预期的输出文件路径。
	// 引擎自身的文件名清洗可能导致实际落盘路径与返回值不同。
	Fetch(ctx context.Context, url string, opts FetchOptions, onProgress ProgressFunc) (string, error)
}
