package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"video-vault/app/logger"
)

const (
	probeTimeout = 2 * time.Minute  // 元数据探测超时
	fetchTimeout = 30 * time.Minute // 单个视频下载超时
	bufferSize   = 256 * 1024       // 下载缓冲区大小（字节）

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// YtDlp 基于本地 yt-dlp 可执行文件的提取引擎适配器
//
// 元数据探测和直链解析通过 yt-dlp 子进程完成，
// 字节传输由适配器自行流式写盘，以便上报精确的字节进度。
type YtDlp struct {
	binaryPath string
	logger     *logger.Logger
}

// NewYtDlp 创建 yt-dlp 提取引擎适配器
func NewYtDlp(binaryPath string, log *logger.Logger) *YtDlp {
	if binaryPath == "" {
		binaryPath = "yt-dlp" // 假定 yt-dlp 在 PATH 中
	}
	return &YtDlp{
		binaryPath: binaryPath,
		logger:     log,
	}
}

// Probe 通过 yt-dlp --dump-json 探测视频元数据，不执行下载
func (y *YtDlp) Probe(ctx context.Context, url string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := y.run(ctx, "--dump-json", "--no-download", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return nil, err
	}

	return parseProbeOutput(out)
}

// parseProbeOutput 解析 yt-dlp --dump-json 的输出
func parseProbeOutput(data []byte) (*Metadata, error) {
	var raw struct {
		Title       string   `json:"title"`
		Duration    *float64 `json:"duration"`
		Uploader    *string  `json:"uploader"`
		Description *string  `json:"description"`
		Thumbnail   string   `json:"thumbnail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析视频元数据失败: %w", err)
	}

	meta := &Metadata{
		Title:       raw.Title,
		Uploader:    raw.Uploader,
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
	}
	if meta.Title == "" {
		meta.Title = "未知标题"
	}
	if raw.Duration != nil {
		seconds := int(*raw.Duration)
		meta.Duration = &seconds
	}
	return meta, nil
}

// Fetch 解析直链并流式下载视频，通过回调上报字节进度
func (y *YtDlp) Fetch(ctx context.Context, url string, opts FetchOptions, onProgress ProgressFunc) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	format := fmt.Sprintf("best[height<=%d]", opts.QualityCeiling)

	// 预先计算清洗后的输出文件名
	out, err := y.run(ctx, "--print", "filename",
		"-f", format, "-o", opts.OutputTemplate,
		"--restrict-filenames", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return "", err
	}
	expectedPath := firstLine(out)
	if expectedPath == "" {
		return "", fmt.Errorf("yt-dlp 未返回输出文件名")
	}

	// 解析媒体直链
	out, err = y.run(ctx, "--get-url",
		"-f", format, "--no-playlist", "--no-warnings", url)
	if err != nil {
		return "", err
	}
	directURL := firstLine(out)
	if directURL == "" {
		return "", fmt.Errorf("yt-dlp 未返回下载地址")
	}

	y.logger.Debugf("开始流式下载: %s -> %s", url, expectedPath)
	if err := y.downloadToFile(ctx, directURL, expectedPath, onProgress); err != nil {
		return "", err
	}

	return expectedPath, nil
}

// run 执行 yt-dlp 子进程并返回标准输出
func (y *YtDlp) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, y.binaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("yt-dlp 执行失败: %s", detail)
		}
		return nil, fmt.Errorf("yt-dlp 执行失败: %w", err)
	}
	return stdout.Bytes(), nil
}

// firstLine 返回输出的第一行（yt-dlp 对分离的音视频流可能输出多行）
func firstLine(out []byte) string {
	text := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// downloadToFile 将媒体直链流式写入目标文件
//
// 先写入临时文件，校验完整性后改名，避免留下半成品视频。
func (y *YtDlp) downloadToFile(ctx context.Context, url, savePath string, onProgress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	// 设置请求头，禁用压缩避免 Content-Length 不匹配
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP请求失败，状态码: %d", resp.StatusCode)
	}

	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = 0 // 服务器未给出总大小
	}

	// 确保保存目录存在
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return fmt.Errorf("创建保存目录失败: %w", err)
	}

	tempPath := savePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}

	written, copyErr := y.copyWithProgress(file, resp.Body, contentLength, onProgress)
	if copyErr != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("写入文件内容失败: %w", copyErr)
	}

	// 强制刷新数据到磁盘
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("刷新文件到磁盘失败: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("关闭文件失败: %w", err)
	}

	// 校验文件大小（如果服务器提供了 Content-Length）
	if contentLength > 0 && written != contentLength {
		os.Remove(tempPath)
		return fmt.Errorf("下载不完整: 期望 %d 字节, 实际 %d 字节", contentLength, written)
	}

	if err := os.Rename(tempPath, savePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("重命名文件失败: %w", err)
	}

	// 字节传输完成，通知进入后处理阶段
	if onProgress != nil {
		onProgress(Progress{
			DownloadedBytes: written,
			TotalBytes:      written,
			Finished:        true,
		})
	}
	return nil
}

// copyWithProgress 带进度回调的流拷贝
func (y *YtDlp) copyWithProgress(dst io.Writer, src io.Reader, total int64, onProgress ProgressFunc) (int64, error) {
	buf := make([]byte, bufferSize)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)
			if onProgress != nil {
				onProgress(Progress{
					DownloadedBytes: written,
					TotalBytes:      total,
				})
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
