package extractor

import (
	"strings"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"title": "测试视频",
		"duration": 212.5,
		"uploader": "测试频道",
		"description": "这是一个测试视频",
		"thumbnail": "https://example.com/thumb.jpg"
	}`)

	meta, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if meta.Title != "测试视频" {
		t.Errorf("标题 = %q", meta.Title)
	}
	if meta.Duration == nil || *meta.Duration != 212 {
		t.Errorf("时长 = %v, 期望 212", meta.Duration)
	}
	if meta.Uploader == nil || *meta.Uploader != "测试频道" {
		t.Errorf("上传者 = %v", meta.Uploader)
	}
	if meta.Description == nil || *meta.Description != "这是一个测试视频" {
		t.Errorf("简介 = %v", meta.Description)
	}
	if meta.Thumbnail != "https://example.com/thumb.jpg" {
		t.Errorf("封面图 = %q", meta.Thumbnail)
	}
}

func TestParseProbeOutputMissingFields(t *testing.T) {
	meta, err := parseProbeOutput([]byte(`{}`))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if meta.Title != "未知标题" {
		t.Errorf("缺失标题应回退为未知标题, 得到 %q", meta.Title)
	}
	if meta.Duration != nil || meta.Uploader != nil || meta.Description != nil {
		t.Error("缺失的可选字段应保持为空")
	}
}

func TestParseProbeOutputInvalid(t *testing.T) {
	if _, err := parseProbeOutput([]byte("不是JSON")); err == nil {
		t.Error("非法输出应返回错误")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://a.example/video\n", "https://a.example/video"},
		{"https://a.example/video\nhttps://a.example/audio\n", "https://a.example/video"},
		{"  single  ", "single"},
		{"", ""},
	}

	for _, test := range tests {
		result := firstLine([]byte(test.input))
		if result != test.expected {
			t.Errorf("firstLine(%q) = %q, 期望 %q", test.input, result, test.expected)
		}
	}
}

func TestCopyWithProgress(t *testing.T) {
	y := &YtDlp{}
	src := strings.NewReader(strings.Repeat("d", 1000))

	var notifications []Progress
	var sink strings.Builder
	written, err := y.copyWithProgress(&sink, src, 1000, func(p Progress) {
		notifications = append(notifications, p)
	})
	if err != nil {
		t.Fatalf("拷贝失败: %v", err)
	}
	if written != 1000 {
		t.Errorf("写入字节数 = %d, 期望 1000", written)
	}
	if len(notifications) == 0 {
		t.Fatal("应至少上报一次进度")
	}

	last := notifications[len(notifications)-1]
	if last.DownloadedBytes != 1000 || last.TotalBytes != 1000 {
		t.Errorf("最后一次进度 = %+v", last)
	}

	// 已下载字节数应单调不减
	var prev int64 = -1
	for _, p := range notifications {
		if p.DownloadedBytes < prev {
			t.Errorf("进度回退: %d -> %d", prev, p.DownloadedBytes)
		}
		prev = p.DownloadedBytes
	}
}
