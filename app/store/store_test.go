package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"video-vault/app/config"
	"video-vault/app/logger"
	"video-vault/app/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logger.New(config.LogConfig{Level: "fatal", Format: "text", Output: "stdout"})
	return New(t.TempDir(), log)
}

func record(fileName, title string) model.VideoRecord {
	size := int64(1024)
	return model.VideoRecord{
		Title:        title,
		FileSize:     &size,
		FileName:     fileName,
		DownloadedAt: "2026-08-28T10:00:00Z",
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	records := s.Load()
	if len(records) != 0 {
		t.Errorf("文档不存在时应返回空列表, 得到 %d 条", len(records))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)

	if err := os.WriteFile(s.Path(), []byte("{不是合法的JSON"), 0644); err != nil {
		t.Fatal(err)
	}

	records := s.Load()
	if len(records) != 0 {
		t.Errorf("文档损坏时应返回空列表, 得到 %d 条", len(records))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	original := []model.VideoRecord{
		record("a.mp4", "视频A"),
		record("b.mp4", "视频B"),
	}
	if err := s.Save(original); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	loaded := s.Load()
	if !reflect.DeepEqual(original, loaded) {
		t.Errorf("往返后内容不一致:\n保存 %+v\n读取 %+v", original, loaded)
	}

	// Save(Load()) 应保持文档逻辑内容不变
	if err := s.Save(loaded); err != nil {
		t.Fatalf("二次保存失败: %v", err)
	}
	if again := s.Load(); !reflect.DeepEqual(loaded, again) {
		t.Error("Save(Load()) 改变了文档内容")
	}
}

func TestAppend(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(record("a.mp4", "视频A")); err != nil {
		t.Fatalf("追加失败: %v", err)
	}
	if err := s.Append(record("b.mp4", "视频B")); err != nil {
		t.Fatalf("追加失败: %v", err)
	}

	records := s.Load()
	if len(records) != 2 {
		t.Fatalf("记录数 = %d, 期望 2", len(records))
	}
	if records[0].FileName != "a.mp4" || records[1].FileName != "b.mp4" {
		t.Error("追加应保持插入顺序")
	}
}

func TestAppendReplacesSameFileName(t *testing.T) {
	s := newTestStore(t)

	s.Append(record("a.mp4", "第一次下载"))
	s.Append(record("a.mp4", "第二次下载"))

	records := s.Load()
	if len(records) != 1 {
		t.Fatalf("同名文件应只保留一条记录, 得到 %d 条", len(records))
	}
	if records[0].Title != "第二次下载" {
		t.Errorf("应保留后写入的记录, 得到 %q", records[0].Title)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	s := newTestStore(t)

	s.Append(record("a.mp4", "视频A"))
	s.Append(record("b.mp4", "视频B"))

	if err := s.Remove("a.mp4"); err != nil {
		t.Fatalf("移除失败: %v", err)
	}
	if s.Contains("a.mp4") {
		t.Error("移除后记录仍存在")
	}

	// 再次移除同名记录应同样成功
	if err := s.Remove("a.mp4"); err != nil {
		t.Errorf("重复移除应成功: %v", err)
	}

	records := s.Load()
	if len(records) != 1 || records[0].FileName != "b.mp4" {
		t.Errorf("其余记录应保持不变: %+v", records)
	}
}

func TestDocumentFieldNames(t *testing.T) {
	s := newTestStore(t)
	s.Append(record("a.mp4", "视频A"))

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("文档不是合法的 JSON 数组: %v", err)
	}
	// 持久化文档沿用 file_path 作为文件名字段
	if _, ok := raw[0]["file_path"]; !ok {
		t.Error("文档缺少 file_path 字段")
	}
	if _, ok := raw[0]["downloaded_at"]; !ok {
		t.Error("文档缺少 downloaded_at 字段")
	}
}

func TestPathInsideDownloadDir(t *testing.T) {
	log := logger.New(config.LogConfig{Level: "fatal", Format: "text", Output: "stdout"})
	dir := t.TempDir()
	s := New(dir, log)

	if s.Path() != filepath.Join(dir, FileName) {
		t.Errorf("文档路径 = %s, 期望位于下载目录内", s.Path())
	}
}
