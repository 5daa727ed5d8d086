package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Download    DownloadConfig    `mapstructure:"download"`
	Watcher     WatcherConfig     `mapstructure:"watcher"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DownloadConfig struct {
	Dir               string `mapstructure:"dir"`                 // 下载目录
	MaxConcurrent     int    `mapstructure:"max_concurrent"`      // 最大并发下载数
	QualityCeiling    int    `mapstructure:"quality_ceiling"`     // 画质上限（如 720）
	OutputTemplate    string `mapstructure:"output_template"`     // 输出文件名模板
	YtDlpPath         string `mapstructure:"ytdlp_path"`          // yt-dlp 可执行文件路径
	ProbeCacheMinutes int    `mapstructure:"probe_cache_minutes"` // 元数据探测缓存时间（分钟）
	FetchThumbnail    bool   `mapstructure:"fetch_thumbnail"`     // 是否下载封面图附属文件
}

type WatcherConfig struct {
	Enabled bool `mapstructure:"enabled"` // 是否监控下载目录与视频库的一致性
}

type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // 是否启用定时维护任务
	Schedule string `mapstructure:"schedule"` // cron 表达式
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

func Load() *Config {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "8000")

	// 下载默认配置
	viper.SetDefault("download.dir", "downloads")
	viper.SetDefault("download.max_concurrent", 3)
	viper.SetDefault("download.quality_ceiling", 720)
	viper.SetDefault("download.output_template", "%(title)s.%(ext)s")
	viper.SetDefault("download.ytdlp_path", "yt-dlp")
	viper.SetDefault("download.probe_cache_minutes", 10)
	viper.SetDefault("download.fetch_thumbnail", true)

	// 目录监控默认配置
	viper.SetDefault("watcher.enabled", true)

	// 定时维护默认配置
	viper.SetDefault("maintenance.enabled", true)
	viper.SetDefault("maintenance.schedule", "@hourly")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.Download.Dir == "" {
		return fmt.Errorf("下载目录未设置")
	}
	if config.Download.MaxConcurrent <= 0 {
		return fmt.Errorf("最大并发下载数必须大于 0")
	}
	if config.Download.QualityCeiling <= 0 {
		return fmt.Errorf("画质上限必须大于 0")
	}
	return nil
}
