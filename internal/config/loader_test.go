package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("配置文件缺失应退回默认值: %v", err)
	}

	if cfg.Global.ListenPort != 8000 {
		t.Fatalf("默认端口不符: %d", cfg.Global.ListenPort)
	}
	if cfg.Global.LogLevel != "info" {
		t.Fatalf("默认日志级别不符: %s", cfg.Global.LogLevel)
	}
	if !filepath.IsAbs(cfg.Global.DataPath) || !filepath.IsAbs(cfg.Global.CachePath) {
		t.Fatalf("目录应解析为绝对路径: %s, %s", cfg.Global.DataPath, cfg.Global.CachePath)
	}
	if cfg.Cache.Details.DurationValue() != 30*24*time.Hour {
		t.Fatalf("详情默认 TTL 不符: %v", cfg.Cache.Details.DurationValue())
	}
	if cfg.Cache.Achievements.DurationValue() != 2*24*time.Hour {
		t.Fatalf("成就默认 TTL 不符: %v", cfg.Cache.Achievements.DurationValue())
	}
	if cfg.Cache.News.DurationValue() != 24*time.Hour {
		t.Fatalf("新闻默认 TTL 不符: %v", cfg.Cache.News.DurationValue())
	}
	if cfg.Global.SyncDelay.DurationValue() != 500*time.Millisecond {
		t.Fatalf("默认同步间隔不符: %v", cfg.Global.SyncDelay.DurationValue())
	}
	if cfg.Steam.HasCredentials() {
		t.Fatalf("默认配置不应带凭证")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeTempConfig(t, `
ListenPort = 9000
LogLevel = "debug"
DataPath = "./tracker-data"
CachePath = "./tracker-data/cache"
SyncDelay = "2s"
UpstreamTimeout = "10s"

[Cache]
Details = "168h"
Achievements = "12h"
News = "6h"

[Steam]
APIKey = "abc123"
SteamID = "76561198000000000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	if cfg.Global.ListenPort != 9000 || cfg.Global.LogLevel != "debug" {
		t.Fatalf("全局字段不符: %+v", cfg.Global)
	}
	if cfg.Global.SyncDelay.DurationValue() != 2*time.Second {
		t.Fatalf("同步间隔不符: %v", cfg.Global.SyncDelay.DurationValue())
	}
	if cfg.Cache.Details.DurationValue() != 168*time.Hour {
		t.Fatalf("详情 TTL 不符: %v", cfg.Cache.Details.DurationValue())
	}
	if cfg.Cache.News.DurationValue() != 6*time.Hour {
		t.Fatalf("新闻 TTL 不符: %v", cfg.Cache.News.DurationValue())
	}
	if !cfg.Steam.HasCredentials() {
		t.Fatalf("凭证应识别为完整")
	}
	if cfg.Steam.AuthMode() != "credentialed" {
		t.Fatalf("认证模式不符: %s", cfg.Steam.AuthMode())
	}
}

func TestDurationAcceptsPlainSeconds(t *testing.T) {
	path := writeTempConfig(t, `UpstreamTimeout = 45`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 45*time.Second {
		t.Fatalf("纯数字应按秒解析: %v", cfg.Global.UpstreamTimeout.DurationValue())
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	path := writeTempConfig(t, `UpstreamTimeout = "boom"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeTempConfig(t, `ListenPort = 70000`)
	if _, err := Load(path); err == nil {
		t.Fatalf("非法端口应失败")
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := writeTempConfig(t, `LogLevel = "chatty"`)
	if _, err := Load(path); err == nil {
		t.Fatalf("未知日志级别应失败")
	}
}

func TestLoadRequiresAPIKeyWithSteamID(t *testing.T) {
	path := writeTempConfig(t, `
[Steam]
SteamID = "76561198000000000"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("只配置 SteamID 应失败")
	}
}
