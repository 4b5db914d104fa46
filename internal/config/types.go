package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"48h" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为：监听端口、日志、数据与缓存目录、同步节奏。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	DataPath        string   `mapstructure:"DataPath"`
	CachePath       string   `mapstructure:"CachePath"`
	MaxDataBackups  int      `mapstructure:"MaxDataBackups"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	SyncDelay       Duration `mapstructure:"SyncDelay"`
}

// CacheTTLConfig 控制各类 JSON 缓存的过期窗口，媒体文件不设过期。
type CacheTTLConfig struct {
	Details      Duration `mapstructure:"Details"`
	Achievements Duration `mapstructure:"Achievements"`
	News         Duration `mapstructure:"News"`
}

// SteamConfig 保存 Steam Web API 凭证；Base 覆盖项主要供测试桩使用。
type SteamConfig struct {
	APIKey    string `mapstructure:"APIKey"`
	SteamID   string `mapstructure:"SteamID"`
	APIBase   string `mapstructure:"APIBase"`
	StoreBase string `mapstructure:"StoreBase"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig   `mapstructure:",squash"`
	Cache  CacheTTLConfig `mapstructure:"Cache"`
	Steam  SteamConfig    `mapstructure:"Steam"`
}

// HasCredentials 表示是否配置了完整的 Steam 凭证。
func (s SteamConfig) HasCredentials() bool {
	return s.APIKey != "" && s.SteamID != ""
}

// AuthMode 输出 `credentialed` 或 `anonymous`，供启动日志字段使用。
func (s SteamConfig) AuthMode() string {
	if s.HasCredentials() {
		return "credentialed"
	}
	return "anonymous"
}
