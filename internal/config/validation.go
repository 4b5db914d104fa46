package config

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("LogLevel", "无法识别的日志级别")
	}
	if g.DataPath == "" {
		return newFieldError("DataPath", "不能为空")
	}
	if g.CachePath == "" {
		return newFieldError("CachePath", "不能为空")
	}
	if g.MaxDataBackups < 0 {
		return newFieldError("MaxDataBackups", "不能为负数")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("UpstreamTimeout", "必须大于 0")
	}
	if g.SyncDelay.DurationValue() < 0 {
		return newFieldError("SyncDelay", "不能为负数")
	}

	ttl := c.Cache
	if ttl.Details.DurationValue() <= 0 {
		return newFieldError("Cache.Details", "必须大于 0")
	}
	if ttl.Achievements.DurationValue() <= 0 {
		return newFieldError("Cache.Achievements", "必须大于 0")
	}
	if ttl.News.DurationValue() <= 0 {
		return newFieldError("Cache.News", "必须大于 0")
	}

	s := c.Steam
	if s.APIKey == "" && s.SteamID != "" {
		return newFieldError("Steam.APIKey", "配置了 SteamID 时不能为空")
	}

	return nil
}
