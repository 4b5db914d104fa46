package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// GameFields 提供 appid + 缓存类别字段，供缓存与同步日志复用。
func GameFields(action string, appid int, kind string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"appid":  appid,
		"kind":   kind,
	}
}
