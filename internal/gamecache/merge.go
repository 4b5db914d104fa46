package gamecache

import "github.com/tbx126/console/internal/steam"

// MergeAchievements 把账号的解锁状态与成就元数据做左连接：状态列表决定
// 输出有哪些条目及其顺序，元数据缺失时退回内部名 + 空描述/图标。
// 只存在于元数据中的成就不会出现在输出里。
func MergeAchievements(status []steam.PlayerAchievement, schema []steam.SchemaAchievement) []Achievement {
	schemaByName := make(map[string]steam.SchemaAchievement, len(schema))
	for _, entry := range schema {
		schemaByName[entry.Name] = entry
	}

	merged := make([]Achievement, 0, len(status))
	for _, entry := range status {
		info, ok := schemaByName[entry.APIName]
		displayName := entry.APIName
		if ok && info.DisplayName != "" {
			displayName = info.DisplayName
		}
		merged = append(merged, Achievement{
			APIName:     entry.APIName,
			Name:        displayName,
			Description: info.Description,
			Icon:        info.Icon,
			IconGray:    info.IconGray,
			Achieved:    entry.Achieved,
			UnlockTime:  entry.UnlockTime,
		})
	}
	return merged
}
