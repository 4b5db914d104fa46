package steam

// Game 是 GetOwnedGames 返回的单个条目，仅映射本地统计需要的字段。
type Game struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	Playtime2Weeks  int    `json:"playtime_2weeks,omitempty"`
	ImgIconURL      string `json:"img_icon_url,omitempty"`
	RTimeLastPlayed int64  `json:"rtime_last_played,omitempty"`
}

// PlayerAchievement 是账号维度的成就解锁状态，apiname 为内部名。
type PlayerAchievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

// SchemaAchievement 是游戏维度的成就元数据（展示名/描述/图标）。
type SchemaAchievement struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
}
