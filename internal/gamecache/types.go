package gamecache

// Achievement 是状态 + 元数据合并后的单条成就记录。Local* 字段仅在对应
// 图标下载成功后出现，原始远端 URL 始终保留。
type Achievement struct {
	APIName       string `json:"apiname"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	IconGray      string `json:"icon_gray"`
	Achieved      int    `json:"achieved"`
	UnlockTime    int64  `json:"unlock_time"`
	LocalIcon     string `json:"local_icon,omitempty"`
	LocalIconGray string `json:"local_icon_gray,omitempty"`
}

// Status 汇总单个游戏在各缓存类别下的存在性与有效性。
// cached 表示文件存在，valid 额外要求未过期，两者可能不一致。
type Status struct {
	AppID                 int  `json:"appid"`
	DetailsCached         bool `json:"details_cached"`
	DetailsValid          bool `json:"details_valid"`
	AchievementsCached    bool `json:"achievements_cached"`
	AchievementsValid     bool `json:"achievements_valid"`
	RawAchievementsCached bool `json:"raw_achievements_cached"`
	RawAchievementsValid  bool `json:"raw_achievements_valid"`
	NewsCached            bool `json:"news_cached"`
	NewsValid             bool `json:"news_valid"`
	ScreenshotsCount      int  `json:"screenshots_count"`
	IconsCount            int  `json:"icons_count"`
}
