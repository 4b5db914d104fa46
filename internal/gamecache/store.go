package gamecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/logging"
	"github.com/tbx126/console/internal/steam"
)

// Kind 标识一类 JSON 缓存，对应 <baseDir>/<kind>/<appid>.json 的磁盘布局。
type Kind string

const (
	KindDetails         Kind = "details"
	KindAchievements    Kind = "achievements"
	KindRawAchievements Kind = "achievements_raw"
	KindNews            Kind = "news_json"
)

// 媒体目录不参与过期判断：文件存在即命中，内容按不可变处理。
const (
	MediaScreenshots = "screenshots"
	MediaVideos      = "videos"
	MediaIcons       = "icons"
	MediaNews        = "news"
)

var jsonKinds = []Kind{KindDetails, KindAchievements, KindRawAchievements, KindNews}

var mediaKinds = []string{MediaScreenshots, MediaVideos, MediaIcons, MediaNews}

// TTLConfig 控制各 JSON 类别的过期窗口。
type TTLConfig struct {
	Details      time.Duration
	Achievements time.Duration
	News         time.Duration
}

// Store 以 baseDir 为根目录管理 JSON 快照与媒体子目录。
// 时钟可注入，测试可以模拟过期而无需改动文件 mtime。
type Store struct {
	baseDir string
	ttls    map[Kind]time.Duration
	now     func() time.Time
	logger  *logrus.Logger
}

// NewStore 创建缓存根目录及所有类别子目录，整个进程复用一份实例。
func NewStore(baseDir string, ttls TTLConfig, logger *logrus.Logger) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("cache base dir required")
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Store{
		baseDir: abs,
		ttls: map[Kind]time.Duration{
			KindDetails:         ttls.Details,
			KindAchievements:    ttls.Achievements,
			KindRawAchievements: ttls.Achievements,
			KindNews:            ttls.News,
		},
		now:    time.Now,
		logger: logger,
	}

	if err := s.ensureDirs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureDirs() error {
	for _, kind := range jsonKinds {
		if err := os.MkdirAll(filepath.Join(s.baseDir, string(kind)), 0o755); err != nil {
			return fmt.Errorf("create cache dir %s: %w", kind, err)
		}
	}
	for _, kind := range mediaKinds {
		if err := os.MkdirAll(filepath.Join(s.baseDir, kind), 0o755); err != nil {
			return fmt.Errorf("create media dir %s: %w", kind, err)
		}
	}
	return nil
}

// BaseDir 返回缓存根目录，静态文件服务将 /cache/* 一比一映射到这里。
func (s *Store) BaseDir() string {
	return s.baseDir
}

// MediaDir 返回某个游戏在指定媒体类别下的子目录。
func (s *Store) MediaDir(kind string, appid int) string {
	return filepath.Join(s.baseDir, kind, strconv.Itoa(appid))
}

func (s *Store) jsonPath(kind Kind, appid int) string {
	return filepath.Join(s.baseDir, string(kind), strconv.Itoa(appid)+".json")
}

// Exists 只检查文件是否存在，不关心是否过期。
func (s *Store) Exists(kind Kind, appid int) bool {
	info, err := os.Stat(s.jsonPath(kind, appid))
	return err == nil && !info.IsDir()
}

// IsValid 要求文件存在且写入时间距今不超过该类别的过期窗口。
func (s *Store) IsValid(kind Kind, appid int) bool {
	info, err := os.Stat(s.jsonPath(kind, appid))
	if err != nil || info.IsDir() {
		return false
	}
	ttl, ok := s.ttls[kind]
	if !ok || ttl <= 0 {
		return false
	}
	return s.now().Sub(info.ModTime()) < ttl
}

// readJSON 仅在缓存有效时反序列化；损坏的 JSON 按未命中处理，触发上层重新拉取。
func (s *Store) readJSON(kind Kind, appid int, v interface{}) bool {
	if !s.IsValid(kind, appid) {
		return false
	}

	data, err := os.ReadFile(s.jsonPath(kind, appid))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.WithError(err).
			WithFields(logging.GameFields("cache_read", appid, string(kind))).
			Warn("缓存文件损坏，按未命中处理")
		return false
	}
	return true
}

// writeJSON 通过临时文件 + rename 原子落盘，覆盖旧条目并刷新 mtime。
func (s *Store) writeJSON(kind Kind, appid int, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", kind, err)
	}

	filePath := s.jsonPath(kind, appid)
	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// GetDetails 返回有效的游戏详情快照。
func (s *Store) GetDetails(appid int) (map[string]interface{}, bool) {
	details := map[string]interface{}{}
	if !s.readJSON(KindDetails, appid, &details) {
		return nil, false
	}
	return details, true
}

// SaveDetails 覆盖写入游戏详情快照。
func (s *Store) SaveDetails(appid int, details map[string]interface{}) error {
	return s.writeJSON(KindDetails, appid, details)
}

// GetAchievements 返回有效的合并成就列表。
func (s *Store) GetAchievements(appid int) ([]Achievement, bool) {
	achievements := []Achievement{}
	if !s.readJSON(KindAchievements, appid, &achievements) {
		return nil, false
	}
	return achievements, true
}

// SaveAchievements 覆盖写入合并成就列表，空列表也会落盘以避免重复拉取。
func (s *Store) SaveAchievements(appid int, achievements []Achievement) error {
	if achievements == nil {
		achievements = []Achievement{}
	}
	return s.writeJSON(KindAchievements, appid, achievements)
}

// GetRawAchievements 返回有效的原始解锁状态列表。
func (s *Store) GetRawAchievements(appid int) ([]steam.PlayerAchievement, bool) {
	raw := []steam.PlayerAchievement{}
	if !s.readJSON(KindRawAchievements, appid, &raw) {
		return nil, false
	}
	return raw, true
}

// SaveRawAchievements 覆盖写入原始解锁状态列表。
func (s *Store) SaveRawAchievements(appid int, raw []steam.PlayerAchievement) error {
	if raw == nil {
		raw = []steam.PlayerAchievement{}
	}
	return s.writeJSON(KindRawAchievements, appid, raw)
}

// newsEnvelope 在条目之外记录落盘数量，读取时按请求数取前缀。
type newsEnvelope struct {
	Items []map[string]interface{} `json:"items"`
	Count int                      `json:"count"`
}

// GetNews 返回有效的新闻缓存。count 小于缓存量时取前缀，不触发重新拉取。
func (s *Store) GetNews(appid, count int) ([]map[string]interface{}, bool) {
	envelope := newsEnvelope{}
	if !s.readJSON(KindNews, appid, &envelope) {
		return nil, false
	}
	items := envelope.Items
	if items == nil {
		items = []map[string]interface{}{}
	}
	if count > 0 && count < len(items) {
		items = items[:count]
	}
	return items, true
}

// SaveNews 以 {items,count} 信封覆盖写入新闻缓存。
func (s *Store) SaveNews(appid int, items []map[string]interface{}) error {
	if items == nil {
		items = []map[string]interface{}{}
	}
	return s.writeJSON(KindNews, appid, newsEnvelope{Items: items, Count: len(items)})
}

// GetStatus 汇总单个游戏的缓存状态，供 /cache/status 接口与同步扫描使用。
func (s *Store) GetStatus(appid int) Status {
	return Status{
		AppID:                 appid,
		DetailsCached:         s.Exists(KindDetails, appid),
		DetailsValid:          s.IsValid(KindDetails, appid),
		AchievementsCached:    s.Exists(KindAchievements, appid),
		AchievementsValid:     s.IsValid(KindAchievements, appid),
		RawAchievementsCached: s.Exists(KindRawAchievements, appid),
		RawAchievementsValid:  s.IsValid(KindRawAchievements, appid),
		NewsCached:            s.Exists(KindNews, appid),
		NewsValid:             s.IsValid(KindNews, appid),
		ScreenshotsCount:      s.countFiles(s.MediaDir(MediaScreenshots, appid)),
		IconsCount:            s.countFiles(s.MediaDir(MediaIcons, appid)),
	}
}

func (s *Store) countFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// Clear 删除单个游戏的全部 JSON 条目与媒体子目录。
func (s *Store) Clear(appid int) error {
	for _, kind := range jsonKinds {
		if err := os.Remove(s.jsonPath(kind, appid)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	for _, kind := range mediaKinds {
		if err := os.RemoveAll(s.MediaDir(kind, appid)); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll 清空并重建所有类别目录。
func (s *Store) ClearAll() error {
	for _, kind := range jsonKinds {
		if err := os.RemoveAll(filepath.Join(s.baseDir, string(kind))); err != nil {
			return err
		}
	}
	for _, kind := range mediaKinds {
		if err := os.RemoveAll(filepath.Join(s.baseDir, kind)); err != nil {
			return err
		}
	}
	return s.ensureDirs()
}
