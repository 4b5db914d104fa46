// Package gaming orchestrates the read-through flow between the Steam API,
// the on-disk game cache and the library data file, plus the background
// batch sync that keeps the cache warm.
package gaming

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/gamecache"
	"github.com/tbx126/console/internal/library"
	"github.com/tbx126/console/internal/steam"
)

const gamesFile = "gaming.json"

// gamesPayload 是 gaming.json 的文件结构。
type gamesPayload struct {
	Games []steam.Game `json:"games"`
}

// Statistics 基于本地游戏库算出的汇总数据。
type Statistics struct {
	TotalGames     int    `json:"total_games"`
	TotalPlaytime  int    `json:"total_playtime"`
	RecentPlaytime int    `json:"recent_playtime"`
	MostPlayedGame string `json:"most_played_game"`
	MostPlayedTime int    `json:"most_played_time"`
}

// ServiceOptions 汇总构建 Service 的依赖。
type ServiceOptions struct {
	Steam   *steam.Client
	Cache   *gamecache.Store
	Media   *gamecache.MediaCacher
	Library *library.Store
	Logger  *logrus.Logger
}

// Service 是 gaming 子系统的读路径：先查缓存，未命中再回源并把快照连同
// 本地媒体路径一起落盘。上游失败一律降级为“没有数据”，不向上层抛传输错误。
type Service struct {
	steam   *steam.Client
	cache   *gamecache.Store
	media   *gamecache.MediaCacher
	library *library.Store
	logger  *logrus.Logger
}

// NewService 组装 gaming 服务。
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		steam:   opts.Steam,
		cache:   opts.Cache,
		media:   opts.Media,
		library: opts.Library,
		logger:  logger,
	}
}

// Cache 暴露缓存存储，供路由层的 status/clear 接口直接使用。
func (s *Service) Cache() *gamecache.Store {
	return s.cache
}

func (s *Service) cachedGames() []steam.Game {
	payload := gamesPayload{}
	if err := s.library.Read(gamesFile, &payload); err != nil {
		s.logger.WithError(err).WithField("action", "games_read").Warn("读取游戏库失败")
	}
	if payload.Games == nil {
		return []steam.Game{}
	}
	return payload.Games
}

func (s *Service) saveGames(games []steam.Game) {
	if err := s.library.Write(gamesFile, gamesPayload{Games: games}); err != nil {
		s.logger.WithError(err).WithField("action", "games_write").Warn("保存游戏库失败")
	}
}

// Games 拉取账号游戏库并落盘；凭证缺失或上游失败时退回本地副本。
func (s *Service) Games(ctx context.Context) []steam.Game {
	if !s.steam.HasCredentials() {
		return s.cachedGames()
	}

	games, err := s.steam.GetOwnedGames(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("action", "games_fetch").Warn("拉取游戏库失败，使用本地副本")
		return s.cachedGames()
	}

	s.saveGames(games)
	return games
}

// Game 按 appid 在本地游戏库中查找。
func (s *Service) Game(appid int) (steam.Game, bool) {
	for _, game := range s.cachedGames() {
		if game.AppID == appid {
			return game, true
		}
	}
	return steam.Game{}, false
}

// Statistics 从本地游戏库计算汇总统计。
func (s *Service) Statistics() Statistics {
	games := s.cachedGames()

	stats := Statistics{TotalGames: len(games)}
	for _, game := range games {
		stats.TotalPlaytime += game.PlaytimeForever
		stats.RecentPlaytime += game.Playtime2Weeks
		if game.PlaytimeForever >= stats.MostPlayedTime && game.PlaytimeForever > 0 {
			stats.MostPlayedTime = game.PlaytimeForever
			stats.MostPlayedGame = game.Name
		}
	}
	return stats
}

// GameDetails 返回游戏详情：缓存有效直接用，否则回源商店 API，
// 先把截图/视频缩略图落到本地再持久化快照。
func (s *Service) GameDetails(ctx context.Context, appid int) (map[string]interface{}, error) {
	if cached, ok := s.cache.GetDetails(appid); ok {
		return cached, nil
	}

	details, err := s.steam.GetAppDetails(ctx, appid)
	if err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "details_fetch", "appid": appid}).
			Warn("拉取游戏详情失败")
		return nil, fmt.Errorf("fetch details for %d: %w", appid, err)
	}

	cached := s.media.CacheGameMedia(ctx, appid, details)
	if err := s.cache.SaveDetails(appid, cached); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "details_save", "appid": appid}).
			Warn("写入详情缓存失败")
	}
	return cached, nil
}

// RawAchievements 返回账号的原始解锁状态。上游明确返回非 2xx（游戏无成就
// 或统计不公开）时缓存空列表，确认空与传输失败由返回值区分开。
func (s *Service) RawAchievements(ctx context.Context, appid int) ([]steam.PlayerAchievement, error) {
	if cached, ok := s.cache.GetRawAchievements(appid); ok {
		return cached, nil
	}

	if !s.steam.HasCredentials() {
		return []steam.PlayerAchievement{}, nil
	}

	achievements, err := s.steam.GetPlayerAchievements(ctx, appid)
	if err != nil {
		if errors.Is(err, steam.ErrUpstream) {
			if saveErr := s.cache.SaveRawAchievements(appid, nil); saveErr != nil {
				s.logger.WithError(saveErr).
					WithFields(logrus.Fields{"action": "raw_achievements_save", "appid": appid}).
					Warn("写入成就缓存失败")
			}
			return []steam.PlayerAchievement{}, nil
		}
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "raw_achievements_fetch", "appid": appid}).
			Warn("拉取成就状态失败")
		return nil, fmt.Errorf("fetch achievements for %d: %w", appid, err)
	}

	if err := s.cache.SaveRawAchievements(appid, achievements); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "raw_achievements_save", "appid": appid}).
			Warn("写入成就缓存失败")
	}
	return achievements, nil
}

// DetailedAchievements 返回状态 + 元数据合并后的成就列表，图标已尽力
// 落到本地。空结果也会缓存，避免对无成就的游戏反复打 API。
func (s *Service) DetailedAchievements(ctx context.Context, appid int) ([]gamecache.Achievement, error) {
	if cached, ok := s.cache.GetAchievements(appid); ok {
		return cached, nil
	}

	status, err := s.RawAchievements(ctx, appid)
	if err != nil {
		return nil, err
	}

	var schema []steam.SchemaAchievement
	if s.steam.HasCredentials() {
		schema, err = s.steam.GetSchemaForGame(ctx, appid)
		if err != nil {
			// 元数据拿不到时退化为裸状态合并，不视为整体失败。
			s.logger.WithError(err).
				WithFields(logrus.Fields{"action": "schema_fetch", "appid": appid}).
				Warn("拉取成就元数据失败")
			schema = nil
		}
	}

	merged := gamecache.MergeAchievements(status, schema)
	withIcons := s.media.CacheAchievementIcons(ctx, appid, merged)

	if err := s.cache.SaveAchievements(appid, withIcons); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "achievements_save", "appid": appid}).
			Warn("写入成就缓存失败")
	}
	return withIcons, nil
}

// News 返回游戏新闻，配图提取与下载只作用于靠前的条目。
// 上游确认无数据时缓存空信封；缓存量多于请求量时直接取前缀。
func (s *Service) News(ctx context.Context, appid, count int) ([]map[string]interface{}, error) {
	if cached, ok := s.cache.GetNews(appid, count); ok {
		return cached, nil
	}

	items, err := s.steam.GetNewsForApp(ctx, appid, count)
	if err != nil {
		if errors.Is(err, steam.ErrUpstream) {
			if saveErr := s.cache.SaveNews(appid, nil); saveErr != nil {
				s.logger.WithError(saveErr).
					WithFields(logrus.Fields{"action": "news_save", "appid": appid}).
					Warn("写入新闻缓存失败")
			}
			return []map[string]interface{}{}, nil
		}
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "news_fetch", "appid": appid}).
			Warn("拉取新闻失败")
		return nil, fmt.Errorf("fetch news for %d: %w", appid, err)
	}

	withImages := s.media.CacheNewsImages(ctx, appid, items)
	if err := s.cache.SaveNews(appid, withImages); err != nil {
		s.logger.WithError(err).
			WithFields(logrus.Fields{"action": "news_save", "appid": appid}).
			Warn("写入新闻缓存失败")
	}
	return withImages, nil
}
