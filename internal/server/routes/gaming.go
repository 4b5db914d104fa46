// Package routes registers the gaming HTTP surface: library listing,
// cache-backed detail/achievement/news reads, cache maintenance and the
// background sync trigger/status endpoints.
package routes

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/gamecache"
	"github.com/tbx126/console/internal/gaming"
	"github.com/tbx126/console/internal/server"
	"github.com/tbx126/console/internal/steam"
)

const defaultNewsCount = 10

// GamingDeps 汇总 gaming 路由的依赖。
type GamingDeps struct {
	Logger  *logrus.Logger
	Service *gaming.Service
	Syncer  *gaming.Syncer
}

// RegisterGamingRoutes 挂载 /api/gaming 下的全部接口。
// 缓存类故障一律降级为空数据或 404，不向前端暴露 5xx。
func RegisterGamingRoutes(app *fiber.App, deps GamingDeps) {
	if app == nil || deps.Service == nil {
		return
	}

	group := app.Group("/api/gaming")

	group.Get("/games", func(c fiber.Ctx) error {
		games := deps.Service.Games(requestContext(c))
		return c.JSON(fiber.Map{"games": games, "count": len(games)})
	})

	group.Get("/statistics", func(c fiber.Ctx) error {
		return c.JSON(deps.Service.Statistics())
	})

	// 触发一次库同步：刷新游戏列表，扫出缓存失效的游戏交给后台批次。
	// 已有批次在跑时只返回现状，不会排队第二批。
	group.Post("/sync", func(c fiber.Ctx) error {
		games := deps.Service.Games(requestContext(c))

		var uncached []steam.Game
		for _, game := range games {
			status := deps.Service.Cache().GetStatus(game.AppID)
			if !status.DetailsValid || !status.AchievementsValid || !status.RawAchievementsValid {
				uncached = append(uncached, game)
			}
		}

		started := false
		if len(uncached) > 0 && deps.Syncer != nil {
			started = deps.Syncer.Start(uncached)
		}

		return c.JSON(fiber.Map{
			"message":         "Sync completed",
			"games_count":     len(games),
			"uncached_count":  len(uncached),
			"caching_started": started,
		})
	})

	group.Get("/games/:appid/achievements", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		achievements, err := deps.Service.RawAchievements(requestContext(c), appid)
		if err != nil || achievements == nil {
			achievements = []steam.PlayerAchievement{}
		}
		return c.JSON(fiber.Map{"achievements": achievements, "count": len(achievements)})
	})

	group.Get("/games/:appid/achievements-detailed", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		achievements, err := deps.Service.DetailedAchievements(requestContext(c), appid)
		if err != nil || achievements == nil {
			achievements = []gamecache.Achievement{}
		}
		return c.JSON(fiber.Map{"achievements": achievements, "count": len(achievements)})
	})

	group.Get("/games/:appid/details", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		details, err := deps.Service.GameDetails(requestContext(c), appid)
		if err != nil || details == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "details_not_found"})
		}
		return c.JSON(details)
	})

	group.Get("/games/:appid/news", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		count := queryInt(c, "count", defaultNewsCount)
		news, err := deps.Service.News(requestContext(c), appid, count)
		if err != nil || news == nil {
			news = []map[string]interface{}{}
		}
		return c.JSON(fiber.Map{"news": news, "count": len(news)})
	})

	group.Get("/games/:appid", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		game, found := deps.Service.Game(appid)
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game_not_found"})
		}
		return c.JSON(game)
	})

	group.Get("/cache/status/:appid", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		return c.JSON(deps.Service.Cache().GetStatus(appid))
	})

	group.Delete("/cache/:appid", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		if err := deps.Service.Cache().Clear(appid); err != nil {
			logClearFailure(deps.Logger, c, appid, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}
		return c.JSON(fiber.Map{"message": fmt.Sprintf("Cache cleared for game %d", appid)})
	})

	group.Post("/cache/refresh/:appid", func(c fiber.Ctx) error {
		appid, ok := appidParam(c)
		if !ok {
			return badRequest(c)
		}
		if err := deps.Service.Cache().Clear(appid); err != nil {
			logClearFailure(deps.Logger, c, appid, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}

		ctx := requestContext(c)
		details, detailsErr := deps.Service.GameDetails(ctx, appid)
		achievements, achErr := deps.Service.DetailedAchievements(ctx, appid)
		if achErr != nil {
			achievements = nil
		}

		return c.JSON(fiber.Map{
			"message":            "Cache refreshed",
			"details_cached":     detailsErr == nil && details != nil,
			"achievements_count": len(achievements),
		})
	})

	group.Get("/cache/sync-status", func(c fiber.Ctx) error {
		if deps.Syncer == nil {
			return c.JSON(gaming.Progress{Errors: []gaming.SyncError{}})
		}
		return c.JSON(deps.Syncer.Progress())
	})
}

func appidParam(c fiber.Ctx) (int, bool) {
	appid, err := strconv.Atoi(c.Params("appid"))
	if err != nil || appid <= 0 {
		return 0, false
	}
	return appid, true
}

func badRequest(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_appid"})
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func logClearFailure(logger *logrus.Logger, c fiber.Ctx, appid int, err error) {
	if logger == nil {
		return
	}
	logger.WithError(err).
		WithFields(logrus.Fields{
			"action":     "cache_clear",
			"appid":      appid,
			"request_id": server.RequestID(c),
		}).
		Warn("清理缓存失败")
}
