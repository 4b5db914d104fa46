package gaming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/steam"
)

// SyncError 记录单个游戏刷新失败的原因，整批任务继续推进。
type SyncError struct {
	AppID int    `json:"appid"`
	Error string `json:"error"`
}

// Progress 是同步批次的进度快照。Errors 保留到下一批开始才清空。
type Progress struct {
	Running     bool        `json:"running"`
	Total       int         `json:"total"`
	Completed   int         `json:"completed"`
	CurrentGame string      `json:"current_game"`
	Errors      []SyncError `json:"errors"`
}

// Syncer 顺序刷新一批游戏的详情与成就缓存。批次内严格串行并按固定间隔
// 节流，避免触发上游限流；进度状态只由批次 goroutine 写，读方拿快照副本。
type Syncer struct {
	service *Service
	logger  *logrus.Logger
	delay   time.Duration

	mu       sync.Mutex
	progress Progress
}

// NewSyncer 构建同步器。delay 为每个游戏处理完后的停顿，测试可传 0。
func NewSyncer(service *Service, delay time.Duration, logger *logrus.Logger) *Syncer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Syncer{
		service: service,
		logger:  logger,
		delay:   delay,
		progress: Progress{
			Errors: []SyncError{},
		},
	}
}

// Start 启动一个后台批次。已有批次在跑时是 no-op，返回 false 且不排队。
func (y *Syncer) Start(games []steam.Game) bool {
	y.mu.Lock()
	if y.progress.Running {
		y.mu.Unlock()
		return false
	}
	y.progress = Progress{
		Running: true,
		Total:   len(games),
		Errors:  []SyncError{},
	}
	y.mu.Unlock()

	go y.run(games)
	return true
}

// Progress 返回进度快照副本，读方不会阻塞批次也改不动内部状态。
func (y *Syncer) Progress() Progress {
	y.mu.Lock()
	defer y.mu.Unlock()

	snapshot := y.progress
	snapshot.Errors = append([]SyncError(nil), y.progress.Errors...)
	return snapshot
}

func (y *Syncer) run(games []steam.Game) {
	y.logger.WithFields(logrus.Fields{
		"action": "sync_start",
		"total":  len(games),
	}).Info("开始后台缓存同步")

	for _, game := range games {
		name := game.Name
		if name == "" {
			name = fmt.Sprintf("Game %d", game.AppID)
		}
		y.setCurrent(name)

		ctx := context.Background()
		if _, err := y.service.GameDetails(ctx, game.AppID); err != nil && !errors.Is(err, steam.ErrNoDetails) {
			y.appendError(game.AppID, err)
		}
		if _, err := y.service.DetailedAchievements(ctx, game.AppID); err != nil {
			y.appendError(game.AppID, err)
		}

		y.markCompleted()

		if y.delay > 0 {
			time.Sleep(y.delay)
		}
	}

	y.finish()
}

func (y *Syncer) setCurrent(name string) {
	y.mu.Lock()
	y.progress.CurrentGame = name
	y.mu.Unlock()
}

func (y *Syncer) appendError(appid int, err error) {
	y.logger.WithError(err).
		WithFields(logrus.Fields{"action": "sync_item", "appid": appid}).
		Warn("刷新失败，继续下一个")

	y.mu.Lock()
	y.progress.Errors = append(y.progress.Errors, SyncError{AppID: appid, Error: err.Error()})
	y.mu.Unlock()
}

func (y *Syncer) markCompleted() {
	y.mu.Lock()
	y.progress.Completed++
	y.mu.Unlock()
}

func (y *Syncer) finish() {
	y.mu.Lock()
	completed := y.progress.Completed
	failed := len(y.progress.Errors)
	y.progress.Running = false
	y.progress.CurrentGame = ""
	y.mu.Unlock()

	y.logger.WithFields(logrus.Fields{
		"action":    "sync_done",
		"completed": completed,
		"failed":    failed,
	}).Info("后台缓存同步结束")
}
