package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	defaultAPIBase   = "https://api.steampowered.com"
	defaultStoreBase = "https://store.steampowered.com/api"
)

// ErrUpstream 表示上游返回了非 2xx 状态码。调用方可据此区分
// “确认无数据”（可缓存空结果）与传输层失败（状态未知，不落盘）。
var ErrUpstream = errors.New("steam upstream status error")

// ErrNoDetails 表示商店接口明确返回了 success=false。
var ErrNoDetails = errors.New("steam store has no details")

// Options 汇总构建 Client 所需的凭证与依赖，Base 字段留空时使用官方地址。
type Options struct {
	APIKey    string
	SteamID   string
	APIBase   string
	StoreBase string
	Client    *http.Client
	Logger    *logrus.Logger
}

// Client 封装 Steam Web API 与商店 API 的取数逻辑，所有方法均为只读请求。
type Client struct {
	apiBase    string
	storeBase  string
	apiKey     string
	steamID    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 构建共享 http.Client 的 Steam 客户端。
func NewClient(opts Options) *Client {
	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	storeBase := opts.StoreBase
	if storeBase == "" {
		storeBase = defaultStoreBase
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		apiBase:    apiBase,
		storeBase:  storeBase,
		apiKey:     opts.APIKey,
		steamID:    opts.SteamID,
		httpClient: client,
		logger:     logger,
	}
}

// HasCredentials 表示是否具备调用需鉴权接口的条件。
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.steamID != ""
}

// GetOwnedGames 拉取账号游戏库列表。
func (c *Client) GetOwnedGames(ctx context.Context) ([]Game, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", c.steamID)
	params.Set("include_appinfo", "true")
	params.Set("include_played_free_games", "true")

	body, err := c.get(ctx, c.apiBase+"/IPlayerService/GetOwnedGames/v1/", params)
	if err != nil {
		return nil, err
	}

	games := []Game{}
	raw := gjson.GetBytes(body, "response.games")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), &games); err != nil {
			return nil, fmt.Errorf("解析游戏列表失败: %w", err)
		}
	}
	return games, nil
}

// GetPlayerAchievements 拉取账号在指定游戏下的成就解锁状态。
// 没有成就或游戏不公开统计时 Steam 会返回非 2xx，由调用方决定是否缓存空结果。
func (c *Client) GetPlayerAchievements(ctx context.Context, appid int) ([]PlayerAchievement, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", c.steamID)
	params.Set("appid", strconv.Itoa(appid))

	body, err := c.get(ctx, c.apiBase+"/ISteamUserStats/GetPlayerAchievements/v1/", params)
	if err != nil {
		return nil, err
	}

	achievements := []PlayerAchievement{}
	raw := gjson.GetBytes(body, "playerstats.achievements")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), &achievements); err != nil {
			return nil, fmt.Errorf("解析成就状态失败: %w", err)
		}
	}
	return achievements, nil
}

// GetSchemaForGame 拉取成就元数据（展示名、描述、图标 URL）。
func (c *Client) GetSchemaForGame(ctx context.Context, appid int) ([]SchemaAchievement, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("appid", strconv.Itoa(appid))

	body, err := c.get(ctx, c.apiBase+"/ISteamUserStats/GetSchemaForGame/v2/", params)
	if err != nil {
		return nil, err
	}

	schema := []SchemaAchievement{}
	raw := gjson.GetBytes(body, "game.availableGameStats.achievements")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), &schema); err != nil {
			return nil, fmt.Errorf("解析成就元数据失败: %w", err)
		}
	}
	return schema, nil
}

// GetAppDetails 从商店 API 拉取游戏详情。响应以字符串形式的 appid 作为顶层键，
// 用 gjson 取动态路径后再反序列化 data 节点。
func (c *Client) GetAppDetails(ctx context.Context, appid int) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("appids", strconv.Itoa(appid))
	params.Set("l", "english")

	body, err := c.get(ctx, c.storeBase+"/appdetails", params)
	if err != nil {
		return nil, err
	}

	node := gjson.GetBytes(body, strconv.Itoa(appid))
	if !node.Exists() || !node.Get("success").Bool() {
		return nil, fmt.Errorf("appid %d: %w", appid, ErrNoDetails)
	}

	data := node.Get("data")
	if !data.Exists() {
		return nil, fmt.Errorf("appid %d: %w", appid, ErrNoDetails)
	}

	details := map[string]interface{}{}
	if err := json.Unmarshal([]byte(data.Raw), &details); err != nil {
		return nil, fmt.Errorf("解析游戏详情失败: %w", err)
	}
	return details, nil
}

// GetNewsForApp 拉取游戏新闻，maxlength=0 保留全文以便后续提取配图。
func (c *Client) GetNewsForApp(ctx context.Context, appid, count int) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(appid))
	params.Set("count", strconv.Itoa(count))
	params.Set("maxlength", "0")
	params.Set("format", "json")

	body, err := c.get(ctx, c.apiBase+"/ISteamNews/GetNewsForApp/v2/", params)
	if err != nil {
		return nil, err
	}

	items := []map[string]interface{}{}
	raw := gjson.GetBytes(body, "appnews.newsitems")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), &items); err != nil {
			return nil, fmt.Errorf("解析新闻列表失败: %w", err)
		}
	}
	return items, nil
}

// get 执行一次带上下文的 GET 请求，非 2xx 统一映射为 ErrUpstream。
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"action": "steam_request",
			"url":    rawURL,
			"status": resp.StatusCode,
		}).Debug("上游返回非 2xx")
		return nil, fmt.Errorf("%s: status %d: %w", rawURL, resp.StatusCode, ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}
