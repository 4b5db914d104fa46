package gamecache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// 每类媒体只缓存靠前的条目，后面的保留远端 URL 直出。
const (
	screenshotLimit = 10
	videoLimit      = 4
	newsImageLimit  = 8
)

// MediaCacher 把详情/成就/新闻里的远端媒体批量落到本地，并在条目上补写
// local_* 路径字段。下载失败只意味着少一个字段，条目本身照常返回。
type MediaCacher struct {
	store  *Store
	dl     *Downloader
	logger *logrus.Logger
}

// NewMediaCacher 组合缓存目录与下载器。
func NewMediaCacher(store *Store, dl *Downloader, logger *logrus.Logger) *MediaCacher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MediaCacher{store: store, dl: dl, logger: logger}
}

// CacheGameMedia 并发缓存详情中的截图与视频缩略图，返回补写了
// local_path / local_thumbnail 字段的新详情。
func (m *MediaCacher) CacheGameMedia(ctx context.Context, appid int, details map[string]interface{}) map[string]interface{} {
	cached := cloneItem(details)

	if screenshots := asItemSlice(details["screenshots"]); len(screenshots) > 0 {
		cached["screenshots"] = fanOut(screenshots, screenshotLimit, func(_ int, item map[string]interface{}) map[string]interface{} {
			local, ok := m.cacheScreenshot(ctx, appid, item)
			if !ok {
				return item
			}
			out := cloneItem(item)
			out["local_path"] = local
			return out
		})
	}

	if movies := asItemSlice(details["movies"]); len(movies) > 0 {
		cached["movies"] = fanOut(movies, videoLimit, func(_ int, item map[string]interface{}) map[string]interface{} {
			local, ok := m.cacheVideoThumbnail(ctx, appid, item)
			if !ok {
				return item
			}
			out := cloneItem(item)
			out["local_thumbnail"] = local
			return out
		})
	}

	return cached
}

// CacheAchievementIcons 并发缓存全部成就图标（彩色 + 灰色），
// 成功的写入 LocalIcon/LocalIconGray，远端 URL 不动。
func (m *MediaCacher) CacheAchievementIcons(ctx context.Context, appid int, achievements []Achievement) []Achievement {
	if len(achievements) == 0 {
		return []Achievement{}
	}

	return fanOut(achievements, 0, func(_ int, ach Achievement) Achievement {
		safeName := hashName(ach.APIName)
		if ach.Icon != "" {
			if local, ok := m.cacheIcon(ctx, appid, ach.Icon, safeName+"_icon"); ok {
				ach.LocalIcon = local
			}
		}
		if ach.IconGray != "" {
			if local, ok := m.cacheIcon(ctx, appid, ach.IconGray, safeName+"_icon_gray"); ok {
				ach.LocalIconGray = local
			}
		}
		return ach
	})
}

// CacheNewsImages 对前几条新闻提取配图并并发下载。提取到 URL 就写
// image_url，下载成功再补 local_image。
func (m *MediaCacher) CacheNewsImages(ctx context.Context, appid int, news []map[string]interface{}) []map[string]interface{} {
	if len(news) == 0 {
		return []map[string]interface{}{}
	}

	return fanOut(news, newsImageLimit, func(_ int, item map[string]interface{}) map[string]interface{} {
		imageURL := ExtractImageURL(stringValue(item["contents"]))
		if imageURL == "" {
			return item
		}
		out := cloneItem(item)
		out["image_url"] = imageURL
		if local, ok := m.cacheNewsImage(ctx, appid, imageURL); ok {
			out["local_image"] = local
		}
		return out
	})
}

func (m *MediaCacher) cacheScreenshot(ctx context.Context, appid int, item map[string]interface{}) (string, bool) {
	rawURL := stringValue(item["path_full"])
	if rawURL == "" {
		return "", false
	}

	id := assetID(item["id"])
	ext := extFromURL(rawURL, "jpg")
	name := id + "." + ext
	dest := filepath.Join(m.store.MediaDir(MediaScreenshots, appid), name)

	if !m.dl.Fetch(ctx, rawURL, dest, nil) {
		return "", false
	}
	return cachePath(MediaScreenshots, appid, name), true
}

func (m *MediaCacher) cacheVideoThumbnail(ctx context.Context, appid int, item map[string]interface{}) (string, bool) {
	thumbURL := stringValue(item["thumbnail"])
	if thumbURL == "" {
		return "", false
	}

	name := assetID(item["id"]) + "_thumb.jpg"
	dest := filepath.Join(m.store.MediaDir(MediaVideos, appid), name)

	if !m.dl.Fetch(ctx, thumbURL, dest, nil) {
		return "", false
	}
	return cachePath(MediaVideos, appid, name), true
}

func (m *MediaCacher) cacheIcon(ctx context.Context, appid int, rawURL, baseName string) (string, bool) {
	name := baseName + "." + extFromURL(rawURL, "jpg")
	dest := filepath.Join(m.store.MediaDir(MediaIcons, appid), name)

	if !m.dl.Fetch(ctx, rawURL, dest, nil) {
		return "", false
	}
	return cachePath(MediaIcons, appid, name), true
}

func (m *MediaCacher) cacheNewsImage(ctx context.Context, appid int, imageURL string) (string, bool) {
	lower := strings.ToLower(imageURL)
	ext := ".jpg"
	if strings.Contains(lower, ".png") {
		ext = ".png"
	} else if strings.Contains(lower, ".gif") {
		ext = ".gif"
	}

	name := hashName(imageURL) + ext
	dest := filepath.Join(m.store.MediaDir(MediaNews, appid), name)

	if !m.dl.Fetch(ctx, imageURL, dest, browserHeaders) {
		return "", false
	}
	return cachePath(MediaNews, appid, name), true
}

// cachePath 拼出对外暴露的 /cache/<kind>/<appid>/<file> 访问路径。
func cachePath(kind string, appid int, name string) string {
	return fmt.Sprintf("/cache/%s/%d/%s", kind, appid, name)
}

// hashName 将任意字符串压成 12 位十六进制，用作安全文件名。
func hashName(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])[:12]
}

// extFromURL 取 URL 最后一段的扩展名并剥掉 query，取不到时用 fallback。
func extFromURL(rawURL, fallback string) string {
	parts := strings.Split(rawURL, ".")
	ext := parts[len(parts)-1]
	if idx := strings.Index(ext, "?"); idx >= 0 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 || strings.ContainsAny(ext, "/\\") {
		return fallback
	}
	return ext
}

// assetID 容忍 JSON 反序列化带来的数字类型差异，统一输出字符串 id。
func assetID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return "0"
	}
}

func stringValue(value interface{}) string {
	s, _ := value.(string)
	return s
}

// asItemSlice 把 JSON 反序列化出的 []interface{} 转成条目列表，
// 非对象元素直接丢弃。
func asItemSlice(value interface{}) []map[string]interface{} {
	switch v := value.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		items := make([]map[string]interface{}, 0, len(v))
		for _, element := range v {
			if item, ok := element.(map[string]interface{}); ok {
				items = append(items, item)
			}
		}
		return items
	default:
		return nil
	}
}

func cloneItem(item map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(item)+2)
	for key, value := range item {
		out[key] = value
	}
	return out
}
