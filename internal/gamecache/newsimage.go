package gamecache

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// 新闻正文里的配图来源，按发现方式分五族：Steam 社区图宏（两种写法）、
// HTML img 标签、BBCode 直链图、视频站链接转缩略图。
var (
	clanImagePattern     = regexp.MustCompile(`\[img\]\{STEAM_CLAN_IMAGE\}/([^/]+)/([^\[]+)\[/img\]`)
	clanImageAttrPattern = regexp.MustCompile(`\[img\s+src=["']?\{STEAM_CLAN_IMAGE\}/([^/]+)/([^"'\]\s]+)`)
	htmlImagePattern     = regexp.MustCompile(`<img[^>]+src=["'](https?://[^"']+)["']`)
	bbcodeImagePattern   = regexp.MustCompile(`\[img\](https?://[^\[]+)\[/img\]`)

	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	}
	bilibiliPatterns = []*regexp.Regexp{
		regexp.MustCompile(`bilibili\.com/video/(BV[a-zA-Z0-9]+)`),
		regexp.MustCompile(`b23\.tv/([a-zA-Z0-9]+)`),
	}
)

// 候选图优先级：静态位图最优，视频缩略图次之（未识别的也归这档），GIF 垫底。
const (
	priorityStatic = 1
	priorityVideo  = 2
	priorityGIF    = 3
)

// ExtractImageURL 扫描新闻正文，收集全部候选配图后按优先级稳定排序，
// 返回最优的一张；没有候选时返回空串。宁可给视频缩略图也不要空白卡片，
// 但静态图永远优先于会自动播放的内容。
func ExtractImageURL(contents string) string {
	if contents == "" {
		return ""
	}

	var candidates []string

	for _, match := range clanImagePattern.FindAllStringSubmatch(contents, -1) {
		candidates = append(candidates, fmt.Sprintf("https://clan.akamai.steamstatic.com/images/%s/%s", match[1], match[2]))
	}

	for _, match := range clanImageAttrPattern.FindAllStringSubmatch(contents, -1) {
		candidates = append(candidates, fmt.Sprintf("https://clan.akamai.steamstatic.com/images/%s/%s", match[1], match[2]))
	}

	for _, match := range htmlImagePattern.FindAllStringSubmatch(contents, -1) {
		candidates = append(candidates, match[1])
	}

	for _, match := range bbcodeImagePattern.FindAllStringSubmatch(contents, -1) {
		candidates = append(candidates, match[1])
	}

	for _, pattern := range youtubePatterns {
		for _, match := range pattern.FindAllStringSubmatch(contents, -1) {
			candidates = append(candidates, fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", match[1]))
		}
	}

	// B 站封面需要再调一次接口才能拿到，这里先记 view API 地址。
	for _, pattern := range bilibiliPatterns {
		for _, match := range pattern.FindAllStringSubmatch(contents, -1) {
			candidates = append(candidates, fmt.Sprintf("https://api.bilibili.com/x/web-interface/view?bvid=%s", match[1]))
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return imagePriority(candidates[i]) < imagePriority(candidates[j])
	})
	return candidates[0]
}

func imagePriority(rawURL string) int {
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, ".gif") {
		return priorityGIF
	}
	if strings.Contains(lower, "img.youtube.com") || strings.Contains(lower, "api.bilibili.com") {
		return priorityVideo
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.Contains(lower, ext) {
			return priorityStatic
		}
	}
	return priorityVideo
}
