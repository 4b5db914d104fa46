package gamecache

import "testing"

func TestExtractPrefersStaticOverGIF(t *testing.T) {
	got := ExtractImageURL("[img]http://x.com/a.gif[/img] <img src='http://x.com/b.jpg'>")
	if got != "http://x.com/b.jpg" {
		t.Fatalf("应优先静态图，得到 %s", got)
	}

	// 顺序颠倒结果不变。
	got = ExtractImageURL("<img src='http://x.com/b.jpg'> [img]http://x.com/a.gif[/img]")
	if got != "http://x.com/b.jpg" {
		t.Fatalf("应优先静态图，得到 %s", got)
	}
}

func TestExtractPNGBeforeGIF(t *testing.T) {
	got := ExtractImageURL("[img]http://x.com/first.gif[/img][img]http://x.com/second.png[/img]")
	if got != "http://x.com/second.png" {
		t.Fatalf("png 应排在 gif 前，得到 %s", got)
	}
}

func TestExtractGIFAsLastResort(t *testing.T) {
	got := ExtractImageURL("[img]http://x.com/only.gif[/img]")
	if got != "http://x.com/only.gif" {
		t.Fatalf("只有 gif 时也应返回，得到 %s", got)
	}
}

func TestExtractClanImageMacro(t *testing.T) {
	got := ExtractImageURL("[img]{STEAM_CLAN_IMAGE}/12345/abcdef.png[/img]")
	want := "https://clan.akamai.steamstatic.com/images/12345/abcdef.png"
	if got != want {
		t.Fatalf("社区图宏应被展开: %s", got)
	}
}

func TestExtractClanImageAttrVariant(t *testing.T) {
	got := ExtractImageURL(`[img src="{STEAM_CLAN_IMAGE}/12345/header.jpg"]`)
	want := "https://clan.akamai.steamstatic.com/images/12345/header.jpg"
	if got != want {
		t.Fatalf("属性写法的社区图宏应被展开: %s", got)
	}
}

func TestExtractYouTubeThumbnail(t *testing.T) {
	got := ExtractImageURL("watch the trailer https://www.youtube.com/watch?v=dQw4w9WgXcQ now")
	want := "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"
	if got != want {
		t.Fatalf("YouTube 链接应转缩略图: %s", got)
	}

	got = ExtractImageURL("short link https://youtu.be/dQw4w9WgXcQ here")
	if got != want {
		t.Fatalf("youtu.be 链接应转缩略图: %s", got)
	}
}

func TestExtractStaticBeatsVideoThumbnail(t *testing.T) {
	content := "https://www.youtube.com/watch?v=dQw4w9WgXcQ <img src='http://x.com/art.webp'>"
	if got := ExtractImageURL(content); got != "http://x.com/art.webp" {
		t.Fatalf("静态图应优先于视频缩略图: %s", got)
	}
}

func TestExtractBilibiliVideo(t *testing.T) {
	got := ExtractImageURL("新预告 https://www.bilibili.com/video/BV1xx411c7mD 上线")
	want := "https://api.bilibili.com/x/web-interface/view?bvid=BV1xx411c7mD"
	if got != want {
		t.Fatalf("B 站链接应转 view API: %s", got)
	}
}

func TestExtractNoCandidates(t *testing.T) {
	if got := ExtractImageURL("plain text update notes"); got != "" {
		t.Fatalf("无候选时应返回空串: %s", got)
	}
	if got := ExtractImageURL(""); got != "" {
		t.Fatalf("空正文应返回空串")
	}
}

func TestExtractStableWithinSamePriority(t *testing.T) {
	got := ExtractImageURL("<img src='http://x.com/1.jpg'> <img src='http://x.com/2.jpg'>")
	if got != "http://x.com/1.jpg" {
		t.Fatalf("同优先级应保持发现顺序: %s", got)
	}
}
