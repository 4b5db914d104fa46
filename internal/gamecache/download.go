package gamecache

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// browserHeaders 模拟浏览器请求头，部分外站图床会对裸 UA 返回 403。
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Referer":    "https://store.steampowered.com/",
	"Accept":     "image/webp,image/apng,image/*,*/*;q=0.8",
}

// Downloader 负责把远端媒体文件落到指定路径。目标文件已存在时直接视为成功，
// 不发起网络请求；写入通过临时文件 + rename，失败不会留下残缺文件。
type Downloader struct {
	client *http.Client
	logger *logrus.Logger
}

// NewDownloader 复用进程级共享 http.Client。
func NewDownloader(client *http.Client, logger *logrus.Logger) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Downloader{client: client, logger: logger}
}

// Fetch 下载 rawURL 到 dest，返回是否成功。失败对调用方非致命：
// 没有本地副本本身就是合法的终态，调用方只是不写 local_* 字段。
func (d *Downloader) Fetch(ctx context.Context, rawURL, dest string, headers map[string]string) bool {
	if rawURL == "" || dest == "" {
		return false
	}

	if _, err := os.Stat(dest); err == nil {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.WithError(err).
			WithFields(logrus.Fields{"action": "media_fetch", "url": rawURL}).
			Debug("下载失败")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.WithFields(logrus.Fields{
			"action": "media_fetch",
			"url":    rawURL,
			"status": resp.StatusCode,
		}).Debug("下载失败")
		return false
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false
	}

	tempFile, err := os.CreateTemp(filepath.Dir(dest), ".media-*")
	if err != nil {
		return false
	}
	tempName := tempFile.Name()

	_, err = io.Copy(tempFile, resp.Body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		d.logger.WithError(err).
			WithFields(logrus.Fields{"action": "media_fetch", "url": rawURL}).
			Debug("写入失败")
		return false
	}

	if err := os.Rename(tempName, dest); err != nil {
		os.Remove(tempName)
		return false
	}
	return true
}
