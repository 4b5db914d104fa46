package gamecache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestFetchIdempotent(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("image-bytes"))
	}))
	defer ts.Close()

	dl := NewDownloader(ts.Client(), nil)
	dest := filepath.Join(t.TempDir(), "440", "1.jpg")

	if !dl.Fetch(context.Background(), ts.URL+"/1.jpg", dest, nil) {
		t.Fatalf("首次下载应成功")
	}
	if !dl.Fetch(context.Background(), ts.URL+"/1.jpg", dest, nil) {
		t.Fatalf("目标已存在时应直接返回成功")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("应只发起一次网络请求，实际 %d 次", got)
	}

	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("读取下载文件失败: %v", err)
	}
	if string(body) != "image-bytes" {
		t.Fatalf("文件内容不匹配: %s", body)
	}
}

func TestFetchFailureLeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dl := NewDownloader(ts.Client(), nil)
	dest := filepath.Join(t.TempDir(), "440", "missing.jpg")

	if dl.Fetch(context.Background(), ts.URL+"/missing.jpg", dest, nil) {
		t.Fatalf("非 2xx 应返回失败")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("失败时不应留下目标文件")
	}
}

func TestFetchTransportErrorLeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	dl := NewDownloader(&http.Client{}, nil)
	dest := filepath.Join(t.TempDir(), "dead.jpg")

	if dl.Fetch(context.Background(), url+"/dead.jpg", dest, nil) {
		t.Fatalf("传输错误应返回失败")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("失败时不应留下目标文件")
	}
}

func TestFetchSendsHeaders(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dl := NewDownloader(ts.Client(), nil)
	dest := filepath.Join(t.TempDir(), "h.jpg")

	if !dl.Fetch(context.Background(), ts.URL+"/h.jpg", dest, browserHeaders) {
		t.Fatalf("下载应成功")
	}
	if gotUA != browserHeaders["User-Agent"] {
		t.Fatalf("应携带浏览器 UA，得到 %q", gotUA)
	}
}
