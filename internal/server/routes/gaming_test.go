package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/gamecache"
	"github.com/tbx126/console/internal/gaming"
	"github.com/tbx126/console/internal/library"
	"github.com/tbx126/console/internal/steam"
)

// newGamingApp wires a Fiber app against an upstream stub that rejects
// everything, so handler behavior is driven by the local stores only.
func newGamingApp(t *testing.T, games []steam.Game) *fiber.App {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)

	cache, err := gamecache.NewStore(t.TempDir(), gamecache.TTLConfig{
		Details:      time.Hour,
		Achievements: time.Hour,
		News:         time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create cache store: %v", err)
	}

	lib, err := library.NewStore(t.TempDir(), 0, nil)
	if err != nil {
		t.Fatalf("failed to create library store: %v", err)
	}
	if games != nil {
		payload := struct {
			Games []steam.Game `json:"games"`
		}{Games: games}
		if err := lib.Write("gaming.json", payload); err != nil {
			t.Fatalf("failed to seed library: %v", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := steam.NewClient(steam.Options{
		APIBase:   ts.URL,
		StoreBase: ts.URL + "/api",
		Client:    ts.Client(),
		Logger:    logger,
	})
	dl := gamecache.NewDownloader(ts.Client(), logger)
	media := gamecache.NewMediaCacher(cache, dl, logger)

	service := gaming.NewService(gaming.ServiceOptions{
		Steam:   client,
		Cache:   cache,
		Media:   media,
		Library: lib,
		Logger:  logger,
	})
	syncer := gaming.NewSyncer(service, 0, logger)

	app := fiber.New()
	RegisterGamingRoutes(app, GamingDeps{Logger: logger, Service: service, Syncer: syncer})
	return app
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode body %s: %v", body, err)
	}
	return out
}

func TestGamesEndpointReturnsLibrary(t *testing.T) {
	app := newGamingApp(t, []steam.Game{
		{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 1200},
		{AppID: 570, Name: "Dota 2"},
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/games", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}

	body := decodeJSON(t, resp)
	if body["count"] != float64(2) {
		t.Fatalf("expected 2 games, got %v", body["count"])
	}
}

func TestGameByAppID(t *testing.T) {
	app := newGamingApp(t, []steam.Game{{AppID: 440, Name: "Team Fortress 2"}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/games/440", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["name"] != "Team Fortress 2" {
		t.Fatalf("unexpected game payload: %v", body)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/gaming/games/999", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["error"] != "game_not_found" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestInvalidAppIDRejected(t *testing.T) {
	app := newGamingApp(t, nil)

	for _, path := range []string{
		"/api/gaming/games/abc/details",
		"/api/gaming/games/-1/achievements",
		"/api/gaming/cache/status/zero",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("app.Test failed for %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", path, resp.StatusCode)
		}
		if body := decodeJSON(t, resp); body["error"] != "invalid_appid" {
			t.Fatalf("unexpected error payload for %s: %v", path, body)
		}
	}
}

func TestDetailsNotFoundWhenUpstreamRejects(t *testing.T) {
	app := newGamingApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/games/440/details", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["error"] != "details_not_found" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestAchievementsEmptyWithoutCredentials(t *testing.T) {
	app := newGamingApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/games/440/achievements", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["count"] != float64(0) {
		t.Fatalf("expected empty achievements, got %v", body)
	}
}

func TestCacheStatusEndpoint(t *testing.T) {
	app := newGamingApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/cache/status/440", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["details_cached"] != false || body["details_valid"] != false {
		t.Fatalf("fresh cache should report nothing cached: %v", body)
	}
}

func TestCacheClearEndpoint(t *testing.T) {
	app := newGamingApp(t, nil)

	req := httptest.NewRequest("DELETE", "/api/gaming/cache/440", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["message"] != "Cache cleared for game 440" {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestSyncStatusIdle(t *testing.T) {
	app := newGamingApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/gaming/cache/sync-status", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body := decodeJSON(t, resp)
	if body["running"] != false {
		t.Fatalf("expected idle sync status, got %v", body)
	}
	if errs, ok := body["errors"].([]interface{}); !ok || len(errs) != 0 {
		t.Fatalf("expected empty error list, got %v", body["errors"])
	}
}

func TestSyncTriggerWithEmptyLibrary(t *testing.T) {
	app := newGamingApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/gaming/sync", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["games_count"] != float64(0) || body["caching_started"] != false {
		t.Fatalf("empty library should not start a batch: %v", body)
	}
}
