package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/multimap/internal/adapters/geojsonmap"
	handler "github.com/samirrijal/multimap/internal/adapters/http"
	"github.com/samirrijal/multimap/internal/assets"
	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
)

// ---- Mocks ----

type mockMediaRepo struct {
	renditionFn func(ctx context.Context, id int64, size string) (*domain.Rendition, error)
}

func (m *mockMediaRepo) Rendition(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
	if m.renditionFn != nil {
		return m.renditionFn(ctx, id, size)
	}
	return nil, domain.ErrNotFound
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("cache get %s: %w", key, domain.ErrNotFound)
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

type testEnv struct {
	deps  *handler.Dependencies
	cache *memCache
}

func makeDeps(repo *mockMediaRepo) testEnv {
	if repo == nil {
		repo = &mockMediaRepo{}
	}
	cache := newMemCache()
	media := usecases.NewMediaService(repo, nil, cache)
	descriptors := usecases.NewDescriptorService(media, nil)
	return testEnv{
		cache: cache,
		deps: &handler.Dependencies{
			Descriptors: descriptors,
			Widgets: usecases.NewWidgetService(descriptors, usecases.WidgetConfig{
				LoaderURL: "https://maps.googleapis.com/maps/api/js",
				AssetURL:  "/assets/multimap.js",
			}),
			Previews: usecases.NewPreviewService(geojsonmap.NewRenderer(), cache, 60),
		},
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, string, map[string][]string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(readBody(t, resp.Body)), resp.Header
}

// ---- Descriptor handler tests ----

func TestBuildDescriptor_Success(t *testing.T) {
	env := makeDeps(&mockMediaRepo{
		renditionFn: func(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
			if id == 5 && size == domain.RenditionMedium {
				return &domain.Rendition{AttachmentID: 5, Size: size, URL: "https://cdn.example.com/m/5.jpg"}, nil
			}
			return nil, domain.ErrNotFound
		},
	})
	app := setupApp(env.deps)

	status, body, _ := postJSON(t, app, "/v1/descriptors", `{
		"instance_id": "42",
		"pins": [
			{"pins_name": "Guggenheim", "pins_address": "Abandoibarra 2", "pins_lat": "43.2687", "pins_lng": -2.934,
			 "pins_image": {"id": 5}, "pins_url": {"url": "https://example.com/g"}},
			{"pins_name": "Unknown", "pins_lat": "north", "pins_image": {"id": 99}}
		]
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var got struct {
		InstanceID string           `json:"instanceId"`
		Pins       []map[string]any `json:"pins"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.InstanceID != "42" {
		t.Errorf("expected instanceId 42, got %q", got.InstanceID)
	}
	if len(got.Pins) != 2 {
		t.Fatalf("expected 2 pins, got %d", len(got.Pins))
	}

	first := got.Pins[0]
	if first["image"] != "https://cdn.example.com/m/5.jpg" {
		t.Errorf("unexpected image %v", first["image"])
	}
	if first["url"] != "https://example.com/g" {
		t.Errorf("unexpected url %v", first["url"])
	}
	if first["lat"] != 43.2687 || first["lng"] != -2.934 {
		t.Errorf("unexpected position %v,%v", first["lat"], first["lng"])
	}

	second := got.Pins[1]
	if v, ok := second["image"]; !ok || v != nil {
		t.Errorf("expected image null for unresolved attachment, got %v (present=%v)", v, ok)
	}
	if v, ok := second["url"]; !ok || v != nil {
		t.Errorf("expected url null, got %v (present=%v)", v, ok)
	}
	if second["lat"] != 0.0 || second["lng"] != 0.0 {
		t.Errorf("expected 0,0 fallback, got %v,%v", second["lat"], second["lng"])
	}
}

func TestBuildDescriptor_NonListPins(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, body, _ := postJSON(t, app, "/v1/descriptors", `{"instance_id":"7","pins":"oops"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body != `{"instanceId":"7","pins":[]}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestBuildDescriptor_MissingInstanceID(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, body, _ := postJSON(t, app, "/v1/descriptors", `{"pins":[]}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal([]byte(body), &apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "InstanceID is required") {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestBuildDescriptor_InvalidJSON(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, _, _ := postJSON(t, app, "/v1/descriptors", `{"instance_id":`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- Widget handler tests ----

func TestRenderWidget_Success(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, body, hdr := postJSON(t, app, "/v1/widgets/render", `{
		"instance_id": "abc",
		"settings": {"aspect_ratio": "4:3", "pins": [{"pins_name": "A", "pins_lat": 1, "pins_lng": 2}]}
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if ct := hdr["Content-Type"]; len(ct) == 0 || !strings.HasPrefix(ct[0], "text/html") {
		t.Errorf("expected text/html, got %v", ct)
	}
	for _, want := range []string{
		`id="multiMapabc"`,
		"padding-top:calc(3 / 4 * 100%)",
		`<script src="/assets/multimap.js"></script>`,
		"window.multiMapCallbackData.push(",
		`"instanceId":"abc"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("widget html missing %q", want)
		}
	}
}

func TestRenderWidget_BadAspectRatioFallsBack(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	_, body, _ := postJSON(t, app, "/v1/widgets/render", `{"instance_id":"x","settings":{"aspect_ratio":"wide","pins":[]}}`)
	if !strings.Contains(body, "padding-top:calc(9 / 16 * 100%)") {
		t.Errorf("expected 16:9 fallback, got %s", body)
	}
}

func TestRenderPage_HeadOnceAndDuplicatesSkipped(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, body, hdr := postJSON(t, app, "/v1/pages/render", `{"widgets":[
		{"instance_id":"a","settings":{"pins":[]}},
		{"instance_id":"b","settings":{"pins":[]}},
		{"instance_id":"a","settings":{"pins":[]}}
	]}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if n := strings.Count(body, `<script src="/assets/multimap.js"></script>`); n != 1 {
		t.Errorf("expected shared scripts once, got %d", n)
	}
	if n := strings.Count(body, `class="multiMap"`); n != 2 {
		t.Errorf("expected 2 containers, got %d", n)
	}
	if got := hdr[handler.SkippedHeader]; len(got) != 1 || got[0] != "a" {
		t.Errorf("expected skipped header a, got %v", got)
	}
}

func TestRenderPage_EmptyWidgets(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, _, _ := postJSON(t, app, "/v1/pages/render", `{"widgets":[]}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- Preview handler tests ----

func TestPreviewWidget_ReturnsFeatureCollection(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	status, body, hdr := postJSON(t, app, "/v1/widgets/preview", `{"instance_id":"p","pins":[
		{"pins_name":"Bilbao","pins_lat":43.26,"pins_lng":-2.93},
		{"pins_name":"Donostia","pins_lat":43.32,"pins_lng":-1.98}
	]}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if ct := hdr["Content-Type"]; len(ct) == 0 || ct[0] != "application/geo+json" {
		t.Errorf("unexpected content type %v", ct)
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
		BBox     []float64         `json:"bbox"`
	}
	if err := json.Unmarshal([]byte(body), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Errorf("expected 2 features, got %d", len(fc.Features))
	}
	if len(fc.BBox) != 4 {
		t.Errorf("expected bbox, got %v", fc.BBox)
	}
}

func TestGetPreview_NotFound(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/v1/widgets/missing/preview", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetPreview_Stored(t *testing.T) {
	env := makeDeps(nil)
	if err := env.deps.Previews.Store(context.Background(), "stored", []byte(`{"type":"FeatureCollection","features":[]}`)); err != nil {
		t.Fatal(err)
	}
	app := setupApp(env.deps)

	req := httptest.NewRequest("GET", "/v1/widgets/stored/preview", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=30" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
	if etag := resp.Header.Get("ETag"); !strings.HasPrefix(etag, `W/"`) {
		t.Errorf("expected weak etag, got %q", etag)
	}
}

func TestPreview_Disabled(t *testing.T) {
	env := makeDeps(nil)
	env.deps.Previews = nil
	app := setupApp(env.deps)

	req := httptest.NewRequest("GET", "/v1/widgets/x/preview", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Asset and system tests ----

func TestBootstrapAsset(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/assets/multimap.js", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("unexpected content type %q", ct)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req = httptest.NewRequest("GET", "/assets/multimap.js", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["cache"] != "not configured" {
		t.Errorf("unexpected cache check %q", result.Checks["cache"])
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/ws", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 426 {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

// ---- GraphQL tests ----

func graphql(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	status, body, _ := postJSON(t, app, "/graphql", string(payload))
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var out struct {
		Data   map[string]any `json:"data"`
		Errors []any          `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	return out.Data
}

func TestGraphQL_AspectRatio(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	data := graphql(t, app, `{ aspectRatio(value: "4:3") { width height value } fallback: aspectRatio(value: "abc") { value } }`)
	ar := data["aspectRatio"].(map[string]any)
	if ar["width"] != 4.0 || ar["height"] != 3.0 {
		t.Errorf("unexpected ratio %v", ar)
	}
	if fb := data["fallback"].(map[string]any); fb["value"] != "16:9" {
		t.Errorf("expected 16:9 fallback, got %v", fb["value"])
	}
}

func TestGraphQL_Descriptor(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	data := graphql(t, app, `{ descriptor(instanceId: "9", pins: "[{\"pins_name\":\"A\",\"pins_lat\":\"1.5\"}]") { instanceId containerId pins { name lat lng url image } } }`)
	desc := data["descriptor"].(map[string]any)
	if desc["instanceId"] != "9" || desc["containerId"] != "multiMap9" {
		t.Errorf("unexpected descriptor ids %v", desc)
	}
	pins := desc["pins"].([]any)
	if len(pins) != 1 {
		t.Fatalf("expected 1 pin, got %d", len(pins))
	}
	pin := pins[0].(map[string]any)
	if pin["name"] != "A" || pin["lat"] != 1.5 || pin["lng"] != 0.0 {
		t.Errorf("unexpected pin %v", pin)
	}
	if pin["url"] != nil || pin["image"] != nil {
		t.Errorf("expected null url and image, got %v %v", pin["url"], pin["image"])
	}
}

func TestETag_ListAndWeakMatch(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)
	etag := assets.BootstrapETag()

	for _, header := range []string{`"other", ` + etag, "W/" + etag, "*"} {
		req := httptest.NewRequest("GET", assets.BootstrapPath, nil)
		req.Header.Set("If-None-Match", header)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 304 {
			t.Errorf("If-None-Match %q: expected 304, got %d", header, resp.StatusCode)
		}
	}

	req := httptest.NewRequest("GET", assets.BootstrapPath, nil)
	req.Header.Set("If-None-Match", `"stale"`)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Errorf("stale etag: expected 200, got %d", resp.StatusCode)
	}
}

func TestDemoPage(t *testing.T) {
	app := setupApp(makeDeps(nil).deps)

	req := httptest.NewRequest("GET", "/docs/demo", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	if !strings.HasPrefix(body, "<!DOCTYPE html>") {
		t.Errorf("expected a full document: %.60s", body)
	}
	if !strings.Contains(body, `id="multiMapdemo-1"`) || !strings.Contains(body, `id="multiMapdemo-2"`) {
		t.Error("expected both demo containers")
	}
	if n := strings.Count(body, assets.BootstrapPath); n != 1 {
		t.Errorf("expected bootstrap script once, got %d", n)
	}
}
