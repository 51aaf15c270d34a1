package imageclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	imageclient "github.com/Skryldev/image-client"
	"github.com/Skryldev/image-client/config"
	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/hooks"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newRedJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// fakeAPI is a tiny in-memory images service.
type fakeAPI struct {
	mu     sync.Mutex
	images map[string]map[string]any
	nextID int
}

func (f *fakeAPI) reply(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": status < 300, "errors": []any{}, "messages": []any{}, "result": result,
	})
}

func (f *fakeAPI) fail(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false, "errors": []any{map[string]any{"code": code, "message": msg}},
	})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/images"), "/")
	switch {
	case r.Method == http.MethodPost && id == "":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			f.fail(w, http.StatusBadRequest, 5400, "bad form")
			return
		}
		newID := r.FormValue("id")
		if newID == "" {
			f.nextID++
			newID = "generated-" + strconv.Itoa(f.nextID)
		}
		filename := "remote"
		if fh, ok := r.MultipartForm.File["file"]; ok {
			filename = fh[0].Filename
		}
		meta := map[string]any{}
		if raw := r.FormValue("metadata"); raw != "" {
			_ = json.Unmarshal([]byte(raw), &meta)
		}
		img := map[string]any{
			"id": newID, "filename": filename, "uploaded": "2024-01-15T10:30:00Z",
			"requireSignedURLs": r.FormValue("requireSignedURLs") == "true",
			"variants":          []string{"https://imagedelivery.net/h/" + newID + "/public"},
			"meta":              meta,
		}
		f.images[newID] = img
		f.reply(w, http.StatusOK, img)
	case r.Method == http.MethodGet && id == "stats":
		f.reply(w, http.StatusOK, map[string]any{"count": map[string]any{"current": len(f.images), "allowed": 100}})
	case r.Method == http.MethodGet && id == "":
		list := make([]any, 0, len(f.images))
		for _, img := range f.images {
			list = append(list, img)
		}
		f.reply(w, http.StatusOK, map[string]any{"images": list})
	case r.Method == http.MethodGet:
		img, ok := f.images[id]
		if !ok {
			f.fail(w, http.StatusNotFound, 5404, "Image not found")
			return
		}
		f.reply(w, http.StatusOK, img)
	case r.Method == http.MethodDelete:
		delete(f.images, id)
		f.reply(w, http.StatusOK, map[string]any{})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestConfig(t testing.TB) config.Config {
	t.Helper()
	srv := httptest.NewServer(&fakeAPI{images: map[string]map[string]any{}})
	t.Cleanup(srv.Close)

	cfg := imageclient.DefaultConfig()
	cfg.BaseURL = srv.URL + "/images"
	cfg.APIToken = "test-token"
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newClient(t testing.TB) *imageclient.Client {
	t.Helper()
	c, err := imageclient.New(newTestConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ── Operation tests ───────────────────────────────────────────────────────────

func TestUploadGetDelete(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	up := c.Upload(ctx, imageclient.FromBytes(newRedJPEG(t, 40, 30), "image/jpeg", "red.jpg"), imageclient.UploadOptions{
		ID:       "custom-id-123",
		Metadata: map[string]string{"owner": "qa"},
	})
	img, err := up.Unwrap()
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.ID != "custom-id-123" {
		t.Errorf("id: got %q, want custom-id-123", img.ID)
	}
	if img.Name != "red.jpg" {
		t.Errorf("name: got %q, want red.jpg", img.Name)
	}
	if img.Metadata["owner"] != "qa" {
		t.Errorf("metadata: got %v", img.Metadata)
	}

	got, err := c.Get(ctx, "custom-id-123").Unwrap()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if url, ok := got.PublicURL(); !ok || !strings.HasSuffix(url, "/custom-id-123/public") {
		t.Errorf("public url: got %q", url)
	}

	if err := c.Delete(ctx, "custom-id-123").Err(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	missing := c.Get(ctx, "custom-id-123")
	if missing.IsSuccess() {
		t.Fatal("expected an error after delete")
	}
	if missing.Message() != "Image not found" {
		t.Errorf("message: got %q, want %q", missing.Message(), "Image not found")
	}
	if !apperrors.IsCategory(missing.Err(), apperrors.CategoryAPI) {
		t.Errorf("category: got %q, want api", apperrors.CategoryOf(missing.Err()))
	}
}

func TestListAndUsage(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Upload(ctx, imageclient.FromBytes([]byte("payload"), "", ""), imageclient.UploadOptions{}).Err(); err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
	}

	page, err := c.List(ctx, 1, 500).Unwrap()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Count != 3 || page.PerPage != 100 || page.TotalCount != 3 {
		t.Errorf("page: count=%d per_page=%d total=%d", page.Count, page.PerPage, page.TotalCount)
	}
	if page.HasMore() {
		t.Error("single page must not report more")
	}

	first, err := c.Core().ListDefault(ctx).Unwrap()
	if err != nil {
		t.Fatalf("ListDefault: %v", err)
	}
	if first.Page != 1 || first.PerPage != c.Core().Config().DefaultPerPage || first.Count != 3 {
		t.Errorf("default page: page=%d per_page=%d count=%d", first.Page, first.PerPage, first.Count)
	}

	stats, err := c.Usage(ctx).Unwrap()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.Current != 3 || stats.Allowed != 100 || stats.Remaining() != 97 {
		t.Errorf("usage: %+v", stats)
	}
}

func TestAsyncOperations(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	up := c.UploadAsync(ctx, imageclient.FromBytes(newRedJPEG(t, 8, 8), "", ""), imageclient.UploadOptions{ID: "async"})
	res, err := up.Await(ctx)
	if err != nil {
		t.Fatalf("Await upload: %v", err)
	}
	if img, ok := res.Value(); !ok || img.ID != "async" {
		t.Fatalf("upload result: %+v (%s)", img, res.Message())
	}

	list, err := c.ListAsync(ctx, 1, 10).Await(ctx)
	if err != nil {
		t.Fatalf("Await list: %v", err)
	}
	if page := list.GetOrDefault(imageclient.ImageListPage{}); page.Count != 1 {
		t.Errorf("list count: got %d, want 1", page.Count)
	}
}

func TestUploadBatch(t *testing.T) {
	c := newClient(t)
	raw := newRedJPEG(t, 16, 16)

	items := make([]imageclient.BatchItem, 5)
	for i := range items {
		items[i] = imageclient.BatchItem{
			Source:  imageclient.FromBytes(raw, "image/jpeg", "batch.jpg"),
			Options: imageclient.UploadOptions{ID: imageclient.NewID()},
		}
	}

	results := c.UploadBatch(context.Background(), items, 3)
	for i, res := range results {
		img, err := res.Unwrap()
		if err != nil {
			t.Errorf("batch[%d]: %v", i, err)
			continue
		}
		if img.ID != items[i].Options.ID {
			t.Errorf("batch[%d]: id %q, want %q", i, img.ID, items[i].Options.ID)
		}
	}
}

// ── Local payload tests ───────────────────────────────────────────────────────

func TestInspect(t *testing.T) {
	c := newClient(t)

	meta, err := c.Inspect(context.Background(), imageclient.FromBytes(newRedJPEG(t, 64, 48), "", "")).Unwrap()
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if meta.Width != 64 || meta.Height != 48 || meta.Format != imageclient.JPEG {
		t.Errorf("meta: %+v", meta)
	}

	res := c.Inspect(context.Background(), imageclient.FromBytes([]byte("plain text, not an image"), "", ""))
	if !errors.Is(res.Err(), apperrors.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format, got %v", res.Err())
	}

	failing := imageclient.FromOpener(func(context.Context) (io.ReadCloser, error) {
		return nil, errors.New("gone")
	}, "image/png", "x.png", -1)
	if cat := apperrors.CategoryOf(c.Inspect(context.Background(), failing).Err()); cat != apperrors.CategorySource {
		t.Errorf("category: got %q, want source", cat)
	}
}

func TestFromImageUpload(t *testing.T) {
	c := newClient(t)
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	src := c.FromImage(img, imageclient.PNG, "", core.EncodeOptions{})
	if src.MediaType() != "image/png" || src.Name() != "image.png" {
		t.Fatalf("source: %s %s", src.MediaType(), src.Name())
	}
	up, err := c.Upload(context.Background(), src, imageclient.UploadOptions{}).Unwrap()
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.Name != "image.png" {
		t.Errorf("name: got %q", up.Name)
	}

	data, err := src.Bytes(context.Background())
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("decode uploaded png: %v", err)
	}

	webp := c.FromImage(img, imageclient.WebP, "", core.EncodeOptions{})
	if res := c.Upload(context.Background(), webp, imageclient.UploadOptions{}); !errors.Is(res.Err(), apperrors.ErrUnsupportedFormat) {
		t.Errorf("webp encode: got %v, want unsupported format", res.Err())
	}
}

// ── Lifecycle tests ───────────────────────────────────────────────────────────

func TestWithClosesClient(t *testing.T) {
	var kept *imageclient.Client
	err := imageclient.With(newTestConfig(t), func(c *imageclient.Client) error {
		kept = c
		return c.Usage(context.Background()).Err()
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if res := kept.Usage(context.Background()); !errors.Is(res.Err(), apperrors.ErrClientClosed) {
		t.Errorf("after With: got %v, want client closed", res.Err())
	}

	bad := imageclient.DefaultConfig()
	if err := imageclient.With(bad, func(*imageclient.Client) error { return nil }); err == nil {
		t.Error("expected configuration error")
	}
}

func TestMetricsAndHooks(t *testing.T) {
	c := newClient(t)
	m := hooks.NewInMemoryMetrics()
	c.SetMetrics(m)
	c.AddHook(hooks.NewLoggingHook(hooks.NewTextLogger(io.Discard, "debug")))

	_ = c.Upload(context.Background(), imageclient.FromBytes(make([]byte, 256), "", ""), imageclient.UploadOptions{})
	_ = c.Get(context.Background(), "nope")

	snap := m.Snapshot()
	if snap.OpCalls[core.OpUpload] != 1 || snap.OpCalls[core.OpGet] != 1 {
		t.Errorf("calls: %v", snap.OpCalls)
	}
	if snap.UploadedBytes != 256 {
		t.Errorf("uploaded bytes: got %d, want 256", snap.UploadedBytes)
	}
	if snap.ErrorsByCategory["api"] != 1 {
		t.Errorf("errors by category: %v", snap.ErrorsByCategory)
	}
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkUpload(b *testing.B) {
	c, err := imageclient.New(newTestConfig(b))
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	defer c.Close()
	src := imageclient.FromBytes(newRedJPEG(b, 256, 256), "", "")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Upload(context.Background(), src, imageclient.UploadOptions{}).Err(); err != nil {
			b.Fatal(err)
		}
	}
}
