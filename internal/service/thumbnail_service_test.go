package service

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogadmin/internal/config"
	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
	"blogadmin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newThumbnailService(t *testing.T, maxKB int) (*ThumbnailService, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StorageDir:         dir,
		StorageURL:         "/storage/",
		ThumbnailDirectory: "blog-thumbnails",
		ThumbnailPrefix:    "podaj-lapsie-",
		ThumbnailMaxSizeKB: maxKB,
		WebPQuality:        75,
	}
	svc := NewThumbnailService(cfg, i18n.MustLoad().For("pl")).WithClock(func() time.Time { return fixedNow })
	return svc, dir
}

func decodeStored(t *testing.T, dir, rel string) image.Config {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	return cfg
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "podaj-lapsie-20240309_140507.png", FileName("podaj-lapsie-", "Holiday.PNG", fixedNow))
	assert.Equal(t, "podaj-lapsie-20240309_140507.jpg", FileName("podaj-lapsie-", "noext", fixedNow))
	assert.Equal(t, "podaj-lapsie-20240309_140507.webp", OptimizedFileName("podaj-lapsie-20240309_140507.png", "webp"))
}

func TestThumbnailStoreWritesWebP(t *testing.T) {
	svc, dir := newThumbnailService(t, 4096)

	rel, err := svc.Store(context.Background(), ThumbnailUpload{
		Filename: "photo.png",
		Content:  testutil.TinyPNG(t, 320, 200),
	})
	require.NoError(t, err)
	assert.Equal(t, "blog-thumbnails/podaj-lapsie-20240309_140507.webp", rel)

	cfg := decodeStored(t, dir, rel)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
	assert.Equal(t, "/storage/blog-thumbnails/podaj-lapsie-20240309_140507.webp", svc.URL(rel))
}

func TestThumbnailStoreAvoidsNameCollisions(t *testing.T) {
	svc, _ := newThumbnailService(t, 4096)
	ctx := context.Background()
	upload := ThumbnailUpload{Filename: "a.jpg", Content: testutil.TinyJPEG(t, 40, 40)}

	first, err := svc.Store(ctx, upload)
	require.NoError(t, err)
	second, err := svc.Store(ctx, upload)
	require.NoError(t, err)
	third, err := svc.Store(ctx, upload)
	require.NoError(t, err)

	assert.Equal(t, "blog-thumbnails/podaj-lapsie-20240309_140507.webp", first)
	assert.Equal(t, "blog-thumbnails/podaj-lapsie-20240309_140507-1.webp", second)
	assert.Equal(t, "blog-thumbnails/podaj-lapsie-20240309_140507-2.webp", third)
}

func TestThumbnailStoreCropsToAspectRatio(t *testing.T) {
	tests := []struct {
		ratio         string
		width, height int
	}{
		{ratio: "16:9", width: 400, height: 225},
		{ratio: "4:3", width: 400, height: 300},
		{ratio: "1:1", width: 300, height: 300},
		{ratio: "", width: 400, height: 300},
	}
	for _, tt := range tests {
		t.Run("ratio "+tt.ratio, func(t *testing.T) {
			svc, dir := newThumbnailService(t, 4096)
			rel, err := svc.Store(context.Background(), ThumbnailUpload{
				Filename:    "x.jpg",
				Content:     testutil.TinyJPEG(t, 400, 300),
				AspectRatio: tt.ratio,
			})
			require.NoError(t, err)
			cfg := decodeStored(t, dir, rel)
			assert.Equal(t, tt.width, cfg.Width)
			assert.Equal(t, tt.height, cfg.Height)
		})
	}
}

func TestThumbnailValidation(t *testing.T) {
	svc, dir := newThumbnailService(t, 1)
	big := testutil.TinyJPEG(t, 200, 200)
	require.Greater(t, len(big), 1024)

	tests := []struct {
		name    string
		upload  ThumbnailUpload
		message string
	}{
		{name: "empty", upload: ThumbnailUpload{Filename: "a.png"}, message: "Pole Miniaturka jest wymagane."},
		{name: "oversize", upload: ThumbnailUpload{Filename: "a.jpg", Content: big}, message: "Plik Miniaturka nie może być większy niż 1 kilobajtów."},
		{name: "not an image", upload: ThumbnailUpload{Filename: "a.png", Content: []byte("hello, world")}, message: "Plik Miniaturka musi być obrazkiem."},
		{name: "huge declared dimensions", upload: ThumbnailUpload{Filename: "a.png", Content: testutil.PNGHeader(100000, 100000)}, message: "Plik Miniaturka musi być obrazkiem."},
		{name: "bad ratio", upload: ThumbnailUpload{Filename: "a.png", Content: testutil.TinyPNG(t, 4, 4), AspectRatio: "3:2"}, message: "Wybrana wartość pola Miniaturka jest nieprawidłowa."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Store(context.Background(), tt.upload)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, []string{tt.message}, appErr.Fields["thumbnail"])
		})
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "blog-thumbnails"))
	assert.Empty(t, entries, "rejected uploads must not be written")
}

func TestThumbnailPixelLimit(t *testing.T) {
	cfg := &config.Config{StorageDir: t.TempDir(), ThumbnailMaxPixels: 100}
	svc := NewThumbnailService(cfg, i18n.MustLoad().For("pl"))

	assert.NoError(t, svc.Validate(ThumbnailUpload{Filename: "a.png", Content: testutil.TinyPNG(t, 10, 10)}))
	assert.Error(t, svc.Validate(ThumbnailUpload{Filename: "a.png", Content: testutil.TinyPNG(t, 11, 10)}))
	assert.NoError(t, svc.Validate(ThumbnailUpload{Filename: "a.png", Content: testutil.PNGHeader(10, 10)}))
}

func TestThumbnailNameUsesAppTimezone(t *testing.T) {
	cfg := &config.Config{StorageDir: t.TempDir(), Timezone: "Europe/Warsaw"}
	svc := NewThumbnailService(cfg, i18n.MustLoad().For("pl")).WithClock(func() time.Time { return fixedNow })

	rel, err := svc.Store(context.Background(), ThumbnailUpload{Filename: "a.png", Content: testutil.TinyPNG(t, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, "blog-thumbnails/podaj-lapsie-20240309_150507.webp", rel)
}

func TestThumbnailRemove(t *testing.T) {
	svc, dir := newThumbnailService(t, 4096)
	ctx := context.Background()

	rel, err := svc.Store(ctx, ThumbnailUpload{Filename: "a.png", Content: testutil.TinyPNG(t, 8, 8)})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, rel))
	_, statErr := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, svc.Remove(ctx, rel), "removing twice is fine")
	assert.Error(t, svc.Remove(ctx, "../../etc/passwd"))
	assert.Error(t, svc.Remove(ctx, "blog-thumbnails/../secret.txt"))
}

func TestThumbnailURL(t *testing.T) {
	svc := NewThumbnailService(nil, i18n.MustLoad().For("pl"))
	assert.Equal(t, "", svc.URL(""))
	assert.True(t, strings.HasPrefix(svc.URL("blog-thumbnails/a.webp"), DefaultStorageURL+"/"))
}

func TestCenterCrop(t *testing.T) {
	x, y, w, h := centerCrop(1000, 500, 1.0)
	assert.Equal(t, []int{250, 0, 500, 500}, []int{x, y, w, h})

	x, y, w, h = centerCrop(300, 600, 4.0/3.0)
	assert.Equal(t, []int{0, 187, 300, 225}, []int{x, y, w, h})
}
