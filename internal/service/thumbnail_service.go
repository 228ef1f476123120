package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"blogadmin/internal/config"
	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
	"blogadmin/internal/observability"
	"blogadmin/internal/resource"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultStorageDir         = "storage/app/public"
	DefaultStorageURL         = "/storage"
	DefaultThumbnailDirectory = "blog-thumbnails"
	DefaultThumbnailPrefix    = "podaj-lapsie-"
	DefaultThumbnailMaxSizeKB = 4096
	DefaultWebPQuality        = 80
	// DefaultThumbnailMaxPixels caps decoded images at roughly 160 MB of RGBA.
	DefaultThumbnailMaxPixels = 40_000_000

	thumbnailTimeLayout = "20060102_150405"
	optimizedExtension  = "webp"
	maxNameCollisions   = 1000
)

var aspectRatios = map[string]float64{
	"16:9": 16.0 / 9.0,
	"4:3":  4.0 / 3.0,
	"1:1":  1.0,
}

// ThumbnailUpload is a thumbnail file as received from the form.
type ThumbnailUpload struct {
	Filename    string
	ContentType string
	Content     []byte
	AspectRatio string
}

// ThumbnailStorage stores, resolves and removes post thumbnails.
type ThumbnailStorage interface {
	Validate(in ThumbnailUpload) error
	Store(ctx context.Context, in ThumbnailUpload) (string, error)
	URL(path string) string
	Remove(ctx context.Context, path string) error
}

// ThumbnailService keeps thumbnails on local disk under the public storage root.
type ThumbnailService struct {
	storageDir string
	storageURL string
	directory  string
	prefix     string
	maxBytes   int64
	maxSizeKB  int
	maxPixels  int64
	quality    int
	tr         *i18n.Translator
	loc        *time.Location
	now        func() time.Time
}

func NewThumbnailService(cfg *config.Config, tr *i18n.Translator) *ThumbnailService {
	s := &ThumbnailService{
		storageDir: DefaultStorageDir,
		storageURL: DefaultStorageURL,
		directory:  DefaultThumbnailDirectory,
		prefix:     DefaultThumbnailPrefix,
		maxSizeKB:  DefaultThumbnailMaxSizeKB,
		maxPixels:  DefaultThumbnailMaxPixels,
		quality:    DefaultWebPQuality,
		tr:         tr,
		loc:        time.UTC,
		now:        time.Now,
	}
	s.maxBytes = int64(s.maxSizeKB) * 1024
	if cfg != nil {
		if cfg.StorageDir != "" {
			s.storageDir = cfg.StorageDir
		}
		if cfg.StorageURL != "" {
			s.storageURL = strings.TrimRight(cfg.StorageURL, "/")
		}
		if cfg.ThumbnailDirectory != "" {
			s.directory = strings.Trim(cfg.ThumbnailDirectory, "/")
		}
		if cfg.ThumbnailPrefix != "" {
			s.prefix = cfg.ThumbnailPrefix
		}
		if cfg.ThumbnailMaxSizeKB > 0 {
			s.maxSizeKB = cfg.ThumbnailMaxSizeKB
			s.maxBytes = cfg.ThumbnailMaxBytes()
		}
		if cfg.ThumbnailMaxPixels > 0 {
			s.maxPixels = cfg.ThumbnailMaxPixels
		}
		if cfg.WebPQuality > 0 {
			s.quality = cfg.WebPQuality
		}
		s.loc = cfg.Location()
	}
	return s
}

// WithClock replaces the clock used for file names.
func (s *ThumbnailService) WithClock(now func() time.Time) *ThumbnailService {
	s.now = now
	return s
}

// Directory is the storage-relative folder thumbnails are written to.
func (s *ThumbnailService) Directory() string { return s.directory }

// Prefix is the file name prefix of stored thumbnails.
func (s *ThumbnailService) Prefix() string { return s.prefix }

// MaxSizeKB is the upload limit in kilobytes.
func (s *ThumbnailService) MaxSizeKB() int { return s.maxSizeKB }

// Validate checks size, aspect ratio and that the bytes are a decodable image
// without writing anything.
func (s *ThumbnailService) Validate(in ThumbnailUpload) error {
	_, err := s.check(in)
	return err
}

func (s *ThumbnailService) check(in ThumbnailUpload) (image.Config, error) {
	if len(in.Content) == 0 {
		return image.Config{}, s.fieldError("validation.required", nil)
	}
	if int64(len(in.Content)) > s.maxBytes {
		return image.Config{}, s.fieldError("validation.max.file", map[string]string{"max": strconv.Itoa(s.maxSizeKB)})
	}
	if _, ok := aspectRatios[in.AspectRatio]; in.AspectRatio != "" && !ok {
		return image.Config{}, s.fieldError("validation.in", nil)
	}

	// TIFF is not sniffed by net/http and reports as octet-stream.
	sniffed := http.DetectContentType(in.Content)
	if !strings.HasPrefix(sniffed, "image/") && sniffed != "application/octet-stream" {
		return image.Config{}, s.fieldError("validation.image", nil)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || !isSupportedDecodedFormat(format) || cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, s.fieldError("validation.image", nil)
	}
	// Headers can declare dimensions far beyond the file size; refuse before decoding.
	if int64(cfg.Width)*int64(cfg.Height) > s.maxPixels {
		return image.Config{}, s.fieldError("validation.image", nil)
	}
	return cfg, nil
}

// Store crops, converts to webp and writes the thumbnail, returning its
// storage-relative path.
func (s *ThumbnailService) Store(ctx context.Context, in ThumbnailUpload) (stored string, err error) {
	_, span := observability.StartSpan(ctx, "ThumbnailService", "Store",
		attribute.Int("thumbnail.bytes", len(in.Content)),
		attribute.String("thumbnail.aspect_ratio", in.AspectRatio),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err = s.check(in); err != nil {
		observability.ThumbnailUploads.WithLabelValues("rejected").Inc()
		return "", err
	}

	decoded, _, decErr := image.Decode(bytes.NewReader(in.Content))
	if decErr != nil {
		observability.ThumbnailUploads.WithLabelValues("rejected").Inc()
		return "", s.fieldError("validation.image", nil)
	}
	if ratio, ok := aspectRatios[in.AspectRatio]; ok {
		b := decoded.Bounds()
		x, y, w, h := centerCrop(b.Dx(), b.Dy(), ratio)
		decoded = cropToRect(decoded, b.Min.X+x, b.Min.Y+y, w, h)
	}

	encoded, encErr := encodeWebP(decoded, s.quality)
	if encErr != nil {
		observability.ThumbnailUploads.WithLabelValues("failed").Inc()
		return "", models.NewInternalError(encErr)
	}
	observability.ThumbnailBytes.WithLabelValues("original").Observe(float64(len(in.Content)))
	observability.ThumbnailBytes.WithLabelValues("optimized").Observe(float64(len(encoded)))

	name := OptimizedFileName(FileName(s.prefix, in.Filename, s.now().In(s.loc)), optimizedExtension)
	final, writeErr := s.writeUnique(name, encoded)
	if writeErr != nil {
		observability.ThumbnailUploads.WithLabelValues("failed").Inc()
		return "", models.NewInternalError(writeErr)
	}

	observability.ThumbnailUploads.WithLabelValues("stored").Inc()
	return path.Join(s.directory, final), nil
}

// URL returns the public URL of a stored thumbnail path.
func (s *ThumbnailService) URL(p string) string {
	if p == "" {
		return ""
	}
	return s.storageURL + "/" + strings.TrimLeft(p, "/")
}

// Remove deletes a stored thumbnail. Missing files are not an error.
func (s *ThumbnailService) Remove(_ context.Context, p string) error {
	abs, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a storage-relative path to disk, refusing anything outside the
// thumbnail directory.
func (s *ThumbnailService) resolve(p string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(p))
	if !strings.HasPrefix(clean, "/"+s.directory+"/") {
		return "", fmt.Errorf("thumbnail path %q is outside %s", p, s.directory)
	}
	return filepath.Join(s.storageDir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// writeUnique writes data under name, adding -1, -2, … before the extension
// while a file with that name exists. Returns the name actually used.
func (s *ThumbnailService) writeUnique(name string, data []byte) (string, error) {
	dir := filepath.Join(s.storageDir, filepath.FromSlash(s.directory))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < maxNameCollisions; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		// #nosec G304: candidate is built from the configured prefix and a timestamp
		f, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", err
		}
		return candidate, f.Close()
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", name, maxNameCollisions)
}

func (s *ThumbnailService) fieldError(key string, replace map[string]string) error {
	r := map[string]string{"attribute": resource.FieldLabel(s.tr, resource.FieldThumbnail)}
	for k, v := range replace {
		r[k] = v
	}
	return models.NewFieldValidationError(s.tr.T("validation.failed"), map[string][]string{
		resource.FieldThumbnail: {s.tr.T(key, r)},
	})
}

// FileName builds prefix + Ymd_His + the original extension, lowercased,
// defaulting to jpg.
func FileName(prefix, original string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if ext == "" {
		ext = "jpg"
	}
	return prefix + now.Format(thumbnailTimeLayout) + "." + ext
}

// OptimizedFileName swaps the extension of name for ext.
func OptimizedFileName(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + "." + ext
}

// centerCrop returns the largest centered rectangle of the given ratio.
func centerCrop(w, h int, ratio float64) (cropX, cropY, cropW, cropH int) {
	if w <= 0 || h <= 0 || ratio <= 0 {
		return 0, 0, w, h
	}
	if float64(w)/float64(h) > ratio {
		cropH = h
		cropW = int(float64(h)*ratio + 0.5)
	} else {
		cropW = w
		cropH = int(float64(w)/ratio + 0.5)
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	if cropW > w {
		cropW = w
	}
	if cropH > h {
		cropH = h
	}
	return (w - cropW) / 2, (h - cropH) / 2, cropW, cropH
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp", "bmp", "tiff":
		return true
	default:
		return false
	}
}
