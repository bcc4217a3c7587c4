package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/saad130013/storyweaver-ai/internal/logger"
)

// sceneImageSize is the fixed square raster every stored image is normalized to.
const sceneImageSize = 512

// MediaService normalizes uploaded images, stores session-local video/audio
// blobs on disk, and captures video still frames for slide export.
//
// REQUIRED BINARY in the runtime for video stills: ffmpeg.
type MediaService interface {
	// NormalizeImage rescales to a centered square raster and returns a JPEG
	// data URI. A decode failure falls back to a data URI of the original
	// bytes rather than failing the upload.
	NormalizeImage(data []byte, mimeType string) string

	// StoreBlob writes a video or audio blob under the session's asset dir and
	// returns the URL path it is served from.
	StoreBlob(sessionID, kind, filename string, data []byte) (string, error)

	// ResolveAssetPath maps a served asset URL path back to a file path,
	// rejecting anything outside the asset root.
	ResolveAssetPath(urlPath string) (string, error)

	// CaptureVideoStill rasterizes one frame at a fixed timestamp.
	CaptureVideoStill(ctx context.Context, videoPath string) ([]byte, error)

	// DropSession removes every blob a session stored.
	DropSession(sessionID string)
}

type mediaService struct {
	log        *logger.Logger
	assetRoot  string
	ffmpegPath string
}

func NewMediaService(log *logger.Logger, assetRoot string) MediaService {
	if assetRoot == "" {
		assetRoot = filepath.Join(os.TempDir(), "storyweaver-assets")
	}
	return &mediaService{
		log:        log.With("service", "MediaService"),
		assetRoot:  assetRoot,
		ffmpegPath: "ffmpeg",
	}
}

func (m *mediaService) NormalizeImage(data []byte, mimeType string) string {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		m.log.Warn("image decode failed, storing original bytes", "mime", mimeType, "error", err)
		return dataURI(data, mimeType)
	}

	square := centerSquare(src.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, sceneImageSize, sceneImageSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, square, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		m.log.Warn("jpeg encode failed, storing original bytes", "error", err)
		return dataURI(data, mimeType)
	}
	return dataURI(buf.Bytes(), "image/jpeg")
}

func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}

func dataURI(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func (m *mediaService) StoreBlob(sessionID, kind, filename string, data []byte) (string, error) {
	if sessionID == "" || kind == "" {
		return "", fmt.Errorf("sessionID and kind required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	dir := filepath.Join(m.assetRoot, sessionID, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir asset dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return "/assets/" + sessionID + "/" + kind + "/" + name, nil
}

func (m *mediaService) ResolveAssetPath(urlPath string) (string, error) {
	rel := strings.TrimPrefix(urlPath, "/assets/")
	if rel == urlPath || rel == "" {
		return "", fmt.Errorf("not an asset path: %s", urlPath)
	}
	path := filepath.Join(m.assetRoot, filepath.Clean("/"+rel))
	if !strings.HasPrefix(path, m.assetRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("asset path escapes root: %s", urlPath)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("asset not found: %w", err)
	}
	return path, nil
}

// stillTimestamp is where the representative frame is taken from.
const stillTimestamp = "00:00:01"

func (m *mediaService) CaptureVideoStill(ctx context.Context, videoPath string) ([]byte, error) {
	if _, err := exec.LookPath(m.ffmpegPath); err != nil {
		return nil, fmt.Errorf("missing required binary %q in PATH: %w", m.ffmpegPath, err)
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	outPath := filepath.Join(os.TempDir(), "still_"+uuid.NewString()+".jpg")
	defer func() { _ = os.Remove(outPath) }()

	// ffmpeg -ss 00:00:01 -i in.mp4 -frames:v 1 -q:v 3 out.jpg
	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-y",
		"-ss", stillTimestamp,
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "3",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg still capture failed: %w; out=%s", err, string(out))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("still frame missing: %w", err)
	}
	return data, nil
}

func (m *mediaService) DropSession(sessionID string) {
	if sessionID == "" {
		return
	}
	if err := os.RemoveAll(filepath.Join(m.assetRoot, sessionID)); err != nil {
		m.log.Warn("failed to remove session assets", "session_id", sessionID, "error", err)
	}
}

// DecodeDataURI extracts the raw bytes and mime type from a data URI, used
// by the export renderer to rasterize stored scene media.
func DecodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	rest := uri[len("data:"):]
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	meta, payload := rest[:sep], rest[sep+1:]
	mime := meta
	if i := strings.Index(meta, ";"); i >= 0 {
		mime = meta[:i]
	}
	if !strings.Contains(meta, "base64") {
		return []byte(payload), mime, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return data, mime, nil
}
