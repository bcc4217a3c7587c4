package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/saad130013/storyweaver-ai/internal/logger"
)

func newTestMedia(t *testing.T) MediaService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewMediaService(log, t.TempDir())
}

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			im.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeImageProducesFixedSquare(t *testing.T) {
	m := newTestMedia(t)
	uri := m.NormalizeImage(encodeTestPNG(t, 300, 120), "image/png")
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("uri prefix = %q", uri[:40])
	}
	raw, mime, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("decode uri: %v", err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q", mime)
	}
	im, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	b := im.Bounds()
	if b.Dx() != sceneImageSize || b.Dy() != sceneImageSize {
		t.Fatalf("normalized size = %dx%d, want %dx%d", b.Dx(), b.Dy(), sceneImageSize, sceneImageSize)
	}
}

func TestNormalizeImageFallsBackOnGarbage(t *testing.T) {
	m := newTestMedia(t)
	data := []byte("definitely not an image")
	uri := m.NormalizeImage(data, "image/png")
	raw, _, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("decode uri: %v", err)
	}
	if !bytes.Equal(raw, data) {
		t.Fatal("fallback did not preserve original bytes")
	}
}

func TestCenterSquare(t *testing.T) {
	cases := []struct {
		in   image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 100, 100), image.Rect(0, 0, 100, 100)},
		{image.Rect(0, 0, 300, 100), image.Rect(100, 0, 200, 100)},
		{image.Rect(0, 0, 100, 300), image.Rect(0, 100, 100, 200)},
	}
	for _, tc := range cases {
		if got := centerSquare(tc.in); got != tc.want {
			t.Fatalf("centerSquare(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStoreBlobAndResolve(t *testing.T) {
	m := newTestMedia(t)
	url, err := m.StoreBlob("sess1", "audio", "take.webm", []byte("blob"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasPrefix(url, "/assets/sess1/audio/") || !strings.HasSuffix(url, ".webm") {
		t.Fatalf("url = %q", url)
	}
	if _, err := m.ResolveAssetPath(url); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	m.DropSession("sess1")
	if _, err := m.ResolveAssetPath(url); err == nil {
		t.Fatal("asset survived session drop")
	}
}

func TestResolveAssetPathRejectsEscape(t *testing.T) {
	m := newTestMedia(t)
	for _, p := range []string{"/assets/../../etc/passwd", "/etc/passwd", "/assets/"} {
		if _, err := m.ResolveAssetPath(p); err == nil {
			t.Fatalf("path %q was not rejected", p)
		}
	}
}

func TestDecodeDataURI(t *testing.T) {
	raw, mime, err := DecodeDataURI("data:text/plain;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "text/plain" || string(raw) != "hello" {
		t.Fatalf("got (%q, %q)", raw, mime)
	}
	if _, _, err := DecodeDataURI("http://example.com/x.png"); err == nil {
		t.Fatal("non-data URI accepted")
	}
}
