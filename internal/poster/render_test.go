package poster

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func newTestEngine(t *testing.T, fs afero.Fs, textColor string) *Engine {
	t.Helper()
	if err := fs.MkdirAll("out", 0o755); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(EngineConfig{
		Fs:           fs,
		TemplatesDir: "templates",
		FontsDir:     "fonts",
		OutDir:       "out",
		TextColor:    textColor,
		Options:      DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestRender_WritesJPEG(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "templates/default.png", 400, 600, color.RGBA{R: 40, G: 40, B: 120, A: 255})
	e := newTestEngine(t, fs, "")

	p, err := e.Render("Horror Movies", "genre.png")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if p.Width != 400 || p.Height != 600 {
		t.Errorf("expected 400x600, got %dx%d", p.Width, p.Height)
	}
	if filepath.Dir(p.Path) != "out" {
		t.Errorf("expected poster in out/, got %s", p.Path)
	}
	base := filepath.Base(p.Path)
	if !strings.HasPrefix(base, "collection_poster_horror_movies_") || !strings.HasSuffix(base, ".jpg") {
		t.Errorf("unexpected file name %s", base)
	}

	f, err := fs.Open(p.Path)
	if err != nil {
		t.Fatalf("poster not written: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("poster is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 600 {
		t.Errorf("decoded poster is %dx%d", b.Dx(), b.Dy())
	}
}

func TestRender_UniqueFileNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "templates/default.png", 50, 75, color.Black)
	e := newTestEngine(t, fs, "")

	a, err := e.Render("Action", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Render("Action", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Errorf("expected distinct paths, both %s", a.Path)
	}
}

func TestRender_NoUsableTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := newTestEngine(t, fs, "")

	_, err := e.Render("Horror Movies", "genre.png")

	if !errors.Is(err, ErrNoUsableTemplate) {
		t.Fatalf("expected ErrNoUsableTemplate, got %v", err)
	}
	entries, _ := afero.ReadDir(fs, "out")
	if len(entries) != 0 {
		t.Errorf("expected no files written, got %d", len(entries))
	}
}

func TestRender_EmptyName(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "templates/default.png", 50, 75, color.Black)
	e := newTestEngine(t, fs, "")

	if _, err := e.Render("   ", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestWriteJPEG_RemovesFileOnEncodeFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := newTestEngine(t, fs, "")
	path := filepath.Join("out", "collection_poster_broken.jpg")

	// unbounded image, rejected by the encoder after the file is created
	if err := e.writeJPEG(path, image.NewUniform(color.White)); err == nil {
		t.Fatal("expected encode error")
	}

	if exists, _ := afero.Exists(fs, path); exists {
		t.Error("expected partially written poster to be removed")
	}
}

func TestCompose_FlattensTransparencyOnWhite(t *testing.T) {
	e := newTestEngine(t, afero.NewMemMapFs(), "#000000")
	tmpl := image.NewNRGBA(image.Rect(0, 0, 400, 600)) // fully transparent

	canvas, plan := e.Compose("Action", tmpl)

	if got := canvas.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white corner, got %v", got)
	}

	dark := 0
	for y := 0; y < 600; y++ {
		for x := 0; x < 400; x++ {
			if canvas.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Errorf("expected title pixels to be drawn, plan %+v", plan)
	}
}

func TestRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "templates/default.png", 50, 75, color.Black)
	e := newTestEngine(t, fs, "")

	p, err := e.Render("Action", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Remove(p); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := afero.Exists(fs, p.Path); ok {
		t.Error("expected poster to be removed")
	}
	if err := e.Remove(p); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}

func TestNewEngine_InvalidColor(t *testing.T) {
	if _, err := NewEngine(EngineConfig{Fs: afero.NewMemMapFs(), TextColor: "#zz"}); err == nil {
		t.Error("expected error for invalid colour")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FFFFFF", color.RGBA{255, 255, 255, 255}, false},
		{"#f00", color.RGBA{255, 0, 0, 255}, false},
		{"00ff0080", color.RGBA{0, 255, 0, 128}, false},
		{"#12345", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestPosterFileName(t *testing.T) {
	name := posterFileName("Amélie & Friends!")

	if !strings.HasPrefix(name, "collection_poster_amelie_friends_") {
		t.Errorf("unexpected file name %s", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("expected .jpg suffix, got %s", name)
	}
}
