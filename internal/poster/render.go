// Package poster renders collection titles onto poster templates.
package poster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mozillazg/go-unidecode"
	"github.com/spf13/afero"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// RenderedPoster is a generated poster file. It is owned by the caller and may
// be removed by Sweep once older than the retention window.
type RenderedPoster struct {
	Path   string
	Width  int
	Height int
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Fs           afero.Fs // defaults to the OS file system
	TemplatesDir string
	FontsDir     string
	FontFile     string
	OutDir       string // where posters are written
	TextColor    string // hex colour, defaults to white
	Options      Options
}

// Engine renders collection posters.
type Engine struct {
	fs        afero.Fs
	templates *TemplateStore
	fonts     *FontStore
	outDir    string
	textColor color.Color
	opts      Options
	log       *slog.Logger

	once sync.Once
	ts   *FaceTypesetter
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfg.TextColor == "" {
		cfg.TextColor = constants.DefaultTextColor
	}
	textColor, err := ParseHexColor(cfg.TextColor)
	if err != nil {
		return nil, fmt.Errorf("invalid text color: %w", err)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = os.TempDir()
	}

	return &Engine{
		fs:        fs,
		templates: NewTemplateStore(fs, cfg.TemplatesDir),
		fonts:     NewFontStore(fs, cfg.FontFile, cfg.FontsDir),
		outDir:    cfg.OutDir,
		textColor: textColor,
		opts:      cfg.Options.WithDefaults(),
		log:       slog.Default().With("component", "poster"),
	}, nil
}

// OutDir is the directory rendered posters are written to.
func (e *Engine) OutDir() string {
	return e.outDir
}

func (e *Engine) typesetter() *FaceTypesetter {
	e.once.Do(func() {
		e.ts = e.fonts.Load()
	})
	return e.ts
}

// Render draws name onto the named template and writes the poster to a new
// file in the output directory. A missing template falls back to the default
// template; ErrNoUsableTemplate is returned when that is missing as well.
func (e *Engine) Render(name, templateName string) (RenderedPoster, error) {
	if strings.TrimSpace(name) == "" {
		return RenderedPoster{}, errors.New("collection name is empty")
	}

	tmpl, tmplPath, err := e.templates.Load(templateName)
	if err != nil {
		return RenderedPoster{}, err
	}

	canvas, plan := e.Compose(name, tmpl)
	e.log.Debug("rendering poster", "name", name, "template", tmplPath,
		"font_size", plan.FontSize, "lines", len(plan.Lines))

	path := filepath.Join(e.outDir, posterFileName(name))
	if err := e.writeJPEG(path, canvas); err != nil {
		return RenderedPoster{}, err
	}

	b := canvas.Bounds()
	return RenderedPoster{Path: path, Width: b.Dx(), Height: b.Dy()}, nil
}

// Compose flattens the template on white and draws the planned title lines.
func (e *Engine) Compose(name string, tmpl image.Image) (*image.RGBA, LayoutPlan) {
	canvas := flatten(tmpl)
	b := canvas.Bounds()

	ts := e.typesetter()
	plan := Plan(name, b.Dx(), b.Dy(), e.opts, ts)
	face := ts.Face(plan.FontSize)
	ascent := ts.Ascent(plan.FontSize)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(e.textColor),
		Face: face,
	}
	for i, line := range plan.Lines {
		top := plan.StartY + float64(i*(plan.LineHeight+plan.LineSpacing))
		d.Dot = fixed.Point26_6{
			X: floatToFixed(plan.LineX[i]),
			Y: fixed.I(int(top) + ascent),
		}
		d.DrawString(line)
	}
	return canvas, plan
}

// writeJPEG encodes img to path, removing the file if encoding fails.
func (e *Engine) writeJPEG(path string, img image.Image) error {
	f, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("could not create poster file: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: constants.PosterJPEGQuality}); err != nil {
		f.Close()
		_ = e.fs.Remove(path)
		return fmt.Errorf("failed to encode poster: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = e.fs.Remove(path)
		return fmt.Errorf("failed to write poster: %w", err)
	}
	return nil
}

// Remove deletes a rendered poster. Already removed files are not an error.
func (e *Engine) Remove(p RenderedPoster) error {
	if p.Path == "" {
		return nil
	}
	if err := e.fs.Remove(p.Path); err != nil && !isNotExist(err) {
		return fmt.Errorf("could not remove poster: %w", err)
	}
	return nil
}

// flatten copies img onto an opaque white canvas anchored at the origin.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	return canvas
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// posterFileName builds collection_poster_<slug>_<uuid>.jpg.
func posterFileName(name string) string {
	slug := strings.ToLower(unidecode.Unidecode(name))
	slug = strings.Trim(slugUnsafe.ReplaceAllString(slug, "_"), "_")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "_")
	}
	if slug == "" {
		slug = "untitled"
	}
	return fmt.Sprintf("%s%s_%s.jpg", constants.PosterFilePrefix, slug, uuid.NewString())
}

// ParseHexColor parses #RGB, #RRGGBB or #RRGGBBAA.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("expected #RGB, #RRGGBB or #RRGGBBAA, got %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
