package poster

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// systemFontPaths are tried when neither the configured font nor the fonts
// directory provides a usable file.
var systemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
	"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	"/Library/Fonts/Arial Bold.ttf",
	`C:\Windows\Fonts\arialbd.ttf`,
}

// FontStore locates the font used for poster titles.
type FontStore struct {
	fs   afero.Fs
	file string // explicit font file
	dir  string // fonts directory searched for constants.DefaultFontFile
	log  *slog.Logger
}

func NewFontStore(fs afero.Fs, file, dir string) *FontStore {
	return &FontStore{
		fs:   fs,
		file: file,
		dir:  dir,
		log:  slog.Default().With("component", "poster-fonts"),
	}
}

// candidates returns font paths in lookup order.
func (s *FontStore) candidates() []string {
	var paths []string
	if s.file != "" {
		paths = append(paths, s.file)
	}
	if s.dir != "" {
		paths = append(paths, filepath.Join(s.dir, constants.DefaultFontFile))
	}
	return append(paths, systemFontPaths...)
}

// Load returns a typesetter for the first parseable font. It never fails:
// without any font file it uses the built-in Go Bold, and if even that cannot
// be parsed, the fixed-size basic font.
func (s *FontStore) Load() *FaceTypesetter {
	for _, path := range s.candidates() {
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			s.log.Debug("skipping unparseable font", "path", path, "error", err)
			continue
		}
		s.log.Debug("using font", "path", path)
		return newFaceTypesetter(f, path)
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		s.log.Warn("built-in font unavailable, falling back to basic font", "error", err)
		return newFaceTypesetter(nil, "basicfont")
	}
	s.log.Debug("no font file found, using built-in Go Bold")
	return newFaceTypesetter(f, "gobold")
}

// FaceTypesetter measures and draws text with real font faces, one per size.
// A nil font means every size uses basicfont.Face7x13.
type FaceTypesetter struct {
	font *opentype.Font
	name string

	mu    sync.Mutex
	faces map[int]font.Face
}

func newFaceTypesetter(f *opentype.Font, name string) *FaceTypesetter {
	return &FaceTypesetter{font: f, name: name, faces: make(map[int]font.Face)}
}

// Name identifies the loaded font (path, "gobold" or "basicfont").
func (t *FaceTypesetter) Name() string {
	return t.name
}

// Face returns the face for size, creating it on first use.
func (t *FaceTypesetter) Face(size int) font.Face {
	if t.font == nil {
		return basicfont.Face7x13
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if face, ok := t.faces[size]; ok {
		return face
	}
	face, err := opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	t.faces[size] = face
	return face
}

func (t *FaceTypesetter) Measure(size int, s string) float64 {
	return fixedToFloat(font.MeasureString(t.Face(size), s))
}

func (t *FaceTypesetter) LineHeight(size int) int {
	m := t.Face(size).Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Ascent is the distance from the top of a line to its baseline.
func (t *FaceTypesetter) Ascent(size int) int {
	return t.Face(size).Metrics().Ascent.Ceil()
}

// Close releases all cached faces.
func (t *FaceTypesetter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for size, face := range t.faces {
		_ = face.Close()
		delete(t.faces, size)
	}
	return nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
