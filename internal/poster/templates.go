package poster

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // templates may be JPEG
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// ErrNoUsableTemplate is returned when neither the requested template nor the
// default template exists.
var ErrNoUsableTemplate = errors.New("no usable template")

// templateExtensions are tried in order for template names without an extension.
var templateExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}

// TemplateStore reads poster templates from a directory.
type TemplateStore struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

func NewTemplateStore(fs afero.Fs, dir string) *TemplateStore {
	return &TemplateStore{
		fs:  fs,
		dir: dir,
		log: slog.Default().With("component", "poster-templates"),
	}
}

// find returns the path of the template called name, or "" if it does not exist.
func (s *TemplateStore) find(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range templateExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		path := filepath.Join(s.dir, c)
		if info, err := s.fs.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve returns the path of the named template, falling back to the default
// template. It returns ErrNoUsableTemplate when the default is missing too.
func (s *TemplateStore) Resolve(name string) (string, error) {
	if name == "" {
		name = constants.DefaultTemplateName
	}
	if path := s.find(name); path != "" {
		return path, nil
	}
	if name != constants.DefaultTemplateName {
		s.log.Info("template not found, using default", "template", name)
		if path := s.find(constants.DefaultTemplateName); path != "" {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q and %q missing in %s", ErrNoUsableTemplate, name, constants.DefaultTemplateName, s.dir)
}

// Load resolves and decodes a template image.
func (s *TemplateStore) Load(name string) (image.Image, string, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, "", err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open template: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode template %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("template %s has invalid size", path)
	}
	return img, path, nil
}
