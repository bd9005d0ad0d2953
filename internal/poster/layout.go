package poster

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/collection-sync/internal/constants"
)

// Ellipsis is appended to lines truncated to fit between the margins.
const Ellipsis = "..."

// Options controls font sizing and placement. Zero values take the defaults
// from the constants package, except VerticalPosition where 0 is the top edge.
type Options struct {
	MinFontSize      int
	MaxFontSize      int
	MarginPct        float64 // horizontal margin per side, fraction of width
	CharWidthFactor  float64 // average advance / font size
	VerticalPosition float64 // center of the text block, fraction of height
	LineSpacing      float64 // gap between lines, fraction of font size
}

// DefaultOptions returns the default layout with the text block centered.
func DefaultOptions() Options {
	return Options{VerticalPosition: constants.DefaultVerticalPosition}.WithDefaults()
}

// WithDefaults fills unset fields and clamps out-of-range values.
func (o Options) WithDefaults() Options {
	if o.MinFontSize <= 0 {
		o.MinFontSize = constants.DefaultMinFontSize
	}
	if o.MaxFontSize <= 0 {
		o.MaxFontSize = constants.DefaultMaxFontSize
	}
	if o.MaxFontSize < o.MinFontSize {
		o.MinFontSize, o.MaxFontSize = o.MaxFontSize, o.MinFontSize
	}
	if o.MarginPct <= 0 || o.MarginPct >= 0.5 {
		o.MarginPct = constants.DefaultMarginPct
	}
	if o.CharWidthFactor <= 0 {
		o.CharWidthFactor = constants.DefaultCharWidthFactor
	}
	if o.VerticalPosition < 0 || o.VerticalPosition > 1 {
		o.VerticalPosition = constants.DefaultVerticalPosition
	}
	if o.LineSpacing <= 0 {
		o.LineSpacing = constants.DefaultLineSpacing
	}
	return o
}

// LayoutPlan is the computed placement of a title on a template.
// Line i is drawn with its top edge at StartY + i*(LineHeight+LineSpacing).
type LayoutPlan struct {
	FontSize    int
	Lines       []string
	LineHeight  int
	LineSpacing int
	StartY      float64
	LineX       []float64
}

// Typesetter measures text at a given font size.
type Typesetter interface {
	Measure(size int, s string) float64
	LineHeight(size int) int
}

// EstimateTypesetter approximates every glyph as CharWidthFactor * size wide.
type EstimateTypesetter struct {
	CharWidthFactor float64
}

func (e EstimateTypesetter) Measure(size int, s string) float64 {
	return float64(utf8.RuneCountInString(s)) * e.CharWidthFactor * float64(size)
}

func (e EstimateTypesetter) LineHeight(size int) int {
	return size
}

// widestTypesetter measures with every typesetter and reports the widest result.
type widestTypesetter []Typesetter

func (w widestTypesetter) Measure(size int, s string) float64 {
	widest := 0.0
	for _, ts := range w {
		widest = math.Max(widest, ts.Measure(size, s))
	}
	return widest
}

func (w widestTypesetter) LineHeight(size int) int {
	return w[0].LineHeight(size)
}

// NormalizeTitle composes the title to NFC and collapses whitespace so that
// "e" + combining accent counts as one character.
func NormalizeTitle(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// CharCount returns the number of characters in the normalized title.
func CharCount(name string) int {
	return utf8.RuneCountInString(NormalizeTitle(name))
}

// FontSize picks the font size for a title of n characters.
func FontSize(n, minSize, maxSize int) int {
	lo, hi := float64(minSize), float64(maxSize)
	span := hi - lo

	var size float64
	switch {
	case n <= 12:
		size = hi
	case n <= 25:
		size = hi - float64(n-12)/13*0.7*span
	default:
		size = math.Max(lo+0.3*span-0.8*float64(n-25), lo)
	}

	// long titles wrap into several short lines, so they can afford a bigger font
	if n > 40 {
		size = math.Max(size, lo+10)
	}

	size = math.Min(math.Max(size, lo), hi)
	return int(size)
}

// MaxCharsPerLine estimates how many characters fit into availableWidth.
func MaxCharsPerLine(availableWidth float64, fontSize int, charWidthFactor float64) int {
	n := int(availableWidth / (float64(fontSize) * charWidthFactor))
	return max(constants.MinCharsPerLine, min(n, constants.MaxCharsPerLine))
}

// Wrap greedily packs words into lines of at most maxChars characters.
// Words are never split; a word longer than maxChars gets its own line.
func Wrap(text string, maxChars int) []string {
	var lines []string
	var current []string
	currentLen := 0

	for _, word := range strings.Fields(text) {
		wordLen := utf8.RuneCountInString(word)
		if len(current) == 0 {
			current = []string{word}
			currentLen = wordLen
			continue
		}
		if currentLen+wordLen+1 <= maxChars {
			current = append(current, word)
			currentLen += wordLen + 1
			continue
		}
		lines = append(lines, strings.Join(current, " "))
		current = []string{word}
		currentLen = wordLen
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// Truncate shortens line until it fits into availableWidth, reserving three
// characters for the ellipsis. The result is never shorter than five characters.
func Truncate(line string, availableWidth float64, size int, ts Typesetter) string {
	runes := []rune(line)
	if ts.Measure(size, line) <= availableWidth || len(runes) <= 5 {
		return line
	}
	for keep := len(runes) - 3; keep >= 2; keep-- {
		candidate := string(runes[:keep]) + Ellipsis
		if ts.Measure(size, candidate) <= availableWidth {
			return candidate
		}
	}
	return string(runes[:2]) + Ellipsis
}

// Plan computes font size, line breaks and positions for name on a
// width x height template.
func Plan(name string, width, height int, opts Options, ts Typesetter) LayoutPlan {
	opts = opts.WithDefaults()
	name = NormalizeTitle(name)
	n := utf8.RuneCountInString(name)

	size := FontSize(n, opts.MinFontSize, opts.MaxFontSize)
	margin := opts.MarginPct * float64(width)
	available := float64(width) - 2*margin
	maxChars := MaxCharsPerLine(available, size, opts.CharWidthFactor)

	lines := []string{name}
	if n > maxChars || n > constants.WrapThreshold {
		lines = Wrap(name, maxChars)
	}

	// lines must fit by the drawn width and by the character estimate
	bound := widestTypesetter{ts, EstimateTypesetter{CharWidthFactor: opts.CharWidthFactor}}
	xs := make([]float64, len(lines))
	for i, line := range lines {
		if bound.Measure(size, line) > available {
			line = Truncate(line, available, size, bound)
			lines[i] = line
		}
		lineWidth := ts.Measure(size, line)
		x := (float64(width) - lineWidth) / 2
		if x+lineWidth > float64(width)-margin {
			x = float64(width) - margin - lineWidth
		}
		if x < margin {
			x = margin
		}
		xs[i] = x
	}

	lineHeight := ts.LineHeight(size)
	spacing := int(opts.LineSpacing * float64(size))
	total := float64(len(lines) * (lineHeight + spacing))

	return LayoutPlan{
		FontSize:    size,
		Lines:       lines,
		LineHeight:  lineHeight,
		LineSpacing: spacing,
		StartY:      opts.VerticalPosition*float64(height) - total/2,
		LineX:       xs,
	}
}
