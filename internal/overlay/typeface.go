package overlay

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobolditalic"

	"github.com/adamscao/certstamp/internal/models"
)

// CoreFont is the built in PDF font used when no typeface file is configured
const CoreFont = "Helvetica-BoldOblique"

// Typeface names the font the signature is drawn with and carries the
// metrics used to wrap and align it
type Typeface struct {
	Name string
	font *truetype.Font
}

// DefaultTypeface draws with the PDF core font and measures with the
// bundled Go bold italic, whose advances are slightly wider, so wrapping
// errs on the safe side
func DefaultTypeface() *Typeface {
	f, err := truetype.Parse(gobolditalic.TTF)
	if err != nil {
		// the font ships with x/image
		panic(fmt.Sprintf("parse bundled font: %v", err))
	}
	return &Typeface{Name: CoreFont, font: f}
}

// LoadTypeface parses a TrueType file and installs it for pdfcpu under
// its PostScript name
func LoadTypeface(path string) (*Typeface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read typeface: %v", models.ErrRenderingFailed, err)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse typeface %s: %v", models.ErrRenderingFailed, path, err)
	}

	name := f.Name(truetype.NameIDPostscriptName)
	if name == "" {
		return nil, fmt.Errorf("%w: typeface %s has no PostScript name", models.ErrRenderingFailed, path)
	}

	if err := api.InstallFonts([]string{path}); err != nil {
		return nil, fmt.Errorf("%w: failed to install typeface %s: %v", models.ErrRenderingFailed, path, err)
	}

	return &Typeface{Name: name, font: f}, nil
}

// Width returns the advance width of s at size points
func (t *Typeface) Width(s string, size float64) float64 {
	face := truetype.NewFace(t.font, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()

	return float64(font.MeasureString(face, s)) / 64
}

// Wrap splits text into lines no wider than max. It breaks at " | "
// separators first and falls back to spaces for longer segments.
func (t *Typeface) Wrap(text string, size, max float64) []string {
	if t.Width(text, size) <= max {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, seg := range strings.Split(text, " | ") {
		candidate := seg
		if current != "" {
			candidate = current + " | " + seg
		}
		if t.Width(candidate, size) <= max {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		if t.Width(seg, size) <= max {
			current = seg
			continue
		}

		words := t.wrapWords(seg, size, max)
		lines = append(lines, words[:len(words)-1]...)
		current = words[len(words)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}

	return lines
}

func (t *Typeface) wrapWords(s string, size, max float64) []string {
	var lines []string
	current := ""
	for _, w := range strings.Fields(s) {
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if current != "" && t.Width(candidate, size) > max {
			lines = append(lines, current)
			candidate = w
		}
		current = candidate
	}
	return append(lines, current)
}
