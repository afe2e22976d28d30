// Package textmetrics measures rendered label sizes so diagram boxes can be
// grown to fit their text.
//
// Fonts are looked up by family name in a local table ([FontSet]). A family
// without a usable font file falls back to the embedded Go Regular face; the
// miss is logged once and never fails a build. Measurements are derived from
// the font tables alone, so identical input always yields identical sizes.
package textmetrics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family maps a font family name to a font file.
type Family struct {
	Name string `toml:"name" validate:"required"`
	File string `toml:"file" validate:"required"`
}

// FontSet is a parsed font table. It is immutable after construction and
// safe for concurrent use.
type FontSet struct {
	fonts    map[string]*opentype.Font
	fallback *opentype.Font
	missing  []string
	digest   string
}

// LoadFontSet parses every family file under dir. Unreadable or invalid files
// are recorded as missing and resolved to the fallback face.
func LoadFontSet(dir string, families []Family) (*FontSet, error) {
	fallback, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse fallback font: %w", err)
	}
	fs := &FontSet{fonts: make(map[string]*opentype.Font), fallback: fallback}
	h := sha256.New()
	for _, f := range families {
		fmt.Fprintf(h, "%q:", f.Name)
		path := f.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fs.missing = append(fs.missing, f.Name)
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			fs.missing = append(fs.missing, f.Name)
			continue
		}
		fmt.Fprintf(h, "%d:", len(data))
		h.Write(data)
		fs.fonts[f.Name] = parsed
	}
	fs.digest = hex.EncodeToString(h.Sum(nil))
	return fs, nil
}

// DefaultFontSet returns a set that measures everything with the fallback face.
func DefaultFontSet() *FontSet {
	fs, err := LoadFontSet("", nil)
	if err != nil {
		// goregular.TTF is embedded and known to parse.
		panic(err)
	}
	return fs
}

// Missing returns the configured families whose files could not be loaded.
func (fs *FontSet) Missing() []string { return fs.missing }

// Digest is a hash over the family names and the bytes of every font that
// loaded. Replacing, adding or removing a font file changes it.
func (fs *FontSet) Digest() string { return fs.digest }

type faceKey struct {
	family string
	size   float64
}

// Measurer measures text against a [FontSet]. It caches faces per family and
// size; the cache is guarded, but callers are expected to use one Measurer
// per diagram.
type Measurer struct {
	fonts  *FontSet
	logger *log.Logger

	mu       sync.Mutex
	faces    map[faceKey]font.Face
	reported map[string]bool
}

// NewMeasurer returns a measurer over fs. A nil logger silences misses.
func NewMeasurer(fs *FontSet, logger *log.Logger) *Measurer {
	if fs == nil {
		fs = DefaultFontSet()
	}
	return &Measurer{
		fonts:    fs,
		logger:   logger,
		faces:    make(map[faceKey]font.Face),
		reported: make(map[string]bool),
	}
}

// Measure returns the pixel width and height of text set in family at size.
func (m *Measurer) Measure(text, family string, size float64) (w, h float64) {
	face := m.face(family, size)
	m.mu.Lock()
	defer m.mu.Unlock()
	metrics := face.Metrics()
	return float64(font.MeasureString(face, text).Ceil()), float64((metrics.Ascent + metrics.Descent).Ceil())
}

func (m *Measurer) face(family string, size float64) font.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := faceKey{family, size}
	if f, ok := m.faces[key]; ok {
		return f
	}
	fnt, ok := m.fonts.fonts[family]
	if !ok {
		if !m.reported[family] && m.logger != nil {
			m.logger.Warn("could not find font, using fallback metrics", "family", family)
		}
		m.reported[family] = true
		fnt = m.fonts.fallback
	}
	f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("could not build font face, using fallback", "family", family, "err", err)
		}
		f, _ = opentype.NewFace(m.fonts.fallback, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	}
	m.faces[key] = f
	return f
}

// Close releases cached faces.
func (m *Measurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, f := range m.faces {
		_ = f.Close()
		delete(m.faces, k)
	}
	return nil
}
