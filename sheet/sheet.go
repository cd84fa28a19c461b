// Package sheet models the physical print sheet: the supported paper
// sizes and the millimetre layout of the map viewport on them.
package sheet

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Fixed sheet furniture, in millimetres.
const (
	// Margin is the white border around the map view.
	Margin = 6
	// FooterHeight is reserved below the map for title and metadata.
	FooterHeight = 15
	// ImageBleed extends the fetched image past the map border so the
	// clip never exposes an unpainted edge.
	ImageBleed = 2
)

//go:embed papersizes.yaml
var papersizesYAML []byte

// Size is one supported paper size, portrait millimetres.
type Size struct {
	Name   string  `validate:"required" yaml:"name"`
	Width  float64 `validate:"required,gt=0" yaml:"width"`
	Height float64 `validate:"required,gtfield=Width" yaml:"height"`
}

type sizeTable struct {
	PaperSizes []Size `validate:"required,min=1,dive" yaml:"papersizes"`
}

// Sizes returns the immutable table of supported paper sizes.
func Sizes() ([]Size, error) {
	var table sizeTable
	if err := yaml.Unmarshal(papersizesYAML, &table); err != nil {
		return nil, fmt.Errorf("parsing paper size table: %w", err)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&table); err != nil {
		return nil, fmt.Errorf("invalid paper size table: %w", err)
	}
	return table.PaperSizes, nil
}

// Lookup finds a paper size by (case-insensitive) name.
func Lookup(name string) (Size, error) {
	sizes, err := Sizes()
	if err != nil {
		return Size{}, err
	}
	for _, size := range sizes {
		if strings.EqualFold(size.Name, name) {
			return size, nil
		}
	}
	return Size{}, fmt.Errorf("unsupported paper size %q", name)
}

// Sheet is a paper size in a print orientation. Maps are landscape unless
// rotated.
type Sheet struct {
	Size    Size
	Rotated bool
}

// Dimensions returns the sheet width and height in millimetres,
// landscape by default.
func (s Sheet) Dimensions() (width, height float64) {
	if s.Rotated {
		return s.Size.Width, s.Size.Height
	}
	return s.Size.Height, s.Size.Width
}

// Viewport returns the position, width and height of the map view on the
// sheet in millimetres, optionally grown by the image bleed.
func (s Sheet) Viewport(withBleed bool) (x, y, width, height float64) {
	bleed := 0.0
	if withBleed {
		bleed = ImageBleed
	}
	width, height = s.Dimensions()

	x = Margin - bleed
	y = x
	width -= 2 * x
	height -= x + Margin + FooterHeight - bleed
	return x, y, width, height
}

// ImageSize returns the millimetre dimensions the map image must cover,
// including bleed.
func (s Sheet) ImageSize() [2]float64 {
	_, _, width, height := s.Viewport(true)
	return [2]float64{width, height}
}
