// Package layout composes the printable sheet: the map raster, its frame,
// the kilometre grid and the footer metadata, as an SVG document.
package layout

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
	"github.com/muesli/reflow/truncate"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"tastopo/mapgrid"
	"tastopo/sheet"
)

//go:embed template.svg
var templateSVG []byte

// maxTitleCells keeps long place names from overrunning the footer.
const maxTitleCells = 48

// Metadata is the textual record printed in the sheet footer.
type Metadata struct {
	Title    string
	Scale    string // e.g. "1:25000"
	Interval string // e.g. "1km grid"
	Datum    string
	GeoURI   string
}

// Layout is an SVG sheet layout under composition. Elements selected from
// the template are kept by key, in selection order.
type Layout struct {
	doc      *etree.Document
	sheet    sheet.Sheet
	elements *orderedmap.OrderedMap[string, *etree.Element]
}

// New parses the embedded template and sizes it for the given sheet.
func New(s sheet.Sheet) (*Layout, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(templateSVG); err != nil {
		return nil, fmt.Errorf("parsing layout template: %w", err)
	}

	l := &Layout{doc: doc, sheet: s, elements: orderedmap.New[string, *etree.Element]()}
	err := l.selectElements(map[string]string{
		"image":    "//image[@id='map-data']",
		"title":    "//text[@id='map-title']",
		"border":   "//rect[@id='map-border']",
		"clip":     "//clipPath[@id='map-clip']/rect",
		"grid":     "//g[@id='map-grid']",
		"scale":    "//text[@id='map-scale']",
		"location": "//text[@id='map-location']",
		"datum":    "//text[@id='map-datum']",
	})
	if err != nil {
		return nil, err
	}
	l.size()
	return l, nil
}

func (l *Layout) selectElements(paths map[string]string) error {
	// Selection order fixes the order the sizing pass walks elements in.
	for _, key := range []string{"image", "title", "border", "clip", "grid", "scale", "location", "datum"} {
		element := l.doc.FindElement(paths[key])
		if element == nil {
			return fmt.Errorf("layout template is missing %s (%s)", key, paths[key])
		}
		l.elements.Set(key, element)
	}
	return nil
}

func (l *Layout) get(key string) *etree.Element {
	element, _ := l.elements.Get(key)
	return element
}

// size prepares the template for the sheet dimensions in use.
func (l *Layout) size() {
	width, height := l.sheet.Dimensions()
	root := l.doc.Root()
	root.CreateAttr("width", mm(width))
	root.CreateAttr("height", mm(height))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", num(width), num(height)))

	bx, by, bleedWidth, bleedHeight := l.sheet.Viewport(true)
	l.position("image", bx, by, bleedWidth, bleedHeight)
	x, y, viewWidth, viewHeight := l.sheet.Viewport(false)
	l.position("border", x, y, viewWidth, viewHeight)
	l.position("clip", x, y, viewWidth, viewHeight)

	baseline := y + viewHeight
	l.text("title", x, baseline+7)
	l.text("scale", x, baseline+11.5)
	l.text("location", x+40, baseline+11.5)
	l.text("datum", x+viewWidth, baseline+11.5)
}

func (l *Layout) position(key string, x, y, width, height float64) {
	element := l.get(key)
	element.CreateAttr("x", num(x))
	element.CreateAttr("y", num(y))
	element.CreateAttr("width", num(width))
	element.CreateAttr("height", num(height))
}

func (l *Layout) text(key string, x, y float64) {
	element := l.get(key)
	element.CreateAttr("x", num(x))
	element.CreateAttr("y", num(y))
}

// Compose fills the layout's variable elements: the PNG map image, the
// kilometre grid and the footer metadata.
func (l *Layout) Compose(mapPNG []byte, gridSpacingMm float64, meta Metadata) {
	href := "data:image/png;base64," + base64.StdEncoding.EncodeToString(mapPNG)
	l.get("image").CreateAttr("xlink:href", href)

	l.drawGrid(gridSpacingMm)

	l.get("title").SetText(truncate.StringWithTail(meta.Title, maxTitleCells, "…"))
	l.get("scale").SetText(meta.Scale + "  ·  " + meta.Interval)
	l.get("location").SetText(meta.GeoURI)
	l.get("datum").SetText(meta.Datum)
}

// drawGrid adds the reference grid lines across the map view.
func (l *Layout) drawGrid(spacingMm float64) {
	grid := l.get("grid")
	x, y, width, height := l.sheet.Viewport(false)

	for _, offset := range mapgrid.Offsets(width, spacingMm) {
		line := grid.CreateElement("line")
		line.CreateAttr("x1", num(x+offset))
		line.CreateAttr("x2", num(x+offset))
		line.CreateAttr("y1", num(y))
		line.CreateAttr("y2", num(y+height))
	}
	for _, offset := range mapgrid.Offsets(height, spacingMm) {
		line := grid.CreateElement("line")
		line.CreateAttr("x1", num(x))
		line.CreateAttr("x2", num(x+width))
		line.CreateAttr("y1", num(y+offset))
		line.CreateAttr("y2", num(y+offset))
	}
}

// WriteFile serialises the composed sheet to an SVG file.
func (l *Layout) WriteFile(path string) error {
	l.doc.Indent(2)
	data, err := l.doc.WriteToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func mm(v float64) string {
	return num(v) + "mm"
}
