package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"tastopo/fetch"
	"tastopo/layout"
	"tastopo/listmap"
	"tastopo/mapgrid"
	"tastopo/raster"
	"tastopo/sheet"
)

const SIZE string = `size`
const PORTRAIT string = `portrait`
const ZOOM string = `zoom`
const RELIEF string = `relief`
const OUTPUT string = `output`

// baseLayer is the LIST basemap every map is built from; reliefLayer is
// blended over it on request.
const baseLayer = "Topographic"
const reliefLayer = "ESgisMapBookPUBLIC"
const reliefOpacity = 0.4

// minGridSpacingMm keeps kilometre grid lines at least this far apart on
// paper.
const minGridSpacingMm = 30

const datum = "GDA94 MGA55"

func main() {
	app := cli.NewApp()
	app.Name = "tastopo"
	app.Usage = "Generate printable topographic maps of Tasmania"
	app.Version = versioninfo.Short()
	app.ArgsUsage = "<location> <scale>"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    SIZE,
			Aliases: []string{"s"},
			Usage:   "Paper size to generate for, a0 to a5",
			Value:   "a4",
			EnvVars: []string{strcase.ToScreamingSnake(SIZE)},
		},
		&cli.BoolFlag{
			Name:    PORTRAIT,
			Aliases: []string{"p"},
			Usage:   "Orientate the map in portrait, rather than landscape",
			EnvVars: []string{strcase.ToScreamingSnake(PORTRAIT)},
		},
		&cli.IntFlag{
			Name:    ZOOM,
			Aliases: []string{"z"},
			Usage:   "Shift the auto-selected detail level by whole steps, positive is finer",
			Value:   0,
			EnvVars: []string{strcase.ToScreamingSnake(ZOOM)},
		},
		&cli.BoolFlag{
			Name:    RELIEF,
			Aliases: []string{"r"},
			Usage:   "Blend a semi-transparent relief layer over the base map",
			EnvVars: []string{strcase.ToScreamingSnake(RELIEF)},
		},
		&cli.StringFlag{
			Name:    OUTPUT,
			Aliases: []string{"o"},
			Usage:   "Output SVG path; derived from the location and scale when unset",
			EnvVars: []string{strcase.ToScreamingSnake(OUTPUT)},
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("expected arguments: <location> <scale>", 2)
		}
		location := c.Args().Get(0)
		scale, err := parseScale(c.Args().Get(1))
		if err != nil {
			return err
		}

		size, err := sheet.Lookup(c.String(SIZE))
		if err != nil {
			return err
		}
		s := sheet.Sheet{Size: size, Rotated: c.Bool(PORTRAIT)}

		out := c.String(OUTPUT)
		if out == "" {
			out = fmt.Sprintf("%s-%d.svg", strings.ReplaceAll(location, "/", "-"), int(scale))
		}

		return generate(c.Context, location, scale, s, c.Int(ZOOM), c.Bool(RELIEF), out)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// parseScale accepts "25000" or "1:25000".
func parseScale(arg string) (float64, error) {
	trimmed := strings.TrimPrefix(arg, "1:")
	scale, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("scale %q is not a number", arg)
	}
	return scale, nil
}

//nolint:funlen
func generate(ctx context.Context, location string, scale float64, s sheet.Sheet, zoom int, relief bool, out string) error {
	client := listmap.NewClient()

	centre, err := client.ResolveLocation(ctx, location)
	if err != nil {
		return fmt.Errorf("resolving location: %w", err)
	}
	log.Printf("centred on %q at %.0f,%.0f", location, centre.X(), centre.Y())

	layer, err := client.Layer(ctx, baseLayer)
	if err != nil {
		return fmt.Errorf("resolving layer: %w", err)
	}

	level, extent, err := mapgrid.DefaultScaleConfig().Resolve(layer, scale, s.ImageSize(), zoom)
	if err != nil {
		return fmt.Errorf("resolving scale: %w", err)
	}
	resolution, err := layer.Resolution(level)
	if err != nil {
		return err
	}
	sizePx := mapgrid.PixelSize(extent, resolution)
	log.Printf("level %d (%.3f m/px), image %dx%d px", level, resolution, sizePx[0], sizePx[1])

	grid, err := mapgrid.ComputeGrid(layer, level, centre, sizePx)
	if err != nil {
		return fmt.Errorf("computing grid: %w", err)
	}

	base, err := fetchLayer(ctx, client, grid, grid.Tiles())
	if err != nil {
		return err
	}

	image := base
	if relief {
		overlayLayer, err := client.Layer(ctx, reliefLayer)
		if err != nil {
			return fmt.Errorf("resolving layer: %w", err)
		}
		if err := compatible(layer, overlayLayer, level); err != nil {
			return err
		}
		overlay, err := fetchLayer(ctx, client, grid, grid.TilesFor(reliefLayer))
		if err != nil {
			return err
		}
		image, err = raster.Blend(base, overlay, reliefOpacity)
		if err != nil {
			return fmt.Errorf("blending layers: %w", err)
		}
	}

	spacing, err := mapgrid.GridSpacing(scale, minGridSpacingMm)
	if err != nil {
		return err
	}
	interval, err := mapgrid.GridInterval(scale, minGridSpacingMm)
	if err != nil {
		return err
	}

	uri, err := client.GeoURI(ctx, centre)
	if err != nil {
		log.Printf("no geo URI for the sheet footer: %v", err)
	}

	sheetLayout, err := layout.New(s)
	if err != nil {
		return fmt.Errorf("composing layout: %w", err)
	}
	png, err := image.EncodePNG()
	if err != nil {
		return fmt.Errorf("encoding map image: %w", err)
	}
	sheetLayout.Compose(png, spacing, layout.Metadata{
		Title:    location,
		Scale:    fmt.Sprintf("1:%d", int(scale)),
		Interval: fmt.Sprintf("%skm grid", strconv.FormatFloat(interval, 'f', -1, 64)),
		Datum:    datum,
		GeoURI:   uri,
	})

	if err := sheetLayout.WriteFile(out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Printf("wrote %s", out)
	return nil
}

// fetchLayer retrieves and stitches one layer's tiles for the grid.
func fetchLayer(ctx context.Context, client *listmap.Client, grid mapgrid.TileGrid, refs []mapgrid.TileRef) (*raster.Raster, error) {
	bar := progressbar.Default(int64(len(refs)), "fetching "+refs[0].Layer)
	tiles, err := fetch.FetchAll(ctx, client, refs, func(done, total int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	if err != nil {
		return nil, fmt.Errorf("fetching tiles: %w", err)
	}

	image, err := raster.Stitch(tiles, grid.Shape, grid.PixelOrigin, grid.Size, grid.Layer.TileSize)
	if err != nil {
		return nil, fmt.Errorf("stitching tiles: %w", err)
	}
	return image, nil
}

// compatible ensures an overlay layer shares the base layer's tile scheme
// at the chosen level, so one grid serves both.
func compatible(base, overlay mapgrid.Layer, level int) error {
	if base.TileSize != overlay.TileSize {
		return fmt.Errorf("layer %q tile size %d differs from %q tile size %d",
			overlay.Name, overlay.TileSize, base.Name, base.TileSize)
	}
	baseRes, err := base.Resolution(level)
	if err != nil {
		return err
	}
	overlayRes, err := overlay.Resolution(level)
	if err != nil {
		return err
	}
	if math.Abs(baseRes-overlayRes) > 1e-9 ||
		base.Origin.X() != overlay.Origin.X() || base.Origin.Y() != overlay.Origin.Y() {
		return fmt.Errorf("layer %q does not share the %q tile scheme at level %d", overlay.Name, base.Name, level)
	}
	return nil
}
