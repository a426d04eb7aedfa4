package bnasset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bodgit/bnasset/bitmap"
	"github.com/bodgit/bnasset/failure"
	"github.com/bodgit/bnasset/level"
	"github.com/bodgit/bnasset/palette"
	"github.com/bodgit/bnasset/raster"
	"github.com/bodgit/bnasset/record"
	"github.com/bodgit/bnasset/tilemap"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Target selects which kinds of asset a build compiles.
type Target int

// Build targets
const (
	Images Target = 1 << iota
	Levels

	All = Images | Levels
)

var (
	imageExtensions = map[string]bool{
		".bmp":  true,
		".gif":  true,
		".jpeg": true,
		".jpg":  true,
		".png":  true,
		".tif":  true,
		".tiff": true,
		".webp": true,
	}
	mapExtensions = map[string]bool{
		".json": true,
		".tmj":  true,
	}
)

// ImageResult describes one compiled image.
type ImageResult struct {
	Name    string
	Source  string
	Side    int
	Colors  int
	Bitmap  string
	Sidecar string
}

// LevelResult describes one compiled level.
type LevelResult struct {
	Name   string
	Source string
	Width  int
	Height int
}

// Report summarizes a successful build.
type Report struct {
	Started  time.Time
	Finished time.Time
	Images   []ImageResult
	Levels   []LevelResult
	// Header is the level table path, empty if levels were not built
	Header string
}

type source struct {
	path string
	name string
}

// assetName strips the directory and extension from file.
func assetName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// findSources lists the files in dir with one of the given extensions,
// sorted by asset name and then by file name so the output does not depend
// on the order the filesystem returns entries in.
func findSources(dir string, extensions map[string]bool) ([]source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []source
	for _, entry := range entries {
		// Ignore any hidden files or directories
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		sources = append(sources, source{
			path: filepath.Join(dir, entry.Name()),
			name: assetName(entry.Name()),
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].name != sources[j].name {
			return sources[i].name < sources[j].name
		}
		return sources[i].path < sources[j].path
	})

	return sources, nil
}

// checkNames drops every source whose asset name is not a valid identifier
// or is already used by an earlier source, as each name maps to a single
// bitmap and a single generated symbol. Every dropped source is reported.
func checkNames(sources []source) ([]source, error) {
	var result *multierror.Error

	seen := make(map[string]string, len(sources))
	valid := make([]source, 0, len(sources))
	for _, src := range sources {
		if err := level.ValidateName(src.path, src.name); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if first, ok := seen[src.name]; ok {
			result = multierror.Append(result, failure.New(failure.ErrParse, src.path, "image %s defined more than once, first by %s", src.name, first))
			continue
		}
		seen[src.name] = src.path
		valid = append(valid, src)
	}

	return valid, result.ErrorOrNil()
}

type imageJob struct {
	asset  *bitmap.Asset
	result ImageResult
	err    error
}

func (c *Compiler) convertImage(src source) (*bitmap.Asset, ImageResult, error) {
	result := ImageResult{
		Name:   src.name,
		Source: src.path,
	}

	m, err := raster.Load(src.path)
	if err != nil {
		return nil, result, err
	}

	sq, err := raster.Square(m, c.cfg.Granularity)
	if err != nil {
		return nil, result, failure.Wrap(failure.ErrLoad, src.path, err)
	}
	result.Side = sq.Bounds().Dx()

	p, err := palette.Quantize(c.quantizer, sq, c.cfg.PaletteSize)
	if err != nil {
		return nil, result, failure.WithAsset(err, src.path)
	}
	result.Colors = len(p)

	pm, err := palette.Index(sq, p)
	if err != nil {
		return nil, result, failure.WithAsset(err, src.path)
	}

	a, err := bitmap.NewAsset(src.name, pm)
	if err != nil {
		return nil, result, failure.WithAsset(errors.Wrap(err, "encode"), src.path)
	}
	result.Bitmap, result.Sidecar = a.Paths(c.cfg.GraphicsDir)

	c.logger.Debug("converted image", "source", src.path, "width", m.Bounds().Dx(), "height", m.Bounds().Dy(), "side", result.Side, "colors", result.Colors)

	return a, result, nil
}

// convertImages converts every source using a pool of workers. The results
// are in the same order as sources and every failure is collected.
func (c *Compiler) convertImages(ctx context.Context, sources []source) ([]*bitmap.Asset, []ImageResult, error) {
	jobs := make([]imageJob, len(sources))

	in := make(chan int)
	go func() {
		defer close(in)
		for i := range sources {
			select {
			case in <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(c.cfg.Workers)
	for w := 0; w < c.cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			for i := range in {
				j := &jobs[i]
				j.asset, j.result, j.err = c.convertImage(sources[i])
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var result *multierror.Error
	assets := make([]*bitmap.Asset, 0, len(jobs))
	results := make([]ImageResult, 0, len(jobs))
	for _, j := range jobs {
		if j.err != nil {
			result = multierror.Append(result, j.err)
			continue
		}
		assets = append(assets, j.asset)
		results = append(results, j.result)
	}

	return assets, results, result.ErrorOrNil()
}

func (c *Compiler) compileLevels(ctx context.Context, sources []source) (*level.Table, []LevelResult, error) {
	table := level.NewTable(c.cfg.Capacity)
	results := make([]LevelResult, 0, len(sources))

	var result *multierror.Error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		l, err := tilemap.Load(src.path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		d, err := table.Add(src.name, l)
		if err != nil {
			result = multierror.Append(result, failure.WithAsset(err, src.path))
			continue
		}

		results = append(results, LevelResult{
			Name:   d.Name,
			Source: src.path,
			Width:  d.SizeX,
			Height: d.SizeY,
		})

		c.logger.Debug("compiled level", "source", src.path, "width", d.SizeX, "height", d.SizeY, "tiles", l.Len())
	}

	return table, results, result.ErrorOrNil()
}

func (c *Compiler) scan(dir string, extensions map[string]bool) ([]source, error) {
	sources, err := findSources(dir, extensions)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	c.logger.Info("found sources", "dir", dir, "count", len(sources))
	return sources, nil
}

// Build compiles every asset selected by target.
//
// All assets are compiled before anything is written. If any of them fail
// the errors are returned together and no output at all is written,
// otherwise every bitmap, sidecar and the level table are written once.
// Failing to record the build in the history database only logs a warning.
func (c *Compiler) Build(ctx context.Context, target Target) (*Report, error) {
	report := &Report{
		Started: time.Now(),
	}

	var (
		result *multierror.Error
		assets []*bitmap.Asset
		table  *level.Table
	)

	if target&Images != 0 {
		sources, err := c.scan(c.cfg.ImageDir, imageExtensions)
		if err != nil {
			return nil, err
		}

		sources, err = checkNames(sources)
		result = multierror.Append(result, err)

		var images []ImageResult
		assets, images, err = c.convertImages(ctx, sources)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result = multierror.Append(result, err)
		report.Images = images
	}

	if target&Levels != 0 {
		sources, err := c.scan(c.cfg.MapDir, mapExtensions)
		if err != nil {
			return nil, err
		}

		var levels []LevelResult
		table, levels, err = c.compileLevels(ctx, sources)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result = multierror.Append(result, err)
		report.Levels = levels
	}

	if err := result.ErrorOrNil(); err != nil {
		c.logger.Error("build failed, nothing written", "failures", result.Len())
		return nil, err
	}

	if target == All {
		c.checkGraphics(report)
	}

	if err := c.flush(assets, table); err != nil {
		return nil, err
	}
	if table != nil {
		report.Header = c.cfg.LevelHeader
	}
	report.Finished = time.Now()

	// The outputs are already written, a missing history entry does not
	// undo the build
	if err := c.record(report); err != nil {
		c.logger.Warn("build not recorded", "db", c.cfg.RecordDB, "err", err)
	}

	c.logger.Info("build complete", "images", len(report.Images), "levels", len(report.Levels), "elapsed", report.Finished.Sub(report.Started).Round(time.Millisecond))

	return report, nil
}

// checkGraphics warns about levels whose background is not in the batch.
func (c *Compiler) checkGraphics(report *Report) {
	images := make(map[string]struct{}, len(report.Images))
	for _, i := range report.Images {
		images[i.Name] = struct{}{}
	}
	for _, l := range report.Levels {
		if _, ok := images[l.Name]; !ok {
			c.logger.Warn("level has no matching background image", "level", l.Name, "source", l.Source)
		}
	}
}

func (c *Compiler) flush(assets []*bitmap.Asset, table *level.Table) error {
	if len(assets) > 0 {
		if err := os.MkdirAll(c.cfg.GraphicsDir, 0o755); err != nil {
			return err
		}
		for _, a := range assets {
			if err := a.Write(c.cfg.GraphicsDir); err != nil {
				return errors.Wrapf(err, "write %s", a.Name)
			}
		}
	}

	if table != nil {
		b := new(bytes.Buffer)
		if _, err := table.WriteTo(b); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(c.cfg.LevelHeader), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(c.cfg.LevelHeader, b.Bytes(), 0o644); err != nil {
			return errors.Wrap(err, "write level table")
		}
	}

	return nil
}

func (c *Compiler) record(report *Report) error {
	if c.cfg.RecordDB == "" {
		return nil
	}

	b := &record.Build{
		Started:  report.Started,
		Finished: report.Finished,
	}
	for _, i := range report.Images {
		sum, err := record.ChecksumFile(i.Source)
		if err != nil {
			return err
		}
		b.Assets = append(b.Assets, record.Asset{Name: i.Name, Kind: record.KindImage, Source: i.Source, Checksum: sum, Width: i.Side, Height: i.Side, Colors: i.Colors})
	}
	for _, l := range report.Levels {
		sum, err := record.ChecksumFile(l.Source)
		if err != nil {
			return err
		}
		b.Assets = append(b.Assets, record.Asset{Name: l.Name, Kind: record.KindLevel, Source: l.Source, Checksum: sum, Width: l.Width, Height: l.Height})
	}

	db, err := record.Open(c.cfg.RecordDB)
	if err != nil {
		return errors.Wrap(err, "record")
	}
	defer db.Close()

	id, err := db.AddBuild(b)
	if err != nil {
		return errors.Wrap(err, "record")
	}
	c.logger.Debug("recorded build", "id", id, "db", c.cfg.RecordDB)

	return nil
}
