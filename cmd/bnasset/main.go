package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/bodgit/bnasset"
	"github.com/bodgit/bnasset/record"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const defaultConfig = "bnasset.toml"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.NewWithOptions(io.Discard, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          c.App.Name,
	})
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadConfig reads the configuration file, if there is one, and then applies
// any overrides from the command line.
func loadConfig(c *cli.Context) (bnasset.Config, error) {
	cfg := bnasset.DefaultConfig()

	file := c.String("config")
	if _, err := os.Stat(file); err == nil || c.IsSet("config") {
		var err error
		if cfg, err = bnasset.LoadConfig(file); err != nil {
			return cfg, err
		}
	}

	for flag, value := range map[string]*string{
		"map-dir":      &cfg.MapDir,
		"image-dir":    &cfg.ImageDir,
		"graphics-dir": &cfg.GraphicsDir,
		"level-header": &cfg.LevelHeader,
		"quantizer":    &cfg.Quantizer,
		"db":           &cfg.RecordDB,
	} {
		if c.IsSet(flag) {
			*value = c.String(flag)
		}
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	return cfg, cfg.Validate()
}

func newCompiler(c *cli.Context) (*bnasset.Compiler, *log.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(c)

	compiler, err := bnasset.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return compiler, logger, nil
}

func build(target bnasset.Target) cli.ActionFunc {
	return func(c *cli.Context) error {
		compiler, _, err := newCompiler(c)
		if err != nil {
			return cli.Exit(err, 1)
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := compiler.Build(ctx, target)
		if err != nil {
			return cli.Exit(err, 1)
		}

		fmt.Fprintf(c.App.Writer, "%d images, %d levels\n", len(report.Images), len(report.Levels))

		return nil
	}
}

func watch(c *cli.Context) error {
	compiler, logger, err := newCompiler(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := compiler.Watch(ctx, bnasset.All, func(report *bnasset.Report, err error) {
		if err != nil {
			// Keep watching, the next change might fix it
			if !errors.Is(err, context.Canceled) {
				fmt.Fprintln(c.App.ErrWriter, err)
			}
			return
		}
		logger.Info("rebuilt", "images", len(report.Images), "levels", len(report.Levels))
		fmt.Fprintf(c.App.Writer, "%d images, %d levels\n", len(report.Images), len(report.Levels))
	}); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func history(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if cfg.RecordDB == "" {
		return cli.Exit("no build history database configured", 1)
	}

	db, err := record.Open(cfg.RecordDB)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer db.Close()

	b, err := db.LatestBuild()
	if err != nil {
		return cli.Exit(err, 1)
	}
	if b == nil {
		fmt.Fprintln(c.App.Writer, "no builds recorded")
		return nil
	}

	fmt.Fprintf(c.App.Writer, "build %d finished %s in %s\n\n", b.ID, b.Finished.Local().Format(time.RFC3339), b.Finished.Sub(b.Started).Round(time.Millisecond))

	w := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSIZE\tCOLORS\tCHECKSUM\tSOURCE")
	for _, a := range b.Assets {
		colors := "-"
		if a.Kind == record.KindImage {
			colors = fmt.Sprint(a.Colors)
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\t%s\n", a.Name, a.Kind, a.Width, a.Height, colors, a.Checksum, a.Source)
	}

	return w.Flush()
}

func main() {
	app := cli.NewApp()

	app.Name = "bnasset"
	app.Usage = "Butano background and level compiler"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"BNASSET_CONFIG"},
			Value:   defaultConfig,
			Usage:   "path to configuration file",
		},
		&cli.StringFlag{
			Name:  "map-dir",
			Usage: "directory of Tiled JSON maps",
		},
		&cli.StringFlag{
			Name:  "image-dir",
			Usage: "directory of source images",
		},
		&cli.StringFlag{
			Name:  "graphics-dir",
			Usage: "output directory for bitmaps",
		},
		&cli.StringFlag{
			Name:  "level-header",
			Usage: "output path for the level table",
		},
		&cli.StringFlag{
			Name:  "quantizer",
			Usage: "palette quantizer, median-cut or go-quantize",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "number of images to convert concurrently",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"BNASSET_DB"},
			Usage:   "path to build history database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "build",
			Usage:  "Compile all images and levels",
			Action: build(bnasset.All),
		},
		{
			Name:   "images",
			Usage:  "Compile images into indexed bitmaps",
			Action: build(bnasset.Images),
		},
		{
			Name:   "levels",
			Usage:  "Compile Tiled maps into the level table",
			Action: build(bnasset.Levels),
		},
		{
			Name:   "watch",
			Usage:  "Rebuild everything whenever a source changes",
			Action: watch,
		},
		{
			Name:   "history",
			Usage:  "Show the most recent recorded build",
			Action: history,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
