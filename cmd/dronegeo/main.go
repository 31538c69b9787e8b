// Command dronegeo is a thin developer tool over the mp4 package: it proves
// out extraction and injection from the command line. It is not the
// end-user telemetry pipeline (decoding the extracted payload, progress
// reporting and sensor fusion all live outside this module); it only
// exercises the library's public API end to end.
package main

import (
	"fmt"
	"os"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/urfave/cli/v2"

	"github.com/francescocaponio/dronegeo/pkg/config"
	"github.com/francescocaponio/dronegeo/pkg/mp4"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:  "dronegeo",
		Usage: "inspect and geotag drone MP4 recordings",
		Commands: []*cli.Command{
			infoCommand(log),
			injectCommand(log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("dronegeo failed")
	}
}

func infoCommand(log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print the header summary and metadata payload size",
		ArgsUsage: "<input.mp4>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a dronegeo.yaml config file"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("missing input path", 1)
			}

			cfg, err := config.New(c.String("config"))
			if err != nil {
				return err
			}

			result, err := mp4.Extract(path, *cfg)
			if err != nil {
				return err
			}

			log.Info("extracted header", logger.Data{
				"path":             path,
				"width":            result.Header.Width,
				"height":           result.Header.Height,
				"duration_seconds": result.Header.DurationSeconds,
				"frame_rate":       result.Header.FrameRate,
				"payload_bytes":    len(result.MetadataPayload),
			})

			out, err := json.MarshalIndent(result.Header, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func injectCommand(log logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "inject",
		Usage:     "write an mdta geolocation island into a copy of the input file",
		ArgsUsage: "<input.mp4> <output.mp4>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "lat", Required: true},
			&cli.Float64Flag{Name: "lon", Required: true},
			&cli.Float64Flag{Name: "alt"},
			&cli.StringFlag{Name: "make"},
			&cli.StringFlag{Name: "model"},
			&cli.StringFlag{Name: "software"},
			&cli.StringFlag{Name: "creation-date"},
		},
		Action: func(c *cli.Context) error {
			src := c.Args().Get(0)
			dest := c.Args().Get(1)
			if src == "" || dest == "" {
				return cli.Exit("usage: dronegeo inject <input.mp4> <output.mp4>", 1)
			}

			geo := mp4.GeoMetadata{
				Latitude:  c.Float64("lat"),
				Longitude: c.Float64("lon"),
				Make:      c.String("make"),
				Model:     c.String("model"),
				Software:  c.String("software"),
			}
			if c.IsSet("alt") {
				alt := c.Float64("alt")
				geo.Altitude = &alt
			}
			if raw := c.String("creation-date"); raw != "" {
				normalized, err := mp4.NormalizeCreationDate(raw)
				if err != nil {
					return err
				}
				geo.CreationDate = normalized
			}

			if err := mp4.Inject(src, dest, geo); err != nil {
				return err
			}

			log.Info("injected geolocation metadata", logger.Data{"src": src, "dest": dest})
			return nil
		},
	}
}
