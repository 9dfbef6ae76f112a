package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/minilight/go-minilight/pkg/loaders"
	"github.com/minilight/go-minilight/pkg/log"
	"github.com/minilight/go-minilight/pkg/renderer"
	"github.com/minilight/go-minilight/pkg/scene"
	"github.com/minilight/go-minilight/web/server"
)

var logger = log.New("minilight")

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "minilight"
	app.Usage = "minimal unbiased global-illumination renderer"
	app.Version = "1.0.0"
	app.ArgsUsage = "modelFilePath"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Action = RenderModel
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a model file to a PPM image",
			Description: `
Parse a MiniLight model file and render it by progressive Monte-Carlo path
tracing. The accumulated image is written as a binary PPM after every
power-of-two iteration and after the final one.`,
			ArgsUsage: "modelFilePath",
			Flags:     renderFlags(),
			Action:    RenderModel,
		},
		{
			Name:        "serve",
			Usage:       "render a model while streaming live previews to a browser",
			Description: `Serve a preview page that streams tone-mapped snapshots over a websocket.`,
			ArgsUsage:   "modelFilePath",
			Flags: append(renderFlags(),
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "listen port for the preview server",
				}),
			Action: ServeModel,
		},
	}

	// The reference accepts -? as a help request
	for _, arg := range os.Args[1:] {
		if arg == "-?" {
			app.Run([]string{app.Name, "--help"})
			return
		}
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "*** execution failed: %v\n", err)
		os.Exit(1)
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "out, o",
			Usage: "output image path (default: <modelFilePath>.ppm)",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Value: 1,
			Usage: "parallel render workers (1 = serial reference behavior)",
		},
	}
}

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("vv") || ctx.Bool("vv") {
		log.SetLevel(log.Debug)
	} else if ctx.GlobalBool("v") || ctx.Bool("v") {
		log.SetLevel(log.Info)
	}
}

// RenderModel renders a model file to a PPM image next to it
func RenderModel(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		cli.ShowAppHelp(ctx)
		return nil
	}
	modelPath := ctx.Args().First()

	outPath := ctx.String("out")
	if outPath == "" {
		outPath = modelPath + ".ppm"
	}

	model, err := loaders.LoadModel(modelPath)
	if err != nil {
		return err
	}
	logger.Infof("loaded %s: %d triangles, %d iterations",
		modelPath, len(model.Triangles), model.Iterations)

	camera := renderer.NewCamera(model.CameraPosition, model.CameraDirection, model.ViewAngle)
	image := renderer.NewImage(model.Width, model.Height)
	scn := scene.NewScene(camera.EyePoint(), model.SkyEmission, model.GroundReflection, model.Triangles)

	r := renderer.NewRenderer(scn, camera, image, renderer.Config{
		Iterations: model.Iterations,
		Workers:    ctx.Int("workers"),
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := r.Render(sigCtx, func(img *renderer.Image, iteration int) error {
		return writeImage(outPath, img, iteration)
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "\nfinished")
	displayRenderStats(stats, outPath)
	return nil
}

// ServeModel renders a model while streaming live previews over a websocket
func ServeModel(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		cli.ShowAppHelp(ctx)
		return nil
	}

	srv := server.New(ctx.Int("port"), ctx.Args().First(), ctx.Int("workers"))
	return srv.ListenAndServe()
}

// writeImage writes a PPM snapshot, replacing any previous one
func writeImage(path string, img *renderer.Image, iteration int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := img.Format(file, iteration); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func displayRenderStats(stats renderer.RenderStats, outPath string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Iterations", "Samples", "Snapshots", "Render time", "Samples/sec", "Output"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Iterations),
		fmt.Sprintf("%d", stats.TotalSamples),
		fmt.Sprintf("%d", stats.Snapshots),
		stats.Elapsed.Round(time.Millisecond).String(),
		fmt.Sprintf("%.0f", stats.SamplesPerSecond()),
		outPath,
	})
	table.Render()
}
