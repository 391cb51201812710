package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"folio/internal/builder"
	"folio/internal/config"
	"folio/internal/metrics"
	"folio/internal/server"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Drafts bool   `help:"Include draft posts"`
	Unsafe bool   `help:"Disable HTML sanitization. Allows all raw HTML."`
	Clean  bool   `help:"Empty the output directory before building"`
	Output string `short:"o" help:"Output directory (overrides build.outputDir)" type:"path"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Build.OutputDir = b.Output
	}

	fmt.Fprintln(g.Out, "--- Building site ---")
	res, err := builder.BuildSite(ctx, cfg, builder.BuildOptions{
		CleanDestination: b.Clean,
		Unsafe:           b.Unsafe,
		Drafts:           b.Drafts,
	})
	if err != nil {
		return err
	}
	printResult(g, res)
	return nil
}

func printResult(g *Global, res builder.Result) {
	fmt.Fprintf(g.Out, "📄 Site: %d posts, %d pages generated.\n", res.Posts, res.Pages)
	fmt.Fprintf(g.Out, "   %d written, %d unchanged, %d pruned", res.Written, res.Unchanged, res.Pruned)
	if res.Drafts > 0 || res.Scheduled > 0 {
		fmt.Fprintf(g.Out, " (%d drafts, %d scheduled hidden)", res.Drafts, res.Scheduled)
	}
	fmt.Fprintln(g.Out)
	fmt.Fprintf(g.Out, "✅ Build successful in %s.\n", res.Duration.Round(time.Millisecond))
}

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         int           `help:"Port for the local development server" default:"1313"`
	Drafts       bool          `help:"Include draft posts"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Also rebuild on this interval so scheduled posts appear (0 disables)" default:"0"`
}

func (s *ServeCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	build := func(ctx context.Context, clean bool) error {
		// Reload so edits to the config file take effect on the next rebuild.
		current, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		current.Build.OutputDir = cfg.Build.OutputDir
		res, err := builder.BuildSite(ctx, current, builder.BuildOptions{
			CleanDestination: clean,
			Drafts:           s.Drafts,
			Recorder:         recorder,
		})
		if err != nil {
			return err
		}
		printResult(g, res)
		return nil
	}

	return server.Run(ctx, server.Options{
		Port:      s.Port,
		OutputDir: cfg.Build.OutputDir,
		WatchPaths: []string{
			cfg.Build.ContentDir,
			cfg.Build.TemplateDir,
			cfg.Build.StaticDir,
			root.Config,
			filepath.Join(filepath.Dir(root.Config), ".env"),
		},
		RebuildEvery: s.RebuildEvery,
		Metrics:      recorder.Handler(),
	}, build)
}
