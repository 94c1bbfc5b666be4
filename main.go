package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/olehluchkiv/manualchunks/internal/classify"
	"github.com/olehluchkiv/manualchunks/internal/config"
	"github.com/olehluchkiv/manualchunks/internal/diagram"
	"github.com/olehluchkiv/manualchunks/internal/diagram/split"
	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/olehluchkiv/manualchunks/internal/host"
	"github.com/olehluchkiv/manualchunks/internal/llm"
	"github.com/olehluchkiv/manualchunks/internal/logging"
	"github.com/olehluchkiv/manualchunks/internal/partition"
	"github.com/olehluchkiv/manualchunks/internal/server"
)

// options holds everything main parsed from the command line.
type options struct {
	input        string
	configPath   string
	manifest     string
	defaultChunk string
	out          string
	output       string
	serve        bool
	port         int
	openBrowser  bool
	suggest      bool
	entry        string
}

func main() {
	// Use a custom FlagSet so we can parse all args regardless of position.
	// Go's default flag.Parse stops at the first non-flag argument, which
	// breaks "manualchunks graph.json -out result.json". We reorder args so
	// flags come first, then positional args.
	flags, positional := reorderArgs(os.Args[1:])

	fs := flag.NewFlagSet("manualchunks", flag.ExitOnError)
	configPath := fs.String("config", "", "rules file (default: nearest "+config.FileName+" above the graph file)")
	manifest := fs.String("manifest", "", "name of the manifest chunk (overrides the rules file)")
	defaultChunk := fs.String("default-chunk", "", "bundle for modules no rule names (overrides the rules file)")
	out := fs.String("out", "", "write the partitioned graph JSON to file")
	output := fs.String("output", "", "write a Mermaid diagram of the partitioned graph to file")
	serve := fs.Bool("serve", false, "serve before/after diagrams over HTTP")
	port := fs.Int("port", 8080, "HTTP server port")
	noBrowser := fs.Bool("no-browser", false, "skip auto-opening browser")
	suggest := fs.Bool("suggest", false, "ask an LLM to propose bundles (requires MANUALCHUNKS_LLM_API_KEY env var)")
	entry := fs.String("entry", "", "draw only the chunks this entrypoint loads")
	logFile := fs.String("log-file", "logs/manualchunks.log", "log file path (empty: stderr only)")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(flags); err != nil {
		os.Exit(1)
	}
	positional = append(positional, fs.Args()...)
	if len(positional) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: manualchunks [flags] <graph.json>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}

	logger, logCleanup, err := logging.Setup(*logFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		os.Exit(1)
	}
	defer logCleanup()

	// Setup signal handling with context cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	opts := options{
		input:        positional[0],
		configPath:   *configPath,
		manifest:     *manifest,
		defaultChunk: *defaultChunk,
		out:          *out,
		output:       *output,
		serve:        *serve,
		port:         *port,
		openBrowser:  !*noBrowser,
		suggest:      *suggest,
		entry:        *entry,
	}
	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	config.LoadDotEnv()

	cfg, err := loadConfig(opts, logger)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("opening graph: %w", err)
	}
	g, err := graph.Decode(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("loading %s: %w", opts.input, err)
	}
	logger.Info("graph loaded", "chunks", len(g.Chunks()), "modules", len(g.Modules()), "entrypoints", len(g.Entrypoints()))

	classOpts := classify.Options{
		Manifest:         firstNonEmpty(opts.manifest, cfg.Manifest),
		DefaultChunkName: firstNonEmpty(opts.defaultChunk, cfg.DefaultChunk),
		Context:          cfg.Context,
	}
	classify.NewRuleSet(cfg, logger).Apply(&classOpts)
	if opts.suggest {
		if err := applySuggestions(ctx, g, &classOpts, logger); err != nil {
			return err
		}
	}
	if err := memoize(&classOpts); err != nil {
		return err
	}

	plugin, err := partition.NewPlugin(classOpts, logger)
	if err != nil {
		return err
	}

	diagOpts := diagram.DefaultOptions()
	diagOpts.Rel = relativeTo(cfg.Context)
	if opts.entry != "" {
		diagOpts.Chunks = diagram.FilterByEntrypoints(g, opts.entry)
	}
	splitter := split.NewHubAndSpoke(split.DefaultOptions())
	var before []diagram.View
	if opts.serve {
		before = diagram.BuildViews(g, "Before", diagOpts, splitter, diagram.DefaultSlideOptions())
	}

	compiler := host.NewCompiler(logger)
	plugin.Apply(compiler)
	if err := compiler.Run(g, host.RunOptions{Name: filepath.Base(opts.input)}); err != nil {
		return err
	}

	if opts.out != "" {
		if err := writeFile(opts.out, g.Encode); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote partitioned graph to %s\n", opts.out)
	} else if err := diagram.WriteTree(stdout, g, diagOpts.Rel); err != nil {
		return err
	}

	if opts.entry != "" {
		diagOpts.Chunks = diagram.FilterByEntrypoints(g, opts.entry)
	}
	if opts.output != "" {
		fileOpts := diagOpts
		fileOpts.IncludeInit = true
		mermaid := diagram.GenerateMermaid(g, fileOpts)
		if err := os.WriteFile(opts.output, []byte(mermaid), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", opts.output, err)
		}
		fmt.Fprintf(stdout, "Wrote diagram to %s\n", opts.output)
	}

	if opts.serve {
		views := append(before, diagram.BuildViews(g, "After", diagOpts, splitter, diagram.DefaultSlideOptions())...)
		fmt.Fprintf(stdout, "Starting server on http://localhost:%d\n", opts.port)
		return server.Serve(ctx, views, opts.port, opts.openBrowser, logger)
	}
	return nil
}

// loadConfig reads the rules file named by -config or the nearest one above
// the graph file. Without either, every module goes to the default chunk.
func loadConfig(opts options, logger *slog.Logger) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		found, err := config.Find(filepath.Dir(opts.input))
		if err != nil {
			logger.Warn("no rules file, every module goes to the default chunk", "error", err)
			abs, _ := filepath.Abs(filepath.Dir(opts.input))
			return &config.Config{Context: abs}, nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("rules loaded", "path", path, "rules", len(cfg.Rules))
	return cfg, nil
}

// applySuggestions asks the LLM planner to name every module and keeps the
// rules as the fallback for modules the plan leaves out.
func applySuggestions(ctx context.Context, g *graph.Compilation, opts *classify.Options, logger *slog.Logger) error {
	llmCfg, err := config.LLMFromEnv()
	if err != nil {
		return err
	}
	files := make([]string, 0, len(g.Modules()))
	for _, m := range g.Modules() {
		if f := m.File(); f != "" {
			files = append(files, f)
		}
	}
	planner := classify.NewPlanner(llm.NewClient(llmCfg, logger), 0, logger)
	plan := planner.Plan(ctx, files)
	logger.Info("LLM plan ready", "modules", len(plan))
	opts.GetChunkName = plan.With(opts.GetChunkName)
	return nil
}

func memoize(opts *classify.Options) error {
	if opts.GetChunkName != nil {
		fn, err := classify.Memoize(opts.GetChunkName, 0)
		if err != nil {
			return err
		}
		opts.GetChunkName = fn
	}
	if opts.GetAsyncChunkName != nil {
		fn, err := classify.Memoize(opts.GetAsyncChunkName, 0)
		if err != nil {
			return err
		}
		opts.GetAsyncChunkName = fn
	}
	return nil
}

func relativeTo(dir string) func(string) string {
	return func(file string) string {
		if dir == "" || !filepath.IsAbs(file) {
			return file
		}
		if rel, err := filepath.Rel(dir, file); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
		return file
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// reorderArgs separates flags and positional arguments so flags can appear
// in any position (before or after the positional graph argument).
// Flags that take a value (e.g., -out result.json) consume the next arg.
func reorderArgs(args []string) (flags, positional []string) {
	// Set of flags that take a value argument
	valueFlagSet := map[string]bool{
		"-config": true, "-manifest": true, "-default-chunk": true, "-entry": true,
		"-out": true, "-output": true, "-port": true,
		"-log-file": true, "-log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			// Check if this flag takes a value (and it's not using = syntax)
			if !strings.Contains(arg, "=") && valueFlagSet["-"+strings.TrimLeft(arg, "-")] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}
