// Command topogen generates a connected, simulator-ready GML topology from a
// CAIDA AS-links dataset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/caida-topogen/pkg/logging"
	"github.com/dd0wney/caida-topogen/pkg/metrics"
	"github.com/dd0wney/caida-topogen/pkg/pipeline"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f cliFlags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "topogen: %s: unexpected arguments %v\n", pipeline.CategoryInvalidConfig, fs.Args())
		return 1
	}

	cfg, err := buildConfig(fs, &f)
	if err != nil {
		fmt.Fprintf(stderr, "topogen: %s: %v\n", pipeline.CategoryInvalidConfig, err)
		return 1
	}

	level := logging.InfoLevel
	if cfg.LogLevel != "" {
		l, ok := logging.ParseLevel(cfg.LogLevel)
		if !ok {
			fmt.Fprintf(stderr, "topogen: %s: unknown log level %q\n", pipeline.CategoryInvalidConfig, cfg.LogLevel)
			return 1
		}
		level = l
	}
	logger := logging.NewJSONLogger(stderr, level).With(logging.Component("topogen"))

	rep, err := pipeline.Run(ctx, cfg, logger, metrics.NewRegistry())
	if err != nil {
		category := pipeline.CategoryOf(err)
		if category == "" {
			category = pipeline.CategoryInternal
		}
		var se *pipeline.StageError
		if errors.As(err, &se) {
			err = se.Err
		}
		fmt.Fprintf(stderr, "topogen: %s: %v\n", category, err)
		return 1
	}

	printSummary(stdout, rep)
	return 0
}

func printSummary(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "Generated %s\n", rep.Output.Path)
	fmt.Fprintf(w, "  strategy:     %s (%d requested, %d selected of %d)\n",
		rep.Selection.Strategy, rep.Selection.Requested, rep.Selection.Selected, rep.Selection.SourceSize)
	fmt.Fprintf(w, "  nodes:        %d\n", rep.Counts.Nodes)
	fmt.Fprintf(w, "  edges:        %d (%d inter-AS, %d self-loops)\n",
		rep.Counts.Edges, rep.Counts.InterAS, rep.Counts.SelfLoops)
	if rep.Connectivity.Connected {
		fmt.Fprintf(w, "  connectivity: connected\n")
	} else {
		fmt.Fprintf(w, "  connectivity: %d of %d nodes unreachable from node 0\n",
			rep.Connectivity.Unreached, rep.Connectivity.Nodes)
	}
	fmt.Fprintf(w, "  size:         %d bytes\n", rep.Output.Bytes)
	fmt.Fprintf(w, "  %s:  %s\n", rep.Output.DigestAlgorithm, rep.Output.Digest)
	if rep.Output.Uploaded != "" {
		fmt.Fprintf(w, "  uploaded:     %s\n", rep.Output.Uploaded)
	}
}
