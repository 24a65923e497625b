package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/dd0wney/caida-topogen/pkg/config"
)

// cliFlags holds raw flag values. Only flags the user actually set are
// applied on top of the config file and environment.
type cliFlags struct {
	configPath  string
	input       string
	output      string
	nodes       int
	strategy    string
	selfLoops   bool
	seed        int64
	directed    bool
	packetLoss  float64
	regions     string
	classifier  string
	metricsFile string
	reportFile  string
	upload      string
	logLevel    string
	workers     int
}

func newFlagSet(f *cliFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("topogen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.input, "caida-file", "", "CAIDA AS-links dataset (.txt, .gz, .bz2, .sz)")
	fs.StringVar(&f.input, "c", "", "shorthand for -caida-file")
	fs.StringVar(&f.output, "output", "", "GML output path")
	fs.StringVar(&f.output, "o", "", "shorthand for -output")
	fs.IntVar(&f.nodes, "nodes", config.DefaultNodes, "target number of nodes")
	fs.IntVar(&f.nodes, "n", config.DefaultNodes, "shorthand for -nodes")
	fs.StringVar(&f.strategy, "strategy", "auto", "selection strategy: auto, bfs, high-degree, hierarchical")
	fs.BoolVar(&f.selfLoops, "self-loops", true, "add a self-loop to every node")
	fs.Int64Var(&f.seed, "seed", config.DefaultSeed, "random seed for hierarchical sampling")
	fs.Int64Var(&f.seed, "s", config.DefaultSeed, "shorthand for -seed")
	fs.BoolVar(&f.directed, "directed", false, "emit a directed graph with both edge directions")
	fs.Float64Var(&f.packetLoss, "packet-loss", 0, "packet loss percentage on inter-AS links")
	fs.StringVar(&f.regions, "regions", "", "YAML region plan")
	fs.StringVar(&f.classifier, "classifier", "", "region classifier: asn-range, proportional")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	fs.StringVar(&f.reportFile, "report", "", "write a JSON generation report")
	fs.StringVar(&f.upload, "upload", "", "publish the GML to s3://bucket/key")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (default info)")
	fs.IntVar(&f.workers, "workers", 0, "worker goroutines for loading and classification (0 = all CPUs)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: topogen -c <as-links file> -o <output.gml> [options]\n\n")
		fmt.Fprintf(stderr, "Generate a connected GML topology from a CAIDA AS-links dataset.\n\n")
		fs.PrintDefaults()
	}
	return fs
}

// buildConfig layers defaults, the config file, TOPOGEN_* variables and
// explicitly set flags, in that order.
func buildConfig(fs *flag.FlagSet, f *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	given := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	if given("caida-file", "c") {
		cfg.Input = f.input
	}
	if given("output", "o") {
		cfg.Output = f.output
	}
	if given("nodes", "n") {
		cfg.Nodes = f.nodes
	}
	if given("strategy") {
		cfg.Strategy = f.strategy
	}
	if given("self-loops") {
		cfg.SelfLoops = f.selfLoops
	}
	if given("seed", "s") {
		cfg.Seed = f.seed
	}
	if given("directed") {
		cfg.Directed = f.directed
	}
	if given("packet-loss") {
		cfg.PacketLoss = f.packetLoss
	}
	if given("regions") {
		cfg.RegionsFile = f.regions
		cfg.Regions = nil
	}
	if given("classifier") {
		cfg.Classifier = f.classifier
	}
	if given("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if given("report") {
		cfg.ReportFile = f.reportFile
	}
	if given("upload") {
		cfg.Upload = f.upload
	}
	if given("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if given("workers") {
		cfg.Workers = f.workers
	}
	return cfg, nil
}
