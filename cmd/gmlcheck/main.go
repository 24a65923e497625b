// Command gmlcheck parses a GML topology and prints its counts and
// connectivity.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dd0wney/caida-topogen/pkg/connectivity"
	"github.com/dd0wney/caida-topogen/pkg/gml"
	"github.com/dd0wney/caida-topogen/pkg/graphstats"
	"github.com/dd0wney/caida-topogen/pkg/topology"
)

type result struct {
	File         string              `json:"file"`
	Directed     bool                `json:"directed"`
	Counts       topology.Counts     `json:"counts"`
	Connectivity connectivity.Report `json:"connectivity"`
	Stats        graphstats.Summary  `json:"stats"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gmlcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	strict := fs.Bool("strict", false, "exit 2 when the topology is not connected")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gmlcheck [-json] [-strict] <file.gml>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	res, err := check(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "gmlcheck: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "gmlcheck: %v\n", err)
			return 1
		}
	} else {
		printText(stdout, res)
	}

	if *strict && !res.Connectivity.Connected {
		return 2
	}
	return 0
}

func check(path string) (*result, error) {
	g, err := gml.ParseFile(path)
	if err != nil {
		return nil, err
	}
	t, err := g.Topology()
	if err != nil {
		return nil, err
	}
	cr, err := connectivity.Validate(t)
	if err != nil {
		return nil, err
	}
	return &result{
		File:         path,
		Directed:     t.Directed,
		Counts:       t.Counts(),
		Connectivity: cr,
		Stats:        graphstats.Topology(t),
	}, nil
}

func printText(w io.Writer, r *result) {
	kind := "undirected"
	if r.Directed {
		kind = "directed"
	}
	fmt.Fprintf(w, "%s (%s)\n", r.File, kind)
	fmt.Fprintf(w, "  nodes:      %d (%d without ip)\n", r.Counts.Nodes, r.Counts.NoIP)
	fmt.Fprintf(w, "  edges:      %d (%d inter-AS, %d self-loops)\n", r.Counts.Edges, r.Counts.InterAS, r.Counts.SelfLoops)
	fmt.Fprintf(w, "  degree:     min %d, max %d, mean %.2f\n", r.Stats.Degree.Min, r.Stats.Degree.Max, r.Stats.Degree.Mean)
	fmt.Fprintf(w, "  components: %d (largest %d)\n", r.Stats.Census.Components, r.Stats.Census.Largest)
	if r.Connectivity.Connected {
		fmt.Fprintf(w, "  connected:  yes\n")
	} else {
		fmt.Fprintf(w, "  connected:  no, %d of %d nodes unreachable from node 0\n", r.Connectivity.Unreached, r.Connectivity.Nodes)
	}
}
