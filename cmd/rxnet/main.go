package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-rxnet/pkg/logging"
	"github.com/dd0wney/cluso-rxnet/pkg/modelfile"
	"github.com/dd0wney/cluso-rxnet/pkg/netio"
	"github.com/dd0wney/cluso-rxnet/pkg/network"
)

func main() {
	modelPath := flag.String("model", "", "Path to the YAML model document")
	outPath := flag.String("out", "", "Output path for the generated network (default: stdout)")
	format := flag.String("format", "json", "Output format: json or binary")
	maxSpecies := flag.Int("max-species", network.DefaultMaxSpecies, "Abort when the network exceeds this many species")
	maxPasses := flag.Int("max-passes", network.DefaultMaxPasses, "Abort when expansion needs more than this many passes")
	workers := flag.Int("workers", 1, "Rule application workers per pass")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rxnet -model model.yaml [-out network.json] [-format json|binary]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *format != "json" && *format != "binary" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))

	fmt.Printf("🧬 Reaction Network Generator\n")
	fmt.Printf("=============================\n\n")

	m, err := modelfile.Load(*modelPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load model: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📄 Model:        %s\n", m.Name)
	fmt.Printf("   Molecules:    %d\n", len(m.Registry.Names()))
	fmt.Printf("   Rules:        %d\n", len(m.Rules))
	fmt.Printf("   Seeds:        %d\n", len(m.Seeds))
	fmt.Printf("   Observables:  %d\n\n", len(m.Observables))

	gen := network.NewGenerator(m, network.Config{
		MaxSpecies: *maxSpecies,
		MaxPasses:  *maxPasses,
		Workers:    *workers,
		Logger:     logger,
	})

	fmt.Printf("⚙️  Generating network...\n")
	start := time.Now()
	net, err := gen.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Generation failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	fmt.Printf("   Species:      %d\n", len(net.Species))
	fmt.Printf("   Reactions:    %d\n", len(net.Reactions))
	fmt.Printf("   Passes:       %d\n", net.Passes)
	fmt.Printf("   Duration:     %s\n\n", elapsed)

	doc, err := netio.FromNetwork(net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Export failed: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		err = netio.WriteJSON(out, doc)
	case "binary":
		err = netio.WriteBinary(out, doc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to write network: %v\n", err)
		os.Exit(1)
	}

	if *outPath != "" {
		fmt.Printf("✅ Network %s written to %s\n", net.ID, *outPath)
	}
}
