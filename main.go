package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/sitegeom/pkg/config"
	"github.com/chazu/sitegeom/pkg/siteio"
	"github.com/chazu/sitegeom/pkg/terrain"
)

func main() {
	var (
		configPath   = flag.String("config", "sitegeom.toml", "TOML config file; defaults apply when missing")
		dxfOut       = flag.String("dxf", "", "write ground faces and placed segments to this DXF file")
		geojsonOut   = flag.String("geojson", "", "write ground faces and placed segments to this GeoJSON file")
		surveyLayers = flag.String("survey-layers", siteio.SurveyLayer, "comma-separated DXF layers holding survey points")
		jsonOut      = flag.Bool("json", false, "print the result as JSON")
		verbose      = flag.Bool("v", false, "log per-triangle ground build details")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <site.lisp|site.dxf>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		terrain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	input := flag.Arg(0)
	var result *Result
	if strings.EqualFold(filepath.Ext(input), ".dxf") {
		result = app.Import(input, siteio.ReadOptions{SurveyLayers: strings.Split(*surveyLayers, ",")})
	} else {
		source, err := os.ReadFile(input)
		if err != nil {
			log.Fatalf("Read error: %v", err)
		}
		name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		result = app.Evaluate(name, string(source))
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Encode error: %v", err)
		}
	} else {
		report(result)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}

	if *dxfOut != "" || *geojsonOut != "" {
		if err := app.Export(result, *dxfOut, *geojsonOut); err != nil {
			log.Fatalf("Export error: %v", err)
		}
	}
}

// report prints a plain-text summary of result.
func report(result *Result) {
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Printf("error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Printf("error: %s\n", e.Message)
		}
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w.Message)
	}
	if result.Surface != nil {
		fmt.Printf("ground: %d faces from %d triangles, %d skipped\n",
			len(result.Surface.Faces), result.Surface.Total, len(result.Surface.Skipped))
	}
	for _, sd := range result.Segments {
		fmt.Printf("segment %d: %v -> %v snapped=%t draped=%t\n", sd.Index, sd.Start, sd.End, sd.Snapped, sd.Draped)
	}
}
