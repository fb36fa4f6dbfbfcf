package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	"github.com/nvr-ai/go-anchors/assign"
	"github.com/nvr-ai/go-anchors/config"
	"github.com/nvr-ai/go-anchors/dataset"
	"github.com/nvr-ai/go-anchors/render"
)

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("anchordebug", "Match anchors to ground truth for one batch and draw the result")
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file", Required: false, Default: ""})
	inputDir := parser.String("i", "input", &argparse.Options{Help: "Dataset directory (overrides dataset.dir)", Required: false, Default: ""})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Output directory for overlays (overrides render.output_dir)", Required: false, Default: ""})
	start := parser.Int("s", "start", &argparse.Options{Help: "Index of the first example", Required: false, Default: 0})
	batchSize := parser.Int("n", "batch", &argparse.Options{Help: "Number of examples (overrides batch_size)", Required: false, Default: 0})
	level := parser.Int("l", "level", &argparse.Options{Help: "Only draw anchors of this feature-map level, -1 for all", Required: false, Default: -2})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Concurrent examples, 0 for all CPUs", Required: false, Default: -1})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)
	defer logger.Close()

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		check(err)
	}
	if *inputDir != "" {
		cfg.Dataset.Dir = *inputDir
	}
	if *outputDir != "" {
		cfg.Render.OutputDir = *outputDir
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	if *level != -2 {
		cfg.Render.Level = *level
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	check(cfg.Validate())

	src, err := dataset.NewDirSource(cfg.Dataset.Dir, cfg.Dataset.Classes, cfg.Dataset.Width, cfg.Dataset.Height)
	check(err)
	logger.Infof("Dataset %v: %v images", cfg.Dataset.Dir, src.Len())

	examples, err := dataset.Batch(src, *start, cfg.BatchSize)
	check(err)

	assigner, err := assign.New(logger, cfg.Anchors, cfg.Matcher)
	check(err)

	results, err := assigner.AssignBatch(context.Background(), examples, cfg.Workers)
	check(err)

	check(os.MkdirAll(cfg.Render.OutputDir, 0755))
	overlay := render.DefaultOverlay()
	overlay.LineWidth = cfg.Render.LineWidth
	overlay.PerObjectHues = cfg.Render.PerObjectHues
	overlay.ShowIgnored = cfg.Render.ShowIgnored

	for _, res := range results {
		check(writeOverlay(res, cfg.Render, overlay))
		logger.Infof("%v: %v", res.Example.ID, res.Summary)
		for j, n := range res.Summary.PerBox {
			logger.Infof("  box %v %v (%v): %v anchors", j, res.Example.Boxes[j], className(cfg.Dataset.Classes, res.Example.Labels[j]), n)
		}
	}
}

func writeOverlay(res *assign.Result, rc config.Render, o render.Overlay) error {
	ex := res.Example
	if ex.Image == nil {
		return nil
	}
	var err error
	img := ex.Image
	if rc.Level >= 0 {
		img, err = render.DrawLevel(img, res.Anchors, rc.Level, res.Matches, ex.Boxes, o)
	} else {
		img, err = render.Draw(img, res.Anchors.Boxes, res.Matches, ex.Boxes, o)
	}
	if err != nil {
		return err
	}
	return render.SavePNG(filepath.Join(rc.OutputDir, ex.ID+".png"), img)
}

func className(classes []string, label int) string {
	if label < len(classes) {
		return classes[label]
	}
	return fmt.Sprintf("class %d", label)
}
