package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/slipscan/internal/benchmark"
	"github.com/MeKo-Tech/slipscan/internal/config"
	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/ocr/tesseract"
	"github.com/MeKo-Tech/slipscan/internal/preprocess"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

func main() {
	var (
		imagesDir  = flag.String("images", "", "directory of slip images (default: rendered samples)")
		iterations = flag.Int("iterations", 3, "Number of iterations per benchmark")
		outputFile = flag.String("output", "", "CSV file for results (optional)")
		verbose    = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	fmt.Println("slipscan stage benchmark")
	fmt.Println("========================")

	images, err := loadImages(*imagesDir, *verbose)
	if err != nil {
		log.Fatalf("Failed to load images: %v", err)
	}

	cfg := config.DefaultConfig()
	suite := benchmark.NewSuite()
	for _, s := range testutil.SampleSlips() {
		suite.AddExtraction(s.Name, extract.NewEngine(extract.DefaultTable()), s.Text)
	}
	for _, img := range images {
		suite.AddStrategies(img.name, img.img, preprocess.All())
	}

	if eng, err := tesseract.New(cfg.ToTesseractOptions()); err == nil {
		pl, err := cfg.ToPipelineBuilder().WithEngine(eng).Build()
		if err != nil {
			log.Fatalf("Failed to build pipeline: %v", err)
		}
		for _, img := range images {
			suite.AddPipeline(context.Background(), img.name, pl, img.img)
		}
	} else {
		fmt.Printf("Skipping OCR pipeline benchmarks: %v\n", err)
	}

	fmt.Printf("Running %d benchmarks with %d iterations each...\n", suite.Len(), *iterations)
	results := suite.RunAll(*iterations)
	benchmark.PrintResults(os.Stdout, results)

	if *outputFile != "" {
		if err := saveResultsToFile(*outputFile, results); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

type namedImage struct {
	name string
	img  image.Image
}

func loadImages(dir string, verbose bool) ([]namedImage, error) {
	if dir == "" {
		var out []namedImage
		for _, s := range testutil.SampleSlips() {
			out = append(out, namedImage{s.Name, testutil.RenderSlip(strings.Split(s.Text, "\n"), 3)})
		}
		return out, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []namedImage
	for _, e := range entries {
		if e.IsDir() || !utils.IsSupportedImage(e.Name()) {
			continue
		}
		img, _, err := utils.LoadImage(filepath.Join(dir, e.Name()))
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", e.Name(), err)
			continue
		}
		if verbose {
			fmt.Printf("Added test image: %s\n", e.Name())
		}
		out = append(out, namedImage{strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), img})
	}
	return out, nil
}

func saveResultsToFile(filename string, results []benchmark.Result) error {
	file, err := os.Create(filename) //nolint:gosec // G304: operator-chosen output path
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	return benchmark.WriteCSV(file, results)
}
