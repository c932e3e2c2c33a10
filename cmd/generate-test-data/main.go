package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

// fixture records what extraction should report for a rendered slip.
type fixture struct {
	Name      string            `json:"name"`
	ImageFile string            `json:"image_file"`
	TextFile  string            `json:"text_file"`
	Expected  map[string]string `json:"expected"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir  = flag.String("out", "testdata/slips", "output directory, relative to the project root")
		scale   = flag.Int("scale", 3, "upscaling factor for rendered slips")
		verbose = flag.Bool("v", false, "Verbose output")
		help    = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Render sample deposit slips with transcriptions and expected fields.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	dir := filepath.Join(root, *outDir)
	if err := testutil.EnsureDir(dir); err != nil {
		slog.Error("Failed to create output directory", "dir", dir, "error", err)
		os.Exit(1)
	}

	engine := extract.NewEngine(extract.DefaultTable())
	for _, s := range testutil.SampleSlips() {
		if err := writeSample(dir, s, *scale, engine); err != nil {
			slog.Error("Failed to write sample", "name", s.Name, "error", err)
			os.Exit(1)
		}
		if *verbose {
			slog.Info("Wrote sample", "name", s.Name)
		}
	}
	slog.Info("Test data generation completed", "dir", dir, "samples", len(testutil.SampleSlips()))
}

func writeSample(dir string, s testutil.Sample, scale int, engine *extract.Engine) error {
	img := testutil.RenderSlip(strings.Split(s.Text, "\n"), scale)
	imageFile := s.Name + ".png"
	f, err := os.Create(filepath.Join(dir, imageFile)) //nolint:gosec // G304: controlled output path
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	textFile := s.Name + ".txt"
	if err := os.WriteFile(filepath.Join(dir, textFile), []byte(s.Text+"\n"), 0o600); err != nil {
		return fmt.Errorf("write transcription: %w", err)
	}

	fx := fixture{
		Name:      s.Name,
		ImageFile: imageFile,
		TextFile:  textFile,
		Expected:  engine.Extract(s.Text).Fields,
	}
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, s.Name+".json"), data, 0o600)
}
