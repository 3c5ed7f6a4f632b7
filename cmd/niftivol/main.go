package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"niftivol/internal/logging"
	"niftivol/pkg/config"
	"niftivol/pkg/niftiio"
	"niftivol/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "NIfTI volume to load (.nii or .nii.gz)")
	outputFile := flag.String("output", "", "Write the processed volume to this NIfTI file")
	configPath := flag.String("config", "", "YAML configuration file")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	maskFile := flag.String("mask", "", "NIfTI volume multiplied into the input")
	zoom := flag.String("zoom", "", "Zoom factor, or comma-separated factors per axis")
	removeNaN := flag.Bool("remove-nan", false, "Replace NaN with 0 and infinities with finite values")
	info := flag.Bool("info", false, "Print a summary of the processed volume")
	extractSlices := flag.Bool("extract-slices", false, "Save PNG slices along each configured axis")
	slicesDir := flag.String("slices-dir", "", "Directory to save extracted slices")
	logFile := flag.String("log-file", "", "Send log output to a rotating file")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			logging.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			logging.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mask":
			cfg.Load.MaskFile = *maskFile
		case "remove-nan":
			cfg.Load.RemoveNaN = *removeNaN
		case "extract-slices":
			cfg.Slices.Extract = *extractSlices
		case "slices-dir":
			cfg.Slices.Dir = *slicesDir
		case "log-file":
			cfg.Output.LogFile = *logFile
		}
	})
	if *zoom != "" {
		factors, err := parseFactors(*zoom)
		if err != nil {
			logging.Fatalf("Invalid -zoom: %v", err)
		}
		cfg.Load.Zoom = factors
	}

	logCfg := &logging.Config{
		Logfile: cfg.Output.LogFile,
		MaxSize: cfg.Output.MaxLogSize,
		MaxAge:  cfg.Output.MaxLogAge,
		Verbose: cfg.Output.Verbose,
	}
	closer := logCfg.SetLogger()
	defer closer.Close()

	if err := run(*inputFile, *outputFile, *info, cfg); err != nil {
		closer.Close()
		logging.Fatalf("%v", err)
	}
}

func run(inputFile, outputFile string, info bool, cfg *config.Config) error {
	opts := &niftiio.LoadOptions{
		Zoom:      cfg.Load.Zoom,
		RemoveNaN: cfg.Load.RemoveNaN,
	}
	if cfg.Load.MaskFile != "" {
		logging.Infof("Loading mask %s", cfg.Load.MaskFile)
		mask, err := niftiio.LoadNifti(cfg.Load.MaskFile, nil)
		if err != nil {
			return fmt.Errorf("failed to load mask: %w", err)
		}
		opts.Mask = mask
	}

	startTime := time.Now()
	vol, err := niftiio.LoadNifti(inputFile, opts)
	if err != nil {
		return fmt.Errorf("failed to load volume: %w", err)
	}
	logging.Infof("Loaded %s with shape %v in %s", inputFile, vol.Shape, time.Since(startTime))

	if info {
		s := niftiio.Summarize(vol)
		fmt.Printf("File:       %s\n", inputFile)
		fmt.Printf("Shape:      %v\n", s.Shape)
		fmt.Printf("Voxel size: %g x %g x %g\n", vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z)
		fmt.Printf("Voxels:     %d (%d NaN, %d Inf)\n", s.Voxels, s.NaN, s.Inf)
		fmt.Printf("Min/Max:    %g / %g\n", s.Min, s.Max)
		fmt.Printf("Mean/Std:   %g / %g\n", s.Mean, s.Std)
	}

	if outputFile != "" {
		saveOpts, err := cfg.SaveOptions()
		if err != nil {
			return err
		}
		if err := niftiio.SaveNiftiWithOptions(outputFile, vol, saveOpts); err != nil {
			return fmt.Errorf("failed to save volume: %w", err)
		}
		logging.Infof("Saved %s volume to %s", saveOpts.Datatype, outputFile)
	}

	if cfg.Slices.Extract {
		viewer := visualization.NewViewer(vol)
		for _, axis := range cfg.Slices.Axes {
			axisDir := filepath.Join(cfg.Slices.Dir, axis)
			logging.Infof("Saving %s-axis slices to: %s", axis, axisDir)
			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				logging.Warningf("Failed to save %s-axis slices: %v", axis, err)
			}
		}
	}

	return nil
}

// parseFactors parses "2" or "1,1,0.5" into zoom factors
func parseFactors(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	factors := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return factors, nil
}
