package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"pqctdensity/pkg/analysis"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/imageio"
)

func main() {
	// Parse command line arguments
	inputFile := flag.String("input", "", "16-bit PNG or TIFF pQCT slice")
	configPath := flag.String("config", "pqctdensity.yaml", "Path to the YAML configuration")
	createConfig := flag.Bool("create-config", false, "Write a default configuration to -config and exit")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: from configuration)")
	resultsFile := flag.String("results", "", "Write results as YAML to this file")
	sieveFile := flag.String("sieve", "", "Write the selected bone mask as PNG to this file")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	flag.Parse()

	if *createConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to create configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *resultsFile != "" {
		cfg.Output.ResultsFile = *resultsFile
	}
	if *sieveFile != "" {
		cfg.Output.SaveSieve = true
		cfg.Output.SieveFile = *sieveFile
	}
	if *quiet {
		cfg.Output.Verbose = false
	}

	fmt.Println("================================")
	fmt.Println("pQCT CORTICAL DENSITY DISTRIBUTION ANALYSIS")
	fmt.Println("================================")

	img, err := imageio.Load(*inputFile, imageio.CalibrationFromConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to load slice: %v", err)
	}
	fmt.Printf("Loaded %dx%d slice at %.3f mm/pixel\n", img.Width, img.Height, img.PixelSpacing)

	analyzer := analysis.NewAnalyzer(cfg)
	startTime := time.Now()
	res, err := analyzer.Process(img)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nAnalysis completed successfully in %.2f seconds!\n\n", processingTime.Seconds())
	printResults(res)

	if cfg.Output.SaveSieve {
		if err := imageio.SaveSieve(res.Sieve, cfg.Output.SieveFile); err != nil {
			log.Printf("Warning: Failed to save sieve: %v", err)
		} else {
			fmt.Printf("Sieve saved to: %s\n", cfg.Output.SieveFile)
		}
	}

	if cfg.Output.ResultsFile != "" {
		if err := res.Save(cfg.Output.ResultsFile); err != nil {
			log.Fatalf("Failed to save results: %v", err)
		}
		fmt.Printf("Results saved to: %s\n", cfg.Output.ResultsFile)
	}
}

func printResults(res *analysis.Results) {
	fmt.Printf("Selected region %d of %d (stacked: %v, flip: %v)\n",
		res.Selection+1, res.Regions, res.Stacked, res.Flip)

	if rot := res.Orientation; rot != nil {
		fmt.Printf("Rotation: %.2f degrees (index %d)\n", rot.Alpha*180/math.Pi, rot.RotationIndex)
		if rot.DistanceBetweenBones > 0 {
			fmt.Printf("Distance between bones: %.2f mm\n", rot.DistanceBetweenBones)
		}
	}

	if c := res.Cortical; c != nil {
		fmt.Printf("\nCross-section:\n")
		fmt.Printf("=======================================\n")
		fmt.Printf("ToA: %.2f mm², ToD: %.2f\n", c.TotalArea, c.TotalDensity)
		fmt.Printf("MaA: %.2f mm², MaD: %.2f\n", c.MarrowArea, c.MarrowDensity)
		fmt.Printf("CoA: %.2f mm², CoD: %.2f\n", c.CorticalArea, c.CorticalDensity)
		fmt.Printf("Vendor CoA: %.2f mm², vendor CoD: %.2f\n", c.VendorCorticalArea, c.VendorCorticalDensity)
		fmt.Printf("IPo: %.2f, IMax: %.2f, IMin: %.2f mm⁴\n", c.IPolar, c.IMax, c.IMin)
		fmt.Printf("SSI: %.2f, SSIMax: %.2f, SSIMin: %.2f mm³\n", c.SSI, c.SSIMax, c.SSIMin)
		fmt.Printf("BSId: %.4f\n", c.DensityWeightedStrength)
	}

	if m := res.Mass; m != nil {
		fmt.Printf("\nMass distribution: total %.4f over %d sectors\n", m.Total, m.Sectors)
	}

	if d := res.Distribution; d != nil {
		fmt.Printf("\nCortical density distribution (%d sectors, %d divisions):\n", d.Sectors, d.Divisions)
		fmt.Printf("=======================================\n")
		for i, v := range d.RadialDistribution {
			fmt.Printf("Division %d: %.2f\n", i+1, v)
		}
		fmt.Printf("Peeled cortical BMD: %.2f\n", d.PeeledBMD)
	}

	if c := res.Concentric; c != nil {
		fmt.Printf("\nConcentric rings: %d sectors, %d divisions\n", c.Sectors, c.Divisions)
	}
	fmt.Println()
}
