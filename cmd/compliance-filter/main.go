package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/adapters/csvsource"
	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/di"
)

var (
	inputFile  = flag.String("input", "", "CSV file of emails to classify")
	trainFile  = flag.String("train", "", "Optional CSV file of labeled sample emails to ingest first")
	exportFile = flag.String("export", "", "Optional CSV file to write the violations report to")
	feedback   = flag.Bool("feedback", false, "Add classified emails back into the example store")
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(
		engine *core.ClassificationEngine,
		loader *csvsource.Loader,
		cfg *config.Config,
		logger *zap.Logger,
	) error {
		defer logger.Sync()
		ctx := context.Background()

		if *trainFile != "" {
			if err := ingestSamples(ctx, engine, loader, *trainFile, logger); err != nil {
				return err
			}
		}

		if *inputFile == "" {
			return fmt.Errorf("no input file specified (use -input)")
		}

		file, err := os.Open(*inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()

		emails, err := loader.ReadEmails(file)
		if err != nil {
			return fmt.Errorf("failed to read emails: %w", err)
		}

		fmt.Printf("\n=== Classification ===\n")
		fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))
		fmt.Printf("Emails: %d\n", len(emails))

		startTime := time.Now()
		results := engine.ClassifyBatch(ctx, emails)
		duration := time.Since(startTime)

		printReport(results)
		fmt.Printf("Processing time: %v\n", duration)

		if *exportFile != "" {
			if err := exportResults(loader, *exportFile, results); err != nil {
				return err
			}
			logger.Info("Exported violations report", zap.String("file", *exportFile))
		}

		if *feedback && len(results) > 0 {
			if err := engine.AddClassifiedEmails(ctx, results); err != nil {
				return fmt.Errorf("failed to feed results back into the store: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// ingestSamples loads labeled training rows into the example store
func ingestSamples(ctx context.Context, engine *core.ClassificationEngine, loader *csvsource.Loader, path string, logger *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open training file: %w", err)
	}
	defer file.Close()

	rows, err := loader.ReadSampleRows(file)
	if err != nil {
		return fmt.Errorf("failed to read training rows: %w", err)
	}

	if err := engine.LoadExamples(ctx, rows); err != nil {
		// Partial ingestion is possible; report it but keep going so
		// the records that did land still inform classification
		var ingestErr *core.IngestError
		if errors.As(err, &ingestErr) {
			logger.Warn("Some training rows failed to ingest", zap.Error(ingestErr))
			return nil
		}
		return err
	}
	return nil
}

// printReport renders the sorted violations report
func printReport(results []core.ClassificationResult) {
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Non-compliant emails: %d\n\n", len(results))

	for i, result := range results {
		fmt.Printf("%d. [risk %.2f] %s -> %s\n", i+1, result.RiskScore, result.Email.From, result.Email.To)
		fmt.Printf("   Subject: %s\n", result.Email.Subject)
		fmt.Printf("   Categories: %s\n", result.Categories.String())
		fmt.Printf("   Reason: %s\n", result.Reason)
		if result.Evidence != "" {
			fmt.Printf("   Evidence: %q\n", result.Evidence)
		}
		fmt.Printf("   Confidence: %d/5\n\n", result.Confidence)
	}
}

// exportResults writes the violations report to a CSV file
func exportResults(loader *csvsource.Loader, path string, results []core.ClassificationResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	return loader.WriteResults(file, results)
}
