package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/adapters/csvsource"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/di"
)

var sampleFile = flag.String("file", "", "CSV file of labeled sample emails to ingest")

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(
		engine *core.ClassificationEngine,
		store core.ExampleStore,
		loader *csvsource.Loader,
		logger *zap.Logger,
	) error {
		defer logger.Sync()

		if *sampleFile == "" {
			return fmt.Errorf("no sample file specified (use -file)")
		}

		file, err := os.Open(*sampleFile)
		if err != nil {
			return fmt.Errorf("failed to open sample file: %w", err)
		}
		defer file.Close()

		rows, err := loader.ReadSampleRows(file)
		if err != nil {
			return fmt.Errorf("failed to read sample rows: %w", err)
		}

		if err := engine.LoadExamples(context.Background(), rows); err != nil {
			return err
		}

		fmt.Printf("Loaded %d sample emails (store now holds %d records)\n", len(rows), store.Len())
		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
