package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	json "github.com/bytedance/sonic"

	"github.com/devstudio-infra/trade-tracker/internal/ai"
	"github.com/devstudio-infra/trade-tracker/internal/config"
	"github.com/devstudio-infra/trade-tracker/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	filePath := flag.String("file", "", "file with the raw model response (default: stdin)")
	symbol := flag.String("symbol", "", "instrument symbol for placeholder substitution")
	price := flag.Float64("price", 0, "current price for placeholder substitution")
	canonical := flag.Bool("canonical", false, "print the canonical trading decision instead of the raw one")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log := logger.New(cfg.Logging.Level)

	raw, err := readInput(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	parser := ai.NewParser(cfg, log)
	ctx := ai.Context{Symbol: *symbol, CurrentPrice: *price}

	var out any
	if *canonical {
		out = parser.ParseTradingDecision(raw, ctx)
	} else {
		out = parser.ParseWithFallback(raw, ctx)
	}

	display, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode decision: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", display)
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
