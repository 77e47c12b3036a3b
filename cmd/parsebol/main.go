// Command parsebol extracts the shipment record from a text file (or stdin)
// and prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joseph-ayodele/bol-extractor/internal/app"
	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
)

func main() {
	pretty := flag.Bool("pretty", true, "indent the JSON output")
	validate := flag.Bool("validate", false, "validate the output against the result schema")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: parsebol [flags] [file.txt|-]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stderr)

	text, err := readInput(flag.Arg(0))
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	recognizer, err := app.NewRecognizer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure name recognizer", "error", err)
		os.Exit(2)
	}
	res := bol.Shape(app.NewEngine(cfg, recognizer, logger).Extract(context.Background(), text))

	raw, err := res.JSON()
	if err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
	if *validate {
		if err := bol.ValidateResult(raw); err != nil {
			logger.Error("result failed schema validation", "error", err)
			os.Exit(1)
		}
	}
	if *pretty {
		var v any
		_ = json.Unmarshal(raw, &v)
		raw, _ = json.MarshalIndent(v, "", "  ")
	}
	fmt.Println(string(raw))
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
