// Command ner runs the configured name recognizer (NER_MODE) over a text block
// and prints the entities it finds, one per line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joseph-ayodele/bol-extractor/internal/app"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/ner"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.Log, os.Stderr)

	if len(os.Args) > 2 {
		logger.Error("usage: ner [file.txt]  (reads stdin without a file)")
		os.Exit(2)
	}
	var (
		text []byte
		err  error
	)
	if len(os.Args) == 2 {
		text, err = os.ReadFile(os.Args[1])
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	recognizer, err := app.NewRecognizer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure name recognizer", "error", err)
		os.Exit(2)
	}
	if recognizer == nil {
		logger.Error("NER_MODE=off: nothing to run")
		os.Exit(2)
	}

	ctx, cancel := common.WithTimeout(context.Background(), cfg.LLM.Timeout)
	defer cancel()
	ents, err := recognizer.Recognize(ctx, string(text))
	if err != nil {
		logger.Error("recognition failed", "mode", cfg.Extraction.NERMode, "error", err)
		os.Exit(1)
	}

	minConf := cfg.Extraction.MinOrgConfidence
	for _, e := range ents {
		mark := " "
		if e.Label == ner.LabelOrg && e.Confidence >= minConf {
			mark = "*"
		}
		fmt.Printf("%s %-6s %s %q\n", mark, e.Label, strconv.FormatFloat(e.Confidence, 'f', 2, 64), e.Text)
	}
	logger.Info("recognized entities", "mode", cfg.Extraction.NERMode, "count", len(ents), "orgs", len(ner.Orgs(ents, minConf)))
}
