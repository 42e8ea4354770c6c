package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/antonkuzmin/citedoc/internal/eval"
)

func main() {
	var (
		file    = flag.String("file", "questions.yaml", "path to the YAML question set")
		baseURL = flag.String("url", "http://localhost:8080", "base URL of a running api instance")
		mode    = flag.String("mode", "", "retrieval mode override for questions without one")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := eval.LoadQuestionSet(*file)
	if err != nil {
		log.Fatalf("load question set: %v", err)
	}

	report, err := eval.NewRunner(*baseURL, *mode).Run(ctx, set)
	if err != nil {
		log.Fatalf("run eval: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Fatalf("write report: %v", err)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
