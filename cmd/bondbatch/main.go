// Command bondbatch values a JSON array of bonds in parallel. A failure for
// one security is logged and reported in its response slot; it never aborts
// the rest of the batch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/cmd/internal/valjson"
)

func main() {
	inputPath := flag.String("input", "", "JSON array input path (reads stdin if omitted)")
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "Maximum concurrent valuations")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bondbatch: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := readInput(*inputPath)
	if err != nil {
		logger.Fatal("read input", zap.Error(err))
	}

	var requests []valjson.Request
	if err := json.Unmarshal(raw, &requests); err != nil {
		logger.Fatal("parse JSON array", zap.Error(err))
	}

	responses := make([]valjson.Response, len(requests))

	var g errgroup.Group
	g.SetLimit(*workers)
	for i, req := range requests {
		g.Go(func() error {
			responses[i] = value(req, logger)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range responses {
		if r.Error != "" {
			failed++
		}
	}
	logger.Info("batch complete",
		zap.Int("securities", len(requests)),
		zap.Int("failed", failed))

	b, _ := json.Marshal(responses)
	fmt.Println(string(b))
	if failed > 0 {
		os.Exit(1)
	}
}

func value(req valjson.Request, logger *zap.Logger) valjson.Response {
	in, err := req.ToInput()
	if err != nil {
		logger.Warn("invalid request",
			zap.String("id", req.ID),
			zap.Error(err))
		return valjson.Response{ID: req.ID, Error: err.Error()}
	}
	result, err := bond.Valuate(in)
	if err != nil {
		logger.Warn("valuation failed",
			zap.String("id", req.ID),
			zap.Error(err))
		return valjson.Response{ID: req.ID, Error: err.Error()}
	}
	return valjson.Response{ID: req.ID, AnalyticsResult: &result}
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}
