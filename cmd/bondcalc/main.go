// Command bondcalc values a single bond from a JSON request and prints the
// analytics as JSON.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/cmd/internal/valjson"
)

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage: bondcalc -input <path>")
		fmt.Fprintln(os.Stderr, "Compute yield, spread, duration and OAS analytics for one bond.")
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			fmt.Fprintln(os.Stderr, "Usage: bondcalc -input <path>")
			os.Exit(2)
		}
	}

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}

	var req valjson.Request
	if err := json.Unmarshal(bytes.TrimSpace(raw), &req); err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	in, err := req.ToInput()
	if err != nil {
		exitError(err.Error())
	}
	result, err := bond.Valuate(in)
	if err != nil {
		exitError(err.Error())
	}

	b, _ := json.MarshalIndent(valjson.Response{ID: req.ID, AnalyticsResult: &result}, "", "  ")
	fmt.Println(string(b))
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func exitError(msg string) {
	b, _ := json.Marshal(valjson.Response{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
