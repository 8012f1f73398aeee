package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Category   string  `json:"category"`
	Scenario   string  `json:"scenario"`
	Iterations int64   `json:"iterations"`
	NsPerOp    float64 `json:"ns_per_op"`
	BytesPerOp int64   `json:"bytes_per_op"`
	AllocsOp   int64   `json:"allocs_per_op"`
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Stitch":         {text.FgGreen},
	"StitchAccessor": {text.FgCyan},
	"StitchFlow":     {text.FgCyan},
	"Do":             {text.FgYellow},
	"Dig":            {text.FgMagenta},
	"Fx":             {text.FgBlue},
}

var categoryTitles = map[string]string{
	"Provide_Simple":        "Registration (simple)",
	"Provide_Chain":         "Registration (dependency chain)",
	"Invoke_Singleton":      "Resolution (singleton)",
	"Invoke_Chain":          "Resolution (singleton chain)",
	"Invoke_TransientChain": "Resolution (transient chain)",
	"Scope_Request":         "Scope per request",
}

var categoryOrder = []string{
	"Provide_Simple", "Provide_Chain",
	"Invoke_Singleton", "Invoke_Chain", "Invoke_TransientChain",
	"Scope_Request",
}

func main() {
	benchDir := ".."
	jsonOut := false
	for _, arg := range os.Args[1:] {
		if arg == "--json" {
			jsonOut = true
			continue
		}
		benchDir = arg
	}

	fmt.Println(text.Bold.Sprint("stitch benchmark suite"))
	fmt.Println(text.Faint.Sprint("running benchmarks..."))
	fmt.Println()

	cmd := exec.Command("go", "test", "-run=^$", "-bench=.", "-benchmem", "-count=3", "-benchtime=100ms")
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}
	printSummary(grouped)

	if jsonOut {
		exportJSON(results)
	}
}

var (
	benchPattern = regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)
	namePattern  = regexp.MustCompile(`^([^_]+)_([^_]+)_(\w+)$`)
)

// parseResults averages the repeated runs of each benchmark.
func parseResults(output []byte) []BenchmarkResult {
	seen := make(map[string][]BenchmarkResult)
	var order []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := benchPattern.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.ParseInt(matches[2], 10, 64)
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsOp, _ := strconv.ParseInt(matches[5], 10, 64)

		r := BenchmarkResult{
			Name:       name,
			Iterations: iterations,
			NsPerOp:    nsPerOp,
			BytesPerOp: bytesPerOp,
			AllocsOp:   allocsOp,
		}
		if parts := namePattern.FindStringSubmatch(name); parts != nil {
			r.Category, r.Scenario, r.Framework = parts[1], parts[2], parts[3]
		} else {
			r.Category, r.Framework = name, name
		}

		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(seen[name], r)
	}

	results := make([]BenchmarkResult, 0, len(order))
	for _, name := range order {
		runs := seen[name]
		var totalNs float64
		var totalBytes, totalAllocs int64
		for _, r := range runs {
			totalNs += r.NsPerOp
			totalBytes += r.BytesPerOp
			totalAllocs += r.AllocsOp
		}
		n := float64(len(runs))

		avg := runs[0]
		avg.NsPerOp = totalNs / n
		avg.BytesPerOp = int64(float64(totalBytes) / n)
		avg.AllocsOp = int64(float64(totalAllocs) / n)
		results = append(results, avg)
	}
	return results
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	var extra []string
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		if _, ok := groups[key]; !ok && !slices.Contains(categoryOrder, key) {
			extra = append(extra, key)
		}
		groups[key] = append(groups[key], r)
	}

	var ordered []CategoryResults
	for _, key := range append(slices.Clone(categoryOrder), extra...) {
		results, ok := groups[key]
		if !ok {
			continue
		}
		slices.SortFunc(results, func(a, b BenchmarkResult) int {
			switch {
			case a.NsPerOp < b.NsPerOp:
				return -1
			case a.NsPerOp > b.NsPerOp:
				return 1
			default:
				return 0
			}
		})
		ordered = append(ordered, CategoryResults{Category: key, Results: results})
	}
	return ordered
}

func printCategory(cat CategoryResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(categoryTitle(cat.Category))
	t.AppendHeader(table.Row{"Framework", "Time/op", "B/op", "Allocs/op", "vs fastest"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	fastest := cat.Results[0].NsPerOp
	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx", r.NsPerOp/fastest)
		}
		name := r.Framework
		if colors, ok := frameworkColors[r.Framework]; ok {
			name = colors.Sprint(r.Framework)
		}
		t.AppendRow(table.Row{name, formatNs(r.NsPerOp), r.BytesPerOp, r.AllocsOp, relative})
	}

	t.Render()
	fmt.Println()
}

func categoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(strings.Trim(cat, "_"), "_", " ")
}

func formatNs(ns float64) string {
	switch {
	case ns >= 1_000_000:
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	case ns >= 1_000:
		return fmt.Sprintf("%.2f µs", ns/1_000)
	default:
		return fmt.Sprintf("%.0f ns", ns)
	}
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		wins[cat.Results[0].Framework]++
	}

	names := make([]string, 0, len(wins))
	for name := range wins {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if wins[a] != wins[b] {
			return wins[b] - wins[a]
		}
		return strings.Compare(a, b)
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"Framework", "Wins"})
	for _, name := range names {
		t.AppendRow(table.Row{name, fmt.Sprintf("%d/%d", wins[name], len(groups))})
	}
	t.AppendFooter(table.Row{"compared", "stitch, samber/do, uber/dig, uber/fx"})
	t.Render()
}

func exportJSON(results []BenchmarkResult) {
	output := struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{
		Benchmarks: results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode results: %v\n", err)
		return
	}
	if err := os.WriteFile("benchmark_results.json", data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write results: %v\n", err)
		return
	}
	fmt.Println(text.Faint.Sprint("results exported to benchmark_results.json"))
}
