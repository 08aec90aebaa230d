// Package main provides a performance benchmarking tool for the corpusmetrics CLI.
// It generates a synthetic owner/repo corpus, then measures collect and merge
// times across admission limits, running each test multiple times, treating the
// first successful run as cold and averaging the rest as warm, and writes the
// results as a table for performance analysis and documentation.
//
// Prerequisites:
// - corpusmetrics binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic corpus and outputs are created
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/corpusmetrics/internal/tabular"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Command     string
	Concurrency int
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Runs          int
	Owners        int
	ReposPerOwner int
	FilesPerRepo  int
	Concurrency   []int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Runs:          4,
		Owners:        20,
		ReposPerOwner: 10,
		FilesPerRepo:  200,
		Concurrency:   []int{1, 4, 16, 64, 256},
	}

	if _, err := exec.LookPath("corpusmetrics"); err != nil {
		fmt.Printf("Prerequisites check failed: corpusmetrics binary not found in PATH\n")
		os.Exit(1)
	}

	fmt.Printf("Generating corpus: %d owners x %d repos x %d files\n", config.Owners, config.ReposPerOwner, config.FilesPerRepo)
	if err := generateCorpus(config); err != nil {
		fmt.Printf("Failed to generate corpus: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

func corpusDir(config BenchmarkConfig) string {
	return filepath.Join(config.WorkDir, "corpus")
}

// generateCorpus writes the synthetic corpus and a matching wide table.
func generateCorpus(config BenchmarkConfig) error {
	wide := [][]string{{"repository", "file", "loc"}}
	for o := range config.Owners {
		for r := range config.ReposPerOwner {
			repo := fmt.Sprintf("owner%03d/repo%03d", o, r)
			for f := range config.FilesPerRepo {
				rel := fmt.Sprintf("src/pkg%02d/File%04d.java", f%10, f)
				path := filepath.Join(corpusDir(config), filepath.FromSlash(repo), filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return err
				}
				content := strings.Repeat("if (value == null) { return null; }\n", 1+f%25)
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return err
				}
				wide = append(wide, []string{repo, "/" + rel, strconv.Itoa(1 + f%25)})
			}
		}
	}
	return tabular.WriteFile(filepath.Join(config.WorkDir, "wide.csv"), wide)
}

// runBenchmarks executes collect and merge at every configured admission limit.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %v timeout, %d runs per test\n", config.Timeout, config.Runs)

	narrow := filepath.Join(config.WorkDir, "nullReferences.csv")
	for _, limit := range config.Concurrency {
		fmt.Printf("Benchmarking concurrency %d\n", limit)
		results = append(results, runBenchmarkSuite(config, "collect", limit,
			corpusDir(config), "--output-file", narrow))
		results = append(results, runBenchmarkSuite(config, "merge", limit,
			"--wide", filepath.Join(config.WorkDir, "wide.csv"),
			"--narrow", narrow,
			"--output-file", filepath.Join(config.WorkDir, "merged.csv")))
	}
	return results
}

// runBenchmarkSuite runs a command several times and reports cold and warm times.
func runBenchmarkSuite(config BenchmarkConfig, command string, limit int, args ...string) BenchmarkResult {
	fmt.Printf("  %s (%d runs)\n", command, config.Runs)
	coldTime, times := runBenchmark(config, command, limit, args)

	warmAvg := "TIMEOUT"
	if len(times) > 0 {
		var sum float64
		for _, t := range times {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}
	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmAvg)
	return BenchmarkResult{Command: command, Concurrency: limit, ColdTime: coldTimeStr, WarmTime: warmAvg}
}

// runBenchmark executes a corpusmetrics command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, command string, limit int, extraArgs []string) (coldTime float64, warmTimes []float64) {
	args := append([]string{command, "--concurrency", strconv.Itoa(limit), "--color", "no"}, extraArgs...)

	var times []float64
	for range config.Runs {
		start := time.Now()

		cmd := exec.Command("corpusmetrics", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	if command == "merge" {
		return strings.Contains(outputStr, "Merged") && strings.Contains(outputStr, "Matched:")
	}
	return strings.Contains(outputStr, "Run completed in") &&
		strings.Contains(outputStr, "concurrency")
}

// saveResults writes benchmark results to a timestamped table file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("corpusmetrics_benchmark_%s.csv", timestamp))

	records := [][]string{{"cmd", "concurrency", "cold_time", "warm_avg"}}
	for _, result := range results {
		records = append(records, []string{result.Command, strconv.Itoa(result.Concurrency), result.ColdTime, result.WarmTime})
	}
	if err := tabular.WriteFile(filename, records); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "collect", "Collect:")
	printCommandSummary(results, "merge", "Merge:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  concurrency %-4d: Cold: %s, Warm: %s\n", result.Concurrency, result.ColdTime, result.WarmTime)
		}
	}
}
