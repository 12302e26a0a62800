// Benchmark runner for PatchMe.
//
// Runs the module's benchmarks and appends a dated section to
// target/reports/bench.txt so successive runs can be diffed.
//
// Usage:
//
//	go run ./scripts/bench
//	go run ./scripts/bench -benchtime 10s -pattern Compare
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

func main() {
	benchtime := flag.String("benchtime", "3s", "time per benchmark")
	pattern := flag.String("pattern", ".", "benchmark name pattern")
	flag.Parse()

	if err := run(*benchtime, *pattern); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func run(benchtime, pattern string) error {
	root, err := moduleRoot()
	if err != nil {
		return err
	}
	reportDir := filepath.Join(root, "target", "reports")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return err
	}

	fmt.Printf("Benchmarks matching %q, %s each\n\n", pattern, benchtime)

	var captured bytes.Buffer
	cmd := exec.Command("go", "test", "-run=^$",
		"-bench="+pattern, "-benchmem", "-benchtime="+benchtime, "./...")
	cmd.Dir = root
	cmd.Stdout = io.MultiWriter(os.Stdout, &captured)
	cmd.Stderr = io.MultiWriter(os.Stderr, &captured)
	runErr := cmd.Run()

	section := fmt.Sprintf("## %s  go=%s  %s/%s  benchtime=%s\n\n%s\n",
		time.Now().Format(time.RFC3339), goVersion(),
		runtime.GOOS, runtime.GOARCH, benchtime, captured.String())

	reportPath := filepath.Join(reportDir, "bench.txt")
	f, err := os.OpenFile(reportPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(section)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("writing report: %w", werr)
	}
	fmt.Printf("\nAppended to %s\n", reportPath)

	if runErr != nil {
		return fmt.Errorf("benchmark run: %w", runErr)
	}
	return nil
}

func goVersion() string {
	out, err := exec.Command("go", "version").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimPrefix(strings.TrimSpace(string(out)), "go version ")
}

func moduleRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("cannot locate script source")
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", file)
		}
		dir = parent
	}
}
