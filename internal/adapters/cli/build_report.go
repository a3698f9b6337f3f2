package cli

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type PageError struct {
	Page    string
	Message string
	Details []string
}

type builtPage struct {
	input    string
	output   string
	duration time.Duration
}

type BuildReport struct {
	out       *Output
	pages     []builtPage
	errors    []PageError
	warnMu    sync.Mutex
	warnings  []string
	startTime time.Time
	outputDir string
}

func NewBuildReport(out *Output, outputDir string) *BuildReport {
	return &BuildReport{
		out:       out,
		startTime: time.Now(),
		outputDir: outputDir,
	}
}

func (r *BuildReport) AddPage(input, output string, duration time.Duration) {
	r.pages = append(r.pages, builtPage{input: input, output: output, duration: duration})
}

// AddError records a failed page. Multi-line messages are split into a
// headline and details.
func (r *BuildReport) AddError(page string, err error) {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	var details []string
	for _, l := range lines[1:] {
		if l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "- ")); l != "" {
			details = append(details, l)
		}
	}
	r.errors = append(r.errors, PageError{Page: page, Message: lines[0], Details: details})
}

// AddDroppedProps records props left out of a page. Safe for concurrent use.
func (r *BuildReport) AddDroppedProps(page string, keys []string) {
	r.warnMu.Lock()
	defer r.warnMu.Unlock()
	r.warnings = append(r.warnings, fmt.Sprintf("%s: dropped props that are not JSON serializable: %s", page, strings.Join(keys, ", ")))
}

func (r *BuildReport) HasFailures() bool {
	return len(r.errors) > 0
}

func (r *BuildReport) Render() {
	duration := time.Since(r.startTime)
	w := r.out.Writer()
	total := len(r.pages) + len(r.errors)

	fmt.Fprintf(w, "  %d pages found\n", total)

	if len(r.pages) > 0 {
		fmt.Fprintln(w)
		sort.Slice(r.pages, func(i, j int) bool { return r.pages[i].input < r.pages[j].input })
		for _, p := range r.pages {
			fmt.Fprintf(w, "  %s %s %s\n", r.out.Green("✓"), p.output, r.out.Gray(formatDuration(p.duration)))
		}
	}

	if len(r.warnings) > 0 {
		fmt.Fprintln(w)
		sort.Strings(r.warnings)
		for _, warning := range deduplicateStrings(r.warnings) {
			r.out.PrintWarning("%s", warning)
		}
	}

	if len(r.errors) > 0 {
		ew := r.out.ErrWriter()
		fmt.Fprintln(ew)
		fmt.Fprintf(ew, "  "+r.out.Red("✗ ")+"Errors (%d):\n", len(r.errors))
		for _, e := range r.errors {
			fmt.Fprintf(ew, "  %s %s\n", r.out.Red("✗"), e.Page)
			fmt.Fprintf(ew, "    %s\n", e.Message)
			for _, detail := range deduplicateStrings(e.Details) {
				fmt.Fprintf(ew, "      • %s\n", detail)
			}
		}
		fmt.Fprintln(ew)
		fmt.Fprintf(ew, "  %s\n", r.out.Red(fmt.Sprintf("Build failed for %d of %d pages after %s", len(r.errors), total, formatDuration(duration))))
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  "+r.out.Green("✓ ")+"Build complete in %s\n", formatDuration(duration))
	}

	if r.outputDir != "" {
		fmt.Fprintf(w, "\n  %s\n", r.out.Gray("Output: "+r.outputDir))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.1fs", float64(d)/float64(time.Second))
}

func deduplicateStrings(items []string) []string {
	if len(items) <= 1 {
		return items
	}

	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}

	result := make([]string, 0, len(order))
	for _, item := range order {
		if counts[item] > 1 {
			result = append(result, fmt.Sprintf("%s (%d occurrences)", item, counts[item]))
		} else {
			result = append(result, item)
		}
	}

	return result
}
