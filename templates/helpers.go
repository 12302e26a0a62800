// Package templates provides the dashboard pages and helper functions for
// rendering them.
package templates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
)

// FormatAge formats how long ago a system last reported, as "Xm", "Xh" or
// "Xd". A nil timestamp means the system has never reported.
func FormatAge(t *time.Time) string {
	if t == nil {
		return "never"
	}
	age := time.Since(*t)
	if age < time.Hour {
		return fmt.Sprintf("%dm", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return fmt.Sprintf("%dh", int(age.Hours()))
	}
	return fmt.Sprintf("%dd", int(age.Hours()/24))
}

// FormatTime formats a timestamp for display, or "-" when nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// StatusClass maps a status to its CSS class.
func StatusClass(s model.Status) string {
	if s == model.StatusWarning {
		return "status-warning"
	}
	return "status-ok"
}

// TagNames joins tag names for display.
func TagNames(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

// SortSystems orders systems warnings first, then by name. It sorts a copy
// so callers keep their original ordering.
func SortSystems(systems []model.System, baselines []model.Baseline, eval func(*model.System, []model.Baseline) model.Status) []model.System {
	sorted := make([]model.System, len(systems))
	copy(sorted, systems)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := eval(&sorted[i], baselines), eval(&sorted[j], baselines)
		if si != sj {
			return si == model.StatusWarning
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}
