// Package report renders finalized audit results: CSV sheets, facility-
// grouped JSON, XLSX workbooks, and the console summary.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]+`)

// SanitizeHeader reduces a label to a CSV-friendly column name.
func SanitizeHeader(label string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(label, "_"), "_")
}

// HeaderMap maps attribute ids to unique, sanitized column names.
// Collisions get a numeric suffix; ids are processed in sorted order so
// the assignment is stable between runs.
func HeaderMap(labels map[string]string) map[string]string {
	ids := make([]string, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	used := make(map[string]bool, len(ids))
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		base := SanitizeHeader(labels[id])
		if base == "" {
			base = id
		}
		candidate := base
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		used[candidate] = true
		out[id] = candidate
	}
	return out
}
