package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hewan-health/geoaudit/internal/audit"
)

const unitPreviewLimit = 5

// PrintSummary writes the human-readable run summary: totals, counts by
// coordinate source, per-zone tallies, and the data-quality gaps that
// need follow-up.
func PrintSummary(w io.Writer, res *audit.Result) {
	s := res.Summary
	fmt.Fprintf(w, "Checked %d records\n", s.Total)
	fmt.Fprintf(w, "  with own or facility coordinate: %d\n", s.WithCoordinate)
	fmt.Fprintf(w, "    from the record itself:        %d\n", s.FromSelf)
	fmt.Fprintf(w, "    from the registering facility: %d\n", s.FromUnit)
	for _, src := range sortedSources(s.BySource) {
		fmt.Fprintf(w, "      %-11s %d\n", string(src)+":", s.BySource[src])
	}
	fmt.Fprintf(w, "  without any coordinate:          %d\n", s.Missing)
	fmt.Fprintf(w, "  beyond the zone radius:          %d\n", s.Misplaced)

	for _, z := range res.Zones {
		tally := s.Zones[z.Name]
		fmt.Fprintf(w, "Zone %s (radius %.2f km): %d inside, %d outside\n",
			z.Name, z.RadiusKM, tally.Inside, tally.Outside)
	}

	if s.MissingUnitID > 0 {
		fmt.Fprintf(w, "Records with no organisation unit id: %d\n", s.MissingUnitID)
	}
	if n := len(s.UnitsWithoutCoordinate); n > 0 {
		fmt.Fprintf(w, "Facilities without a coordinate: %d (%s)\n",
			n, previewIDs(s.UnitsWithoutCoordinate))
	}
}

func sortedSources(bySource map[audit.Source]int) []audit.Source {
	out := make([]audit.Source, 0, len(bySource))
	for src := range bySource {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func previewIDs(ids []string) string {
	if len(ids) <= unitPreviewLimit {
		return strings.Join(ids, ", ")
	}
	return strings.Join(ids[:unitPreviewLimit], ", ") + ", ..."
}
