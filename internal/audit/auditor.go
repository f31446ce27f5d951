package audit

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/hewan-health/geoaudit/internal/geo"
)

// MissingReason tags records that resolved through no source at all.
const MissingReason = "No coordinate in geometry or attribute"

// RecordSource produces pages of records. A nil or empty page ends the
// stream; page sizes are whatever the producer chooses.
type RecordSource interface {
	Next(ctx context.Context) ([]Record, error)
}

// ClassifiedRecord is a record with its resolved coordinate and zone
// verdicts. Immutable once created.
type ClassifiedRecord struct {
	Record
	Point    geo.Point
	Source   Source
	UnitName string

	// Zones holds the verdict per active zone; DistanceKM and Misplaced
	// summarize against the primary (first) zone and the full zone set.
	Zones      map[string]geo.Classification
	DistanceKM float64
	Misplaced  bool

	// Facility-relative distances, present when the record's unit has a
	// location of its own. CombinedKM is the routed proxy: unit-to-center
	// plus record-to-unit, not a direct geodesic.
	ToUnitKM       *float64
	UnitDistanceKM *float64
	CombinedKM     *float64
}

// MissingRecord is a record with no coordinate in any source. The raw
// attribute payload is retained for manual follow-up.
type MissingRecord struct {
	Record
	UnitName string
	Reason   string
}

// FacilityGroup buckets classified records by organisation unit.
type FacilityGroup struct {
	UnitID     string
	UnitName   string
	Point      *geo.Point
	DistanceKM *float64 // unit distance to the primary zone center
	Records    []ClassifiedRecord
}

// ZoneTally counts verdicts for one zone.
type ZoneTally struct {
	Inside  int
	Outside int
}

// Summary tallies one audit run.
type Summary struct {
	Total          int
	WithCoordinate int
	FromSelf       int
	FromUnit       int
	BySource       map[Source]int
	Missing        int
	Misplaced      int
	MissingUnitID  int

	// Units referenced by at least one record but lacking a location of
	// their own; deduplicated and sorted.
	UnitsWithoutCoordinate []string

	Zones map[string]ZoneTally
}

// Result is the finalized classification result set handed to the
// output layer.
type Result struct {
	Zones     []geo.Zone
	Inside    []ClassifiedRecord
	Misplaced []ClassifiedRecord
	Missing   []MissingRecord
	Groups    []FacilityGroup
	Summary   Summary
}

// Auditor resolves, classifies, and aggregates records against the
// active zones. It is single-pass and not safe for concurrent use.
type Auditor struct {
	zones    []geo.Zone
	units    UnitIndex
	resolver *Resolver

	// unit distance to the primary zone center, for units with a location
	unitKM map[string]float64

	inside    []ClassifiedRecord
	misplaced []ClassifiedRecord
	missing   []MissingRecord
	groups    map[string]*FacilityGroup
	gapUnits  map[string]struct{}
	summary   Summary
}

// NewAuditor creates an auditor for the given zones. The first zone is
// the primary audit boundary; additional zones are classified
// independently. The unit index must be fully built before records flow.
func NewAuditor(zones []geo.Zone, units UnitIndex, resolver *Resolver) *Auditor {
	unitKM := make(map[string]float64)
	if len(zones) > 0 {
		for id, u := range units {
			if u.Point != nil {
				unitKM[id] = geo.HaversineKM(zones[0].Center, *u.Point)
			}
		}
	}
	return &Auditor{
		zones:    zones,
		units:    units,
		resolver: resolver,
		unitKM:   unitKM,
		groups:   make(map[string]*FacilityGroup),
		gapUnits: make(map[string]struct{}),
		summary:  Summary{BySource: make(map[Source]int), Zones: make(map[string]ZoneTally)},
	}
}

// Run consumes the source to exhaustion and finalizes the result. Any
// source error aborts the run with page context attached; everything the
// auditor computes itself is bookkeeping, never an error.
func (a *Auditor) Run(ctx context.Context, src RecordSource) (*Result, error) {
	for page := 1; ; page++ {
		records, err := src.Next(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "audit: fetch page %d", page)
		}
		if len(records) == 0 {
			break
		}
		for _, r := range records {
			a.Add(r)
		}
	}
	return a.Finalize(), nil
}

// Add resolves and classifies a single record.
func (a *Auditor) Add(r Record) {
	a.summary.Total++

	unit, unitKnown := a.units[r.OrgUnit]
	unitName := unit.Name
	if unitName == "" {
		unitName = r.Fields["orgUnitName"]
	}

	if r.OrgUnit == "" {
		a.summary.MissingUnitID++
	} else if !unitKnown || unit.Point == nil {
		a.gapUnits[r.OrgUnit] = struct{}{}
	}

	res := a.resolver.Resolve(r, a.units)
	if res.Source == SourceNone {
		a.summary.Missing++
		a.missing = append(a.missing, MissingRecord{Record: r, UnitName: unitName, Reason: MissingReason})
		return
	}

	a.summary.WithCoordinate++
	a.summary.BySource[res.Source]++
	if res.Source.Self() {
		a.summary.FromSelf++
	} else {
		a.summary.FromUnit++
	}

	cr := ClassifiedRecord{
		Record:   r,
		Point:    res.Point,
		Source:   res.Source,
		UnitName: unitName,
		Zones:    geo.ClassifyAll(a.zones, res.Point),
	}

	cr.Misplaced = len(a.zones) > 0
	for _, z := range a.zones {
		verdict := cr.Zones[z.Name]
		tally := a.summary.Zones[z.Name]
		if verdict.Inside {
			tally.Inside++
			cr.Misplaced = false
		} else {
			tally.Outside++
		}
		a.summary.Zones[z.Name] = tally
	}
	if len(a.zones) > 0 {
		cr.DistanceKM = cr.Zones[a.zones[0].Name].DistanceKM
	}

	if unitKnown && unit.Point != nil {
		toUnit := geo.HaversineKM(*unit.Point, res.Point)
		cr.ToUnitKM = &toUnit
		if d, ok := a.unitKM[r.OrgUnit]; ok {
			unitDist := d
			combined := unitDist + toUnit
			cr.UnitDistanceKM = &unitDist
			cr.CombinedKM = &combined
		}
	}

	if cr.Misplaced {
		a.summary.Misplaced++
		a.misplaced = append(a.misplaced, cr)
	} else {
		a.inside = append(a.inside, cr)
	}

	g := a.group(r.OrgUnit, unitKnown, unit)
	g.Records = append(g.Records, cr)
}

func (a *Auditor) group(unitID string, unitKnown bool, unit Unit) *FacilityGroup {
	key := unitID
	if key == "" {
		key = "UNKNOWN"
	}
	if g, ok := a.groups[key]; ok {
		return g
	}

	g := &FacilityGroup{UnitID: unitID, UnitName: unit.Name}
	switch {
	case unitID == "":
		g.UnitName = "Missing Org Unit"
	case g.UnitName == "":
		g.UnitName = "Unknown Facility"
	}
	if unitKnown && unit.Point != nil {
		p := *unit.Point
		g.Point = &p
		if d, ok := a.unitKM[unitID]; ok {
			dist := d
			g.DistanceKM = &dist
		}
	}
	a.groups[key] = g
	return g
}

// Finalize orders the accumulated results deterministically and returns
// the result set: groups by unit display name, members and record lists
// by unit name then record id.
func (a *Auditor) Finalize() *Result {
	byUnitThenID := func(records []ClassifiedRecord) {
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].UnitName != records[j].UnitName {
				return records[i].UnitName < records[j].UnitName
			}
			return records[i].ID < records[j].ID
		})
	}
	byUnitThenID(a.inside)
	byUnitThenID(a.misplaced)

	sort.SliceStable(a.missing, func(i, j int) bool {
		if a.missing[i].UnitName != a.missing[j].UnitName {
			return a.missing[i].UnitName < a.missing[j].UnitName
		}
		return a.missing[i].ID < a.missing[j].ID
	})

	groups := make([]FacilityGroup, 0, len(a.groups))
	for _, g := range a.groups {
		sort.SliceStable(g.Records, func(i, j int) bool {
			return g.Records[i].ID < g.Records[j].ID
		})
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].UnitName != groups[j].UnitName {
			return groups[i].UnitName < groups[j].UnitName
		}
		return groups[i].UnitID < groups[j].UnitID
	})

	gaps := make([]string, 0, len(a.gapUnits))
	for id := range a.gapUnits {
		gaps = append(gaps, id)
	}
	sort.Strings(gaps)
	a.summary.UnitsWithoutCoordinate = gaps

	return &Result{
		Zones:     a.zones,
		Inside:    a.inside,
		Misplaced: a.misplaced,
		Missing:   a.missing,
		Groups:    groups,
		Summary:   a.summary,
	}
}
