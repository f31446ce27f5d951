// Package store persists audit runs so past results can be listed,
// compared, and served over HTTP.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hewan-health/geoaudit/internal/audit"
)

// ErrRunNotFound reports a run id with no stored row. Both backends
// return it from GetRun; check with eris.Is.
var ErrRunNotFound = eris.New("run not found")

// Run is one persisted audit run: what was audited, against which zone,
// and the headline counts. Summary holds the full audit.Summary as JSON.
type Run struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	Zone           string          `json:"zone"`
	Program        string          `json:"program,omitempty"`
	OrgUnit        string          `json:"orgUnit,omitempty"`
	Total          int             `json:"total"`
	WithCoordinate int             `json:"withCoordinate"`
	Missing        int             `json:"missing"`
	Misplaced      int             `json:"misplaced"`
	Summary        json.RawMessage `json:"summary,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// MisplacedRecord is one beyond-radius record captured with a run, kept
// queryable for follow-up without reparsing the full export.
type MisplacedRecord struct {
	RunID       string  `json:"runId"`
	RecordID    string  `json:"recordId"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name,omitempty"`
	OrgUnit     string  `json:"orgUnit,omitempty"`
	OrgUnitName string  `json:"orgUnitName,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Source      string  `json:"source"`
	DistanceKM  float64 `json:"distanceKm"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   string `json:"kind,omitempty"`
	Zone   string `json:"zone,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for audit runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run, misplaced []MisplacedRecord) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	ListMisplaced(ctx context.Context, runID string) ([]MisplacedRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New opens a store for the configured driver, either "sqlite" or
// "postgres".
func New(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// BuildRun converts a finalized audit result into a persistable run and
// its misplaced records. The run id is assigned by the caller or left
// for SaveRun to fill.
func BuildRun(res *audit.Result, kind, zone, program, orgUnit string) (*Run, []MisplacedRecord, error) {
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal summary")
	}

	run := &Run{
		Kind:           kind,
		Zone:           zone,
		Program:        program,
		OrgUnit:        orgUnit,
		Total:          res.Summary.Total,
		WithCoordinate: res.Summary.WithCoordinate,
		Missing:        res.Summary.Missing,
		Misplaced:      res.Summary.Misplaced,
		Summary:        summaryJSON,
	}

	misplaced := make([]MisplacedRecord, 0, len(res.Misplaced))
	for _, r := range res.Misplaced {
		misplaced = append(misplaced, MisplacedRecord{
			RecordID:    r.ID,
			Kind:        string(r.Record.Kind),
			Name:        r.Name,
			OrgUnit:     r.OrgUnit,
			OrgUnitName: r.UnitName,
			Latitude:    r.Point.Lat,
			Longitude:   r.Point.Lng,
			Source:      string(r.Source),
			DistanceKM:  r.DistanceKM,
		})
	}
	return run, misplaced, nil
}
