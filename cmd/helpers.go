package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/hewan-health/geoaudit/internal/geo"
	"github.com/hewan-health/geoaudit/internal/store"
	"github.com/hewan-health/geoaudit/internal/zones"
	"github.com/hewan-health/geoaudit/pkg/dhis2"
)

func initClient() *dhis2.Client {
	return dhis2.New(dhis2.Options{
		BaseURL:    cfg.DHIS2.BaseURL,
		Username:   cfg.DHIS2.Username,
		Password:   cfg.DHIS2.Password,
		Timeout:    cfg.DHIS2.Timeout(),
		MaxRetries: cfg.DHIS2.MaxRetries,
		RateLimit:  rate.Limit(cfg.DHIS2.RatePerSec),
	})
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// activeZones resolves which zones the audit runs against, in order of
// preference: an explicit zones file, a named preset, then the preset
// registered for the audited org unit. Events and tracked-entity audits
// can carry separately surveyed presets for the same org unit. The
// returned slug names the output subdirectory.
func activeZones(zonesFile, zoneSlug, orgUnitID string, events bool) ([]geo.Zone, string, error) {
	if zonesFile != "" {
		zs, err := zones.LoadFile(zonesFile)
		if err != nil {
			return nil, "", err
		}
		return zs, zs[0].Name, nil
	}

	if zoneSlug != "" {
		p, ok := zones.BySlug(zoneSlug)
		if !ok {
			return nil, "", eris.Errorf("unknown zone %q", zoneSlug)
		}
		return []geo.Zone{p.Zone}, p.Slug, nil
	}

	p := zones.ForOrgUnit(orgUnitID)
	if events {
		p = zones.ForEvents(orgUnitID)
	}
	return []geo.Zone{p.Zone}, p.Slug, nil
}

// outputDir creates and returns the per-zone export directory.
func outputDir(base, slug string) (string, error) {
	dir := filepath.Join(base, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create output dir %s", dir)
	}
	return dir, nil
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
