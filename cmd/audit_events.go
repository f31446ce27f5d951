package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hewan-health/geoaudit/internal/audit"
	"github.com/hewan-health/geoaudit/internal/report"
	"github.com/hewan-health/geoaudit/pkg/dhis2"
)

var auditEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Audit program event coordinates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}
		program, orgUnit, outBase := auditScope()
		zs, slug, err := activeZones(auditZonesFile, auditZone, orgUnit, true)
		if err != nil {
			return err
		}

		client := initClient()

		zap.L().Info("fetching org units", zap.String("ancestor", orgUnit))
		units, err := client.OrgUnitsByAncestor(ctx, orgUnit)
		if err != nil {
			return err
		}
		idx := audit.BuildUnitIndex(units)

		auditor := audit.NewAuditor(zs, idx, audit.NewResolver())
		src := audit.EventSource{Pager: client.Events(dhis2.EventQuery{
			Program:  program,
			OrgUnit:  orgUnit,
			PageSize: cfg.DHIS2.EventPageSize,
		})}

		zap.L().Info("auditing events",
			zap.String("program", program),
			zap.String("zone", slug),
		)
		res, err := auditor.Run(ctx, src)
		if err != nil {
			return err
		}

		dir, err := outputDir(outBase, slug)
		if err != nil {
			return err
		}
		if err := writeEventOutputs(dir, res); err != nil {
			return err
		}

		report.PrintSummary(os.Stdout, res)
		fmt.Fprintf(os.Stdout, "Exports written to %s\n", dir)

		if auditSave {
			return saveRun(ctx, res, string(audit.KindEvent), slug, program, orgUnit)
		}
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditEventsCmd)
}

func writeEventOutputs(dir string, res *audit.Result) error {
	all := make([]map[string]string, 0)
	for _, r := range flattenGroups(res.Groups) {
		all = append(all, report.EventRow(r))
	}
	if err := report.WriteCSV(filepath.Join(dir, "events_distances.csv"), report.EventFieldnames(all), all); err != nil {
		return err
	}

	misplaced := make([]map[string]string, 0, len(res.Misplaced))
	for _, r := range res.Misplaced {
		misplaced = append(misplaced, report.EventRow(r))
	}
	names := report.EventFieldnames(misplaced)
	if err := report.WriteCSV(filepath.Join(dir, "events_misplaced.csv"), names, misplaced); err != nil {
		return err
	}
	if err := report.WriteXLSX(filepath.Join(dir, "events_misplaced.xlsx"), "Misplaced", names, misplaced); err != nil {
		return err
	}
	if err := report.WriteJSON(filepath.Join(dir, "events_misplaced.json"), misplaced); err != nil {
		return err
	}

	missing := make([]map[string]string, 0, len(res.Missing))
	for _, r := range res.Missing {
		missing = append(missing, report.EventMissingRow(r))
	}
	return report.WriteCSV(filepath.Join(dir, "events_missing.csv"), report.EventFieldnames(missing), missing)
}
