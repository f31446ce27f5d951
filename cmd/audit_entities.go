package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hewan-health/geoaudit/internal/audit"
	"github.com/hewan-health/geoaudit/internal/report"
	"github.com/hewan-health/geoaudit/pkg/dhis2"
)

var auditEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Audit tracked-entity coordinates",
	Long:  "Audits every tracked entity in the program: resolves a coordinate from the entity's geometry or registration attribute, falls back to the registering facility, and classifies the result against the zone radius.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}
		program, orgUnit, outBase := auditScope()
		zs, slug, err := activeZones(auditZonesFile, auditZone, orgUnit, false)
		if err != nil {
			return err
		}

		client := initClient()

		// Units and attribute labels are independent lookups.
		var (
			units  []dhis2.OrgUnit
			labels map[string]string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			units, err = client.OrgUnitsByAncestor(gctx, orgUnit)
			return err
		})
		g.Go(func() error {
			var err error
			labels, err = client.AttributeLabels(gctx, program)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		idx := audit.BuildUnitIndex(units)
		headers := report.HeaderMap(labels)

		auditor := audit.NewAuditor(zs, idx, audit.NewResolver(cfg.Audit.CoordinateAttribute))
		src := audit.EntitySource{
			Pager: client.TrackedEntities(dhis2.EntityQuery{
				Program:  program,
				OrgUnit:  orgUnit,
				PageSize: cfg.DHIS2.EntityPageSize,
			}),
			NameAttrIDs: cfg.Audit.NameAttributes,
		}

		zap.L().Info("auditing tracked entities",
			zap.String("program", program),
			zap.String("zone", slug),
			zap.Int("org_units", len(units)),
		)
		res, err := auditor.Run(ctx, src)
		if err != nil {
			return err
		}

		dir, err := outputDir(outBase, slug)
		if err != nil {
			return err
		}
		if err := writeEntityOutputs(dir, res, headers, cfg.Audit.CoordinateAttribute); err != nil {
			return err
		}

		report.PrintSummary(os.Stdout, res)
		fmt.Fprintf(os.Stdout, "Exports written to %s\n", dir)

		if auditSave {
			return saveRun(ctx, res, string(audit.KindEntity), slug, program, orgUnit)
		}
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditEntitiesCmd)
}

func writeEntityOutputs(dir string, res *audit.Result, headers map[string]string, coordAttr string) error {
	all := make([]map[string]string, 0)
	for _, r := range flattenGroups(res.Groups) {
		all = append(all, report.EntityRow(r, headers, coordAttr))
	}
	if err := report.WriteCSV(filepath.Join(dir, "entities_distances.csv"), report.EntityFieldnames(all), all); err != nil {
		return err
	}

	misplaced := make([]map[string]string, 0, len(res.Misplaced))
	for _, r := range res.Misplaced {
		misplaced = append(misplaced, report.EntityRow(r, headers, coordAttr))
	}
	names := report.EntityFieldnames(misplaced)
	if err := report.WriteCSV(filepath.Join(dir, "entities_misplaced.csv"), names, misplaced); err != nil {
		return err
	}
	if err := report.WriteXLSX(filepath.Join(dir, "entities_misplaced.xlsx"), "Misplaced", names, misplaced); err != nil {
		return err
	}
	if err := report.WriteJSON(filepath.Join(dir, "entities_misplaced.json"), misplaced); err != nil {
		return err
	}

	missing := make([]map[string]string, 0, len(res.Missing))
	for _, r := range res.Missing {
		missing = append(missing, report.MissingRow(r, headers, coordAttr))
	}
	if err := report.WriteCSV(filepath.Join(dir, "entities_missing.csv"), report.MissingFieldnames(missing), missing); err != nil {
		return err
	}

	grouped := report.GroupedPayload(res.Groups, headers, coordAttr)
	return report.WriteJSON(filepath.Join(dir, "facilities.json"), grouped)
}
