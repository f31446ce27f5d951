package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hewan-health/geoaudit/internal/audit"
	"github.com/hewan-health/geoaudit/internal/report"
)

var orgUnitsCmd = &cobra.Command{
	Use:   "orgunits",
	Short: "Export facility coordinates under the audited org unit",
	Long:  "Lists every organisation unit below the audit root with its coordinate and distance to the zone center, flagging facilities that have no location on record.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("audit"); err != nil {
			return err
		}
		_, orgUnit, outBase := auditScope()
		zs, slug, err := activeZones(auditZonesFile, auditZone, orgUnit, false)
		if err != nil {
			return err
		}

		client := initClient()
		units, err := client.OrgUnitsByAncestor(ctx, orgUnit)
		if err != nil {
			return err
		}

		rows := make([]map[string]string, 0, len(units))
		withCoordinate := 0
		for _, u := range units {
			unit := audit.UnitFromDHIS2(u)
			row := map[string]string{
				"orgUnit":     unit.ID,
				"orgUnitName": unit.Name,
			}
			if unit.Point != nil {
				withCoordinate++
				row["latitude"] = fmt.Sprintf("%.6f", unit.Point.Lat)
				row["longitude"] = fmt.Sprintf("%.6f", unit.Point.Lng)
				for _, z := range zs {
					c := z.Classify(*unit.Point)
					row["distance_to_"+z.Name+"_km"] = fmt.Sprintf("%.2f", c.DistanceKM)
					row["inside_"+z.Name] = fmt.Sprintf("%t", c.Inside)
				}
			}
			rows = append(rows, row)
		}

		dir, err := outputDir(outBase, slug)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "orgunits.csv")
		if err := report.WriteCSV(path, report.EventFieldnames(rows), rows); err != nil {
			return err
		}

		zap.L().Info("org units exported",
			zap.Int("total", len(units)),
			zap.Int("with_coordinate", withCoordinate),
		)
		fmt.Fprintf(os.Stdout, "Exported %d org units (%d with a coordinate) to %s\n",
			len(units), withCoordinate, path)
		return nil
	},
}

func init() {
	orgUnitsCmd.Flags().StringVar(&auditOrgUnit, "org-unit", "", "root org unit id (default from config)")
	orgUnitsCmd.Flags().StringVar(&auditZone, "zone", "", "zone preset slug")
	orgUnitsCmd.Flags().StringVar(&auditZonesFile, "zones-file", "", "YAML file with custom zones")
	orgUnitsCmd.Flags().StringVar(&auditOutDir, "output", "", "output directory (default from config)")
	rootCmd.AddCommand(orgUnitsCmd)
}
