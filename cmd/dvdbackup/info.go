package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bamsammich/dvdbackup/internal/catalog"
	"github.com/bamsammich/dvdbackup/internal/config"
	"github.com/bamsammich/dvdbackup/internal/engine"
	"github.com/bamsammich/dvdbackup/internal/platform"
	"github.com/bamsammich/dvdbackup/internal/ui"
)

func newInfoCmd(stdout io.Writer) *cobra.Command {
	var (
		vts  int
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "info [device]",
		Short: "Show the disc's title sets and the files a backup would write",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("vts") && (vts < 1 || vts > catalog.MaxTitleSets) {
				return errors.New("VTS must be between 1 and 99")
			}
			device := platform.DefaultDevice
			if cfg, err := config.Load(); err == nil && cfg.Defaults.Device != nil {
				device = *cfg.Defaults.Device
			}
			if len(args) > 0 {
				device = args[0]
			}

			disc, err := openDevice(cmd.Context(), device, wait)
			if err != nil {
				return err
			}
			defer disc.Close()

			cat, err := catalog.Build(disc)
			if err != nil {
				return err
			}
			id, err := disc.ID()
			if err != nil {
				id = "unknown"
			}

			fmt.Fprintf(stdout, "Title:      %s\n", disc.Title())
			fmt.Fprintf(stdout, "Provider:   %s\n", cat.Provider)
			fmt.Fprintf(stdout, "Disc ID:    %s\n", id)
			fmt.Fprintf(stdout, "Title sets: %d\n", cat.Count())
			fmt.Fprintln(stdout, catalogTable(cat))
			fmt.Fprintln(stdout, planTable(engine.Plan(cat, vts)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&vts, "vts", "T", 0, "show the plan for title set N (1-99) only")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait up to a minute for the drive to become ready")
	return cmd
}

func catalogTable(cat *catalog.Catalog) string {
	rows := make([][]string, 0, cat.Len())
	for _, ts := range cat.All() {
		status := "ok"
		if !ts.Valid {
			status = ts.Reason
		}
		menu := "-"
		if m := ts.Menu(); m.Present {
			menu = strconv.FormatInt(m.Blocks, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(ts.Index),
			status,
			yesNo(ts.HasInfo),
			yesNo(ts.HasBackup),
			menu,
			strconv.Itoa(ts.VOBs),
			strconv.FormatInt(ts.TitleBlocks(), 10),
			ui.FormatBytes(ts.Size),
		})
	}
	return renderTable(
		[]string{"VTS", "Status", "IFO", "BUP", "Menu blocks", "VOBs", "Title blocks", "Size"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func planTable(plan []engine.Group) string {
	var rows [][]string
	for _, g := range plan {
		for _, e := range g.Entries {
			rows = append(rows, []string{
				g.Pass.String(),
				strconv.Itoa(g.VTS),
				e.Name,
				strconv.FormatInt(e.Start, 10),
				strconv.FormatInt(e.Blocks, 10),
				ui.FormatBytes(e.Size),
			})
		}
	}
	return renderTable(
		[]string{"Pass", "VTS", "File", "Start", "Blocks", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
	)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
