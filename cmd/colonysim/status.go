package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/persistence"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a summary of the saved colony",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := persistence.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			sim, err := db.LoadColony()
			if errors.Is(err, persistence.ErrNoSave) {
				fmt.Fprintf(cmd.OutOrStdout(), "No colony saved at %s\n", cfg.Database.Path)
				return nil
			}
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), sim.Snapshot())
			return nil
		},
	}
}

func printStatus(w io.Writer, snap engine.Snapshot) {
	state := "thriving"
	if snap.Collapsed {
		state = "collapsed"
	}
	fmt.Fprintf(w, "Colony %s, %s day (%s)\n", snap.RunID, humanize.Ordinal(int(snap.Day)), state)
	fmt.Fprintf(w, "  population  %s (%s employed, %s homeless)\n",
		humanize.Comma(int64(snap.Stats.Population)),
		humanize.Comma(int64(snap.Stats.Employed)),
		humanize.Comma(int64(snap.Stats.Homeless)))
	fmt.Fprintf(w, "  happiness   %.1f   health %.1f\n", snap.Stats.AvgHappiness, snap.Stats.AvgHealth)
	fmt.Fprintf(w, "  housing     %d/%d slots used\n",
		snap.Housing.Capacity-snap.Housing.Vacancies, snap.Housing.Capacity)
	fmt.Fprintf(w, "  lifetime    %s births, %s deaths, %s departures\n",
		humanize.Comma(int64(snap.Stats.Births)),
		humanize.Comma(int64(snap.Stats.Deaths)),
		humanize.Comma(int64(snap.Stats.Departures)))

	fmt.Fprintln(w, "Resources")
	for _, r := range economy.AllResources {
		fmt.Fprintf(w, "  %-9s %s\n", r, humanize.CommafWithDigits(snap.Resources[r], 2))
	}

	fmt.Fprintln(w, "Buildings")
	kinds := make([]string, 0, len(snap.Counts))
	for k := range snap.Counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-24s %d\n", k, snap.Counts[k])
	}

	fmt.Fprintf(w, "Portfolio %s credits (%s in shares)\n",
		humanize.CommafWithDigits(snap.Portfolio.TotalValue, 2),
		humanize.CommafWithDigits(snap.Portfolio.StockValue, 2))
}
