package commands

import (
	"context"
	"fmt"
	"log/slog"
	"unifeed-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manages the cache configured for the server (only useful with a persistent driver).",
}

var clearable = []string{"notices", "announcement", "staff", "bus", "food", "all"}

var cacheClearCmd = &cobra.Command{
	Use:       "clear <notices|announcement|staff|bus|food|all>",
	Short:     "Removes every cached entry of a resource.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: clearable,
	Run: func(cmd *cobra.Command, args []string) {
		env := load()
		defer env.store.Close()

		if env.cfg.Cache.Driver == "" || env.cfg.Cache.Driver == "memory" {
			slog.Warn("the memory cache lives in the server process, clearing it from here has no effect")
		}

		s := env.services
		clearers := map[string]func(context.Context) (int, error){
			"notices":      s.Notices.ClearCache,
			"announcement": s.Announcement.ClearCache,
			"staff":        s.AcademicStaff.ClearCache,
			"bus":          s.Bus.ClearCache,
			"food":         s.Food.ClearCache,
		}

		targets := []string{args[0]}
		if args[0] == "all" {
			targets = clearable[:len(clearable)-1]
		}
		for _, target := range targets {
			clearFn, ok := clearers[target]
			if !ok {
				serviceutil.Fatal("failed to clear cache", fmt.Errorf("unknown resource %q", target))
			}
			removed, err := clearFn(cmd.Context())
			if err != nil {
				serviceutil.Fatal("failed to clear cache", err)
			}
			fmt.Printf("%s: removed %d entries\n", target, removed)
		}
	},
}
