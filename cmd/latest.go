package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Browse recently updated series",
	Args:  cobra.NoArgs,
	RunE:  latestRun,
}

func latestRun(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	results, err := a.site.Latest(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting latest: %w", err)
	}
	return a.pickSeries(cmd.Context(), "Latest", results)
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Browse popular series",
	Args:  cobra.NoArgs,
	RunE:  popularRun,
}

func popularRun(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	results, err := a.site.Popular(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting popular: %w", err)
	}
	return a.pickSeries(cmd.Context(), "Popular", results)
}
