package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
)

var statsCode string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show click statistics for a short code",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		stats, err := app.NewLinkService(repo, cfg.Links).GetStats(cmd.Context(), statsCode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Code:        %s\n", stats.Link.ShortCode)
		fmt.Fprintf(out, "Destination: %s\n", stats.Link.OriginalURL)
		fmt.Fprintf(out, "Clicks:      %d\n", stats.TotalClicks)
		if len(stats.Referrers) > 0 {
			fmt.Fprintln(out, "Referrers:")
			for ref, n := range stats.Referrers {
				fmt.Fprintf(out, "  %-40s %d\n", ref, n)
			}
		}
		if len(stats.DailyClicks) > 0 {
			fmt.Fprintln(out, "Daily:")
			for _, d := range stats.DailyClicks {
				fmt.Fprintf(out, "  %s %d\n", d.Date, d.Count)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsCode, "code", "c", "", "short code to inspect (required)")
	_ = statsCmd.MarkFlagRequired("code")
}
