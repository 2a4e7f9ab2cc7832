package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var (
	createURL       string
	createAlias     string
	createExpiresIn time.Duration
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Shorten a URL as an anonymous link",
	Example: `  shortlink-cli create --url "https://example.com/page.html"
  shortlink-cli create --url "https://example.com/docs.pdf" --alias docs --expires-in 72h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		linkCfg := cfg.Links
		linkCfg.AllowAnonymous = true
		service := app.NewLinkService(repo, linkCfg)

		in := ports.CreateLinkInput{OriginalURL: createURL, CustomAlias: createAlias}
		if createExpiresIn > 0 {
			expires := time.Now().Add(createExpiresIn).UTC()
			in.ExpiresAt = &expires
		}

		link, err := service.Create(cmd.Context(), in)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Code: %s\n", link.ShortCode)
		fmt.Fprintf(out, "URL:  %s/%s\n", cfg.BaseURL, link.ShortCode)
		if link.ExpiresAt != nil {
			fmt.Fprintf(out, "Expires: %s\n", link.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createURL, "url", "u", "", "URL to shorten (required)")
	createCmd.Flags().StringVarP(&createAlias, "alias", "a", "", "custom alias instead of a generated code")
	createCmd.Flags().DurationVar(&createExpiresIn, "expires-in", 0, "lifetime of the link, e.g. 24h")
	_ = createCmd.MarkFlagRequired("url")
}
