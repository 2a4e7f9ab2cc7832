package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var importFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every link as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		return exportLinks(cmd.Context(), repo, cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert links from a JSON export, skipping codes that already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close()

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		count, err := importLinks(cmd.Context(), repo, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d links\n", count)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file to import (required)")
	_ = importCmd.MarkFlagRequired("file")
}

func exportLinks(ctx context.Context, repo ports.LinkRepository, w io.Writer) error {
	links, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if links == nil {
		links = []domain.Link{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(links)
}

// importLinks re-inserts exported links. Owners are not carried across
// databases, so imported links become anonymous.
func importLinks(ctx context.Context, repo ports.LinkRepository, r io.Reader) (int, error) {
	var links []domain.Link
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}

	log := logger.FromContext(ctx)
	count := 0
	for i := range links {
		l := &links[i]
		existing, err := repo.GetByShortCode(ctx, l.ShortCode)
		if err != nil {
			return count, err
		}
		if existing != nil {
			log.Info("skipping existing code", "short_code", l.ShortCode)
			continue
		}

		l.UserID = ""
		if err := repo.Create(ctx, l); err != nil {
			log.Warn("failed to import link", "short_code", l.ShortCode, "error", err)
			continue
		}
		count++
	}
	return count, nil
}
