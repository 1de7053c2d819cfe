package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/store/sqlite"
)

// seedFile is the JSON layout accepted by the seed command.
type seedFile struct {
	SiteSettings *article.SiteSettings `json:"site_settings"`
	Articles     []article.Article     `json:"articles"`
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var (
		file   string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load articles and site settings into a SQLite store",
		Long: `Reads a JSON file of the form {"site_settings": {...}, "articles": [...]}
and upserts it into the SQLite database used by the sqlite store backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Store.SQLitePath
			}

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var seed seedFile
			if err := json.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			s, err := sqlite.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			if seed.SiteSettings != nil {
				if err := s.SaveSiteSettings(ctx, *seed.SiteSettings); err != nil {
					return err
				}
			}
			for _, a := range seed.Articles {
				if err := s.SaveArticle(ctx, a); err != nil {
					return fmt.Errorf("seed article %q: %w", a.Slug, err)
				}
			}
			logger.Info("seed complete",
				zap.String("db", dbPath),
				zap.Int("articles", len(seed.Articles)),
				zap.Bool("site_settings", seed.SiteSettings != nil))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d articles into %s\n", len(seed.Articles), dbPath)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed JSON file (required)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite path (defaults to store.sqlite_path)")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("mark file flag required: %v", err))
	}
	return cmd
}
