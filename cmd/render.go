package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/shakilemon73/Tni-news-sub001/internal/app"
	"github.com/shakilemon73/Tni-news-sub001/internal/edge"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var userAgent string
	cmd := &cobra.Command{
		Use:   "render <slug-or-id>",
		Short: "Print the meta document a crawler would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			// One-shot renders are never throttled.
			cfg.Limits.ForcedRPS = 0
			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer func() { _ = a.Close() }()

			o := a.Endpoint().Dispatch(cmd.Context(), edge.Request{
				Path:      "/api/og",
				Query:     url.Values{"slug": {args[0]}, "force": {"1"}},
				UserAgent: userAgent,
			})
			if o.Kind != edge.KindServed {
				return fmt.Errorf("render %q: %s (status %d)", args[0], o.Kind, o.Status)
			}
			_, err = cmd.OutOrStdout().Write(o.Body)
			return err
		},
	}
	cmd.Flags().StringVar(&userAgent, "user-agent", "ogshim-cli", "User-Agent recorded with the request")
	return cmd
}
