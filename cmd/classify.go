package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shakilemon73/Tni-news-sub001/internal/botdetect"
)

func newClassifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [user-agent...]",
		Short: "Report whether User-Agent strings are crawlers",
		Long: `Classifies each argument, or each line of stdin when no arguments are
given, and prints "bot<TAB>token" or "human" per input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			c := botdetect.New(cfg.Bots.ExtraSignatures...)
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, ua := range args {
					if err := printClassification(out, c, ua); err != nil {
						return err
					}
				}
				return nil
			}
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				if err := printClassification(out, c, sc.Text()); err != nil {
					return err
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read user agents: %w", err)
			}
			return nil
		},
	}
}

func printClassification(w io.Writer, c *botdetect.Classifier, ua string) error {
	if tok, ok := c.Match(ua); ok {
		_, err := fmt.Fprintf(w, "bot\t%s\n", tok)
		return err
	}
	_, err := fmt.Fprintln(w, "human")
	return err
}
