package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"WikiFetch/internal/app"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		site       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Full-text search on a wiki site",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return c.withApp(cmd.Context(), func(a *app.Application) error {
				results, err := a.Search(cmd.Context(), site, term)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}

				if suggestion, ok := results.Suggestion(); ok {
					fmt.Fprintf(out, "Did you mean: %s\n", suggestion)
				}
				if results.NoResults() {
					fmt.Fprintf(out, "No results for %q\n", results.SearchTerm())
					return nil
				}
				for i, hit := range results.Results() {
					fmt.Fprintf(out, "%2d. %s\n", i+1, hit.Title)
					if hit.Snippet != "" {
						fmt.Fprintf(out, "    %s\n", hit.Snippet)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "wiki site (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
