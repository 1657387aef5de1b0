package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"WikiFetch/internal/app"
)

func newFetchCmd(c *cli) *cobra.Command {
	var (
		site       string
		jsonOutput bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <title>",
		Short: "Fetch one article",
		Long: `Fetch one article, write it through to the store and print it.

Progress is reported on stderr; the article goes to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			progress := func(fraction float64) {
				if !quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rfetching %s: %3.0f%%", name, fraction*100)
				}
			}

			return c.withApp(cmd.Context(), func(a *app.Application) error {
				result, err := a.Fetch(cmd.Context(), site, name, progress)
				if !quiet {
					fmt.Fprintln(cmd.ErrOrStderr())
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}

				article := result.Content()
				heading := article.DisplayTitle
				if heading == "" {
					heading = result.Title.Name
				}
				fmt.Fprintf(out, "%s (%s, revision %d)\n\n", heading, result.Title.Site, article.Revision)
				fmt.Fprintln(out, article.Text())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "wiki site (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}
