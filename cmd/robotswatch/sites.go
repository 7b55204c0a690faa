package main

import (
	"fmt"
	"io"

	"github.com/aleister1102/robotswatch/internal/sitesource"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/spf13/cobra"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Inspect the site list",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Report site list rows that a run would skip or fail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			source := sitesource.NewCSVSiteSource(e.cfg.MonitorConfig.SitesFile, e.logger)
			loaded, err := source.Load()
			if err != nil {
				return err
			}
			problems := writeSiteReport(cmd.OutOrStdout(), source.Path(), loaded)
			if problems > 0 {
				return fmt.Errorf("%d problem(s) in %s", problems, source.Path())
			}
			return nil
		},
	})
	return cmd
}

// writeSiteReport prints one line per problem and returns how many were found.
func writeSiteReport(w io.Writer, path string, loaded sitesource.LoadResult) int {
	problems := len(loaded.RowErrors)
	for _, msg := range loaded.RowErrors {
		fmt.Fprintln(w, msg)
	}
	for _, site := range loaded.Sites {
		if _, err := urlhandler.ValidateSiteURL(site.URL); err != nil {
			problems++
			fmt.Fprintf(w, "%s (%s): %v\n", site.URL, site.Name, err)
		}
	}
	fmt.Fprintf(w, "%s: %d site(s), %d problem(s)\n", path, len(loaded.Sites), problems)
	return problems
}
