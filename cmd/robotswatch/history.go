package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aleister1102/robotswatch/internal/datastore"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/scheduler"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit   int
		siteURL string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs, or the check history of one site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}

			if siteURL != "" {
				u, err := urlhandler.ValidateSiteURL(urlhandler.NormalizeSiteURL(siteURL))
				if err != nil {
					return err
				}
				store := datastore.NewFileRecordStore(e.cfg.StorageConfig.DataDir, datastore.NewSiteMutexManager(e.logger), e.logger)
				siteDir := store.SiteDir(urlhandler.SiteKey(u))
				records, err := datastore.NewParquetCheckHistory(e.cfg.StorageConfig, e.logger).Read(siteDir)
				if err != nil {
					return err
				}
				if limit > 0 && len(records) > limit {
					records = records[:limit]
				}
				return writeCheckHistory(cmd.OutOrStdout(), records)
			}

			db, err := scheduler.NewRunHistoryDB(e.cfg.SchedulerConfig.SQLiteDBPath, e.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.RecentRuns(limit)
			if err != nil {
				return err
			}
			return writeRunHistory(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show")
	cmd.Flags().StringVar(&siteURL, "site", "", "Show the per-check history of this site URL")
	return cmd
}

func writeRunHistory(w io.Writer, runs []models.RunHistoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tTRIGGER\tSTARTED\tDURATION\tSTATUS\tSITES\tNO CHANGE\tCHANGED\tFIRST RUN\tERRORS")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.RunID, r.Trigger, r.StartedAt.Local().Format(time.DateTime), duration, r.Status,
			r.SiteCount, r.NoChange, r.Changed, r.FirstRun, r.Errors)
	}
	return tw.Flush()
}

func writeCheckHistory(w io.Writer, records []models.CheckHistoryRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKED\tOUTCOME\tSIZE\tHASH\tDETAILS")
	for _, r := range records {
		hash := r.ContentHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		details := r.Message
		if r.ErrorClass != "" {
			details = r.ErrorClass + ": " + details
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.CheckedAt.Local().Format(time.DateTime), r.Outcome, r.ContentSize, hash, details)
	}
	return tw.Flush()
}
