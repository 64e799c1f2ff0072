package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/evaluation"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

func newRankCmd(root *rootOptions) *cobra.Command {
	var dryRun bool
	var top int
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Compute the ranking from the database",
		Long:  "Evaluate the stored comparisons and scores, save the ranking as a new run and print it. --dry-run prints without saving.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts, err := cfg.EngineOptions()
			if err != nil {
				return err
			}
			logger := stderrLogger(cfg)

			db, err := store.NewPostgresStore(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			svc := evaluation.New(db, nil, ahp.NewEngine(opts), nil, cfg, logger)
			return runRank(cmd.Context(), svc, dryRun, top, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the ranking without saving a run")
	cmd.Flags().IntVar(&top, "top", 0, "show only the first N teachers (0 for all)")
	return cmd
}

func runRank(ctx context.Context, svc *evaluation.Service, dryRun bool, top int, w io.Writer) error {
	var ev *ahp.Evaluation
	var run *store.RankingRun
	var err error
	if dryRun {
		ev, err = svc.Preview(ctx)
	} else {
		run, ev, err = svc.Recompute(ctx, "cli")
	}
	if err != nil {
		return err
	}

	ranking := ev.Ranking
	if top > 0 && top < len(ranking) {
		ranking = ranking[:top]
	}
	if err := writeRankingTable(w, ranking); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "criteria CR: %.4f (%s)\n", ev.Criteria.CR, ev.Criteria.Consistency); err != nil {
		return err
	}
	for _, warning := range ev.Warnings() {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warning); err != nil {
			return err
		}
	}
	if run != nil {
		_, err = fmt.Fprintf(w, "saved run %s\n", run.ID)
	} else {
		_, err = fmt.Fprintln(w, "dry run, nothing saved")
	}
	return err
}

func writeRankingTable(w io.Writer, ranking []ahp.RankedResult) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Teacher", "ID", "Total"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(ranking))
	for _, r := range ranking {
		data = append(data, []string{
			strconv.Itoa(r.Rank),
			r.Name,
			strconv.FormatInt(r.EntityID, 10),
			strconv.FormatFloat(r.Total, 'f', 2, 64),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
