package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/credit-risk-model/internal/cli"
	"github.com/Veraticus/credit-risk-model/internal/model"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs",
		RunE:  runListRuns,
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the parameters, metrics and labels of a run (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShowRun,
	}
	show.Flags().Bool("high-risk", false, "list the customers labeled high risk")

	del := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its labels",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteRun,
	}

	cmd.AddCommand(show, del)
	return cmd
}

func runListRuns(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), s.Paths.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderRuns(runs))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), s.Paths.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var run *model.TrainingRun
	if len(args) == 1 {
		run, err = store.GetRun(cmd.Context(), args[0])
	} else {
		run, err = store.LatestRun(cmd.Context())
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Started:   %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), run.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "Snapshot:  %s\n", run.Snapshot.Format(time.DateOnly))
	fmt.Fprintf(&b, "Data:      %s (%d rows)\n", run.DataPath, run.Rows)
	fmt.Fprintf(&b, "Artifacts: %s, %s\n", run.PipelinePath, run.ModelPath)
	fmt.Fprintf(&b, "Customers: %d, %d high risk (cluster %d)\n", run.Customers, run.HighRisk, run.RiskCluster)
	fmt.Fprintf(&b, "Best iteration: %d\n", run.BestIteration)
	b.WriteString("\nParameters:\n")
	for _, k := range sortedKeys(run.Params) {
		fmt.Fprintf(&b, "  • %s: %v\n", k, run.Params[k])
	}
	b.WriteString("\nMetrics:\n")
	for _, k := range sortedKeys(run.Metrics) {
		fmt.Fprintf(&b, "  • %s: %.4f\n", k, run.Metrics[k])
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderBox("Run "+run.ID, strings.TrimRight(b.String(), "\n")))

	if highRisk, _ := cmd.Flags().GetBool("high-risk"); highRisk {
		labels, err := store.GetLabels(cmd.Context(), run.ID, true)
		if err != nil {
			return err
		}
		for _, l := range labels {
			fmt.Fprintf(out, "%s\trecency=%d\tfrequency=%d\tmonetary=%.2f\n",
				l.CustomerID, l.Recency, l.Frequency, l.Monetary)
		}
	}
	return nil
}

func runDeleteRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), s.Paths.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+args[0]))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
