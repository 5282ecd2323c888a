package cmd

import (
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/catalog/internal/errors"
	"github.com/Aman-CERP/catalog/internal/output"
	"github.com/Aman-CERP/catalog/internal/search"
)

type resultFlags struct {
	jsonOutput bool
	long       bool
	limit      int
}

func (f *resultFlags) register(cmd *cobra.Command, limitDefault int, limitHelp string) {
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&f.long, "long", "l", false, "Show size, mtime and status")
	cmd.Flags().IntVar(&f.limit, "limit", limitDefault, limitHelp)
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var in search.FilterInput
	rf := &resultFlags{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find catalog entries by path",
		Long: `Find entries whose absolute path contains query, ignoring case. An empty
query matches everything, so filters alone can be used.

Only active entries are returned. Files removed from disk stay in the
catalog as deleted and can be seen with 'catalog export'.

Examples:
  catalog search report --ext pdf,docx
  catalog search --after 2024-01-01 --min-size 100MB
  catalog search invoice --root ~/Documents --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rf.limit < 0 {
				return cerrors.UserInputError("--limit must not be negative", nil)
			}
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			filters, err := search.ParseFilters(a.st, in, time.Local)
			if err != nil {
				return err
			}

			q := search.Query{Filters: filters, Limit: rf.limit}
			if len(args) > 0 {
				q.Text = args[0]
			}
			results, err := search.New().Search(cmd.Context(), a.st, q)
			if err != nil {
				return err
			}
			return printResults(cmd, a, rf, results)
		},
	}

	cmd.Flags().StringVar(&in.Ext, "ext", "", "Comma separated extensions (pdf,docx)")
	cmd.Flags().StringVar(&in.After, "after", "", "Modified on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Before, "before", "", "Modified on or before date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.MinSize, "min-size", "", "Minimum size (e.g. 10MB)")
	cmd.Flags().StringVar(&in.MaxSize, "max-size", "", "Maximum size (e.g. 1GiB)")
	cmd.Flags().StringVar(&in.Root, "root", "", "Only entries under this configured root")
	rf.register(cmd, 0, "Maximum results (0 = all)")
	return cmd
}

func newRecentCmd(flags *globalFlags) *cobra.Command {
	var (
		days int
		in   search.FilterInput
	)
	rf := &resultFlags{}

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List entries modified recently, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 || rf.limit < 0 {
				return cerrors.UserInputError("--days and --limit must not be negative", nil)
			}
			a, err := openApp(flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.cfg.Search.RecentDays
			}
			if !cmd.Flags().Changed("limit") {
				rf.limit = a.cfg.Search.RecentLimit
			}
			filters, err := search.ParseFilters(a.st, in, time.Local)
			if err != nil {
				return err
			}

			results, err := search.New().Recent(cmd.Context(), a.st, search.RecentQuery{
				Days:    days,
				Limit:   rf.limit,
				Now:     time.Now(),
				Filters: filters,
			})
			if err != nil {
				return err
			}
			return printResults(cmd, a, rf, results)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Look back this many days")
	cmd.Flags().StringVar(&in.Ext, "ext", "", "Comma separated extensions")
	cmd.Flags().StringVar(&in.Root, "root", "", "Only entries under this configured root")
	rf.register(cmd, 50, "Maximum results")
	return cmd
}

func printResults(cmd *cobra.Command, a *app, rf *resultFlags, results []search.Result) error {
	out := output.New(cmd.OutOrStdout())
	if a.wantJSON(rf.jsonOutput) {
		return out.ResultsJSON(results)
	}
	out.Results(results, rf.long)
	return nil
}
