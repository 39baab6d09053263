package cmd

import (
	"fmt"

	"github.com/phototrack/phototrack/datequery"
	"github.com/phototrack/phototrack/model"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <date>",
	Short: "Find the photo closest to a date and describe the gap",
	Long: `Finds the stored photo nearest the given date and prints how far
apart they are. With --offset, looks for the photo closest to the date
that many days earlier instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

var (
	compareOffset  int
	compareExclude string
)

func init() {
	compareCmd.Flags().IntVar(&compareOffset, "offset", 0, "Days before the date to target")
	compareCmd.Flags().StringVar(&compareExclude, "exclude", "", "Record ID to exclude from the search")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	target := args[0]
	if !datequery.IsValidDate(target) {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", target)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	queries := datequery.NewQueries(st)
	var match *model.ImageRecord
	if compareOffset != 0 {
		match, err = queries.FindByDateOffset(cmd.Context(), target, compareOffset, compareExclude)
	} else {
		match, err = queries.ClosestToDate(cmd.Context(), target, compareExclude)
	}
	if err != nil {
		return err
	}
	if match == nil {
		fmt.Println("No matching photo found.")
		return nil
	}

	diff, err := datequery.DateDifference(target, match.Date)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  (%s)\n", match.ID, match.Date, diff.Formatted)
	return nil
}
