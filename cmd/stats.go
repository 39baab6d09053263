package cmd

import (
	"fmt"

	"github.com/phototrack/phototrack/datequery"
	"github.com/phototrack/phototrack/imageutil"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	count, err := st.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("No photos stored.")
		return nil
	}

	records, err := st.GetAll(ctx)
	if err != nil {
		return err
	}
	var total int64
	measured := 0
	for _, rec := range records {
		total += rec.FileSize
		if rec.Measurements != nil {
			measured++
		}
	}

	sorted := datequery.SortByDate(records, datequery.Oldest)
	first := sorted[0].Date
	last := sorted[len(sorted)-1].Date

	fmt.Printf("Photos:        %d\n", count)
	fmt.Printf("Total size:    %s\n", imageutil.FormatFileSize(total))
	fmt.Printf("With measures: %d\n", measured)
	fmt.Printf("Date range:    %s to %s (%s)\n", first, last, describeSpan(first, last))
	return nil
}

func describeSpan(first, last string) string {
	diff, err := datequery.DateDifference(first, last)
	if err != nil {
		return "unknown span"
	}
	return diff.Formatted
}
