package cmd

import (
	"context"
	"fmt"

	"github.com/phototrack/phototrack/datequery"
	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/model"
	"github.com/phototrack/phototrack/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored photos",
	RunE:  runList,
}

var (
	listOldest bool
	listFrom   string
	listTo     string
)

func init() {
	listCmd.Flags().BoolVar(&listOldest, "oldest", false, "Sort oldest first")
	listCmd.Flags().StringVar(&listFrom, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	listCmd.Flags().StringVar(&listTo, "to", "", "End date (YYYY-MM-DD, inclusive)")
	rootCmd.AddCommand(listCmd)
}

// listRecords fetches records for the list view, hitting the date index
// only when a range is given.
func listRecords(ctx context.Context, st store.Store, from, to string) ([]model.ImageRecord, error) {
	if from == "" && to == "" {
		return st.GetAll(ctx)
	}
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	return st.GetByDateRange(ctx, from, to)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := listRecords(cmd.Context(), st, listFrom, listTo)
	if err != nil {
		return err
	}

	order := datequery.Newest
	if listOldest {
		order = datequery.Oldest
	}
	records = datequery.SortByDate(records, order)

	if len(records) == 0 {
		fmt.Println("No photos stored.")
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s  %s  %s", rec.ID, rec.Date, imageutil.FormatFileSize(rec.FileSize))
		if rec.Measurements != nil {
			line += "  [measurements]"
		}
		if rec.CropSettings != nil {
			line += "  [cropped]"
		}
		fmt.Println(line)
	}
	return nil
}
