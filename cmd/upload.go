package cmd

import (
	"fmt"

	"github.com/phototrack/phototrack/imageutil"
	"github.com/phototrack/phototrack/ingest"
	"github.com/phototrack/phototrack/model"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Add progress photos",
	Long: `Compress and store one or more photos. All photos in a batch share
a date; measurements are attached to the first photo only.

The date is taken from --date, then from EXIF metadata, then today.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var (
	uploadDate string
	mChest     float64
	mWaist     float64
	mBelly     float64
	mHips      float64
	mThigh     float64
	mCalf      float64
	mUpperArm  float64
	mShoulders float64
)

func init() {
	uploadCmd.Flags().StringVar(&uploadDate, "date", "", "Photo date (YYYY-MM-DD)")
	uploadCmd.Flags().Float64Var(&mChest, "chest", 0, "Chest measurement in cm")
	uploadCmd.Flags().Float64Var(&mWaist, "waist", 0, "Waist measurement in cm")
	uploadCmd.Flags().Float64Var(&mBelly, "belly", 0, "Belly measurement in cm")
	uploadCmd.Flags().Float64Var(&mHips, "hips", 0, "Hips measurement in cm")
	uploadCmd.Flags().Float64Var(&mThigh, "thigh", 0, "Thigh measurement in cm")
	uploadCmd.Flags().Float64Var(&mCalf, "calf", 0, "Calf measurement in cm")
	uploadCmd.Flags().Float64Var(&mUpperArm, "upper-arm", 0, "Upper arm measurement in cm")
	uploadCmd.Flags().Float64Var(&mShoulders, "shoulders", 0, "Shoulders measurement in cm")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	files := make([]ingest.File, 0, len(args))
	for _, path := range args {
		f, err := ingest.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	orch := newOrchestrator(cfg, st)
	result, err := orch.ProcessFiles(cmd.Context(), files, ingest.BatchOptions{
		Date:         uploadDate,
		Measurements: measurementsFromFlags(cmd),
	})
	if err != nil {
		return err
	}

	for _, rec := range result.Records {
		fmt.Printf("Stored %s  %s  %s\n", rec.ID, rec.Date, imageutil.FormatFileSize(rec.FileSize))
	}
	for _, skip := range result.Skipped {
		fmt.Printf("Skipped %s: %v\n", skip.Name, skip.Err)
	}
	return nil
}

// measurementsFromFlags builds a Measurements from the flags the user
// actually set, so an explicit zero is kept and an unset flag is not.
func measurementsFromFlags(cmd *cobra.Command) *model.Measurements {
	m := &model.Measurements{}
	set := false
	assign := func(flag string, dst **float64, val float64) {
		if cmd.Flags().Changed(flag) {
			v := val
			*dst = &v
			set = true
		}
	}
	assign("chest", &m.Chest, mChest)
	assign("waist", &m.Waist, mWaist)
	assign("belly", &m.Belly, mBelly)
	assign("hips", &m.Hips, mHips)
	assign("thigh", &m.Thigh, mThigh)
	assign("calf", &m.Calf, mCalf)
	assign("upper-arm", &m.UpperArm, mUpperArm)
	assign("shoulders", &m.Shoulders, mShoulders)
	if !set {
		return nil
	}
	return m
}
