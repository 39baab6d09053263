package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var measureCmd = &cobra.Command{
	Use:   "measure <id>",
	Short: "Set or update measurements on a photo",
	Long: `Replaces the measurements stored on a photo with the flag values
given. Passing no measurement flags removes the measurements.`,
	Args: cobra.ExactArgs(1),
	RunE: runMeasure,
}

func init() {
	measureCmd.Flags().Float64Var(&mChest, "chest", 0, "Chest measurement in cm")
	measureCmd.Flags().Float64Var(&mWaist, "waist", 0, "Waist measurement in cm")
	measureCmd.Flags().Float64Var(&mBelly, "belly", 0, "Belly measurement in cm")
	measureCmd.Flags().Float64Var(&mHips, "hips", 0, "Hips measurement in cm")
	measureCmd.Flags().Float64Var(&mThigh, "thigh", 0, "Thigh measurement in cm")
	measureCmd.Flags().Float64Var(&mCalf, "calf", 0, "Calf measurement in cm")
	measureCmd.Flags().Float64Var(&mUpperArm, "upper-arm", 0, "Upper arm measurement in cm")
	measureCmd.Flags().Float64Var(&mShoulders, "shoulders", 0, "Shoulders measurement in cm")
	rootCmd.AddCommand(measureCmd)
}

func runMeasure(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch := newOrchestrator(cfg, st)
	rec, err := orch.UpdateMeasurements(cmd.Context(), args[0], measurementsFromFlags(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("Updated measurements on %s (%s)\n", rec.ID, rec.Date)
	return nil
}
