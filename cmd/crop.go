package cmd

import (
	"fmt"

	"github.com/phototrack/phototrack/model"
	"github.com/spf13/cobra"
)

var cropCmd = &cobra.Command{
	Use:   "crop <id>",
	Short: "Crop a stored photo to a pixel rectangle",
	Long: `Re-encodes a photo cropped to the given source-pixel rectangle.
The uncompressed original view is kept so the photo can be re-cropped
later without compounding quality loss.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

var (
	cropX      int
	cropY      int
	cropWidth  int
	cropHeight int
)

func init() {
	cropCmd.Flags().IntVar(&cropX, "x", 0, "Left edge in source pixels")
	cropCmd.Flags().IntVar(&cropY, "y", 0, "Top edge in source pixels")
	cropCmd.Flags().IntVar(&cropWidth, "width", 0, "Width in source pixels")
	cropCmd.Flags().IntVar(&cropHeight, "height", 0, "Height in source pixels")
	cropCmd.MarkFlagRequired("width")
	cropCmd.MarkFlagRequired("height")
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	if cropWidth <= 0 || cropHeight <= 0 {
		return fmt.Errorf("crop width and height must be positive")
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

	rect := model.PixelRect{X: cropX, Y: cropY, Width: cropWidth, Height: cropHeight}
	settings := model.CropSettings{
		X:      float64(cropX),
		Y:      float64(cropY),
		Width:  float64(cropWidth),
		Height: float64(cropHeight),
		Zoom:   1,
	}

	orch := newOrchestrator(cfg, st)
	rec, err := orch.Recrop(cmd.Context(), args[0], rect, settings)
	if err != nil {
		return err
	}
	fmt.Printf("Cropped %s to %dx%d\n", rec.ID, rect.Width, rect.Height)
	return nil
}
