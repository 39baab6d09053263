package cmd

import (
	"fmt"
	"os"

	"github.com/phototrack/phototrack/store"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export all photos to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import photos from an exported JSON file",
	Long: `Imports every valid record from the file. Existing records with the
same ID are overwritten. The import is transactional: on failure the
store is left unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	env, err := st.ExportAll(cmd.Context())
	if err != nil {
		return err
	}
	data, err := store.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0640); err != nil {
		return fmt.Errorf("writing export %q: %w", args[0], err)
	}
	fmt.Printf("Exported %d photos to %s\n", len(env.Images), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading import %q: %w", args[0], err)
	}
	env, err := store.DecodeEnvelope(data)
	if err != nil {
		return err
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

	count, err := st.ImportAll(cmd.Context(), env)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d photos from %s\n", count, args[0])
	return nil
}
