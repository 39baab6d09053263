package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phototrack/phototrack/backup"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup now, or run the periodic backup loop",
	Long: `Without flags, writes one timestamped backup into the configured
backup directory. With --watch, keeps running and writes a backup every
configured interval until interrupted.`,
	RunE: runBackup,
}

var backupWatch bool

func init() {
	backupCmd.Flags().BoolVar(&backupWatch, "watch", false, "Run the periodic backup loop")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backup.Directory == "" {
		return fmt.Errorf("no backup directory configured")
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sched := backup.ForStore(st, cfg.Backup.Directory, cfg.GetBackupInterval(), cfg.Backup.KeepLast)

	if !backupWatch {
		return sched.RunOnce(cmd.Context())
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)
	return nil
}
