package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phototrack/phototrack/model"
	"github.com/phototrack/phototrack/store"
)

func testEnvelope(n int) *model.ExportEnvelope {
	images := make([]model.ImageRecord, n)
	for i := range images {
		images[i] = model.ImageRecord{
			ID:        "img_" + string(rune('a'+i)),
			ImageData: "data:image/jpeg;base64,dGVzdA==",
			Date:      "2024-06-15",
		}
	}
	return &model.ExportEnvelope{
		Version:    model.EnvelopeVersion,
		ExportDate: "2024-06-15T00:00:00Z",
		Images:     images,
	}
}

func staticExport(env *model.ExportEnvelope) ExportFunc {
	return func(ctx context.Context) (*model.ExportEnvelope, error) {
		return env, nil
	}
}

func listBackups(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read backup dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunOnceWritesBackup(t *testing.T) {
	dir := t.TempDir()
	s := New(staticExport(testEnvelope(2)), dir, time.Hour, 5)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	names := listBackups(t, dir)
	if len(names) != 1 {
		t.Fatalf("Expected 1 backup file, got %d", len(names))
	}
	if !strings.HasPrefix(names[0], "phototrack-backup-") || !strings.HasSuffix(names[0], ".json") {
		t.Errorf("Unexpected backup file name %q", names[0])
	}

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	env, err := store.DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("Backup file is not a valid envelope: %v", err)
	}
	if len(env.Images) != 2 {
		t.Errorf("Expected 2 images in backup, got %d", len(env.Images))
	}
}

func TestRunOnceCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	s := New(staticExport(testEnvelope(1)), dir, time.Hour, 5)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(listBackups(t, dir)) != 1 {
		t.Error("Expected backup written into created directory")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()

	// Pre-seed old timestamped backups; lexical order is chronological.
	old := []string{
		"phototrack-backup-20240101_000000.json",
		"phototrack-backup-20240102_000000.json",
		"phototrack-backup-20240103_000000.json",
	}
	for _, name := range old {
		os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0640)
	}
	// Unrelated files are never pruned.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0640)

	s := New(staticExport(testEnvelope(1)), dir, time.Hour, 2)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	names := listBackups(t, dir)
	backups := 0
	for _, name := range names {
		if strings.HasPrefix(name, "phototrack-backup-") {
			backups++
			if name == old[0] || name == old[1] {
				t.Errorf("Expected oldest backups pruned, found %q", name)
			}
		}
	}
	if backups != 2 {
		t.Errorf("Expected 2 backups after prune, got %d", backups)
	}

	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Prune must not touch unrelated files")
	}
}

func TestStartAndStop(t *testing.T) {
	s := New(staticExport(testEnvelope(1)), t.TempDir(), time.Hour, 1)

	if s.IsRunning() {
		t.Error("Expected scheduler not running before Start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Error("Expected scheduler running after Start")
	}
	if err := s.Start(); err == nil {
		t.Error("Expected error for double Start")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("Expected scheduler stopped after Stop")
	}

	// Stop is idempotent.
	s.Stop()
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	// A misconfigured interval resolves to zero; Start must fail
	// instead of handing 0 to the ticker and panicking the goroutine.
	s := New(staticExport(testEnvelope(1)), t.TempDir(), 0, 1)
	if err := s.Start(); err == nil {
		t.Fatal("Expected error for zero interval")
	}
	if s.IsRunning() {
		t.Error("Scheduler must not be running after a rejected Start")
	}

	s = New(staticExport(testEnvelope(1)), t.TempDir(), -time.Second, 1)
	if err := s.Start(); err == nil {
		t.Error("Expected error for negative interval")
	}
}

func TestRestartAfterStop(t *testing.T) {
	s := New(staticExport(testEnvelope(1)), t.TempDir(), time.Hour, 1)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	s.Stop()
}

func TestPeriodicBackups(t *testing.T) {
	dir := t.TempDir()
	s := New(staticExport(testEnvelope(1)), dir, 20*time.Millisecond, 100)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	if len(listBackups(t, dir)) == 0 {
		t.Error("Expected at least one periodic backup")
	}
}

func TestForStore(t *testing.T) {
	ms := store.NewMemStore()
	ms.Put(context.Background(), model.ImageRecord{
		ID:        "img_1",
		ImageData: "data:image/jpeg;base64,dGVzdA==",
		Date:      "2024-06-15",
	})

	dir := t.TempDir()
	s := ForStore(ms, dir, time.Hour, 1)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(listBackups(t, dir)) != 1 {
		t.Error("Expected a backup from the store export")
	}
}
