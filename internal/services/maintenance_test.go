package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepUploadsRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "stale.png")
	fresh := filepath.Join(dir, "fresh.png")
	for _, path := range []string{stale, fresh} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	sweepUploads(dir, 24*time.Hour)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file removed by the sweep")
	}
}

func TestMaintenanceStopIsIdempotent(t *testing.T) {
	m := StartMaintenance(MaintenanceConfig{
		UploadDir: t.TempDir(),
		UploadTTL: time.Hour,
	})
	m.Stop()
	m.Stop()
}
