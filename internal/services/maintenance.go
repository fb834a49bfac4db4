package services

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Maintenance runs the periodic background chores that sit outside the
// relay core: deleting stale uploaded files and pinging an external
// keep-alive URL so free-tier hosts do not idle the process out.
type Maintenance struct {
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// MaintenanceConfig controls which chores run. A zero TTL disables the
// upload sweep; an empty KeepAliveURL disables the ping.
type MaintenanceConfig struct {
	UploadDir         string
	UploadTTL         time.Duration
	KeepAliveURL      string
	KeepAliveInterval time.Duration
}

// StartMaintenance launches the configured background workers.
func StartMaintenance(cfg MaintenanceConfig) *Maintenance {
	m := &Maintenance{stop: make(chan struct{})}

	if cfg.UploadTTL > 0 && cfg.UploadDir != "" {
		m.wg.Add(1)
		go m.sweepLoop(cfg.UploadDir, cfg.UploadTTL)
	}
	if cfg.KeepAliveURL != "" && cfg.KeepAliveInterval > 0 {
		m.wg.Add(1)
		go m.keepAliveLoop(cfg.KeepAliveURL, cfg.KeepAliveInterval)
	}
	return m
}

// Stop halts the workers and waits for them to exit.
func (m *Maintenance) Stop() {
	m.once.Do(func() { close(m.stop) })
	m.wg.Wait()
}

func (m *Maintenance) sweepLoop(dir string, ttl time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			sweepUploads(dir, ttl)
		}
	}
}

// sweepUploads deletes files in dir whose modification time is older than
// ttl. Subdirectories are left alone.
func sweepUploads(dir string, ttl time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Error [sweepUploads]: %v", err)
		return
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				log.Printf("Error [sweepUploads]: %v", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Printf("Upload sweep removed %d stale files", removed)
	}
}

func (m *Maintenance) keepAliveLoop(url string, interval time.Duration) {
	defer m.wg.Done()

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				log.Printf("Error [keepAlive]: %v", err)
				continue
			}
			resp.Body.Close()
		}
	}
}
