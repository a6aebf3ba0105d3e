package metrics

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// SysHealth is a snapshot of process memory and of what the planner keeps on disk.
type SysHealth struct {
	AllocMB       uint64 `json:"alloc_mb"`
	SysMB         uint64 `json:"sys_mb"`
	NumGC         uint32 `json:"num_gc"`
	Goroutines    int    `json:"goroutines"`
	DatabaseBytes int64  `json:"database_bytes"`
	BackupBytes   int64  `json:"backup_bytes"`
	BackupFiles   int    `json:"backup_files"`
}

// DatabaseSize is the database size in human units.
func (h SysHealth) DatabaseSize() string { return FormatBytes(h.DatabaseBytes) }

// BackupSize is the backup directory size in human units.
func (h SysHealth) BackupSize() string { return FormatBytes(h.BackupBytes) }

// GetSysHealth reads memory stats and measures the SQLite file at dbPath,
// including its -wal and -shm sidecars, and the recipe backups under
// backupDir. An empty backupDir reports no backups.
func GetSysHealth(dbPath, backupDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		AllocMB:       m.Alloc / 1024 / 1024,
		SysMB:         m.Sys / 1024 / 1024,
		NumGC:         m.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		DatabaseBytes: databaseSize(dbPath),
	}
	if backupDir != "" {
		h.BackupBytes, h.BackupFiles = backupUsage(backupDir)
	}
	return h
}

func databaseSize(path string) int64 {
	if path == "" {
		return 0
	}
	var size int64
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if info, err := os.Stat(p); err == nil {
			size += info.Size()
		}
	}
	return size
}

// backupUsage sums the recipe files under dir. Unreadable entries are skipped.
func backupUsage(dir string) (size int64, files int) {
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filepath.Ext(d.Name()) != ".json" {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}

// FormatBytes renders n with a binary unit, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
