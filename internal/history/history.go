package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"adb-commander/internal/transfer"

	"github.com/cespare/xxhash/v2"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const StoreDir = ".adb-commander"
const StoreFile = "history.db"

// TransferRecord is one terminal transfer result persisted for the
// `history` command.
type TransferRecord struct {
	ID        uint   `gorm:"primarykey"`
	Serial    string `gorm:"index;not null"`
	Direction string `gorm:"not null"`
	Source    string `gorm:"not null"`
	Dest      string `gorm:"not null"`
	State     string `gorm:"not null"`
	Bytes     int64
	Total     int64
	Hash      string
	Error     string
	CreatedAt time.Time
}

// DeviceSeen tracks devices the user has worked with, for the root menu.
type DeviceSeen struct {
	Serial   string `gorm:"primarykey"`
	Model    string
	LastSeen time.Time `gorm:"index"`
}

// Store is the sqlite-backed transfer history. It satisfies
// transfer.Recorder.
type Store struct {
	db *gorm.DB
}

var _ transfer.Recorder = (*Store)(nil)

// DefaultPath returns ~/.adb-commander/history.db.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, StoreDir, StoreFile)
}

// Open creates or opens the history database at dbPath and migrates the
// schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&TransferRecord{}, &DeviceSeen{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Record persists a terminal transfer result. Completed transfers get the
// xxhash of the local-side file so later runs can tell identical copies
// apart from re-transfers.
func (s *Store) Record(res transfer.Result) {
	rec := TransferRecord{
		Serial:    res.Serial,
		Direction: string(res.Direction),
		Source:    res.Source,
		Dest:      res.Dest,
		State:     res.State.String(),
		Bytes:     res.Bytes,
		Total:     res.Total,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if res.State == transfer.StateCompleted {
		local := res.Dest
		if res.Direction == transfer.DirectionPush {
			local = res.Source
		}
		if h, err := hashFile(local); err == nil {
			rec.Hash = h
		}
	}
	// history is best-effort; a failed insert must never fail a transfer
	_ = s.db.Create(&rec).Error
}

// TouchDevice upserts the last-seen timestamp for a device.
func (s *Store) TouchDevice(serial, model string) {
	seen := DeviceSeen{Serial: serial, Model: model, LastSeen: time.Now()}
	_ = s.db.Save(&seen).Error
}

// RecentDevices lists previously used devices, most recent first.
func (s *Store) RecentDevices(limit int) ([]DeviceSeen, error) {
	var out []DeviceSeen
	err := s.db.Order("last_seen desc").Limit(limit).Find(&out).Error
	return out, err
}

// RecentTransfers lists past transfers, most recent first. An empty serial
// returns transfers for all devices.
func (s *Store) RecentTransfers(serial string, limit int) ([]TransferRecord, error) {
	q := s.db.Order("created_at desc").Limit(limit)
	if serial != "" {
		q = q.Where("serial = ?", serial)
	}
	var out []TransferRecord
	err := q.Find(&out).Error
	return out, err
}

// hashFile computes the xxhash of a local file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
