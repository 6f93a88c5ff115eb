package middleware

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"hrms-backend/shared/database/models"
)

// AuditWriter persists audit entries on a background goroutine. Entries are
// dropped, not queued, when the buffer is full so requests never wait on the database.
type AuditWriter struct {
	db      *gorm.DB
	entries chan models.AuditLog
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAuditWriter(db *gorm.DB, buffer int) *AuditWriter {
	if buffer < 1 {
		buffer = 1
	}
	w := &AuditWriter{
		db:      db,
		entries: make(chan models.AuditLog, buffer),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

func (w *AuditWriter) run() {
	defer w.wg.Done()

	for entry := range w.entries {
		if err := w.db.Create(&entry).Error; err != nil {
			log.Printf("❌ Failed to save audit log %s %s: %v", entry.Method, entry.Path, err)
		}
	}
}

// Record queues entry for persistence
func (w *AuditWriter) Record(entry models.AuditLog) {
	select {
	case w.entries <- entry:
	default:
		log.Printf("⚠️  Audit buffer full, dropping entry for %s %s", entry.Method, entry.Path)
	}
}

// Close flushes queued entries and stops the writer. Record must not be called afterwards.
func (w *AuditWriter) Close() {
	w.once.Do(func() {
		close(w.entries)
	})
	w.wg.Wait()
}
