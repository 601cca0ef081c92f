package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/heritage-museum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionEventCreate  = "event.create"
	ActionEventApprove = "event.approve"
	ActionEventReject  = "event.reject"
	ActionUserRole     = "user.role"
)

// Entry is one line of the audit trail.
type Entry struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	ActorID   string            `json:"actor_id"`
	TargetID  string            `json:"target_id"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Log is an append-only JSON-lines file. Every append is fsync'ed before it returns.
type Log struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func Open(filePath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Log{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append fills in ID and Timestamp when unset and writes the entry.
func (l *Log) Append(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(data); err != nil {
		logger.Log.Error("Audit: failed to write entry",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
		return err
	}
	if err := l.file.Sync(); err != nil {
		logger.Log.Error("Audit: failed to sync to disk",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Audit: entry written",
		zap.String("action", entry.Action),
		zap.String("actor_id", entry.ActorID),
		zap.String("target_id", entry.TargetID),
	)
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (l *Log) Recent(limit int) ([]Entry, error) {
	l.mu.Lock()
	entries, err := l.readAllLocked()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// readAllLocked must be called with mu held. Lines that fail to decode are skipped.
func (l *Log) readAllLocked() ([]Entry, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
