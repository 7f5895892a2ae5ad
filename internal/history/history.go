// Package history keeps a log of sent and received messages.
package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Direction string

const (
	Sent     Direction = "SENT"
	Received Direction = "RECEIVED"
)

type Status string

const (
	Success Status = "SUCCESS"
	Failure Status = "FAILURE"
)

type Entry struct {
	ID        int64     `yaml:"id"`
	Direction Direction `yaml:"direction"`
	Status    Status    `yaml:"status"`
	Content   string    `yaml:"content"`
	Details   string    `yaml:"details,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Store persists entries. List returns them newest first.
type Store interface {
	Insert(e Entry) (Entry, error)
	List() ([]Entry, error)
}

// Details strings recorded by the physical layer.
func SentDetails(n int) string     { return fmt.Sprintf("Sent %d chars", n) }
func ReceivedDetails(n int) string { return fmt.Sprintf("Received %d chars", n) }

const ReceiveFailedDetails = "Failed to decode (Timeout or CRC error)"

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *MemoryStore) Insert(e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e = prepare(e, int64(len(s.entries)+1))
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.entries), nil
}

// FileStore appends each entry as its own YAML document to a file.
type FileStore struct {
	Path string

	mu     sync.Mutex
	nextID int64
}

func (s *FileStore) Insert(e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == 0 {
		entries, err := s.read()
		if err != nil {
			return Entry{}, err
		}
		s.nextID = 1
		for _, old := range entries {
			s.nextID = max(s.nextID, old.ID+1)
		}
	}
	e = prepare(e, s.nextID)

	file, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("history: %w", err)
	}
	defer file.Close()

	// Every record starts a new document so the file stays a valid stream.
	if _, err := io.WriteString(file, "---\n"); err != nil {
		return Entry{}, fmt.Errorf("history: %w", err)
	}
	enc := yaml.NewEncoder(file)
	if err := enc.Encode(e); err != nil {
		return Entry{}, fmt.Errorf("history: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return Entry{}, fmt.Errorf("history: encode: %w", err)
	}
	s.nextID++
	return e, nil
}

func (s *FileStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	return newestFirst(entries), nil
}

func (s *FileStore) read() ([]Entry, error) {
	file, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer file.Close()

	var entries []Entry
	dec := yaml.NewDecoder(file)
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("history: decode %s: %w", s.Path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func prepare(e Entry, id int64) Entry {
	e.ID = id
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return e
}

func newestFirst(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out
}
