// Package journal provides an append-only, msgpack-encoded record log that
// survives process restarts.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Journal is an append-only log of items of type T stored in one file.
type Journal[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type journalImpl[T any] struct {
	path    string
	file    *os.File
	encoder *msgpack.Encoder
	mu      sync.Mutex
	length  uint64
}

// Open opens or creates the journal at path. Existing records are counted
// so Len and Get cover what earlier processes appended.
func Open[T any](path string) (Journal[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create journal directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	length, err := count[T](path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 - path is the configured journal location
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Error("failed to open journal", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	slog.Debug("opened journal", "path", path, "length", length)

	return &journalImpl[T]{
		path:    path,
		file:    file,
		encoder: msgpack.NewEncoder(file),
		length:  length,
	}, nil
}

func count[T any](path string) (uint64, error) {
	// #nosec G304 - path is the configured journal location
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to open journal: %w", err)
	}

	defer func() { _ = file.Close() }()

	decoder := msgpack.NewDecoder(bufio.NewReader(file))

	var n uint64

	for {
		var item T
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}

			slog.Error("failed to decode journal record", "path", path, "index", n, "error", err)

			return n, fmt.Errorf("failed to decode journal record %d: %w", n, err)
		}

		n++
	}
}

// Append implements Journal.
func (j *journalImpl[T]) Append(item T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.encoder.Encode(item); err != nil {
		slog.Error("failed to encode record", "path", j.path, "index", j.length, "error", err)
		return fmt.Errorf("failed to encode record: %w", err)
	}

	j.length++
	slog.Debug("appended record", "path", j.path, "index", j.length-1)

	return nil
}

// AppendBatch implements Journal.
func (j *journalImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := j.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements Journal.
func (j *journalImpl[T]) Path() string {
	return j.path
}

// Len implements Journal.
func (j *journalImpl[T]) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Get implements Journal.
func (j *journalImpl[T]) Get(index uint64) (T, error) {
	var found T

	err := j.Range(func(i uint64, item T) error {
		if i == index {
			found = item
			return errStop
		}

		return nil
	})

	switch {
	case errors.Is(err, errStop):
		return found, nil
	case err != nil:
		var zero T
		return zero, err
	}

	var zero T

	slog.Warn("get index out of bounds", "path", j.path, "index", index)

	return zero, fmt.Errorf("index %d out of bounds (length %d)", index, j.Len())
}

var errStop = errors.New("stop")

// Range implements Journal.
func (j *journalImpl[T]) Range(fn func(index uint64, item T) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// #nosec G304 - path is the configured journal location
	file, err := os.Open(j.path)
	if err != nil {
		slog.Error("failed to open journal for range", "path", j.path, "error", err)
		return fmt.Errorf("failed to open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
		}
	}()

	decoder := msgpack.NewDecoder(bufio.NewReader(file))

	for i := range j.length {
		var item T
		if err := decoder.Decode(&item); err != nil {
			slog.Error("failed to decode record during range", "path", j.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode record at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements Journal.
func (j *journalImpl[T]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	if err := j.file.Close(); err != nil {
		slog.Error("failed to close journal", "path", j.path, "error", err)
		return err
	}

	j.file = nil
	slog.Debug("closed journal", "path", j.path, "length", j.length)

	return nil
}
