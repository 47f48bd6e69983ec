// Package watch follows a growing event log and delivers each newly
// completed line as an event.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/reader/jsonl"
)

// pollDefault is the fallback polling interval. Polling also covers
// filesystems where fsnotify delivers nothing (e.g. NFS).
const pollDefault = 2 * time.Second

// Follower tails one JSONL event log. Line numbering matches jsonl.Scan,
// so events without an id get the same id live and on replay.
type Follower struct {
	path     string
	interval time.Duration
	logger   *log.Logger

	offset  int64
	line    int
	partial []byte
}

// Option configures a Follower.
type Option func(*Follower)

// WithPollInterval sets the fallback polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(f *Follower) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Follower) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFollower creates a follower for the log at path. The file need not
// exist yet.
func NewFollower(path string, opts ...Option) *Follower {
	f := &Follower{
		path:     filepath.Clean(path),
		interval: pollDefault,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Offset returns the byte offset and line count consumed so far.
func (f *Follower) Offset() (int64, int) {
	return f.offset, f.line
}

// Follow delivers every complete line already in the file, then each line
// appended later, until ctx is cancelled. fn runs on the calling goroutine,
// one event at a time, in file order; an error from fn stops Follow.
func (f *Follower) Follow(ctx context.Context, fn func(core.Event) error) error {
	if err := f.Drain(fn); err != nil {
		return err
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.logger.Warn("fsnotify unavailable, polling", "err", err)
	} else {
		defer func() { _ = watcher.Close() }()
		// Watch the directory: the log may be created or replaced later.
		if err := watcher.Add(filepath.Dir(f.path)); err != nil {
			f.logger.Warn("cannot watch log directory, polling", "dir", filepath.Dir(f.path), "err", err)
		} else {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if err := f.Drain(fn); err != nil {
				return err
			}

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := f.Drain(fn); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			f.logger.Debug("watch error", "err", err)
		}
	}
}

// Drain reads everything appended since the last call and delivers each
// complete line. A trailing line without a newline is held back until it
// is completed. A line fn rejects is delivered again by the next call. A
// file that shrank is read again from the start.
func (f *Follower) Drain(fn func(core.Event) error) error {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat event log: %w", err)
	}
	if info.Size() < f.offset {
		f.logger.Warn("event log truncated, reading from start", "path", f.path)
		f.offset, f.line, f.partial = 0, 0, nil
	}
	var data []byte
	if info.Size() > f.offset {
		if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek event log: %w", err)
		}
		data, err = io.ReadAll(io.LimitReader(file, info.Size()-f.offset))
		if err != nil {
			return fmt.Errorf("read event log: %w", err)
		}
		f.offset += int64(len(data))
	}

	buf := append(f.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		rest := buf
		line := bytes.TrimSuffix(buf[:i], []byte("\r"))
		buf = buf[i+1:]
		f.line++

		if len(line) > jsonl.MaxLineSize {
			f.logger.Warn("skipping oversized line", "line", f.line, "size", len(line))
			continue
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		ev, err := jsonl.Decode(line)
		if err != nil {
			f.logger.Debug("skipping malformed line", "line", f.line, "err", err)
			continue
		}
		if ev.ID == "" {
			ev.ID = jsonl.LineID(f.line)
		}
		if err := fn(ev); err != nil {
			// Keep the failed line so the next Drain delivers it again.
			f.line--
			f.partial = append([]byte(nil), rest...)
			return err
		}
	}
	f.partial = append([]byte(nil), buf...)
	return nil
}
