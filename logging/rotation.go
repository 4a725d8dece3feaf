package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var segmentPattern = regexp.MustCompile(`^app-\d{4}-W\d{2}_(\d{2})\.log$`)

// WeeklyFile is an io.Writer that writes to logs/app-YYYY-Www.log, opening a
// new file at each ISO week boundary and a numbered segment
// (app-YYYY-Www_NN.log) when the size cap is reached.
type WeeklyFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	stop chan struct{}
	done chan struct{}
}

// OpenWeeklyFile creates dir when needed and opens the file for the current week.
func OpenWeeklyFile(dir string, retentionWeeks int, maxSize int64) (*WeeklyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	wf := &WeeklyFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	wf.mu.Lock()
	err := wf.openLocked(weekKey(wf.now()), false)
	wf.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go wf.pruneLoop(24 * time.Hour)
	return wf, nil
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (wf *WeeklyFile) Write(p []byte) (int, error) {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	week := weekKey(wf.now())
	switch {
	case week != wf.week:
		if err := wf.openLocked(week, false); err != nil {
			return 0, err
		}
	case wf.maxSize > 0 && wf.size > 0 && wf.size+int64(len(p)) > wf.maxSize:
		if err := wf.openLocked(week, true); err != nil {
			return 0, err
		}
	}

	n, err := wf.file.Write(p)
	wf.size += int64(n)
	return n, err
}

// openLocked switches to the right file for week. Caller holds wf.mu.
func (wf *WeeklyFile) openLocked(week string, full bool) error {
	if wf.file != nil {
		_ = wf.file.Close()
		wf.file = nil
	}

	name := wf.pickFile(week, full)
	path := filepath.Join(wf.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	wf.file = f
	wf.week = week
	wf.size = 0
	if info, err := f.Stat(); err == nil {
		wf.size = info.Size()
	}
	return nil
}

// pickFile returns the base file while it has room, otherwise the highest
// numbered segment with room, otherwise a new segment. A full current file
// always moves on to a new segment.
func (wf *WeeklyFile) pickFile(week string, full bool) string {
	highest, lastSize := wf.lastSegment(week)
	if full {
		return fmt.Sprintf("app-%s_%02d.log", week, highest+1)
	}

	base := fmt.Sprintf("app-%s.log", week)
	info, err := os.Stat(filepath.Join(wf.dir, base))
	if err != nil || wf.maxSize == 0 || info.Size() < wf.maxSize {
		return base
	}

	if highest > 0 && lastSize < wf.maxSize {
		return fmt.Sprintf("app-%s_%02d.log", week, highest)
	}
	return fmt.Sprintf("app-%s_%02d.log", week, highest+1)
}

func (wf *WeeklyFile) lastSegment(week string) (int, int64) {
	matches, _ := filepath.Glob(filepath.Join(wf.dir, fmt.Sprintf("app-%s_??.log", week)))

	highest := 0
	var size int64
	for _, m := range matches {
		sub := segmentPattern.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n <= highest {
			continue
		}
		highest = n
		size = 0
		if info, err := os.Stat(m); err == nil {
			size = info.Size()
		}
	}
	return highest, size
}

// Prune deletes app-*.log files last modified before the retention window.
func (wf *WeeklyFile) Prune() (int, error) {
	entries, err := os.ReadDir(wf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := wf.now().Add(-wf.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		wf.mu.Lock()
		current := wf.file != nil && filepath.Base(wf.file.Name()) == name
		wf.mu.Unlock()
		if current {
			continue
		}

		if os.Remove(filepath.Join(wf.dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}

func (wf *WeeklyFile) pruneLoop(every time.Duration) {
	defer close(wf.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-wf.stop:
			return
		case <-ticker.C:
			// stderr, not slog: this writer sits under the default logger
			if n, err := wf.Prune(); err != nil {
				fmt.Fprintf(os.Stderr, "log pruning failed: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stderr, "pruned %d old log files\n", n)
			}
		}
	}
}

// Close stops the pruning goroutine and closes the current file.
func (wf *WeeklyFile) Close() error {
	select {
	case <-wf.stop:
	default:
		close(wf.stop)
	}
	<-wf.done

	wf.mu.Lock()
	defer wf.mu.Unlock()
	if wf.file == nil {
		return nil
	}
	err := wf.file.Close()
	wf.file = nil
	return err
}
