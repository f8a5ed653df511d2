package logfeed

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hpcloud/tail"

	"github.com/spunkybot/urtadmind/internal/boterr"
)

const backwardScanChunk = 768

// pollIdle is how long the tailer waits for a new line before it
// considers the poll "empty".
const pollIdle = 125 * time.Millisecond

// Tailer follows the append-only game log from end, snapshotting the
// last InitGame line before it starts, then streaming new lines to
// OnLine until ctx is canceled.
type Tailer struct {
	path string

	// OnLine is invoked for every non-empty line, in file order.
	OnLine func(Event)
	// OnLive is invoked exactly once, the first time the tailer
	// catches up to the live edge of the file with nothing new to read.
	OnLive func()
}

// NewTailer constructs a Tailer for path. OnLine/OnLive must be set
// before Run is called.
func NewTailer(path string) *Tailer {
	return &Tailer{path: path}
}

// LastInitGame scans path backwards in 768-byte chunks looking for the
// most recent "InitGame:" line, returning its Event and the byte
// offset immediately after it. If the file is too small or has no
// InitGame line, ok is false and the caller should start tailing from
// end-of-file immediately.
func (t *Tailer) LastInitGame() (ev Event, offset int64, ok bool, err error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Event{}, 0, false, boterr.ErrLogMissing
		}
		return Event{}, 0, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Event{}, 0, false, err
	}
	size := info.Size()
	if size == 0 {
		return Event{}, size, false, nil
	}

	var tail string
	pos := size
	for pos > 0 {
		chunkSize := int64(backwardScanChunk)
		if chunkSize > pos {
			chunkSize = pos
		}
		pos -= chunkSize
		buf := make([]byte, chunkSize)
		if _, err := f.ReadAt(buf, pos); err != nil && err != io.EOF {
			return Event{}, 0, false, err
		}
		tail = string(buf) + tail

		if idx := strings.LastIndex(tail, "InitGame:"); idx != -1 {
			nl := strings.LastIndexByte(tail[:idx], '\n')
			if nl == -1 && pos > 0 {
				continue // the line starts in an earlier chunk
			}
			lineStart := nl + 1
			lineEnd := strings.IndexByte(tail[idx:], '\n')
			var line string
			end := int64(len(tail))
			if lineEnd == -1 {
				line = tail[lineStart:]
			} else {
				line = tail[lineStart : idx+lineEnd]
				end = int64(idx + lineEnd + 1)
			}
			event, perr := ParseLine(line)
			if perr != nil {
				return Event{}, size, false, nil
			}
			return event, pos + end, true, nil
		}
	}
	return Event{}, size, false, nil
}

// Run opens the log at the computed offset and streams lines to OnLine
// until ctx is canceled. It marks the tailer live (invoking OnLive
// once) the first time it catches up to the live edge of the file.
func (t *Tailer) Run(ctx context.Context, fromOffset int64) error {
	if _, err := os.Stat(t.path); err != nil {
		if os.IsNotExist(err) {
			return boterr.ErrLogMissing
		}
		return err
	}

	tl, err := tail.TailFile(t.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: fromOffset, Whence: io.SeekStart},
	})
	if err != nil {
		return boterr.ErrLogIO
	}
	defer tl.Stop()

	live := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-tl.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				slog.Warn("log tailer read error", "error", line.Err)
				continue
			}
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			ev, err := ParseLine(line.Text)
			if err != nil {
				slog.Warn("skipping malformed log line", "line", line.Text, "error", err)
				continue
			}
			if t.OnLine != nil {
				t.OnLine(ev)
			}
		case <-time.After(pollIdle):
			if !live {
				live = true
				if t.OnLive != nil {
					t.OnLive()
				}
			}
		}
	}
}

// ScanLines is a small helper used by tests to parse a canned log
// excerpt line-by-line the same way Run does, without touching hpcloud/tail.
func ScanLines(r io.Reader, onLine func(Event)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ev, err := ParseLine(line)
		if err != nil {
			continue
		}
		onLine(ev)
	}
	return scanner.Err()
}
