// Package log journals applied edit operations as hour-rotated,
// zstd-compressed JSONL files.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// EditEntry is one journaled edit. Pos/Block reflect the untransformed
// frame: what was actually written to storage.
type EditEntry struct {
	At        time.Time         `json:"at"`
	SessionID string            `json:"session_id"`
	EditID    string            `json:"edit_id"`
	Op        string            `json:"op"`
	Pos       [3]int            `json:"pos"`
	BlockID   string            `json:"block_id,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
	Changed   bool              `json:"changed"`
}

// EditJournal appends EditEntry lines to <worldDir>/edits/edits-<hour>.jsonl.zst.
type EditJournal struct {
	baseDir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewEditJournal(worldDir string) *EditJournal {
	return &EditJournal{baseDir: filepath.Join(worldDir, "edits")}
}

func (j *EditJournal) Write(e EditEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := e.At.UTC().Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *EditJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *EditJournal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	path := j.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 128*1024)
	j.curHour = hour
	return nil
}

func (j *EditJournal) closeLocked() error {
	var err1 error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err1 = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	return err1
}

func (j *EditJournal) pathForHour(hour string) string {
	return filepath.Join(j.baseDir, fmt.Sprintf("edits-%s.jsonl.zst", hour))
}

// ReadAll decodes every journaled entry under worldDir in file order.
// Used by tooling and tests; the server only appends.
func ReadAll(worldDir string) ([]EditEntry, error) {
	dir := filepath.Join(worldDir, "edits")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl.zst") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var out []EditEntry
	for _, p := range files {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		sc := bufio.NewScanner(io.Reader(dec))
		sc.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for sc.Scan() {
			var e EditEntry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				dec.Close()
				_ = f.Close()
				return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
			}
			out = append(out, e)
		}
		scanErr := sc.Err()
		dec.Close()
		_ = f.Close()
		if scanErr != nil {
			return nil, scanErr
		}
	}
	return out, nil
}
