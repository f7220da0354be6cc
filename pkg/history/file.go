package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pindown/pindown/pkg/errors"
)

// FileStore keeps one JSON file per check run in a directory. File names
// sort chronologically, so listing needs no separate index.
type FileStore struct {
	dir string
}

// NewFileStore opens (creating if needed) a file-backed store in dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "creating history directory")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory entries are stored in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(_ context.Context, entry Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding history entry")
	}

	name := entry.Timestamp.Format("20060102T150405") + "-" + entry.ID + ".json"
	path := filepath.Join(s.dir, name)

	// Write via a temp file so a crash never leaves a half-written entry.
	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing history entry")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeInternal, err, "writing history entry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeInternal, err, "writing history entry")
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) List(_ context.Context, limit int) ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "reading history directory")
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			names = append(names, f.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FileStore) Close(context.Context) error { return nil }
