package watch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
)

// FileSource is a saved HTML page on disk.
type FileSource struct {
	path    string
	base    *url.URL
	host    string
	watcher *fsnotify.Watcher
}

// NewFileSource watches path. base resolves relative links and host selects
// the platform profile; both may be empty.
func NewFileSource(path string, base *url.URL, host string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors replace files by rename.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if host == "" && base != nil {
		host = base.Hostname()
	}
	return &FileSource{path: abs, base: base, host: host, watcher: watcher}, nil
}

func (f *FileSource) Watch(ctx context.Context, changed func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				changed()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func (f *FileSource) Snapshot(_ context.Context) (*Page, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{Doc: doc, Base: f.base, Host: f.host}, nil
}

func (f *FileSource) Close() error {
	return f.watcher.Close()
}
