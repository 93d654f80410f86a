// Package workspace maps source files under the content root to their
// per-language targets and performs the file I/O for a run.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Kind tells which engine operation a file goes through.
type Kind int

const (
	Document Kind = iota
	Tree
)

func (k Kind) String() string {
	if k == Tree {
		return "tree"
	}
	return "document"
}

// File is a translatable source file.
type File struct {
	Source string // Repository-relative path, e.g. content/cn/guide/start.md
	Rel    string // Path below the source locale directory, e.g. guide/start.md
	Kind   Kind
}

// Layout describes where sources live. All paths are slash separated and
// relative to the root of Fs.
type Layout struct {
	Fs           afero.Fs
	Root         string
	SourceLocale string
	Extensions   []string
	TreeFiles    []string
	Exclude      []string
}

// NewLayout creates a Layout over the directory dir of the OS filesystem.
func NewLayout(dir string) *Layout {
	return &Layout{
		Fs:           afero.NewBasePathFs(afero.NewOsFs(), dir),
		Root:         "content",
		SourceLocale: "cn",
		Extensions:   []string{".md"},
		TreeFiles:    []string{"settings.yml"},
	}
}

// SourceDir is the directory holding source-language files.
func (l *Layout) SourceDir() string {
	return path.Join(l.Root, l.SourceLocale)
}

// Classify returns the File for a repository-relative path, or false when
// the path is not a translatable source.
func (l *Layout) Classify(p string) (File, bool) {
	p = path.Clean(strings.TrimPrefix(p, "./"))
	prefix := l.SourceDir() + "/"
	if !strings.HasPrefix(p, prefix) {
		return File{}, false
	}
	rel := strings.TrimPrefix(p, prefix)
	if l.excluded(rel) {
		return File{}, false
	}

	base := path.Base(rel)
	for _, name := range l.TreeFiles {
		if base == name {
			return File{Source: p, Rel: rel, Kind: Tree}, true
		}
	}
	ext := path.Ext(rel)
	for _, want := range l.Extensions {
		if strings.EqualFold(ext, want) {
			return File{Source: p, Rel: rel, Kind: Document}, true
		}
	}
	return File{}, false
}

func (l *Layout) excluded(rel string) bool {
	for _, pattern := range l.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Select classifies every path and drops the ones that are not sources.
func (l *Layout) Select(paths []string) []File {
	seen := make(map[string]bool, len(paths))
	var files []File
	for _, p := range paths {
		f, ok := l.Classify(p)
		if !ok || seen[f.Source] {
			continue
		}
		seen[f.Source] = true
		files = append(files, f)
	}
	return files
}

// TargetPath returns where the lang translation of f is stored.
func (l *Layout) TargetPath(f File, lang string) string {
	return path.Join(l.Root, lang, f.Rel)
}

// Discover lists every source file currently on disk, sorted.
func (l *Layout) Discover() ([]File, error) {
	var files []File
	err := afero.Walk(l.Fs, l.SourceDir(), func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if f, ok := l.Classify(toSlash(p)); ok {
			files = append(files, f)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.SourceDir(), err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Source < files[j].Source })
	return files, nil
}

// Read returns the content of p. exists is false when the file is missing.
func (l *Layout) Read(p string) (content string, exists bool, err error) {
	data, err := afero.ReadFile(l.Fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), true, nil
}

// Write stores content at p, creating parent directories.
func (l *Layout) Write(p, content string) error {
	if err := l.Fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	if err := afero.WriteFile(l.Fs, p, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func toSlash(p string) string {
	if os.PathSeparator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(os.PathSeparator), "/")
}
