package source

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
)

// File is one source file held by a FileSet.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// lineIdx[i] is the byte offset of the first character of line i (0-based).
	lineIdx []uint32
}

// FileSet manages source files and resolves byte offsets to line:col positions.
type FileSet struct {
	files []File
	index map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores normalized content under path and returns a fresh FileID.
func (fs *FileSet) Add(path string, content []byte) FileID {
	content = normalize(content)
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		lineIdx: buildLineIndex(content),
	})
	fs.index[path] = id
	return id
}

// Load reads path from disk and adds it to the set.
func (fs *FileSet) Load(path string) (FileID, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the caller
	if err != nil {
		return NoFile, err
	}
	return fs.Add(path, content), nil
}

// Get returns the file for id, or nil if id is not in the set.
func (fs *FileSet) Get(id FileID) *File {
	if fs == nil || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the FileID registered for path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fs.index[path]
	return id, ok
}

// Position is a human-readable 1-based source position.
type Position struct {
	Path string
	Line int
	Col  int
}

func (p Position) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

// Resolve maps the start of span to a Position.
func (fs *FileSet) Resolve(span Span) Position {
	f := fs.Get(span.File)
	if f == nil {
		return Position{Line: 1, Col: 1}
	}
	line := sort.Search(len(f.lineIdx), func(i int) bool {
		return f.lineIdx[i] > span.Start
	})
	// line is 1-based already: lineIdx[line-1] <= Start.
	col := int(span.Start) - int(f.lineIdx[line-1]) + 1
	return Position{Path: f.Path, Line: line, Col: col}
}

// LineText returns the text of the 1-based line in file id, without newline.
func (fs *FileSet) LineText(id FileID, line int) string {
	f := fs.Get(id)
	if f == nil || line < 1 || line > len(f.lineIdx) {
		return ""
	}
	start := f.lineIdx[line-1]
	end := uint32(len(f.Content))
	if line < len(f.lineIdx) {
		end = f.lineIdx[line] - 1
	}
	return string(f.Content[start:end])
}

func buildLineIndex(content []byte) []uint32 {
	idx := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i+1))
		}
	}
	return idx
}

func normalize(content []byte) []byte {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
