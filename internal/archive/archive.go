// Package archive locates and reads entries of a Takeout ZIP export.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Accessor finds entries by path suffix and returns their text.
type Accessor interface {
	// ReadText returns the content of the first entry whose path ends with
	// suffix. found is false when no entry matches.
	ReadText(suffix string) (text string, found bool, err error)
	Entries() []string
}

// ZipArchive is an Accessor over an in-memory ZIP file.
type ZipArchive struct {
	reader *zip.Reader
}

// Open reads data as a ZIP archive.
func Open(data []byte) (*ZipArchive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return &ZipArchive{reader: r}, nil
}

// Entries lists file paths in archive order, skipping directories.
func (a *ZipArchive) Entries() []string {
	names := []string{}
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, entryPath(f.Name))
	}
	return names
}

// ReadText implements Accessor.
func (a *ZipArchive) ReadText(suffix string) (string, bool, error) {
	f := a.find(suffix)
	if f == nil {
		return "", false, nil
	}

	rc, err := f.Open()
	if err != nil {
		return "", true, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", true, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return string(data), true, nil
}

func (a *ZipArchive) find(suffix string) *zip.File {
	suffix = entryPath(suffix)
	for _, f := range a.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(entryPath(f.Name), suffix) {
			return f
		}
	}
	return nil
}

// entryPath normalizes Windows-style separators some zip tools write.
func entryPath(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}
