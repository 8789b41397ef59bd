// Package tabular reads and writes the ';'-delimited UTF-8 files the clinic
// persists its records in. Every write is a full rewrite: the new content
// goes to a temporary file next to the target, which is then renamed over
// it, so a failed write leaves the previous file untouched.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates fields within a record.
const Delimiter = ';'

// File is one table on disk with a fixed header.
type File struct {
	Path   string
	Header []string
}

// New returns a File for path whose header row is header.
func New(path string, header ...string) *File {
	return &File{Path: path, Header: header}
}

// ReadAll returns every non-blank record in the file, skipping the header
// row when present. A missing file yields no records and no error.
func (f *File) ReadAll() ([][]string, error) {
	fh, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer fh.Close()

	records, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if len(records) > 0 && len(f.Header) > 0 && isHeader(records[0], f.Header[0]) {
		records = records[1:]
	}
	return records, nil
}

// WriteAll replaces the file content with the header followed by records.
func (f *File) WriteAll(records [][]string) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", f.Path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	all := records
	if len(f.Header) > 0 {
		all = append([][]string{f.Header}, records...)
	}
	if err := Encode(tmp, all); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.Path, err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.Path, err)
	}
	committed = true
	return nil
}

// Decode parses ';'-delimited records. Rows may have any number of fields;
// blank lines are skipped.
func Decode(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// Encode writes records as ';'-delimited lines. Fields containing the
// delimiter, quotes or line breaks are quoted so they read back unchanged.
func Encode(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func isHeader(record []string, firstColumn string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")), firstColumn)
}
