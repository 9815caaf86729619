package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrInputNotFound    = errors.New("input not found")
	ErrNoSupportedFiles = errors.New("no supported files")
	ErrUnsupportedType  = errors.New("unsupported file type")
)

type Format int

const (
	FormatExcel Format = iota + 1
	FormatCSV
)

var extensions = map[string]Format{
	".xlsx": FormatExcel,
	".xlsm": FormatExcel,
	".xls":  FormatExcel,
	".csv":  FormatCSV,
}

// Source is one input file.
type Source struct {
	Path   string
	Name   string
	Format Format
}

// FormatOf maps a file name to its reader by extension, ignoring case.
func FormatOf(name string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// ListInputs expands path into the sources to process. A directory yields
// its supported files sorted by name; a single file must itself be
// supported. Excel lock files (~$name.xlsx) are ignored.
func ListInputs(path string) ([]Source, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		format, ok := FormatOf(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
		}
		return []Source{{Path: path, Name: filepath.Base(path), Format: format}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var out []Source
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, "~$") {
			continue
		}
		format, ok := FormatOf(name)
		if !ok {
			continue
		}
		out = append(out, Source{Path: filepath.Join(path, name), Name: name, Format: format})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSupportedFiles, path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
