// Package tabular reads the CSV/TSV/XLSX exports fed to the cleaners and
// writes cleaned CSV files.
package tabular

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table is a fully loaded sheet: a header row plus data rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Options controls how a source is read.
type Options struct {
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// Reader defines a tabular source implementation.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// ReadFile selects a reader based on filename and loads the whole table.
// A missing file yields an error matching fs.ErrNotExist.
func ReadFile(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	// Anything else is treated as delimited text when a delimiter was given.
	if opt.Delimiter != 0 {
		return csvReader{}.Read(path, opt)
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// ParseDelimiter maps the user-facing delimiter names to a rune. Empty input
// returns 0 (auto).
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab' | 'pipe')", s)
	}
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}
