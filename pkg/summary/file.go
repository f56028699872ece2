package summary

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrModelRequired is returned when an update is requested without a model.
var ErrModelRequired = errors.New("model name is required to update the summary")

// ReadLines loads the document at path as lines. A missing document starts
// from Preamble.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return append([]string(nil), Preamble...), nil
		}
		return nil, fmt.Errorf("read summary %s: %w", path, err)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits content on line breaks without producing a trailing
// empty line for a final newline.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// Render joins lines, trims trailing whitespace and ends with one newline.
func Render(lines []string) string {
	return strings.TrimRight(strings.Join(lines, "\n"), " \t\r\n") + "\n"
}

// WriteLines persists lines to path, creating parent directories.
func WriteLines(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(Render(lines)), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// Update merges a row for date into the document at path and writes it
// back. Callers must not run concurrent updates against the same path.
func Update(path string, date time.Time, model string, entries []Entry) error {
	if strings.TrimSpace(model) == "" {
		return ErrModelRequired
	}
	lines, err := ReadLines(path)
	if err != nil {
		return err
	}
	return WriteLines(path, Merge(lines, date, model, entries))
}
