// Package summary maintains the month-partitioned results table inside the
// ledger document.
package summary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TableHeader is the fixed header row of every month table.
	TableHeader = "| 日期  | 模型 | 1 | 2 | 3 | 4 | 5 |"
	// TableAlign is the alignment row following TableHeader.
	TableAlign = "| :-- | :-- | :-- | :-- | :-- | :-- | :-- |"

	// Slots is the number of result cells per row.
	Slots = 5

	headerPrefix  = "| 日期"
	sectionPrefix = "## "
)

var rowPattern = regexp.MustCompile(`^\|\s*(\d{1,2})\s*\|`)

// Preamble opens a ledger document that does not exist yet.
var Preamble = []string{
	"> 汇总规则如下：",
	"> 1. 以月份为二级标题维度",
	"> 2. 每个月份包含按天（使用的模型）为纵轴，以分析结果的仓库为横轴的表格",
	"> 3. 表格日期采用倒序：最新日期排在表格的前面",
	"",
}

// Entry is one result cell: a repository name and its link.
type Entry struct {
	Name string
	URL  string
}

// MonthTitle returns the section heading for date's month.
func MonthTitle(date time.Time) string {
	return fmt.Sprintf("## %d月", int(date.Month()))
}

// Row renders a table row for day, model and up to five entries.
func Row(day int, model string, entries []Entry) string {
	cells := make([]string, 0, Slots)
	for _, e := range entries {
		if len(cells) == Slots {
			break
		}
		cells = append(cells, e.cell())
	}
	for len(cells) < Slots {
		cells = append(cells, "")
	}
	return fmt.Sprintf("| %-2d  | `%s` | %s |", day, model, strings.Join(cells, " | "))
}

func (e Entry) cell() string {
	switch {
	case e.Name != "" && e.URL != "":
		return fmt.Sprintf("[%s](%s)", e.Name, e.URL)
	case e.Name != "":
		return e.Name
	}
	return ""
}

// Merge inserts a row for date into the month table of lines and returns
// the new line slice. Rows stay ordered by day descending: the new row goes
// in front of the first row whose day is less than or equal to its own, so
// a second row for the same day lands above the earlier one instead of
// replacing it. lines is not modified.
func Merge(lines []string, date time.Time, model string, entries []Entry) []string {
	out := make([]string, len(lines), len(lines)+6)
	copy(out, lines)

	var section int
	out, section = ensureSection(out, MonthTitle(date))

	var header int
	out, header = ensureTable(out, section)

	day := date.Day()
	return insertAt(out, rowPosition(out, header, day), Row(day, model, entries))
}

// ensureSection returns the index of the month heading, appending a new
// section at the end of the document when it is missing.
func ensureSection(lines []string, title string) ([]string, int) {
	for i, line := range lines {
		if strings.TrimSpace(line) == title {
			return lines, i
		}
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) != "" {
		lines = append(lines, "")
	}
	lines = append(lines, title, "")
	return lines, len(lines) - 2
}

// ensureTable returns the index of the table header within the section at
// section, creating the header right below the heading when absent.
func ensureTable(lines []string, section int) ([]string, int) {
	for i := section + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], sectionPrefix) {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(lines[i]), headerPrefix) {
			return lines, i
		}
	}

	at := section + 1
	if at < len(lines) && strings.TrimSpace(lines[at]) == "" {
		at++
	} else {
		lines = insertAt(lines, at, "")
		at++
	}
	lines = insertAt(lines, at, TableHeader, TableAlign)
	return lines, at
}

// rowPosition finds where a row for day belongs in the table whose header
// sits at header. It scans rows up to the next section heading and picks
// the first row with a day <= day. Failing that, the row goes just before
// the next section heading, or at the end of the document.
func rowPosition(lines []string, header, day int) int {
	for i := header + 2; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, sectionPrefix) {
			return i
		}
		if !strings.HasPrefix(line, "|") {
			continue
		}
		m := rowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if existing, err := strconv.Atoi(m[1]); err == nil && existing <= day {
			return i
		}
	}
	return len(lines)
}

func insertAt(lines []string, at int, values ...string) []string {
	return append(lines[:at], append(values, lines[at:]...)...)
}
