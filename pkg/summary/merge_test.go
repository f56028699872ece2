package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func indexOf(t *testing.T, lines []string, prefix string) int {
	t.Helper()
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return i
		}
	}
	t.Fatalf("no line with prefix %q in:\n%s", prefix, strings.Join(lines, "\n"))
	return -1
}

var januaryTable = []string{
	"## 1月",
	"",
	TableHeader,
	TableAlign,
	"| 29  | `gpt-5` | [ocrbase](https://github.com/majcheradam/ocrbase) |  |  |  |  |",
	"| 28  | `gemini` | [gemini-cli](https://github.com/google-gemini/gemini-cli) |  |  |  |  |",
}

func TestRow(t *testing.T) {
	entries := []Entry{
		{Name: "repo-a", URL: "https://github.com/foo/repo-a"},
		{Name: "bare"},
		{},
		{Name: "d", URL: "u"}, {Name: "e", URL: "u"}, {Name: "sixth", URL: "u"},
	}
	assert.Equal(t,
		"| 7   | `gpt-5.2` | [repo-a](https://github.com/foo/repo-a) | bare |  | [d](u) | [e](u) |",
		Row(7, "gpt-5.2", entries))

	assert.Equal(t, "| 30  | `m` |  |  |  |  |  |", Row(30, "m", nil))
}

func TestMerge_InsertsAboveEarlierDays(t *testing.T) {
	entries := []Entry{
		{Name: "repo-a", URL: "https://github.com/foo/repo-a"},
		{Name: "repo-b", URL: "https://github.com/foo/repo-b"},
	}

	got := Merge(januaryTable, day(2026, 1, 30), "gpt-5.2", entries)

	require.Len(t, got, len(januaryTable)+1)
	assert.Equal(t,
		"| 30  | `gpt-5.2` | [repo-a](https://github.com/foo/repo-a) | [repo-b](https://github.com/foo/repo-b) |  |  |  |",
		got[4])
	assert.Less(t, indexOf(t, got, "| 30"), indexOf(t, got, "| 29"))
	assert.Less(t, indexOf(t, got, "| 29"), indexOf(t, got, "| 28"))
	assert.Len(t, januaryTable, 6, "input must not be modified")
}

func TestMerge_DuplicateDayKeepsBothRows(t *testing.T) {
	// Same-day merges stack, newest first; the older row is kept as is.
	lines := []string{
		"## 1月",
		"",
		TableHeader,
		TableAlign,
		"| 30  | `gpt-5` | [old](https://github.com/foo/old) |  |  |  |  |",
	}

	got := Merge(lines, day(2026, 1, 30), "gpt-5.2", []Entry{{Name: "repo-new", URL: "https://github.com/foo/repo-new"}})

	require.Len(t, got, 6)
	assert.Equal(t, "| 30  | `gpt-5.2` | [repo-new](https://github.com/foo/repo-new) |  |  |  |  |", got[4])
	assert.Equal(t, lines[4], got[5])
}

func TestMerge_InsertsBetweenRows(t *testing.T) {
	got := Merge(januaryTable, day(2026, 1, 28), "m", nil)
	// day 28 goes above the existing 28, below 29
	assert.True(t, strings.HasPrefix(got[5], "| 28  | `m`"))
	assert.Equal(t, januaryTable[5], got[6])
}

func TestMerge_SmallestDayGoesBeforeNextSection(t *testing.T) {
	lines := append(append([]string{}, januaryTable...), "", "## 12月", "", TableHeader, TableAlign, "| 31  | `x` |  |  |  |  |  |")

	got := Merge(lines, day(2026, 1, 3), "m", nil)

	require.Len(t, got, len(lines)+1)
	assert.Equal(t, januaryTable[5], got[5])
	assert.Equal(t, "", got[6])
	assert.True(t, strings.HasPrefix(got[7], "| 3   | `m`"), "row sits right above the next month heading")
	assert.Equal(t, "## 12月", got[8])
}

func TestMerge_SmallestDayAtDocumentEnd(t *testing.T) {
	got := Merge(januaryTable, day(2026, 1, 3), "m", nil)

	require.Len(t, got, len(januaryTable)+1)
	assert.True(t, strings.HasPrefix(got[len(got)-1], "| 3   | `m`"))
}

func TestMerge_NewMonthSection(t *testing.T) {
	got := Merge(januaryTable, day(2026, 2, 1), "m", []Entry{{Name: "x", URL: "https://github.com/a/x"}})

	want := append(append([]string{}, januaryTable...),
		"",
		"## 2月",
		"",
		TableHeader,
		TableAlign,
		"| 1   | `m` | [x](https://github.com/a/x) |  |  |  |  |",
	)
	assert.Equal(t, want, got)
}

func TestMerge_SectionWithoutTable(t *testing.T) {
	lines := []string{"# Digest", "## 3月", "some notes"}

	got := Merge(lines, day(2026, 3, 9), "m", nil)

	assert.Equal(t, []string{
		"# Digest",
		"## 3月",
		"",
		TableHeader,
		TableAlign,
		"some notes",
		"| 9   | `m` |  |  |  |  |  |",
	}, got)
}

func TestMerge_EmptyTableBeforeNextSection(t *testing.T) {
	lines := []string{"## 2月", "", TableHeader, TableAlign, "", "## 1月"}

	got := Merge(lines, day(2026, 2, 14), "m", nil)

	assert.Equal(t, []string{"## 2月", "", TableHeader, TableAlign, "", "| 14  | `m` |  |  |  |  |  |", "## 1月"}, got)
}

func TestMerge_PreservesExistingRowsInOrder(t *testing.T) {
	got := januaryTable
	for _, d := range []int{30, 1, 29, 31, 15} {
		got = Merge(got, day(2026, 1, d), "m", nil)
	}

	var days []int
	var kept []string
	for _, l := range got {
		m := rowPattern.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		var d int
		for _, c := range m[1] {
			d = d*10 + int(c-'0')
		}
		days = append(days, d)
		if !strings.Contains(l, "`m`") {
			kept = append(kept, l)
		}
	}

	assert.Equal(t, []int{31, 30, 29, 29, 28, 15, 1}, days)
	assert.Equal(t, januaryTable[4:], kept)
}
