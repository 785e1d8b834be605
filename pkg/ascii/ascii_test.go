package ascii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "single line",
			lines: []string{"Hello"},
			want:  "┌───────┐\n│ Hello │\n└───────┘\n",
		},
		{
			name:  "multiple lines",
			lines: []string{"Line 1", "Longer line here", "Short  "},
			want: "┌──────────────────┐\n" +
				"│ Line 1           │\n" +
				"│ Longer line here │\n" +
				"│ Short            │\n" +
				"└──────────────────┘\n",
		},
		{
			name:  "empty",
			lines: nil,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Box(tt.lines))
		})
	}
}

func TestTable(t *testing.T) {
	got := Table(
		[]string{"Plugin", "Findings"},
		[][]string{{"broken-links", "3"}, {"missing-files", "12"}},
		AlignLeft, AlignRight,
	)
	want := "┌───────────────┬──────────┐\n" +
		"│ Plugin        │ Findings │\n" +
		"├───────────────┼──────────┤\n" +
		"│ broken-links  │        3 │\n" +
		"│ missing-files │       12 │\n" +
		"└───────────────┴──────────┘\n"
	assert.Equal(t, want, got)
}

func TestTableShortRowsAndNoHeaders(t *testing.T) {
	got := Table([]string{"a", "b"}, [][]string{{"x"}})
	assert.Contains(t, got, "│ x │   │\n")
	assert.Equal(t, "", Table(nil, [][]string{{"x"}}))
}

func TestTableWideRunesStayAligned(t *testing.T) {
	got := Table([]string{"Status"}, [][]string{{"✅ fixed"}, {"ok"}})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	width := StringWidth(lines[0])
	for _, l := range lines {
		assert.Equal(t, width, StringWidth(l), "line %q", l)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
