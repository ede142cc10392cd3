package gradebook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labpulse/internal/errors"
	"labpulse/internal/shared/testutil"
)

func TestEntry_AverageAndGrade(t *testing.T) {
	tests := []struct {
		name    string
		marks   []string
		average string
		grade   string
	}{
		{"mixed marks", []string{"95", "85", "75", "60"}, "78.75", "C"},
		{"top boundary", []string{"90", "90", "90", "90"}, "90.00", "A"},
		{"just below A", []string{"89.99", "90", "90", "90"}, "89.9975", "B"},
		{"D boundary", []string{"60", "60", "60", "60"}, "60.00", "D"},
		{"failing", []string{"0", "10", "20", "30"}, "15.00", "F"},
		{"decimals", []string{"70.5", "69.5", "70", "70"}, "70.00", "C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEntry("Asha", tt.marks...)
			require.NoError(t, err)

			want, err := decimal.NewFromString(tt.average)
			require.NoError(t, err)
			assert.True(t, want.Equal(e.Average()), "average %s", e.Average())
			assert.Equal(t, tt.grade, e.Grade())
		})
	}
}

func TestNewEntry_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		marks []string
	}{
		{"empty name", " ", []string{"1", "2", "3", "4"}},
		{"not a number", "Ravi", []string{"1", "x", "3", "4"}},
		{"above range", "Ravi", []string{"101", "2", "3", "4"}},
		{"negative", "Ravi", []string{"-1", "2", "3", "4"}},
		{"too few marks", "Ravi", []string{"1", "2", "3"}},
		{"too many marks", "Ravi", []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.entry, tt.marks...)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestEntry_Record(t *testing.T) {
	tests := []struct {
		name  string
		marks []string
		want  []string
	}{
		{"whole marks get one decimal", []string{"95", "85.0", "75", "60"}, []string{"Asha", "95.0", "85.0", "75.0", "60.0", "78.75", "C"}},
		{"fractional marks kept", []string{"92.25", "88.5", "0", "100.00"}, []string{"Asha", "92.25", "88.5", "0.0", "100.0", "70.19", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEntry("Asha", tt.marks...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Record())
		})
	}
}

func TestBook_AppendAndView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.csv")
	book := New(path, testutil.QuietLogger())

	_, err := book.View()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	first, err := NewEntry("Asha", "95", "85", "75", "60")
	require.NoError(t, err)
	second, err := NewEntry("Smith, Jane", "90", "90", "90", "90")
	require.NoError(t, err)

	require.NoError(t, book.Append([]Entry{first}))
	require.NoError(t, book.Append([]Entry{second}))
	require.NoError(t, book.Append(nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Asha,95.0,85.0,75.0,60.0,78.75,C\n\"Smith, Jane\",90.0,90.0,90.0,90.0,90.00,A\n", string(content))

	rows, err := book.View()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Asha", "95.0", "85.0", "75.0", "60.0", "78.75", "C"},
		{"Smith, Jane", "90.0", "90.0", "90.0", "90.0", "90.00", "A"},
	}, rows)
}

func TestBook_ViewReturnsRawRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.csv")
	require.NoError(t, os.WriteFile(path, []byte("Edited,1,1,1,1,99.00,A\nShort,1\n"), 0644))

	rows, err := New(path, testutil.QuietLogger()).View()
	require.NoError(t, err)
	assert.Equal(t, []string{"Edited", "1", "1", "1", "1", "99.00", "A"}, rows[0])
	assert.Equal(t, []string{"Short", "1"}, rows[1])

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	rows, err = New(empty, testutil.QuietLogger()).View()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([][]string{{"Asha", "95", "85", "75", "60", "78.75", "C"}, {"Short"}})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	require.Len(t, lines, 6)
	assert.Equal(t, rule, lines[0])
	assert.Equal(t, "Name\tSub1\tSub2\tSub3\tSub4\tAvg\tGrade", lines[1])
	assert.Equal(t, "Asha\t95\t85\t75\t60\t78.75\tC", lines[3])
	assert.Equal(t, "Short\t\t\t\t\t\t", lines[4])
	assert.Equal(t, rule, lines[5])
}
