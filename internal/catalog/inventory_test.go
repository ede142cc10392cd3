package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labpulse/internal/errors"
	"labpulse/internal/shared/testutil"
)

func openEmpty(t *testing.T) (*Inventory, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	inv, err := Open(path, testutil.QuietLogger())
	require.NoError(t, err)
	return inv, path
}

func mustBook(t *testing.T, title, author, isbn string) *Book {
	t.Helper()
	b, err := NewBook(title, author, isbn)
	require.NoError(t, err)
	return b
}

func TestBook_String(t *testing.T) {
	b := mustBook(t, "Dune", "Frank Herbert", "978-0441013593")
	assert.Equal(t, "Dune by Frank Herbert | ISBN: 978-0441013593 | Status: available", b.String())
}

func TestNewBook_Invalid(t *testing.T) {
	tests := []struct {
		name                string
		title, author, isbn string
	}{
		{"no title", " ", "A", "1"},
		{"no author", "T", "", "1"},
		{"no isbn", "T", "A", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBook(tt.title, tt.author, tt.isbn)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestBook_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		start   Status
		op      func(*Book) error
		wantErr bool
		want    Status
	}{
		{"issue available", StatusAvailable, (*Book).Issue, false, StatusIssued},
		{"issue issued", StatusIssued, (*Book).Issue, true, StatusIssued},
		{"return issued", StatusIssued, (*Book).Return, false, StatusAvailable},
		{"return available", StatusAvailable, (*Book).Return, true, StatusAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Book{Title: "T", Author: "A", ISBN: "1", Status: tt.start}
			err := tt.op(b)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeState))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, b.Status)
		})
	}
}

func TestInventory_IssueTwiceAndReturnWhenAvailable(t *testing.T) {
	inv, path := openEmpty(t)
	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "111")))

	err := inv.Return("111")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeState))

	require.NoError(t, inv.Issue("111"))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = inv.Issue("111")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeState))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	b, ok := inv.FindByISBN("111")
	require.True(t, ok)
	assert.Equal(t, StatusIssued, b.Status)

	require.NoError(t, inv.Return("111"))
	b, _ = inv.FindByISBN("111")
	assert.Equal(t, StatusAvailable, b.Status)
}

func TestInventory_NotFound(t *testing.T) {
	inv, _ := openEmpty(t)
	for _, op := range []func(string) error{inv.Issue, inv.Return} {
		err := op("missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	}
	_, ok := inv.FindByISBN("missing")
	assert.False(t, ok)
}

func TestInventory_PersistsIndentedJSON(t *testing.T) {
	inv, path := openEmpty(t)
	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "111")))
	require.NoError(t, inv.Issue("111"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[
    {
        "title": "Dune",
        "author": "Frank Herbert",
        "isbn": "111",
        "status": "issued"
    }
]`, string(content))

	reopened, err := Open(path, testutil.QuietLogger())
	require.NoError(t, err)
	assert.Equal(t, inv.All(), reopened.All())
}

func TestInventory_AddRejects(t *testing.T) {
	inv, _ := openEmpty(t)
	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "111")))

	err := inv.Add(mustBook(t, "Dune Messiah", "Frank Herbert", "111"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	err = inv.Add(&Book{Title: "T", Author: "A", ISBN: "2", Status: "lost"})
	require.Error(t, err)
	assert.Equal(t, 1, inv.Len())
}

func TestInventory_Search(t *testing.T) {
	inv, _ := openEmpty(t)
	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "1")))
	require.NoError(t, inv.Add(mustBook(t, "Children of Dune", "Frank Herbert", "2")))
	require.NoError(t, inv.Add(mustBook(t, "Neuromancer", "William Gibson", "3")))

	tests := []struct {
		query string
		want  []string
	}{
		{"dune", []string{"1", "2"}},
		{"DUNE", []string{"1", "2"}},
		{"neuro", []string{"3"}},
		{"", []string{"1", "2", "3"}},
		{"foundation", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, b := range inv.SearchByTitle(tt.query) {
				got = append(got, b.ISBN)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventory_CopiesDoNotAlias(t *testing.T) {
	inv, _ := openEmpty(t)
	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "1")))

	all := inv.All()
	all[0].Status = StatusIssued
	b, _ := inv.FindByISBN("1")
	assert.Equal(t, StatusAvailable, b.Status)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", "{not json"},
		{"null entry", "[null]"},
		{"null after valid entry", `[{"title":"T","author":"A","isbn":"1"},null]`},
		{"unknown status", `[{"title":"T","author":"A","isbn":"1","status":"lost"}]`},
		{"missing title", `[{"author":"A","isbn":"1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			var err error
			require.NotPanics(t, func() {
				_, err = Open(path, testutil.QuietLogger())
			})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
		})
	}
}

func TestOpen_DefaultsMissingStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data, err := json.Marshal([]map[string]string{{"title": "T", "author": "A", "isbn": "9"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	inv, err := Open(path, testutil.QuietLogger())
	require.NoError(t, err)
	require.NoError(t, inv.Issue("9"))
}

func TestRender(t *testing.T) {
	assert.Equal(t, "No books in inventory.\n", Render(nil))

	out := Render([]Book{
		{Title: "Dune", Author: "Frank Herbert", ISBN: "1", Status: StatusAvailable},
		{Title: "Emma", Author: "Jane Austen", ISBN: "2", Status: StatusIssued},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"Dune by Frank Herbert | ISBN: 1 | Status: available",
		"Emma by Jane Austen | ISBN: 2 | Status: issued",
	}, lines)
}

func TestInventory_Logging(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	inv, err := Open(filepath.Join(t.TempDir(), "catalog.json"), logger)
	require.NoError(t, err)
	testutil.AssertLogged(t, logs, slog.LevelInfo, "Catalog file not found. Creating new one.")

	require.NoError(t, inv.Add(mustBook(t, "Dune", "Frank Herbert", "1")))
	r := testutil.AssertLogged(t, logs, slog.LevelInfo, "Book added")
	assert.Equal(t, "1", r.Attrs["isbn"])

	require.Error(t, inv.Issue("2"))
	testutil.AssertLogged(t, logs, slog.LevelWarn, "Book not found")
}
