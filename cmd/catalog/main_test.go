package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/catalog"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/shared/testutil"
)

func session(t *testing.T, path, input string) string {
	t.Helper()
	inv, err := catalog.Open(path, testutil.QuietLogger())
	require.NoError(t, err)
	var out bytes.Buffer
	run(strings.NewReader(input), &out, inv, testutil.QuietLogger())
	return out.String()
}

func TestRun_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	out := session(t, path, strings.Join([]string{
		"4",
		"1", "Dune", "Frank Herbert", "111",
		"2", "111",
		"2", "111",
		"3", "111",
		"3", "111",
		"2", "999",
		"5", "dune",
		"5", "emma",
		"7",
		"6",
	}, "\n")+"\n")

	assert.Contains(t, out, catalog.MsgEmpty)
	assert.Contains(t, out, "Book added.")
	assert.Equal(t, 1, strings.Count(out, "Book issued."))
	assert.Equal(t, 2, strings.Count(out, "Book unavailable or not found."))
	assert.Equal(t, 1, strings.Count(out, "Book returned."))
	assert.Equal(t, 1, strings.Count(out, "Book not found or already available."))
	assert.Contains(t, out, "Dune by Frank Herbert | ISBN: 111 | Status: available")
	assert.Contains(t, out, "No match found.")
	assert.Contains(t, out, "Invalid choice. Try again.")
	assert.True(t, strings.HasSuffix(out, "Exiting...\n"))

	reopened, err := catalog.Open(path, testutil.QuietLogger())
	require.NoError(t, err)
	b, ok := reopened.FindByISBN("111")
	require.True(t, ok)
	assert.Equal(t, catalog.StatusAvailable, b.Status)
}

func TestRun_RejectsInvalidBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	out := session(t, path, "1\n\nAnon\n1\n4\n")

	assert.Contains(t, out, "Book not added")
	assert.Contains(t, out, catalog.MsgEmpty)
	assert.True(t, strings.HasSuffix(out, "Exiting...\n"))
}

func TestFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"state", apperrors.NewStateError("issued"), "rejected"},
		{"not found", apperrors.NewNotFoundError("book 1"), "rejected"},
		{"storage", apperrors.NewStorageError("disk full", nil), "An error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failure(tt.err, "rejected"))
		})
	}
}
