package confirmation

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("x"), 0o644))
	return dir
}

func TestConfirmRestoreEmptyDestinationNeedsNoPrompt(t *testing.T) {
	var out bytes.Buffer
	service := NewConfirmationServiceWithStreams(strings.NewReader(""), &out)

	approved, err := service.ConfirmRestore("/backups/b.tar.gz", t.TempDir(), false)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Empty(t, out.String(), "empty destination must not prompt")
}

func TestConfirmRestoreMissingDestinationNeedsNoPrompt(t *testing.T) {
	var out bytes.Buffer
	service := NewConfirmationServiceWithStreams(strings.NewReader(""), &out)

	approved, err := service.ConfirmRestore("/backups/b.tar.gz", filepath.Join(t.TempDir(), "absent"), false)
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestConfirmRestorePopulatedDestination(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes word", input: "yes\n", want: true},
		{name: "uppercase yes", input: "Y\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "garbage defaults to no", input: "sure\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			service := NewConfirmationServiceWithStreams(strings.NewReader(tt.input), &out)

			approved, err := service.ConfirmRestore("/backups/b.tar.gz", populatedDir(t), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, approved)
			assert.Contains(t, out.String(), "Destination is not empty")
			assert.Contains(t, out.String(), "[y/N]")
		})
	}
}

func TestConfirmRestoreAutoApprove(t *testing.T) {
	var out bytes.Buffer
	service := NewConfirmationServiceWithStreams(strings.NewReader(""), &out)

	approved, err := service.ConfirmRestore("/backups/b.tar.gz", populatedDir(t), true)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Contains(t, out.String(), "Auto-approving")
}

func TestHandleInterruption(t *testing.T) {
	service := NewConfirmationServiceWithStreams(strings.NewReader(""), &bytes.Buffer{})
	err := service.HandleInterruption()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestParseConfirmationInput(t *testing.T) {
	assert.True(t, parseConfirmationInput("y"))
	assert.True(t, parseConfirmationInput(" YES "))
	assert.False(t, parseConfirmationInput("n"))
	assert.False(t, parseConfirmationInput(""))
	assert.False(t, parseConfirmationInput("maybe"))
}
