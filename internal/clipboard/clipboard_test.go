package clipboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultCommands(t *testing.T) {
	wayland := New("wayland", nil, nil)
	assert.Equal(t, "wl-copy", wayland.copyCmd[0])
	assert.Equal(t, "wl-paste", wayland.pasteCmd[0])

	x11 := New("x11", nil, nil)
	assert.Equal(t, "xclip", x11.copyCmd[0])
	assert.Contains(t, x11.pasteCmd, "-o")
}

func TestCopyDeliversText(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "clip.txt")
	m := New("x11", []string{"sh", "-c", "cat > " + sink}, nil)

	require.NoError(t, m.Copy(context.Background(), "hello clipboard"))

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	assert.Equal(t, "hello clipboard", string(data))
}

func TestCopyCommandFailure(t *testing.T) {
	m := New("x11", []string{"false"}, nil)
	assert.Error(t, m.Copy(context.Background(), "text"))
}

func TestCopyMissingBinary(t *testing.T) {
	m := New("x11", []string{"sniptext-no-such-tool-for-test"}, nil)
	assert.Error(t, m.Copy(context.Background(), "text"))
}

func TestCopyLongRunningCommandSucceeds(t *testing.T) {
	// Wayland clipboard tools stay alive to serve the selection; Copy
	// must not block on them.
	m := New("x11", []string{"sleep", "2"}, nil)

	start := time.Now()
	assert.NoError(t, m.Copy(context.Background(), "text"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPaste(t *testing.T) {
	m := New("x11", nil, []string{"echo", "from clipboard"})

	text, err := m.Paste(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from clipboard\n", text)
}

func TestPasteFailure(t *testing.T) {
	m := New("x11", nil, []string{"false"})

	_, err := m.Paste(context.Background())
	assert.Error(t, err)
}
