package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	original := version
	version = "1.4.0"
	defer func() { version = original }()

	out, err := executeCommand("version")

	require.NoError(t, err)
	assert.Contains(t, out, "sercha-comply version 1.4.0")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version, strings.TrimSpace(out))
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("version", "extra")

	assert.Error(t, err)
}
