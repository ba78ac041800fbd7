package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-ledstrip/internal/led"
)

func TestRun_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("led_count: 0\n"), 0644))

	err := run(options{configPath: bad})
	assert.ErrorIs(t, err, led.ErrInvalidCount)

	err = run(options{configPath: filepath.Join(dir, "missing.yaml"), driver: "pwm"})
	assert.ErrorContains(t, err, "pwm", "flags are validated over the defaults")

	require.NoError(t, os.WriteFile(bad, []byte("fps: [\n"), 0644))
	assert.Error(t, run(options{configPath: bad}))
}
