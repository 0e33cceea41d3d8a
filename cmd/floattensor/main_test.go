package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out, &out))
	assert.Equal(t, "floattensor "+version+"\n", out.String())
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, &out, &out))
	assert.Contains(t, out.String(), "Commands:")

	var stderr bytes.Buffer
	assert.Error(t, run([]string{"train"}, &out, &stderr))
	assert.Contains(t, stderr.String(), "demo")
}

func TestRun_Demo(t *testing.T) {
	for _, device := range []string{"host", "cpu"} {
		t.Run(device, func(t *testing.T) {
			var out, log bytes.Buffer
			require.NoError(t, run([]string{"demo", "-device", device}, &out, &log))

			got := out.String()
			assert.Contains(t, got, "copy           equal=true distinct=true")
			assert.Contains(t, got, "add            [2 5] [4 4 9 13 15 7 11 16 14 17]")
			assert.Contains(t, got, "add self       [2 5] [2 4 6 8 10 12 14 16 18 20]")
			assert.Contains(t, got, "[2 5] + [2 6]: size")
			assert.Contains(t, got, "[4] + [2 2]: rank")
			assert.Contains(t, got, "[2 3] + [3 2]: extent")
		})
	}
}

func TestRun_DemoConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: cpu\nlog_level: debug\n"), 0o600))

	var out, log bytes.Buffer
	require.NoError(t, run([]string{"demo", "-config", path}, &out, &log))
	assert.Contains(t, out.String(), "device: CPU")
	assert.NotEmpty(t, log.String())

	assert.Error(t, run([]string{"demo", "-device", "tpu"}, &out, &log))
}
