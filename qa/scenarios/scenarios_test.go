package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, "load %s", f)
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err, "missing file")

	write := func(data string) string {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		return path
	}
	_, err = Load(write(":"))
	assert.Error(t, err, "unmarshal error")

	_, err = Load(write("name: x\n"))
	assert.ErrorContains(t, err, "today is required")

	_, err = Load(write("name: x\ntoday: 2026-10-19\nreasoner: oracle\n"))
	assert.ErrorContains(t, err, "unknown reasoner")

	_, err = Load(write("name: x\ntoday: 2026-10-19\ndata:\n  skills:\n    - {technician_id: a, service_type: x, level: maybe}\n"))
	assert.ErrorContains(t, err, "invalid skill level")
}
