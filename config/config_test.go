package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "db.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadParsesAllFourKeys(t *testing.T) {
	path := writeFile(t, "user=root\npassword=hunter2\nhost=localhost\ndb=nouns\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "nouns", cfg.DB)
}

func TestLoadSkipsBlankLinesAndComments(t *testing.T) {
	path := writeFile(t, "# comment\n\nuser=root\npassword=p\nhost=h\ndb=d\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.User)
}

func TestLoadMissingKeyFails(t *testing.T) {
	path := writeFile(t, "user=root\npassword=p\nhost=h\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	assert.Error(t, err)
}

func TestLoadMalformedLineFails(t *testing.T) {
	path := writeFile(t, "user=root\nnotakeyvaluepair\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDSNIncludesAllFields(t *testing.T) {
	cfg := &DBConfig{User: "u", Password: "p", Host: "h:3306", DB: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&charset=utf8mb4", cfg.DSN())
}
