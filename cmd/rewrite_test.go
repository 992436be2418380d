package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRewriteCmd(t *testing.T, stdin string, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"rewrite"}, args...))
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		_ = rewriteCmd.Flags().Set("count", "false")
	})
	require.NoError(t, rootCmd.Execute())
	return stdout.String(), stderr.String()
}

func TestRewriteStdin(t *testing.T) {
	out, errOut := runRewriteCmd(t, "hello https://google.com and http", "--count")
	assert.Equal(t, "hello http://google.com and http", out)
	assert.Equal(t, "1 replacements\n", errOut)
}

func TestRewriteFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.html")
	b := filepath.Join(dir, "b.html")
	require.NoError(t, os.WriteFile(a, []byte(`<a href="https:`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`//x">https://y</a>`), 0644))

	out, _ := runRewriteCmd(t, "", a, b)
	assert.Equal(t, `<a href="https://x">http://y</a>`, out)
}

func TestRewriteMissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"rewrite", filepath.Join(t.TempDir(), "missing")})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	defer rootCmd.SetArgs(nil)
	assert.Error(t, rootCmd.Execute())
}
