package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/bfc/internal/diag"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{usageError{errors.New("bad flag")}, exitUsage},
		{errors.New("something else"), exitUsage},
		{ioError{errors.New("read")}, exitIO},
		{fmt.Errorf("x.bf: %w", &fs.PathError{Op: "open", Path: "x.bf", Err: fs.ErrNotExist}), exitIO},
		{diag.Wrap(diag.StageParse, &diag.SyntaxError{Line: 1, Col: 1}), exitSyntax},
		{diag.Wrap(diag.StageResolve, &diag.UnsupportedArchError{Arch: "arm"}), exitCodegen},
		{diag.Wrap(diag.StageEmit, &diag.SinkWriteError{Err: errors.New("full")}), exitIO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "", outputPath("a.bf", options{}, false))
	assert.Equal(t, "out.s", outputPath("a.bf", options{output: "out.s"}, false))
	assert.Equal(t, filepath.Join("dir", "a.s"), outputPath(filepath.Join("dir", "a.bf"), options{}, true))
	assert.Equal(t, "noext.s", outputPath("noext", options{}, true))
	assert.Equal(t, "a.ir", outputPath("a.b", options{emitIR: true}, true))
}

func TestCompileSingleFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "hello.bf", "+[-].")
	out := filepath.Join(dir, "hello.asm")

	_, err := run(t, "-o", out, in)
	require.NoError(t, err)
	asm := read(t, out)
	assert.Contains(t, asm, "_start:")
	assert.Contains(t, asm, "%rbx")

	_, err = run(t, "--stats", "-o", out, in)
	require.NoError(t, err)
	assert.Equal(t, asm, read(t, out))
}

func TestCompileManyFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.bf", "+.")
	b := writeFile(t, dir, "b.bf", "-.")

	_, err := run(t, "-j", "2", "--arch", "i386", a, b)
	require.NoError(t, err)
	for _, name := range []string{"a.s", "b.s"} {
		assert.Contains(t, read(t, filepath.Join(dir, name)), "int $0x80", name)
	}

	_, err = run(t, "-o", filepath.Join(dir, "x.s"), a, b)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestCompileFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.bf", "+\n[")
	out := filepath.Join(dir, "bad.s")

	_, err := run(t, "-o", out, in)
	require.Error(t, err)
	assert.Equal(t, exitSyntax, exitCode(err))
	assert.Contains(t, err.Error(), "2:1: unmatched open bracket")
	assert.NoFileExists(t, out)

	_, err = run(t, "-a", "sparc", "-o", out, in)
	assert.Equal(t, exitCodegen, exitCode(err))
	assert.NoFileExists(t, out)

	_, err = run(t, "-o", out, filepath.Join(dir, "missing.bf"))
	assert.Equal(t, exitIO, exitCode(err))
	assert.NoFileExists(t, out)
}

func TestConfigAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "bfc.toml", "arch = \"x86\"\noptimize = true\n")
	in := writeFile(t, dir, "p.bf", "[-]")
	out := filepath.Join(dir, "p.s")

	_, err := run(t, "--config", cfg, "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, read(t, out), "%esi")
	assert.NotContains(t, read(t, out), ".Lloop0")

	_, err = run(t, "--config", cfg, "--arch", "x64", "-O", "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, read(t, out), "%rbx")
	assert.Contains(t, read(t, out), ".Lloop0")

	_, err = run(t, "--config", cfg, "-P", "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, read(t, out), ".Lloop0")

	bad := writeFile(t, dir, "bad.toml", "tape = 1\n")
	_, err = run(t, "--config", bad, "-o", out, in)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestEmitIR(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "p.bf", "[-]>")
	out := filepath.Join(dir, "p.ir")

	_, err := run(t, "--emit-ir", "-o", out, in)
	require.NoError(t, err)
	assert.Equal(t, "set 0 [+0]\nmove +1\n", read(t, out))
}

func TestUsageErrors(t *testing.T) {
	_, err := run(t)
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "--no-such-flag", "x.bf")
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "-j", "0", "x.bf")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestTargetsCmd(t *testing.T) {
	out, err := run(t, "targets")
	require.NoError(t, err)
	assert.Equal(t, "x64\t(amd64, x86-64, x86_64)\nx86\t(i386, i686, x86-32, x86_32)\n", out)
}

func TestRemovePartials(t *testing.T) {
	path := writeFile(t, t.TempDir(), "half.s", ".text\n")
	trackPartial(path)
	removePartials()
	assert.NoFileExists(t, path)
}
