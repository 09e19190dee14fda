package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/headerpack/internal/banner"
	"github.com/phobologic/headerpack/internal/directive"
	"github.com/phobologic/headerpack/internal/pack"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// createSampleLibrary lays out a small library under dir/src with a license
// file next to it, and returns dir.
func createSampleLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "LICENSE", "/* MIT License */\n")
	writeTestFile(t, dir, "src/pax_gfx.h", `/*
	MIT License, see LICENSE.
*/
#ifndef PAX_GFX_H
#include <stdint.h>
#include "pax_types.h"
#include "shapes/pax_shapes.h"
#endif
`)
	writeTestFile(t, dir, "src/pax_types.h", `#include <stdint.h>
typedef uint32_t pax_col_t;
`)
	writeTestFile(t, dir, "src/shapes/pax_shapes.h", `#include "pax_types.h"
void pax_draw_rect(pax_col_t color, float x, float y, float w, float h);
`)
	writeTestFile(t, dir, "src/pax_unused.h", "int pax_unused;\n")
	return dir
}

const packedBody = `#ifndef PAX_GFX_H
#include <stdint.h>
typedef uint32_t pax_col_t;
void pax_draw_rect(pax_col_t color, float x, float y, float w, float h);
#endif
`

// packArgs points a run at the library in dir.
func packArgs(dir string, extra ...string) []string {
	args := []string{
		"-C", filepath.Join(dir, "src"),
		"-o", filepath.Join(dir, "out", "packed.h"),
		"--license", filepath.Join(dir, "LICENSE"),
	}
	return append(args, extra...)
}

func readOutput(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "out", "packed.h"))
	require.NoError(t, err)
	return string(data)
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run(packArgs(dir), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	want := "/* MIT License */\n\n" + strings.Join(banner.Lines("PAX"), "\n") + "\n" + packedBody
	assert.Equal(t, want, readOutput(t, dir))
	assert.Empty(t, stdout.String())

	log := stderr.String()
	assert.Contains(t, log, "included")
	assert.Contains(t, log, "path=pax_types.h")
	assert.Contains(t, log, "skipped")
	assert.Contains(t, log, "path=stdint.h")
	assert.Contains(t, log, "packed")
}

func TestRunNoBannerNoLicense(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run(packArgs(dir, "--no-banner", "--license="), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.Equal(t, packedBody, readOutput(t, dir))
}

func TestRunLibraryName(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "--library", "Gfx", "--license="), &stdout, &stderr))

	out := readOutput(t, dir)
	assert.True(t, strings.HasPrefix(out, "\n// WARNING: This is a generated file, do not edit it!\n"), out)
	assert.Contains(t, out, "want to use Gfx but")
	assert.NotContains(t, out, "PAX but")
}

func TestRunStdout(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{
		"-C", filepath.Join(dir, "src"),
		"-o", "-",
		"--license=",
		"--no-banner",
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, packedBody, stdout.String())
	_, statErr := os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunPositionalRoot(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run(packArgs(dir, "--no-banner", "--license=", "shapes/pax_shapes.h"), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, `#include <stdint.h>
typedef uint32_t pax_col_t;
void pax_draw_rect(pax_col_t color, float x, float y, float w, float h);
`, readOutput(t, dir))
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	out := filepath.Join(dir, "dist", "gfx.h")
	cfgPath := filepath.Join(dir, "headerpack.yaml")
	writeTestFile(t, dir, "headerpack.yaml", "source_root: "+filepath.Join(dir, "src")+`
root_header: pax_types.h
output: `+out+`
license: ""
banner: false
`)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--config", cfgPath}, &stdout, &stderr), stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "#include <stdint.h>\ntypedef uint32_t pax_col_t;\n", string(data))
}

func TestRunFlagOverridesConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	cfgPath := filepath.Join(dir, "headerpack.yaml")
	writeTestFile(t, dir, "headerpack.yaml", `source_root: /nonexistent
library: FromFile
`)

	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--config", cfgPath}, packArgs(dir, "--license=")...), &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, readOutput(t, dir), "want to use FromFile but")
}

func TestRunEnvOverride(t *testing.T) {
	dir := createSampleLibrary(t)
	t.Setenv("HEADERPACK_LIBRARY", "EnvLib")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "--license="), &stdout, &stderr))
	assert.Contains(t, readOutput(t, dir), "want to use EnvLib but")
}

func TestRunMissingConfigFile(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestRunRootNotFound(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run(packArgs(dir, "missing.h"), &stdout, &stderr)
	require.ErrorIs(t, err, pack.ErrRootNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "out", "packed.h"))
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestRunMalformedKeepsPreviousOutput(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir), &stdout, &stderr))
	before := readOutput(t, dir)

	writeTestFile(t, dir, "src/pax_types.h", "#include <stdint.h\n")
	err := run(packArgs(dir), &stdout, &stderr)
	require.ErrorIs(t, err, directive.ErrSyntax)
	assert.Contains(t, err.Error(), "pax_types.h:1:")

	assert.Equal(t, before, readOutput(t, dir))
	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRunMissingLicense(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "LICENSE")))

	var stdout, stderr bytes.Buffer
	err := run(packArgs(dir), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading license")
}

func TestRunSourceRootNotADirectory(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-C", filepath.Join(dir, "LICENSE"), "-o", "-"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRunPackIgnore(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	writeTestFile(t, dir, "src/.packignore", "pax_types.h\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "--no-banner", "--license="), &stdout, &stderr))

	assert.Equal(t, `#ifndef PAX_GFX_H
#include <stdint.h>
#include "pax_types.h"
void pax_draw_rect(pax_col_t color, float x, float y, float w, float h);
#endif
`, readOutput(t, dir))
}

func TestRunGitignoredHeaderInlined(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	writeTestFile(t, dir, "src/.gitignore", "pax_types.h\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "--no-banner", "--license="), &stdout, &stderr))

	out := readOutput(t, dir)
	assert.Equal(t, packedBody, out)
	assert.NotContains(t, out, `#include "pax_types.h"`)
}

func TestRunQuiet(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "-q"), &stdout, &stderr))
	assert.Empty(t, stderr.String())
}

func TestRunVerboseLogsDropped(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir, "-v"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "dropped")
}

func TestRunSkipFresh(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir), &stdout, &stderr))

	old := time.Now().Add(-time.Hour)
	for _, rel := range []string{"LICENSE", "src/pax_gfx.h", "src/pax_types.h", "src/shapes/pax_shapes.h", "src/pax_unused.h"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, rel), old, old))
	}

	stderr.Reset()
	require.NoError(t, run(packArgs(dir, "--skip-fresh"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "up to date")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "src/pax_types.h"), future, future))

	stderr.Reset()
	require.NoError(t, run(packArgs(dir, "--skip-fresh"), &stdout, &stderr))
	assert.NotContains(t, stderr.String(), "up to date")
	assert.Contains(t, stderr.String(), "packed")
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--version"}, &stdout, &stderr))
	assert.Equal(t, "headerpack dev\n", stdout.String())
}

func TestRunTooManyArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	assert.Error(t, run([]string{"a.h", "b.h"}, &stdout, &stderr))
}

func TestGraph(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"graph", "-C", filepath.Join(dir, "src")}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "root: pax_gfx.h\n"), out)
	assert.Contains(t, out, "files[5]{path,status,rank}:")
	assert.Contains(t, out, "pax_types.h,inlined,")
	assert.Contains(t, out, "stdint.h,external,")
	assert.Contains(t, out, "pax_unused.h,unreached,")
	assert.Contains(t, out, "includes[5]{source,target,line,outcome}:")
	assert.Contains(t, out, "pax_gfx.h,stdint.h,5,external")
	assert.Contains(t, out, "shapes/pax_shapes.h,pax_types.h,1,seen")
	assert.Contains(t, stderr.String(), "headers not reachable from root")
}

func TestGraphMaxFiles(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"graph", "-C", filepath.Join(dir, "src"), "-n", "2"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "files[2]{path,status,rank}:")
}

func TestGraphFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"graph", "-C", filepath.Join(dir, "src"), "--filter", "shapes"}, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "shapes/pax_shapes.h")
	assert.NotContains(t, out, "pax_unused.h")
}

func TestGraphMalformed(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	writeTestFile(t, dir, "src/pax_types.h", "#include pax_col.h\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"graph", "-C", filepath.Join(dir, "src")}, &stdout, &stderr)
	require.ErrorIs(t, err, directive.ErrSyntax)
	assert.Empty(t, stdout.String())
}

func TestCheckPackedOutput(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir), &stdout, &stderr))

	stdout.Reset()
	out := filepath.Join(dir, "out", "packed.h")
	require.NoError(t, run([]string{"check", out}, &stdout, &stderr), stdout.String())

	report := stdout.String()
	assert.Contains(t, report, "declarations[")
	assert.Contains(t, report, "pax_col_t,typedef,")
	assert.Contains(t, report, "pax_draw_rect,function,")
	assert.NotContains(t, report, "errors[")
}

func TestCheckPlainTextLicense(t *testing.T) {
	t.Parallel()
	dir := createSampleLibrary(t)
	writeTestFile(t, dir, "LICENSE", "MIT License\n\nCopyright (c) 2022 PAX authors\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(packArgs(dir), &stdout, &stderr))

	stdout.Reset()
	out := filepath.Join(dir, "out", "packed.h")
	require.NoError(t, run([]string{"check", out}, &stdout, &stderr), stdout.String())

	report := stdout.String()
	assert.NotContains(t, report, "errors[")
	// license (3) + separator (1) + notice (3) + #ifndef + #include
	assert.Contains(t, report, "pax_col_t,typedef,10")
}

func TestCheckSyntaxErrorAfterLicense(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "bad.h", "MIT License\n\n"+banner.Warning+"\nint ok;\nint x = ;\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"check", filepath.Join(dir, "bad.h")}, &stdout, &stderr)
	require.ErrorIs(t, err, errProblemsFound)
	assert.Contains(t, stdout.String(), "errors[")
	assert.Contains(t, stdout.String(), "\n  5,")
}

func TestCheckSyntaxError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "bad.h", "int ok;\nint x = ;\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"check", filepath.Join(dir, "bad.h")}, &stdout, &stderr)
	require.ErrorIs(t, err, errProblemsFound)
	assert.Contains(t, stdout.String(), "errors[")
}

func TestCheckStdoutOutput(t *testing.T) {
	t.Parallel()
	cfgDir := t.TempDir()
	writeTestFile(t, cfgDir, "headerpack.yaml", "output: \"-\"\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", filepath.Join(cfgDir, "headerpack.yaml"), "check"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout")
}

func TestCheckUnsupportedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "notes.txt", "int x;\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"check", filepath.Join(dir, "notes.txt")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
