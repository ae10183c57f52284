package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the command line in dir and returns standard output and
// standard error.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// collectTexts returns the text of every run in the dumped pages.
func collectTexts(pages []pageDump) []string {
	var out []string
	var walk func(b *boxDump)
	walk = func(b *boxDump) {
		if b == nil {
			return
		}
		if b.Text != "" {
			out = append(out, b.Text)
		}
		for _, c := range b.Children {
			walk(c)
		}
	}
	for _, p := range pages {
		walk(p.Root)
	}
	return out
}

func TestVersionFlag(t *testing.T) {
	out, _, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestRenderWritesFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "report.html", `<title>Report</title><h1>Quarterly</h1><p>numbers</p>`)

	_, stderr, err := run(t, "", "render", input, "--network=false", "--footer", "Page {page}")
	require.NoError(t, err)

	out := filepath.Join(dir, "report.pdf")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/Count 1")
	assert.Contains(t, stderr, "wrote 1 pages to "+out)
}

func TestRenderAppendsInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.html", "<p>first</p>")
	b := writeFile(t, dir, "b.html", "<p>second</p>")
	out := filepath.Join(dir, "both.pdf")

	_, _, err := run(t, "", "render", a, b, "-o", out, "--page-size", "letter", "--landscape")
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/Count 2")
	assert.Contains(t, string(data), "/MediaBox [0 0 792 612]")
}

func TestRenderStdinToStdout(t *testing.T) {
	out, _, err := run(t, "<p>piped</p>", "render", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "%%EOF"))
}

func TestBoxesLoadsLocalStylesheets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "style.css", ".gone { display: none }")
	input := writeFile(t, dir, "page.html",
		`<link rel="stylesheet" href="style.css"><p class="gone">secret</p><p>shown</p>`)

	out, _, err := run(t, "", "boxes", input)
	require.NoError(t, err)

	var pages []pageDump
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].Index)
	assert.Equal(t, []string{"shown"}, collectTexts(pages))
}

func TestBadSettingsAreErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "page.html", "<p>x</p>")

	t.Run("flag", func(t *testing.T) {
		_, _, err := run(t, "", "boxes", input, "--page-size", "Z9")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown page size "Z9"`)
	})

	t.Run("config file", func(t *testing.T) {
		cfg := writeFile(t, dir, "htmlpdf.yaml", "page-size: Folio\n")
		_, _, err := run(t, "", "boxes", input, "--config", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown page size "Folio"`)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("HTMLPDF_LOG_LEVEL", "shouting")
		_, _, err := run(t, "", "boxes", input)
		require.Error(t, err)
	})

	t.Run("missing input", func(t *testing.T) {
		_, _, err := run(t, "", "render", filepath.Join(dir, "absent.html"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "absent.html")
	})
}
