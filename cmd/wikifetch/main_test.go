package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiFetch/internal/domain"
)

const pageHTML = `<html about="https://en.wikipedia.org/wiki/Special:Redirect/revision/7">
<head><title>Cat</title></head>
<body>
<section data-mw-section-id="0"><p>The cat is a small mammal.</p></section>
<section data-mw-section-id="1"><h2 id="Biology">Biology</h2><p>Cats are carnivores.</p></section>
</body></html>`

func setup(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/html/"):
			_, _ = w.Write([]byte(pageHTML))
		case r.URL.Path == "/w/api.php":
			_, _ = w.Write([]byte(`{"query":{"search":[{"title":"Cat","pageid":1,"snippet":"The <span>cat</span>"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "wikifetch.yaml")
	body := fmt.Sprintf("logging:\n  level: error\nwiki:\n  baseURL: %s\nstore:\n  backend: memory\n", server.URL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFetchCommand(t *testing.T) {
	cfgPath := setup(t)

	stdout, stderr, err := run(t, "--config", cfgPath, "fetch", "cat")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cat (en.wikipedia.org, revision 7)")
	assert.Contains(t, stdout, "Biology\nCats are carnivores.")
	assert.Contains(t, stderr, "100%")
}

func TestFetchCommandJSON(t *testing.T) {
	cfgPath := setup(t)

	stdout, stderr, err := run(t, "--config", cfgPath, "fetch", "--json", "-q", "--site", "en", "Cat")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	var result domain.FetchResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "Cat", result.Title.Name)
	assert.Equal(t, int64(7), result.Article.Revision)
}

func TestFetchCommandRequiresTitle(t *testing.T) {
	cfgPath := setup(t)

	_, _, err := run(t, "--config", cfgPath, "fetch")
	assert.Error(t, err)

	_, _, err = run(t, "--config", cfgPath, "fetch", "-q", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearchCommand(t *testing.T) {
	cfgPath := setup(t)

	stdout, _, err := run(t, "--config", cfgPath, "search", "cats")
	require.NoError(t, err)
	assert.Contains(t, stdout, " 1. Cat\n    The cat\n")
	assert.NotContains(t, stdout, "Did you mean")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "wikifetch dev ("), stdout)
}
