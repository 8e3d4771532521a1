package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSession answers every request as if the caller had never started.
func noSession(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No onboarding session."}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestDraftsSurviveBetweenRuns(t *testing.T) {
	srv := noSession(t)
	path := filepath.Join(t.TempDir(), "drafts.yaml")
	common := []string{"--api", srv.URL, "--token", "t0ken", "--drafts", path, "-o", "json"}

	_, err := execute(t, append(common, "draft", "set", "1", `{"legal_name":"Acme Robotics LLC"}`)...)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Acme Robotics LLC")

	out, err := execute(t, append(common, "draft", "show", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"legal_name": "Acme Robotics LLC"`)
}

func TestLockedStepIsRefused(t *testing.T) {
	srv := noSession(t)
	path := filepath.Join(t.TempDir(), "drafts.yaml")

	_, err := execute(t, "--api", srv.URL, "--token", "t0ken", "--drafts", path, "draft", "show", "3")
	require.Error(t, err)
}

func TestStatePrintsYAML(t *testing.T) {
	srv := noSession(t)
	path := filepath.Join(t.TempDir(), "drafts.yaml")

	out, err := execute(t, "--api", srv.URL, "--token", "t0ken", "--drafts", path, "state")
	require.NoError(t, err)
	assert.Contains(t, out, "state: STEP_1")
	assert.Contains(t, out, "steps:")
}

func TestTokenIsRequired(t *testing.T) {
	t.Setenv("APLITE_TOKEN", "")
	_, err := execute(t, "--drafts", filepath.Join(t.TempDir(), "drafts.yaml"), "state")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bearer token")
}

func TestMalformedPatchIsRejectedBeforeLoading(t *testing.T) {
	_, err := readPatch(nil, []string{`{"legal_name":`}, "")
	require.Error(t, err)

	_, err = readPatch(nil, nil, "")
	require.Error(t, err)

	patch, err := readPatch(bytes.NewBufferString(`{"role":"owner"}`), nil, "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"owner"}`, string(patch))
}

func TestNamespaceIsStablePerDraftFile(t *testing.T) {
	dir := t.TempDir()
	a, err := resolveNamespace("", filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	again, err := resolveNamespace("", filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	b, err := resolveNamespace("", filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)

	_, err = resolveNamespace("not-a-uuid", "")
	require.Error(t, err)
}

func TestSelectionDescribesLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passport.PNG")
	require.NoError(t, os.WriteFile(path, []byte("fake png"), 0o600))

	sel, err := selectionFor(path)
	require.NoError(t, err)
	assert.Equal(t, "passport.PNG", sel.Name)
	assert.Equal(t, "image/png", sel.ContentType)
	assert.EqualValues(t, 8, sel.Size)
	assert.Equal(t, path, sel.Path)

	_, err = selectionFor(filepath.Dir(path))
	require.Error(t, err)
	assert.Equal(t, "application/octet-stream", contentTypeOf("notes"))
}
