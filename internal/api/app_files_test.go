package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetgo/sidekick-setup/internal/apps"
)

func do(t *testing.T, method, target, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestAppFilesLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	base := env.http.URL

	resp, _ := do(t, http.MethodPost, base+"/api/apps", `{"name":"custom_code_timer.py","code":"print(1)"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, http.MethodGet, base+"/api/apps", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []apps.App
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Equal(t, []apps.App{{Name: "custom_code_timer.py"}}, list)

	resp, body = do(t, http.MethodGet, base+"/api/app/custom_code_timer.py", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "print(1)", body)

	resp, _ = do(t, http.MethodDelete, base+"/api/app/custom_code_timer.py", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, base+"/api/app/custom_code_timer.py", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAppFilesRules(t *testing.T) {
	env := newTestEnv(t, nil)
	base := env.http.URL
	dir := env.server.config.Apps.Dir
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom_code_button.py"), []byte("keep"), 0644))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"overwrite preserved", http.MethodPost, "/api/apps", `{"name":"custom_code_button.py","code":"x"}`, http.StatusForbidden},
		{"delete preserved", http.MethodDelete, "/api/app/custom_code_button.py", "", http.StatusForbidden},
		{"bad prefix", http.MethodPost, "/api/apps", `{"name":"main.py","code":"x"}`, http.StatusBadRequest},
		{"bad suffix", http.MethodPost, "/api/apps", `{"name":"custom_code_x.txt"}`, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/api/apps", `{"code":"x"}`, http.StatusBadRequest},
		{"not json", http.MethodPost, "/api/apps", `name=x`, http.StatusBadRequest},
		{"delete missing", http.MethodDelete, "/api/app/custom_code_gone.py", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, tt.method, base+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "custom_code_button.py"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}
