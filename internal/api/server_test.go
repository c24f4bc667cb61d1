package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetgo/sidekick-setup/internal/client"
	"github.com/jetsetgo/sidekick-setup/internal/config"
	"github.com/jetsetgo/sidekick-setup/internal/controller"
	"github.com/jetsetgo/sidekick-setup/internal/display"
	"github.com/jetsetgo/sidekick-setup/internal/form"
	"github.com/jetsetgo/sidekick-setup/internal/settings"
)

type recordingDisplay struct {
	shown chan []string
}

func (d *recordingDisplay) Type() string { return "recording" }
func (d *recordingDisplay) Close() error { return nil }
func (d *recordingDisplay) Show(lines []string) error {
	d.shown <- lines
	return nil
}

// brokenStore fails every write
type brokenStore struct {
	settings.Store
}

func (brokenStore) Save(context.Context, settings.Settings) error {
	return errors.New("disk full")
}

type testEnv struct {
	server  *Server
	http    *httptest.Server
	store   settings.Store
	display *recordingDisplay
	client  *client.Client
}

func newTestEnv(t *testing.T, wrap func(settings.Store) settings.Store) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "settings.json")
	cfg.Apps.Dir = filepath.Join(t.TempDir(), "custom_code")
	cfg.Server.WSPingInterval = 50 * time.Millisecond

	var store settings.Store = settings.NewFileStore(cfg.Store.Path, settings.Defaults(cfg.Defaults))
	if wrap != nil {
		store = wrap(store)
	}
	disp := &recordingDisplay{shown: make(chan []string, 8)}

	srv := NewServer(cfg, store, disp, NewLogBuffer(100))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Events().Close()
		ts.Close()
	})

	return &testEnv{
		server:  srv,
		http:    ts,
		store:   store,
		display: disp,
		client:  client.New(ts.URL, 5*time.Second),
	}
}

func postForm(t *testing.T, baseURL, contentType, body string) (*http.Response, form.Reply) {
	t.Helper()
	resp, err := http.Post(baseURL+"/save", contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	reply, err := form.ParseReply(data)
	require.NoError(t, err, string(data))
	return resp, reply
}

func TestSavePersistsAndReplies(t *testing.T) {
	env := newTestEnv(t, nil)

	body := form.Form{UserName: "Ada & Grace", SidekickName: "R2=D2?"}.Encode()
	resp, reply := postForm(t, env.http.URL, form.ContentType, body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, form.Reply{Status: form.StatusSuccess}, reply)

	st, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada & Grace", st.UserName)
	assert.Equal(t, "R2=D2?", st.SidekickName)
	assert.True(t, st.SetupCompleted)
	assert.Equal(t, settings.CoreDefault, st.CoreType)

	select {
	case lines := <-env.display.shown:
		assert.Equal(t, display.CompletionLines("R2=D2?"), lines)
	case <-time.After(2 * time.Second):
		t.Fatal("completion message not shown")
	}

	last, ok := env.server.Saves().Last()
	require.True(t, ok)
	assert.Equal(t, SaveSucceeded, last.Status)
	assert.NotEmpty(t, last.ID)
}

func TestSaveKeepsOtherSettings(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := settings.ToggleMute(ctx, env.store)
	require.NoError(t, err)

	postForm(t, env.http.URL, form.ContentType, "user_name=a&sidekick_name=b")

	st, err := env.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.Mute)
	assert.Equal(t, "a", st.UserName)
}

func TestSaveMissingFieldsUseDefaults(t *testing.T) {
	env := newTestEnv(t, nil)

	_, reply := postForm(t, env.http.URL, form.ContentType, "user_name=Solo")
	assert.True(t, reply.OK())

	status, err := env.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.Status{SetupCompleted: true, UserName: "Solo", SidekickName: "Sidekick"}, status)
}

func TestSaveRejectsBadEncoding(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, reply := postForm(t, env.http.URL, form.ContentType, "user_name=%zz")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, reply.OK())

	status, err := env.client.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.SetupCompleted)
}

func TestSaveRejectsNonFormBodies(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json", "application/json", `{"user_name":"Ada"}`},
		{"no content type", "", "user_name=Ada"},
		{"multipart", "multipart/form-data; boundary=x", "--x--"},
		{"garbled", "application/x-www-form-urlencoded; ===", "user_name=Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			req, err := http.NewRequest(http.MethodPost, env.http.URL+"/save", strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			reply, err := form.ParseReply(data)
			require.NoError(t, err)
			assert.Equal(t, form.StatusError, reply.Status)

			st, err := env.store.Load(context.Background())
			require.NoError(t, err)
			assert.False(t, st.SetupCompleted)
			assert.Equal(t, "User", st.UserName)
		})
	}
}

func TestSaveAcceptsCharsetParameter(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, reply := postForm(t, env.http.URL, form.ContentType+"; charset=UTF-8", "user_name=Ada&sidekick_name=Robo")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, reply.OK())
}

func TestShutdownBeforeStart(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Store.Path = filepath.Join(t.TempDir(), "settings.json")
	srv := NewServer(cfg, settings.NewFileStore(cfg.Store.Path, settings.Defaults(cfg.Defaults)), nil, nil)

	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}

func TestShutdownStopsRunningServer(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Store.Path = filepath.Join(t.TempDir(), "settings.json")
	srv := NewServer(cfg, settings.NewFileStore(cfg.Store.Path, settings.Defaults(cfg.Defaults)), nil, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestSavePersistenceFailure(t *testing.T) {
	env := newTestEnv(t, func(s settings.Store) settings.Store { return brokenStore{s} })

	resp, reply := postForm(t, env.http.URL, form.ContentType, "user_name=a&sidekick_name=b")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, form.StatusError, reply.Status)

	last, ok := env.server.Saves().Last()
	require.True(t, ok)
	assert.Equal(t, SaveFailed, last.Status)
	assert.Contains(t, last.Error, "disk full")
}

func TestControllerAgainstServer(t *testing.T) {
	env := newTestEnv(t, nil)
	doc := controller.NewSettingsDocument("Ada", "Robo")
	c, err := controller.New(doc, env.client)
	require.NoError(t, err)

	assert.Equal(t, controller.Success{}, c.Save(context.Background()))
	assert.Equal(t, controller.ShowingSuccess, c.State())

	status, err := env.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", status.UserName)
	assert.Equal(t, "Robo", status.SidekickName)

	// Defaults button never reaches the server
	before := len(env.server.Saves().Entries())
	doc.Button(controller.DefaultsButtonID).Click()
	assert.Len(t, env.server.Saves().Entries(), before)
	assert.Equal(t, "User", doc.Input(controller.UserNameID).Value())
}

func TestControllerAgainstFailingServer(t *testing.T) {
	env := newTestEnv(t, func(s settings.Store) settings.Store { return brokenStore{s} })
	doc := controller.NewSettingsDocument("Ada", "Robo")
	c, err := controller.New(doc, env.client)
	require.NoError(t, err)

	res := c.Save(context.Background())
	fail, ok := res.(controller.Failure)
	require.True(t, ok)
	assert.Equal(t, controller.ReasonStatus, fail.Reason)
	assert.Equal(t, controller.ShowingError, c.State())
}

func TestControllerAgainstUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	doc := controller.NewSettingsDocument("Ada", "Robo")
	c, err := controller.New(doc, client.New(addr, time.Second), controller.WithLogger(NewLogBuffer(10)))
	require.NoError(t, err)

	res := c.Save(context.Background())
	fail, ok := res.(controller.Failure)
	require.True(t, ok)
	assert.Equal(t, controller.ReasonTransport, fail.Reason)
}

func TestUIServesPageWithElements(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.Save(context.Background(), settings.Settings{UserName: `<b>Ada</b>`, SidekickName: "Robo"}))

	resp, err := http.Get(env.http.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	page := string(data)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, id := range []string{
		controller.SaveButtonID,
		controller.DefaultsButtonID,
		controller.OverlayID,
		controller.UserNameID,
		controller.SidekickNameID,
	} {
		assert.Contains(t, page, `id="`+id+`"`)
	}
	assert.Contains(t, page, `class="hidden"`)
	assert.Contains(t, page, `value="Robo"`)
	assert.NotContains(t, page, `<b>Ada</b>`)
	assert.Contains(t, page, `&lt;b&gt;Ada&lt;/b&gt;`)
}

func TestUnknownPathIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.http.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScriptServed(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.http.URL + "/script.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(data), "'/save'")
	assert.Contains(t, string(data), "error-ok-button")
}

func TestResetEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	postForm(t, env.http.URL, form.ContentType, "user_name=a&sidekick_name=b")

	require.NoError(t, env.client.Reset(ctx))

	status, err := env.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.Status{UserName: "User", SidekickName: "Sidekick"}, status)
}

func TestSavesAndLogsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	postForm(t, env.http.URL, form.ContentType, "user_name=a&sidekick_name=b")
	postForm(t, env.http.URL, form.ContentType, "user_name=%zz")

	var saves struct {
		Saves []SaveRecord `json:"saves"`
	}
	getJSON(t, env.http.URL+"/api/saves", &saves)
	require.Len(t, saves.Saves, 1)
	assert.Equal(t, "a", saves.Saves[0].UserName)

	var logs struct {
		Logs []LogEntry `json:"logs"`
	}
	getJSON(t, env.http.URL+"/api/logs?level="+url.QueryEscape("warn"), &logs)
	require.Len(t, logs.Logs, 1)
	assert.Contains(t, logs.Logs[0].Message, "Rejected save")
}

func getJSON(t *testing.T, target string, out any) {
	t.Helper()
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
