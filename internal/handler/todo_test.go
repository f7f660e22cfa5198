package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/toumakido/my-claude/todod/internal/model"
	"github.com/toumakido/my-claude/todod/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
	ids *store.LocalSequence
}

func newTestAPI(t *testing.T, s store.Store, basePath string) *testAPI {
	t.Helper()
	ids := store.NewLocalSequence()
	mux := http.NewServeMux()
	NewTodoHandler(s, ids, Options{BasePath: basePath, Logger: quiet}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, ids: ids}
}

func (a *testAPI) do(method, path, body string) (int, []byte) {
	a.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, r)
	if err != nil {
		a.t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatal(err)
	}
	return resp.StatusCode, b
}

func (a *testAPI) create(body string) model.Todo {
	a.t.Helper()
	status, b := a.do(http.MethodPost, "/todos", body)
	if status != http.StatusCreated {
		a.t.Fatalf("POST %s: status %d", body, status)
	}
	var td model.Todo
	if err := json.Unmarshal(b, &td); err != nil {
		a.t.Fatal(err)
	}
	return td
}

func TestCreateScenario(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	status, b := api.do(http.MethodPost, "/todos", `{"title":"buy milk"}`)
	if status != http.StatusCreated {
		t.Fatalf("status %d, want 201", status)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	id, ok := got["id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("bad id %v", got["id"])
	}
	if got["completed"] != false || got["order"] != float64(0) || got["title"] != "buy milk" {
		t.Errorf("unexpected body %s", b)
	}
	url, _ := got["url"].(string)
	if !strings.HasPrefix(url, api.srv.URL+"/todos/") || !strings.HasSuffix(url, "/"+strconv.Itoa(int(id))) {
		t.Errorf("url %q", url)
	}
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	prev := 0
	for i := 0; i < 5; i++ {
		td := api.create(`{"title":"x"}`)
		if td.ID <= prev {
			t.Fatalf("id %d not greater than %d", td.ID, prev)
		}
		prev = td.ID
	}
}

func TestCreateExplicitIDAdvancesCounter(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	api.create(`{}`)
	explicit := api.create(`{"id":40,"title":"forty"}`)
	if explicit.ID != 40 {
		t.Fatalf("explicit id = %d", explicit.ID)
	}
	next := api.create(`{"title":"after"}`)
	if next.ID <= 40 {
		t.Fatalf("id after explicit 40 is %d", next.ID)
	}
	if api.ids.Current() != next.ID {
		t.Fatalf("counter %d, last id %d", api.ids.Current(), next.ID)
	}
}

func TestCreateIgnoresClientURL(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	td := api.create(`{"url":"http://evil/1"}`)
	if want := api.srv.URL + "/todos/" + strconv.Itoa(td.ID); td.URL != want {
		t.Fatalf("url %q, want %q", td.URL, want)
	}
}

func TestCreateMalformed(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	for _, body := range []string{"", "{", "[]", `{"completed":"yes"}`} {
		if status, _ := api.do(http.MethodPost, "/todos", body); status != http.StatusBadRequest {
			t.Errorf("POST %q: status %d, want 400", body, status)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	api := newTestAPI(t, store.NewRedisStore(client, store.DefaultNamespace), "")

	status, created := api.do(http.MethodPost, "/todos", `{"title":"round","order":3}`)
	if status != http.StatusCreated {
		t.Fatalf("status %d", status)
	}
	var td model.Todo
	if err := json.Unmarshal(created, &td); err != nil {
		t.Fatal(err)
	}
	status, fetched := api.do(http.MethodGet, "/todos/"+strconv.Itoa(td.ID), "")
	if status != http.StatusOK {
		t.Fatalf("GET status %d", status)
	}
	patch, err := jsonpatch.CreateMergePatch(created, fetched)
	if err != nil {
		t.Fatal(err)
	}
	if string(patch) != "{}" {
		t.Fatalf("GET differs from POST response: %s", patch)
	}
}

func TestGetOne(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	td := api.create(`{"title":"a"}`)

	tests := []struct {
		path      string
		want      int
		emptyBody bool
	}{
		{"/todos/" + strconv.Itoa(td.ID), http.StatusOK, false},
		{"/todos/999999", http.StatusNotFound, true},
		{"/todos/abc", http.StatusNotFound, true},
		{"/todos/", http.StatusBadRequest, true},
		{"/todos/1/extra", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		status, b := api.do(http.MethodGet, tt.path, "")
		if status != tt.want {
			t.Errorf("GET %s: status %d, want %d", tt.path, status, tt.want)
		}
		if tt.emptyBody && len(b) != 0 {
			t.Errorf("GET %s: body %q, want empty", tt.path, b)
		}
	}
}

func TestUpdateScenario(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	td := api.create(`{"title":"buy milk","order":2}`)
	path := "/todos/" + strconv.Itoa(td.ID)

	status, b := api.do(http.MethodPatch, path, `{"completed":true,"id":555,"url":"x"}`)
	if status != http.StatusOK {
		t.Fatalf("PATCH status %d", status)
	}
	var got model.Todo
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	want := model.Todo{
		ID: td.ID, Title: model.String("buy milk"), Completed: model.Bool(true),
		Order: model.Int(2), URL: td.URL,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PATCH response (-want +got):\n%s", diff)
	}

	_, b = api.do(http.MethodGet, path, "")
	var stored model.Todo
	if err := json.Unmarshal(b, &stored); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("stored after PATCH (-want +got):\n%s", diff)
	}
}

func TestUpdateErrors(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	td := api.create(`{"title":"a"}`)
	path := "/todos/" + strconv.Itoa(td.ID)

	tests := []struct {
		path, body string
		want       int
	}{
		{"/todos/", `{"completed":true}`, http.StatusBadRequest},
		{path, `{"completed":`, http.StatusBadRequest},
		{"/todos/424242", `{"completed":true}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if status, _ := api.do(http.MethodPatch, tt.path, tt.body); status != tt.want {
			t.Errorf("PATCH %s %s: status %d, want %d", tt.path, tt.body, status, tt.want)
		}
	}
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	td := api.create(`{"title":"a"}`)
	api.create(`{"title":"b"}`)

	if status, _ := api.do(http.MethodDelete, "/todos/"+strconv.Itoa(td.ID), ""); status != http.StatusNoContent {
		t.Fatalf("DELETE one: %d", status)
	}
	if status, _ := api.do(http.MethodDelete, "/todos/999999", ""); status != http.StatusNoContent {
		t.Fatalf("DELETE missing: %d", status)
	}
	if status, _ := api.do(http.MethodGet, "/todos/"+strconv.Itoa(td.ID), ""); status != http.StatusNotFound {
		t.Fatalf("GET deleted: %d", status)
	}

	if status, _ := api.do(http.MethodDelete, "/todos", ""); status != http.StatusNoContent {
		t.Fatalf("DELETE all: %d", status)
	}
	status, b := api.do(http.MethodGet, "/todos", "")
	if status != http.StatusOK {
		t.Fatalf("GET all: %d", status)
	}
	var all []model.Todo
	if err := json.Unmarshal(b, &all); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("GET all after DELETE all: %s", b)
	}
}

func TestBasePath(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "/api/")
	status, b := api.do(http.MethodPost, "/api/todos", `{"title":"x"}`)
	if status != http.StatusCreated {
		t.Fatalf("status %d", status)
	}
	var td model.Todo
	json.Unmarshal(b, &td)
	if want := api.srv.URL + "/api/todos/" + strconv.Itoa(td.ID); td.URL != want {
		t.Errorf("url %q, want %q", td.URL, want)
	}
	if status, _ := api.do(http.MethodGet, "/todos", ""); status != http.StatusNotFound {
		t.Errorf("unprefixed path served: %d", status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	if status, _ := api.do(http.MethodPut, "/todos", "{}"); status != http.StatusMethodNotAllowed {
		t.Errorf("PUT /todos: %d", status)
	}
	if status, _ := api.do(http.MethodPost, "/todos/1", "{}"); status != http.StatusMethodNotAllowed {
		t.Errorf("POST /todos/1: %d", status)
	}
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t, store.NewMemoryStore(), "")
	req, _ := http.NewRequest(http.MethodOptions, api.srv.URL+"/todos", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preflight status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, PATCH, DELETE" {
		t.Errorf("allow-methods %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Requested-With") {
		t.Errorf("allow-headers %q", got)
	}
}

// downStore fails every call the way an unreachable backend does.
type downStore struct{}

var errDown = errors.New("dial tcp: connection refused")

func (downStore) Put(context.Context, string, model.Todo) error {
	return errors.Join(store.ErrUnavailable, errDown)
}
func (downStore) GetAll(context.Context) ([]model.Todo, error) {
	return nil, errors.Join(store.ErrUnavailable, errDown)
}
func (downStore) Get(context.Context, string) (model.Todo, bool, error) {
	return model.Todo{}, false, errors.Join(store.ErrUnavailable, errDown)
}
func (downStore) Delete(context.Context, string) error {
	return errors.Join(store.ErrUnavailable, errDown)
}
func (downStore) DeleteAll(context.Context) error {
	return errors.Join(store.ErrUnavailable, errDown)
}
func (downStore) Close() error { return nil }

func TestStoreUnavailable(t *testing.T) {
	api := newTestAPI(t, downStore{}, "")
	tests := []struct{ method, path, body string }{
		{http.MethodGet, "/todos/1", ""},
		{http.MethodGet, "/todos", ""},
		{http.MethodPost, "/todos", `{"title":"x"}`},
		{http.MethodPatch, "/todos/1", `{"completed":true}`},
		{http.MethodDelete, "/todos/1", ""},
		{http.MethodDelete, "/todos", ""},
	}
	for _, tt := range tests {
		status, b := api.do(tt.method, tt.path, tt.body)
		if status != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status %d, want 503", tt.method, tt.path, status)
		}
		if len(b) != 0 {
			t.Errorf("%s %s: body %q, want empty", tt.method, tt.path, b)
		}
	}
}

func TestCorruptRecordIsUnavailable(t *testing.T) {
	s := store.NewMemoryStore()
	s.PutRaw("1", []byte("{oops"))
	api := newTestAPI(t, s, "")
	if status, _ := api.do(http.MethodGet, "/todos/1", ""); status != http.StatusServiceUnavailable {
		t.Errorf("GET corrupt: %d", status)
	}
	if status, _ := api.do(http.MethodGet, "/todos", ""); status != http.StatusServiceUnavailable {
		t.Errorf("GET all with corrupt record: %d", status)
	}
}

// slowStore blocks until the request context is done.
type slowStore struct{ downStore }

func (slowStore) GetAll(ctx context.Context) ([]model.Todo, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeout(t *testing.T) {
	mux := http.NewServeMux()
	NewTodoHandler(slowStore{}, store.NewLocalSequence(), Options{
		StoreTimeout: 20 * time.Millisecond,
		Logger:       quiet,
	}).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errMissingID, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{store.ErrUnavailable, http.StatusServiceUnavailable},
		{store.ErrCorrupt, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
