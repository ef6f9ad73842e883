package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Routes By Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/thing", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("get"))
		}))
		router.Handle("post", "/thing", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("post"))
		}))

		for method, want := range map[string]string{http.MethodGet: "get", http.MethodPost: "post"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(method, "/thing", nil))
			if rec.Body.String() != want {
				t.Errorf("%s: expected %q, got %q", method, want, rec.Body.String())
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/thing", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestBearerAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name     string
		password string
		header   string
		status   int
		detail   string
	}{
		{"Disabled", "", "", http.StatusNoContent, ""},
		{"Missing Header", "pw", "", http.StatusUnauthorized, "Missing authorization header"},
		{"Wrong Scheme", "pw", "Basic pw", http.StatusUnauthorized, "Invalid authorization header format"},
		{"Wrong Password", "pw", "Bearer nope", http.StatusUnauthorized, "Invalid password"},
		{"Valid", "pw", "Bearer pw", http.StatusNoContent, ""},
		{"Scheme Is Case Insensitive", "pw", "bearer pw", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			BearerAuth(tt.password)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.detail != "" {
				var body map[string]string
				json.Unmarshal(rec.Body.Bytes(), &body)
				if body["detail"] != tt.detail {
					t.Errorf("expected detail %q, got %q", tt.detail, body["detail"])
				}
			}
		})
	}
}

func TestLoggingAndRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if !strings.Contains(buf.String(), "418") || !strings.Contains(buf.String(), "/teapot") {
		t.Errorf("expected request log line, got %s", buf.String())
	}
}

func newTestAPI(t *testing.T, password string, seed ...models.Notebook) (*NotebookAPI, *httptest.Server) {
	t.Helper()
	api := NewNotebookAPI(seed...)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	api.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	srv := httptest.NewServer(NewRouter(api, password))
	t.Cleanup(srv.Close)
	return api, srv
}

func TestNotebookAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("Health Requires Password", func(t *testing.T) {
		_, srv := newTestAPI(t, "pw")
		api := services.NewAPIService(srv.URL, nil)

		resp, err := api.Health(ctx, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 without credential, got %d", resp.StatusCode)
		}

		resp, _ = api.Health(ctx, "pw")
		if !resp.OK() {
			t.Errorf("expected 2xx with credential, got %d", resp.StatusCode)
		}
	})

	t.Run("CRUD Round Trip", func(t *testing.T) {
		api, srv := newTestAPI(t, "pw", models.Notebook{ID: "seed", Name: "Seed"})
		client := services.NewNotebookClient(services.NewAPIService(srv.URL, nil,
			services.WithCredentials(services.StaticCredential("pw"))))

		created, err := client.Create(ctx, models.NotebookInput{Name: " Ideas ", Description: "d"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !strings.HasPrefix(created.ID, "notebook:") || created.Name != "Ideas" {
			t.Errorf("unexpected created notebook %+v", created)
		}
		if created.Created.IsZero() || !created.Updated.Equal(created.Created.Time) {
			t.Errorf("expected server timestamps, got %+v", created)
		}

		notebooks, err := client.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(notebooks) != 2 || notebooks[0].ID != created.ID {
			t.Errorf("expected new notebook first, got %+v", notebooks)
		}

		updated, err := client.Update(ctx, created.ID, models.NotebookPatch{Archived: models.Ptr(true)})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if !updated.Archived || updated.Name != "Ideas" {
			t.Errorf("expected partial update, got %+v", updated)
		}
		if !updated.Updated.After(created.Updated.Time) {
			t.Errorf("expected updated time to advance")
		}

		if err := client.Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if api.Len() != 1 {
			t.Errorf("expected 1 notebook left, got %d", api.Len())
		}

		_, err = client.Update(ctx, created.ID, models.NotebookPatch{Name: models.Ptr("X")})
		if !errors.Is(err, shared.ErrNotebookNotFound) {
			t.Errorf("expected ErrNotebookNotFound, got %v", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		_, srv := newTestAPI(t, "", models.Notebook{ID: "a", Name: "A"})

		cases := []struct {
			method string
			path   string
			body   string
			detail string
		}{
			{http.MethodPost, "/api/notebooks", `{"name":"  "}`, "Notebook name is required"},
			{http.MethodPost, "/api/notebooks", `{`, "Invalid JSON body"},
			{http.MethodPost, "/api/notebooks", ``, "Request body is required"},
			{http.MethodPut, "/api/notebooks/a", `{"name":""}`, "Notebook name cannot be empty"},
			{http.MethodGet, "/api/notebooks?archived=maybe", ``, "archived must be a boolean"},
		}

		for _, c := range cases {
			req, _ := http.NewRequest(c.method, srv.URL+c.path, strings.NewReader(c.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s %s: expected 400, got %d", c.method, c.path, resp.StatusCode)
			}
			if !strings.Contains(string(body), c.detail) {
				t.Errorf("%s %s: expected detail %q, got %s", c.method, c.path, c.detail, body)
			}
		}
	})

	t.Run("Archived Filter And Get", func(t *testing.T) {
		_, srv := newTestAPI(t, "",
			models.Notebook{ID: "a", Name: "A"},
			models.Notebook{ID: "b", Name: "B", Archived: true},
		)

		resp, err := http.Get(srv.URL + "/api/notebooks?archived=true")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		var archived []models.Notebook
		json.NewDecoder(resp.Body).Decode(&archived)
		resp.Body.Close()
		if len(archived) != 1 || archived[0].ID != "b" {
			t.Errorf("expected only b, got %+v", archived)
		}

		resp, _ = http.Get(srv.URL + "/api/notebooks/a")
		var nb models.Notebook
		json.NewDecoder(resp.Body).Decode(&nb)
		resp.Body.Close()
		if nb.Name != "A" {
			t.Errorf("expected A, got %+v", nb)
		}

		resp, _ = http.Get(srv.URL + "/api/notebooks/zzz")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)

	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewRouter(NewNotebookAPI(), ""), log.New(io.Discard), ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
