package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/featured/internal/adapters/analytics"
	"github.com/okian/featured/internal/adapters/http/api"
	"github.com/okian/featured/internal/adapters/snapshot"
	service "github.com/okian/featured/internal/app"
	"github.com/okian/featured/internal/domain/usage"
	"github.com/okian/featured/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockEngine struct {
	rows   []usage.Row
	err    error
	called int
	last   usage.Params
}

func (m *mockEngine) QueryUsage(_ context.Context, p usage.Params) ([]usage.Row, error) {
	m.called++
	m.last = p
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type mockStore struct {
	*snapshot.MemoryStore
	putErr error
	getErr error
	puts   int
}

func (m *mockStore) Put(ctx context.Context, env string, s usage.Snapshot) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	return m.MemoryStore.Put(ctx, env, s)
}

func (m *mockStore) Get(ctx context.Context, env string) (usage.Snapshot, error) {
	if m.getErr != nil {
		return usage.Snapshot{}, m.getErr
	}
	return m.MemoryStore.Get(ctx, env)
}

var widget = usage.Row{Repository: "acme/widget", Days: 6, Stars: 5000, Contributors: 42}

func newMux(engine *mockEngine, store *mockStore, opts ...api.ServerOption) *http.ServeMux {
	svc := service.New(engine, store, service.WithEnvironment("production"))
	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestUpdateHandler(t *testing.T) {
	Convey("Given an API server over a working engine and store", t, func() {
		engine := &mockEngine{rows: []usage.Row{widget}}
		store := &mockStore{MemoryStore: snapshot.NewMemoryStore()}
		mux := newMux(engine, store)

		Convey("When the scheduler posts to the update route", func() {
			w := serve(mux, http.MethodPost, "/update-featured-repositories")

			Convey("Then it responds 200 OK in plain text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "OK")
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
			})

			Convey("And the snapshot holds the ranked rows", func() {
				got, err := store.Get(context.Background(), "production")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, usage.Snapshot{Items: []usage.Row{widget}})
			})
		})

		Convey("When the update route is called with GET", func() {
			w := serve(mux, http.MethodGet, "/update-featured-repositories")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When overrides are passed as query parameters", func() {
			w := serve(mux, http.MethodPost, "/update-featured-repositories?min_stars=10&limit=5")

			Convey("Then they reach the engine", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.last, ShouldResemble, usage.Params{Environment: "production", MinStars: 10, Limit: 5})
			})
		})

		Convey("When an override is not an integer", func() {
			w := serve(mux, http.MethodPost, "/update-featured-repositories?limit=ten")

			Convey("Then it is rejected before running", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(engine.called, ShouldEqual, 0)
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "limit")
			})
		})

		Convey("When the method is not allowed", func() {
			w := serve(mux, http.MethodDelete, "/update-featured-repositories")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(engine.called, ShouldEqual, 0)
		})
	})

	Convey("Given an engine that fails", t, func() {
		engine := &mockEngine{err: errors.New("table not found: repository_usage_20261014")}
		store := &mockStore{MemoryStore: snapshot.NewMemoryStore()}
		mux := newMux(engine, store)

		Convey("When the update route is called", func() {
			w := serve(mux, http.MethodPost, "/update-featured-repositories")

			Convey("Then it responds 500 with the error payload", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "query_failed")
				So(body["message"], ShouldContainSubstring, "repository_usage_20261014")
			})

			Convey("And the store is never written", func() {
				So(store.puts, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an engine rejecting a negative limit", t, func() {
		store := &mockStore{MemoryStore: snapshot.NewMemoryStore()}
		svc := service.New(analytics.NewMemoryEngine(), store, service.WithEnvironment("production"))
		mux := http.NewServeMux()
		api.NewServer(svc).Register(context.Background(), mux)

		Convey("Then the malformed value surfaces as a query failure", func() {
			w := serve(mux, http.MethodPost, "/update-featured-repositories?limit=-1")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "query_failed")
			So(store.puts, ShouldEqual, 0)
		})
	})

	Convey("Given a store that fails to write", t, func() {
		engine := &mockEngine{rows: []usage.Row{widget}}
		store := &mockStore{MemoryStore: snapshot.NewMemoryStore(), putErr: errors.New("permission denied")}

		Convey("When persistence failures are suppressed (default)", func() {
			w := serve(newMux(engine, store), http.MethodPost, "/update-featured-repositories")

			Convey("Then it still responds 200 OK", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "OK")
				So(store.puts, ShouldEqual, 1)
			})
		})

		Convey("When persistence failures are surfaced", func() {
			w := serve(newMux(engine, store, api.WithFailOnPersistError(true)), http.MethodPost, "/update-featured-repositories")

			Convey("Then it responds 500 with a distinct code", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var body map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "persist_failed")
				So(body["message"], ShouldContainSubstring, "permission denied")
			})
		})
	})
}

func TestFeaturedHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		engine := &mockEngine{rows: []usage.Row{widget}}
		store := &mockStore{MemoryStore: snapshot.NewMemoryStore()}
		mux := newMux(engine, store)

		Convey("When nothing has been stored", func() {
			w := serve(mux, http.MethodGet, "/featured-repositories")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "not_found")
		})

		Convey("When a run has stored a snapshot", func() {
			So(serve(mux, http.MethodPost, "/update-featured-repositories").Code, ShouldEqual, http.StatusOK)
			w := serve(mux, http.MethodGet, "/featured-repositories")

			Convey("Then the document is returned as stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual,
					`{"items":[{"repository":"acme/widget","days":6,"stars":5000,"contributors":42}]}`)
			})
		})

		Convey("When the store cannot be read", func() {
			store.getErr = fmt.Errorf("%w: unavailable", snapshot.ErrRead)
			w := serve(mux, http.MethodGet, "/featured-repositories")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When posting to the read route", func() {
			w := serve(mux, http.MethodPost, "/featured-repositories")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(&mockEngine{}, &mockStore{MemoryStore: snapshot.NewMemoryStore()})

		Convey("Then healthz reports ok", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("And stats reports the environment", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["environment"], ShouldEqual, "production")
		})

		Convey("And metrics are exposed after traffic", func() {
			_ = serve(mux, http.MethodPost, "/update-featured-repositories")
			w := serve(mux, http.MethodGet, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "featured_http_requests_total")
			So(w.Body.String(), ShouldContainSubstring, "featured_repositories_runs_total")
		})

		Convey("And unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
