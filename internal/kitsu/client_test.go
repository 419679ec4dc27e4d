// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package kitsu

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/studiopipe/kitsubridge/internal/config"
)

func testConfig(url string) *config.KitsuConfig {
	return &config.KitsuConfig{
		URL:            url,
		Email:          "bridge@example.com",
		Password:       "secret",
		Timeout:        5 * time.Second,
		RequestsPerSec: 100,
	}
}

// newKitsuStub builds an httptest server that speaks enough of the Kitsu
// API for client tests: login, authenticated data endpoints.
func newKitsuStub(t *testing.T, token string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("email") != "bridge@example.com" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":true}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	})
	mux.HandleFunc("/api/", handler)
	return httptest.NewServer(mux)
}

func TestLoginStoresToken(t *testing.T) {
	t.Parallel()

	srv := newKitsuStub(t, "tok-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := c.currentToken(); got != "tok-1" {
		t.Errorf("token = %q, want tok-1", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"wrong credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	err := c.Login(context.Background())
	if err == nil {
		t.Fatal("Login() = nil, want error")
	}
	if !errors.Is(err, ErrLogin) {
		t.Errorf("Login() error = %v, want ErrLogin", err)
	}
}

func TestRequestLogsInFirst(t *testing.T) {
	t.Parallel()

	srv := newKitsuStub(t, "tok-2", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Demo"}]`))
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "p1" {
		t.Errorf("ListProjects() = %+v, want one project p1", projects)
	}
}

func TestRequestReloginOn401(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := logins.Add(1)
		token := "stale"
		if n > 1 {
			token = "fresh"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	})
	mux.HandleFunc("/api/data/task-status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"s1","name":"WIP","short_name":"wip","is_done":false}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	statuses, err := c.ListTaskStatuses(context.Background())
	if err != nil {
		t.Fatalf("ListTaskStatuses() error = %v", err)
	}
	if len(statuses) != 1 || statuses[0].ShortName != "wip" {
		t.Errorf("ListTaskStatuses() = %+v", statuses)
	}
	if got := logins.Load(); got != 2 {
		t.Errorf("login attempts = %d, want 2 (initial + relogin)", got)
	}
}

func TestRequestAPIError(t *testing.T) {
	t.Parallel()

	srv := newKitsuStub(t, "tok-3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Get(context.Background(), "data/projects")
	if err == nil {
		t.Fatal("Get() = nil, want error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Get() error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

func TestGetProjectTaskTypes(t *testing.T) {
	t.Parallel()

	srv := newKitsuStub(t, "tok-4", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/data/projects/p1/task-types" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"tt1","name":"Compositing","short_name":"comp","for_entity":"Shot"}]`))
	})
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	taskTypes, err := c.GetProjectTaskTypes(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProjectTaskTypes() error = %v", err)
	}
	if len(taskTypes) != 1 || taskTypes[0].Name != "Compositing" {
		t.Errorf("GetProjectTaskTypes() = %+v", taskTypes)
	}
}

func TestEndpointLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"data/projects", "data/projects"},
		{"data/task-status", "data/task-status"},
		{"data/projects/500acc0f-2355-44b1-9cde-759287084c05/task-types", "data/projects/{id}/task-types"},
	}
	for _, tt := range tests {
		if got := endpointLabel(tt.in); got != tt.want {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
