package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"CommunityScanner/internal/domain"
)

const (
	testClientID     = "id"
	testClientSecret = "secret"
	testToken        = "tok-123"
)

var testCreds = domain.Credentials{ClientID: testClientID, ClientSecret: testClientSecret, UserAgent: "scanner-test/1.0"}

// fakeAPI serves canned listings; each listing is a slice of pages.
type fakeAPI struct {
	mu       sync.Mutex
	listings map[string][][]string
	search   map[string][][]string
	fail     map[string]bool
	posts    map[string][]float64
	rules    map[string][]Rule
	requests []string
	agents   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		listings: map[string][][]string{},
		search:   map[string][][]string{},
		fail:     map[string]bool{},
		posts:    map[string][]float64{},
		rules:    map[string][]Rule{},
	}
}

func (f *fakeAPI) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/access_token", f.token)
	mux.HandleFunc("GET /subreddits/search", f.authed(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		f.page(w, r, "search:"+q, f.search[q])
	}))
	mux.HandleFunc("GET /subreddits/{where}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		where := r.PathValue("where")
		f.page(w, r, where, f.listings[where])
	}))
	mux.HandleFunc("GET /r/{name}/new", f.authed(func(w http.ResponseWriter, r *http.Request) {
		children := []map[string]any{}
		for _, created := range f.posts[r.PathValue("name")] {
			children = append(children, map[string]any{"kind": "t3", "data": map[string]any{"created_utc": created}})
		}
		writeJSON(w, map[string]any{"data": map[string]any{"after": nil, "children": children}})
	}))
	mux.HandleFunc("GET /r/{name}/about/rules", f.authed(func(w http.ResponseWriter, r *http.Request) {
		rules, ok := f.rules[r.PathValue("name")]
		if !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, map[string]any{"rules": rules})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) token(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != testClientID || secret != testClientSecret {
		http.Error(w, `{"message": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, map[string]any{"error": "unsupported_grant_type"})
		return
	}
	writeJSON(w, map[string]any{"access_token": testToken, "token_type": "bearer", "expires_in": 86400})
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path)
		f.agents = append(f.agents, r.UserAgent())
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) page(w http.ResponseWriter, r *http.Request, name string, pages [][]string) {
	if f.fail[name] {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	idx := 0
	if after := r.URL.Query().Get("after"); after != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(after, "page-"))
		if err != nil {
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}
		idx = n
	}
	if idx >= len(pages) {
		writeJSON(w, map[string]any{"data": map[string]any{"after": nil, "children": []any{}}})
		return
	}

	children := make([]map[string]any, 0, len(pages[idx]))
	for _, sub := range pages[idx] {
		children = append(children, map[string]any{"kind": "t5", "data": subredditJSON(sub)})
	}
	var after any
	if idx+1 < len(pages) {
		after = fmt.Sprintf("page-%d", idx+1)
	}
	writeJSON(w, map[string]any{"data": map[string]any{"after": after, "children": children}})
}

// subredditJSON derives deterministic fields from the name; "nullsubs" has no subscriber count.
func subredditJSON(name string) map[string]any {
	data := map[string]any{
		"display_name":       name,
		"title":              "The " + name + " community",
		"public_description": "all about " + name,
		"subscribers":        len(name) * 1000,
		"active_user_count":  len(name),
	}
	if name == "nullsubs" {
		data["subscribers"] = nil
		data["active_user_count"] = nil
	}
	return data
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type staticCreds struct {
	creds domain.Credentials
	err   error
	calls int
}

func (s *staticCreds) Credentials(context.Context) (domain.Credentials, error) {
	s.calls++
	return s.creds, s.err
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		AuthURL:  srv.URL + "/api/v1/access_token",
		APIURL:   srv.URL,
		PageSize: 2,
	}, nil)
}
