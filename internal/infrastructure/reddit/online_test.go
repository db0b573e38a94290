package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CommunityScanner/internal/domain"
)

const browserUA = "Mozilla/5.0 test"

func pageServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.UserAgent() != browserUA {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOnlineCounterCount(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/r/direct/": `<html><body>
			<span>12,000 members</span>
			<span><faceplate-number number="321">321</faceplate-number> online</span>
		</body></html>`,
		"/r/nested/": `<html><body>
			<div><span>Online <b><faceplate-number number="77">77</faceplate-number></b></span></div>
		</body></html>`,
		"/r/fallback/": `<html><body>
			<span><faceplate-number>n/a</faceplate-number> online</span>
			<span>ONLINE now <faceplate-number number="5"></faceplate-number></span>
		</body></html>`,
		"/r/members-only/": `<html><body>
			<span><faceplate-number number="9000"></faceplate-number> members</span>
		</body></html>`,
		"/r/garbled/": `<html><body>
			<span><faceplate-number number="1.2k"></faceplate-number> online</span>
		</body></html>`,
	})
	counter := NewOnlineCounter(browserUA, time.Second, nil)

	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{path: "/r/direct/", want: 321},
		{path: "/r/nested/", want: 77},
		{path: "/r/fallback/", want: 5},
		{path: "/r/members-only/", wantErr: true},
		{path: "/r/garbled/", wantErr: true},
		{path: "/r/missing/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := counter.Count(context.Background(), srv.URL+tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOnlineCounterEnrich(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/r/golang/": `<span><faceplate-number number="40"></faceplate-number> online</span>`,
	})
	counter := NewOnlineCounter(browserUA, time.Second, nil)

	rec := &domain.CommunityRecord{Identifier: "golang", Size: domain.Count(400), Link: srv.URL + "/r/golang/"}
	counter.Enrich(context.Background(), rec)
	online, ok := rec.SecondaryValue()
	require.True(t, ok)
	assert.Equal(t, 40, online)
	assert.Equal(t, "10.00%", domain.OnlineRatio(rec))
}

func TestOnlineCounterFailureLeavesSecondaryAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	t.Cleanup(srv.Close)

	counter := NewOnlineCounter(browserUA, time.Second, nil)
	for _, link := range []string{srv.URL + "/r/golang/", deadURL + "/r/golang/", ""} {
		rec := &domain.CommunityRecord{Identifier: "golang", Size: domain.Count(400), Link: link}
		counter.Enrich(context.Background(), rec)
		assert.Nil(t, rec.Secondary, link)
		assert.Empty(t, domain.OnlineRatio(rec))
	}
}

func TestOnlineCounterFallsBackToListedActiveUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	counter := NewOnlineCounter(browserUA, time.Second, nil)

	for _, link := range []string{srv.URL + "/r/golang/", ""} {
		rec := &domain.CommunityRecord{Identifier: "golang", Size: domain.Count(400), Link: link}
		rec.SetExtra(ActiveUsersKey, "20")
		counter.Enrich(context.Background(), rec)

		online, ok := rec.SecondaryValue()
		require.True(t, ok, link)
		assert.Equal(t, 20, online)
		assert.Equal(t, "5.00%", domain.OnlineRatio(rec))
	}
}

func TestOnlineCounterPrefersPageCount(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/r/golang/": `<span><faceplate-number number="40"></faceplate-number> online</span>`,
	})
	counter := NewOnlineCounter(browserUA, time.Second, nil)

	rec := &domain.CommunityRecord{Identifier: "golang", Size: domain.Count(400), Link: srv.URL + "/r/golang/"}
	rec.SetExtra(ActiveUsersKey, "20")
	counter.Enrich(context.Background(), rec)

	online, ok := rec.SecondaryValue()
	require.True(t, ok)
	assert.Equal(t, 40, online)
}
