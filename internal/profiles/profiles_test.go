package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/starmatch/assets"
)

// stubAPI serves /users/{handle} from a fixed table.
func stubAPI(t *testing.T, routes map[string]func(http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h(w)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonBody(status int, body string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func seed(t *testing.T) []Record {
	t.Helper()
	data, err := assets.SeedProfiles()
	require.NoError(t, err)
	recs, err := ParseSeed(data)
	require.NoError(t, err)
	return recs
}

func TestSeedHasThreeCards(t *testing.T) {
	recs := seed(t)
	require.Len(t, recs, 3)
	assert.Equal(t, "Dan Abramov", recs[0].DisplayName)
	assert.Equal(t, "Sebastian Markbåge", recs[2].DisplayName)
	for _, r := range recs {
		assert.NotEmpty(t, r.Handle)
		assert.NotEmpty(t, r.AvatarURL)
	}
}

func TestLookupAndAppendOctocat(t *testing.T) {
	api := stubAPI(t, map[string]func(http.ResponseWriter){
		"/users/octocat": jsonBody(200, `{"login":"octocat","name":"The Octocat","avatar_url":"https://avatars.example/583231","company":"GitHub","id":583231}`),
	})
	d := NewDirectory(NewGitHubClient(api.URL, time.Second), seed(t))
	before := d.Len()

	rec, err := d.LookupAndAppend(context.Background(), "  octocat ")
	require.NoError(t, err)
	assert.Equal(t, Record{
		Handle:       "octocat",
		DisplayName:  "The Octocat",
		AvatarURL:    "https://avatars.example/583231",
		Organization: "GitHub",
	}, rec)

	list := d.List()
	require.Len(t, list, before+1)
	assert.Equal(t, rec, list[len(list)-1])
	assert.Equal(t, "Dan Abramov", list[0].DisplayName, "insertion order kept")
}

func TestLookupFailuresLeaveListUnchanged(t *testing.T) {
	api := stubAPI(t, map[string]func(http.ResponseWriter){
		"/users/boom":    jsonBody(500, `{"message":"oops"}`),
		"/users/array":   jsonBody(200, `[]`),
		"/users/null":    jsonBody(200, `null`),
		"/users/partial": jsonBody(200, `{"name":"x","avatar_url":"y"}`),
		"/users/typed":   jsonBody(200, `{"name":1,"avatar_url":"y","company":"z"}`),
		"/users/garbage": jsonBody(200, `<html>`),
	})
	d := NewDirectory(NewGitHubClient(api.URL, time.Second), seed(t))

	cases := []struct {
		handle string
		check  func(error) bool
	}{
		{"ghost", func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{"boom", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 500
		}},
		{"array", func(err error) bool { return errors.Is(err, ErrMalformed) }},
		{"null", func(err error) bool { return errors.Is(err, ErrMalformed) }},
		{"partial", func(err error) bool { return errors.Is(err, ErrMalformed) }},
		{"typed", func(err error) bool { return errors.Is(err, ErrMalformed) }},
		{"garbage", func(err error) bool { return errors.Is(err, ErrMalformed) }},
		{"   ", func(err error) bool { return errors.Is(err, ErrEmptyHandle) }},
	}
	for _, tc := range cases {
		t.Run(tc.handle, func(t *testing.T) {
			_, err := d.LookupAndAppend(context.Background(), tc.handle)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error %v", err)
			assert.Equal(t, 3, d.Len())
		})
	}
}

func TestNetworkErrorIsSurfaced(t *testing.T) {
	api := stubAPI(t, nil)
	api.Close()
	d := NewDirectory(NewGitHubClient(api.URL, time.Second), nil)
	_, err := d.LookupAndAppend(context.Background(), "octocat")
	assert.Error(t, err)
	assert.Zero(t, d.Len())
}

func TestNullFieldsMapToEmpty(t *testing.T) {
	rec, err := decodeUser([]byte(`{"name":null,"avatar_url":"a","company":null}`), "someone")
	require.NoError(t, err)
	assert.Equal(t, Record{Handle: "someone", AvatarURL: "a"}, rec)
}

func TestRequestShape(t *testing.T) {
	var gotAccept, gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept, gotUA, gotPath = r.Header.Get("Accept"), r.Header.Get("User-Agent"), r.URL.EscapedPath()
		jsonBody(200, `{"name":"n","avatar_url":"a","company":"c"}`)(w)
	}))
	defer srv.Close()

	_, err := NewGitHubClient(srv.URL+"/", time.Second).Fetch(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "starmatch-server", gotUA)
	assert.Equal(t, "/users/a%20b", gotPath)
}

// joinMargin lets goroutines that are already past their gate counter
// reach the shared request before the stub answers.
const joinMargin = 100 * time.Millisecond

// blockingAPI answers /users/octocat once release is closed.
func blockingAPI(t *testing.T, hits *atomic.Int32, release <-chan struct{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		jsonBody(200, `{"login":"octocat","name":"The Octocat","avatar_url":"a","company":"GitHub"}`)(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConcurrentLookupsShareOneRequest(t *testing.T) {
	var hits, started atomic.Int32
	release := make(chan struct{})
	srv := blockingAPI(t, &hits, release)

	d := NewDirectory(NewGitHubClient(srv.URL, 5*time.Second), nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Add(1)
			_, err := d.LookupAndAppend(context.Background(), "octocat")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return started.Load() == 4 && hits.Load() >= 1 }, 2*time.Second, time.Millisecond)
	time.Sleep(joinMargin)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 4, d.Len(), "every successful call appends")
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := blockingAPI(t, &hits, release)
	d := NewDirectory(NewGitHubClient(srv.URL, 5*time.Second), nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := d.LookupAndAppend(ctxA, "octocat")
		errA <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, time.Millisecond)

	var startedB atomic.Bool
	type result struct {
		rec Record
		err error
	}
	resB := make(chan result, 1)
	go func() {
		startedB.Store(true)
		rec, err := d.LookupAndAppend(context.Background(), "octocat")
		resB <- result{rec, err}
	}()
	require.Eventually(t, startedB.Load, time.Second, time.Millisecond)
	time.Sleep(joinMargin)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled lookup did not return")
	}

	close(release)
	select {
	case got := <-resB:
		require.NoError(t, got.err)
		assert.Equal(t, "octocat", got.rec.Handle)
	case <-time.After(2 * time.Second):
		t.Fatal("second lookup did not return")
	}
	assert.EqualValues(t, 1, hits.Load(), "second caller joined the first request")
	assert.Equal(t, 1, d.Len(), "only the caller that got a record appends")
}

func TestZeroTimeoutFallsBack(t *testing.T) {
	c := NewGitHubClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, defaultTimeout, c.HTTP.Timeout)
}
