package thingspeak

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizeTimestamp(t *testing.T) {
	got, err := LocalizeTimestamp("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 08:00:00", got)

	got, err = LocalizeTimestamp("2024-06-30T20:15:42Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01 04:15:42", got)
}

func TestLocalizeTimestampMalformed(t *testing.T) {
	for _, in := range []string{"", "2024-01-01 00:00:00", "2024-01-01T00:00:00+08:00", "yesterday"} {
		_, err := LocalizeTimestamp(in)
		assert.ErrorIs(t, err, ErrParse, in)
	}
}

func newFeedServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/channels/2466473/feed.json", r.URL.Path)
		assert.Equal(t, "READKEY", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchFeed(t *testing.T) {
	body := `{"channel":{"id":2466473},"feeds":[
		{"created_at":"2024-01-01T00:00:00Z","entry_id":1,"field1":"72.5","field2":"","field5":null},
		{"created_at":"2024-01-01T00:00:15Z","entry_id":2,"field1":"80","field3":"55"}
	]}`
	srv, hits := newFeedServer(t, http.StatusOK, body)

	feed, err := NewClient(srv.URL, srv.Client()).FetchFeed(context.Background(), "2466473", "READKEY")
	require.NoError(t, err)
	assert.Equal(t, 1, *hits)
	assert.Equal(t, []string{"2024-01-01 08:00:00", "2024-01-01 08:00:15"}, feed.Times)

	bpm := feed.Series(0)
	require.Len(t, bpm, 2)
	assert.Equal(t, "72.5", *bpm[0].Raw)
	assert.Equal(t, "80", *bpm[1].Raw)

	assert.Equal(t, "", *feed.Fields[1][0])
	assert.Nil(t, feed.Fields[1][1])
	assert.Nil(t, feed.Fields[4][0])
	assert.Equal(t, "55", *feed.Fields[2][1])
}

func TestFetchFeedNotFound(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"error field":  {http.StatusOK, `{"error":"Not Found"}`},
		"http 404":     {http.StatusNotFound, `-1`},
		"empty feeds":  {http.StatusOK, `{"channel":{},"feeds":[]}`},
		"missing feed": {http.StatusOK, `{}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newFeedServer(t, tc.status, tc.body)
			_, err := NewClient(srv.URL, srv.Client()).FetchFeed(context.Background(), "2466473", "READKEY")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFetchFeedShapeMismatch(t *testing.T) {
	srv, _ := newFeedServer(t, http.StatusOK, `{"feeds":"nope"}`)
	_, err := NewClient(srv.URL, srv.Client()).FetchFeed(context.Background(), "2466473", "READKEY")
	assert.ErrorIs(t, err, ErrParse)
}

func TestFetchFeedMalformedTimestamp(t *testing.T) {
	srv, _ := newFeedServer(t, http.StatusOK, `{"feeds":[{"created_at":"01/01/2024","field1":"1"}]}`)
	_, err := NewClient(srv.URL, srv.Client()).FetchFeed(context.Background(), "2466473", "READKEY")
	assert.ErrorIs(t, err, ErrParse)
}

func TestFetchFeedTransportErrorHidesReadKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, nil).FetchFeed(context.Background(), "2466473", "SECRETREADKEY")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETREADKEY")
	assert.NotContains(t, err.Error(), "api_key")
}

func TestFetchFeedCanceledKeepsCause(t *testing.T) {
	srv, _ := newFeedServer(t, http.StatusOK, `{"feeds":[]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, srv.Client()).FetchFeed(ctx, "2466473", "READKEY")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, err.Error(), "READKEY")
}
