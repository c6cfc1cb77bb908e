package ponisha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nextPage = `<html><head>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"dehydratedState":{"queries":[
  {"queryKey":["user"],"state":{"data":{"name":"guest"}}},
  {"queryKey":["search","projects"],"state":{"data":{
    "meta":{"pagination":{"total_pages":1}},
    "data":[
      {"id":101,"slug":"golang-backend","title":" Golang backend ","description":"Build a service"},
      {"id":102,"title":"No slug","description":""},
      {"id":"","title":"missing id"},
      {"id":103,"slug":"untitled","title":""}
    ]}}}
]}}}}
</script></head><body></body></html>`

func TestFetchParsesNextData(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(nextPage))
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), zap.NewNop(), "")
	s.site = srv.URL

	postings := s.Fetch(context.Background(), "golang")
	require.Len(t, postings, 2)
	assert.Equal(t, "golang", gotQuery)

	assert.Equal(t, "Golang backend", postings[0].Title)
	assert.Equal(t, srv.URL+"/project/101/golang-backend", postings[0].URL)
	assert.Equal(t, "Build a service", postings[0].Description)
	assert.Equal(t, "ponisha", postings[0].Source)

	assert.Equal(t, srv.URL+"/project/102", postings[1].URL)
}

func TestFetchWithoutNextData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), zap.NewNop(), "")
	s.site = srv.URL
	assert.Empty(t, s.Fetch(context.Background(), "golang"))
}

func TestFetchMalformedNextData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script id="__NEXT_DATA__">{not json</script>`))
	}))
	defer srv.Close()

	s := NewScraper(srv.Client(), zap.NewNop(), "")
	s.site = srv.URL
	assert.Empty(t, s.Fetch(context.Background(), "golang"))
}
