package ninetyninefreelas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
)

const resultPage = `<html><body>
<ul class="result-list">
  <li class="result-item">
    <hgroup><h1 class="title"><a href="/project/api-nestjs-123">  API em NestJS  </a></h1></hgroup>
    <div class="item-text description">  Preciso de uma API REST.  </div>
  </li>
  <li class="result-item">
    <hgroup><h1 class="title"><a href="https://www.99freelas.com.br/project/absolute-9">Absolute</a></h1></hgroup>
    <div class="item-text description">` + "%s" + `</div>
  </li>
  <li class="result-item">
    <hgroup><h1 class="title"><a>No link</a></h1></hgroup>
  </li>
  <li class="result-item">
    <hgroup><h1 class="title"><a href="/project/untitled">   </a></h1></hgroup>
  </li>
</ul>
</body></html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewScraper(srv.Client(), zap.NewNop(), "")
	s.site = srv.URL
	return s
}

func TestFetchParsesResultList(t *testing.T) {
	longDesc := strings.Repeat("x", 300)
	var gotQuery, gotUA string
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "/projects", r.URL.Path)
		_, _ = w.Write([]byte(strings.Replace(resultPage, "%s", longDesc, 1)))
	})

	postings := s.Fetch(context.Background(), "Node.js")
	require.Len(t, postings, 2)

	assert.Equal(t, "q=Node.js&state=open", gotQuery)
	assert.NotEmpty(t, gotUA)

	assert.Equal(t, model.Posting{
		Title:       "API em NestJS",
		URL:         s.site + "/project/api-nestjs-123",
		Description: "Preciso de uma API REST.",
		Source:      "99Freelas",
	}, postings[0])

	assert.Equal(t, "https://www.99freelas.com.br/project/absolute-9", postings[1].URL)
	assert.Len(t, postings[1].Description, model.DescriptionLimit+len(model.Ellipsis))
}

func TestFetchRecoversFromServerError(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Empty(t, s.Fetch(context.Background(), "Go"))
}

func TestFetchUnreachableHost(t *testing.T) {
	s := NewScraper(http.DefaultClient, zap.NewNop(), "")
	s.site = "http://127.0.0.1:1"
	assert.Empty(t, s.Fetch(context.Background(), "Go"))
}

func TestFetchEmptyPageAndBlankKeyword(t *testing.T) {
	calls := 0
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte("<html><body><p>nothing</p></body></html>"))
	})
	assert.Empty(t, s.Fetch(context.Background(), "Go"))
	assert.Empty(t, s.Fetch(context.Background(), "   "))
	assert.Equal(t, 1, calls)
}
