package ninetyninefreelas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/providers/common"
)

const (
	sourceName = "99Freelas"
	siteURL    = "https://www.99freelas.com.br"
	searchPath = "/projects"
)

type Scraper struct {
	client    *http.Client
	logger    *zap.Logger
	userAgent string
	site      string
}

func NewScraper(client *http.Client, logger *zap.Logger, userAgent string) *Scraper {
	return &Scraper{
		client:    client,
		logger:    logger.With(zap.String("source", sourceName)),
		userAgent: userAgent,
		site:      siteURL,
	}
}

func (s *Scraper) Name() string {
	return sourceName
}

// Fetch returns the open projects 99Freelas lists for keyword.
// Failures are logged and yield an empty result.
func (s *Scraper) Fetch(ctx context.Context, keyword string) []model.Posting {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	log := s.logger.With(zap.String("keyword", keyword))
	log.Info("searching")

	postings, err := s.fetch(ctx, keyword)
	if err != nil {
		log.Error("scrape failed", zap.Error(err))
		return nil
	}

	if len(postings) == 0 {
		log.Warn("no projects found; the page layout may have changed")
		return nil
	}
	log.Info("projects found", zap.Int("count", len(postings)))
	return postings
}

func (s *Scraper) fetch(ctx context.Context, keyword string) ([]model.Posting, error) {
	target, err := common.WithQuery(s.site+searchPath, map[string]string{
		"q":     keyword,
		"state": "open",
	})
	if err != nil {
		return nil, err
	}

	body, err := common.Get(ctx, s.client, target, s.userAgent, "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return s.parse(body)
}

func (s *Scraper) parse(r io.Reader) ([]model.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var postings []model.Posting
	doc.Find("ul.result-list > li.result-item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("hgroup > h1.title > a").First()
		href, _ := link.Attr("href")

		posting := model.Posting{
			Title:       common.CleanText(link.Text()),
			URL:         common.ResolveURL(s.site, href),
			Description: model.Truncate(strings.TrimSpace(item.Find("div.item-text.description").Text())),
			Source:      sourceName,
		}
		if !posting.Valid() {
			return
		}
		postings = append(postings, posting)
	})
	return postings, nil
}
