package ponisha

import (
	"context"
	"encoding/json"
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
	sourceName = "ponisha"
	siteURL    = "https://ponisha.ir"
	searchPath = "/search/projects"
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

func (p *Scraper) Name() string {
	return sourceName
}

func (p *Scraper) Fetch(ctx context.Context, keyword string) []model.Posting {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	log := p.logger.With(zap.String("keyword", keyword))

	postings, err := p.fetch(ctx, keyword)
	if err != nil {
		log.Error("scrape failed", zap.Error(err))
		return nil
	}
	if len(postings) == 0 {
		log.Warn("no projects found")
		return nil
	}
	log.Info("projects found", zap.Int("count", len(postings)))
	return postings
}

func (p *Scraper) fetch(ctx context.Context, keyword string) ([]model.Posting, error) {
	target, err := common.WithQuery(p.site+searchPath, map[string]string{
		"q":                     keyword,
		"page":                  "1",
		"order":                 "approved_at|desc",
		"filterByProjectStatus": "open",
	})
	if err != nil {
		return nil, err
	}

	body, err := common.Get(ctx, p.client, target, p.userAgent, "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return p.parse(body)
}

func (p *Scraper) parse(r io.Reader) ([]model.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var payload map[string]any
	if err := decodeNextPayload(doc, &payload); err != nil {
		return nil, fmt.Errorf("json parse error: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	target := findProjectsQuery(payload)
	if target == nil {
		return nil, nil
	}

	data := nestedMap(target, "state", "data")
	if data == nil {
		return nil, nil
	}

	list, ok := data["data"].([]any)
	if !ok {
		return nil, nil
	}

	postings := make([]model.Posting, 0, len(list))
	for _, item := range list {
		posting, ok := p.parseProject(item)
		if !ok {
			continue
		}
		postings = append(postings, posting)
	}
	return postings, nil
}

func (p *Scraper) parseProject(item any) (model.Posting, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return model.Posting{}, false
	}

	id := common.ToString(m["id"])
	if id == "" {
		return model.Posting{}, false
	}

	link := fmt.Sprintf("%s/project/%s", p.site, id)
	if slug := common.ToString(m["slug"]); slug != "" {
		link += "/" + slug
	}

	posting := model.Posting{
		Title:       common.CleanText(common.ToString(m["title"])),
		URL:         link,
		Description: model.Truncate(strings.TrimSpace(common.ToString(m["description"]))),
		Source:      sourceName,
	}
	return posting, posting.Valid()
}

func decodeNextPayload(doc *goquery.Document, out *map[string]any) error {
	script := doc.Find("script#__NEXT_DATA__").First().Text()
	if script == "" {
		return nil
	}
	decoder := json.NewDecoder(strings.NewReader(script))
	decoder.UseNumber()
	return decoder.Decode(out)
}

func findProjectsQuery(payload map[string]any) map[string]any {
	for _, q := range findQueries(payload) {
		if hasProjectPagination(q) {
			return q
		}
	}
	return nil
}

func findQueries(payload map[string]any) []map[string]any {
	props := nestedMap(payload, "props", "pageProps", "dehydratedState")
	if props == nil {
		return nil
	}
	queriesRaw, ok := props["queries"].([]any)
	if !ok {
		return nil
	}

	queries := make([]map[string]any, 0, len(queriesRaw))
	for _, q := range queriesRaw {
		if m, ok := q.(map[string]any); ok {
			queries = append(queries, m)
		}
	}
	return queries
}

func hasProjectPagination(query map[string]any) bool {
	return nestedMap(query, "state", "data", "meta", "pagination") != nil
}

func nestedMap(root map[string]any, keys ...string) map[string]any {
	current := root
	for _, key := range keys {
		value, ok := current[key]
		if !ok {
			return nil
		}
		child, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		current = child
	}
	return current
}
