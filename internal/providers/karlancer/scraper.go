package karlancer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/providers/common"
)

const (
	sourceName = "karlancer"
	siteURL    = "https://www.karlancer.com"
	searchPath = "/api/publics/search/projects"
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

func (k *Scraper) Name() string {
	return sourceName
}

type karlancerResponse struct {
	Data *struct {
		CurrentPage int                `json:"current_page"`
		LastPage    int                `json:"last_page"`
		Data        []karlancerProject `json:"data"`
	} `json:"data"`
}

type karlancerProject struct {
	ID          any    `json:"id"`
	UUID        any    `json:"uuid"`
	AltID       any    `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

func (k *Scraper) Fetch(ctx context.Context, keyword string) []model.Posting {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	log := k.logger.With(zap.String("keyword", keyword))

	postings, err := k.fetch(ctx, keyword)
	if err != nil {
		log.Error("search failed", zap.Error(err))
		return nil
	}
	if len(postings) == 0 {
		log.Warn("no projects found")
		return nil
	}
	log.Info("projects found", zap.Int("count", len(postings)))
	return postings
}

func (k *Scraper) fetch(ctx context.Context, keyword string) ([]model.Posting, error) {
	target, err := common.WithQuery(k.site+searchPath, map[string]string{
		"q":     keyword,
		"page":  "1",
		"order": "newest",
	})
	if err != nil {
		return nil, err
	}

	body, err := common.Get(ctx, k.client, target, k.userAgent, "application/json, text/plain, */*")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	var payload karlancerResponse
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Data == nil {
		return nil, nil
	}

	postings := make([]model.Posting, 0, len(payload.Data.Data))
	for _, p := range payload.Data.Data {
		id := pickID(p.ID, p.UUID, p.AltID)
		slug := common.PickString(p.URL, id)
		if slug == "" {
			continue
		}

		posting := model.Posting{
			Title:       common.CleanText(p.Title),
			URL:         fmt.Sprintf("%s/projects/%s", k.site, slug),
			Description: model.Truncate(strings.TrimSpace(p.Description)),
			Source:      sourceName,
		}
		if !posting.Valid() {
			continue
		}
		postings = append(postings, posting)
	}
	return postings, nil
}

func pickID(values ...any) string {
	for _, v := range values {
		if s := common.ToString(v); s != "" {
			return s
		}
	}
	return ""
}
