package rss

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"freelas-watch/internal/model"
	"freelas-watch/internal/providers/common"
)

// KeywordPlaceholder marks where the escaped keyword goes in a feed URL template.
const KeywordPlaceholder = "{keyword}"

var (
	htmlTagRe = regexp.MustCompile(`<[^>]*>`)

	ErrNoPlaceholder = errors.New("rss: feed template must contain " + KeywordPlaceholder)
)

// Source turns a keyword search feed (RSS or Atom) into postings.
type Source struct {
	client    *http.Client
	logger    *zap.Logger
	userAgent string
	template  string
	name      string
}

func New(client *http.Client, logger *zap.Logger, userAgent, template string) (*Source, error) {
	if !strings.Contains(template, KeywordPlaceholder) {
		return nil, ErrNoPlaceholder
	}
	name := feedName(template)
	return &Source{
		client:    client,
		logger:    logger.With(zap.String("source", name)),
		userAgent: userAgent,
		template:  template,
		name:      name,
	}, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Fetch(ctx context.Context, keyword string) []model.Posting {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	log := s.logger.With(zap.String("keyword", keyword))

	postings, err := s.fetch(ctx, keyword)
	if err != nil {
		log.Error("feed fetch failed", zap.Error(err))
		return nil
	}
	if len(postings) == 0 {
		log.Warn("feed returned no items")
		return nil
	}
	log.Info("feed items found", zap.Int("count", len(postings)))
	return postings
}

func (s *Source) fetch(ctx context.Context, keyword string) ([]model.Posting, error) {
	target := strings.ReplaceAll(s.template, KeywordPlaceholder, url.QueryEscape(keyword))

	body, err := common.Get(ctx, s.client, target, s.userAgent, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	label := common.PickString(common.CleanText(feed.Title), s.name)
	postings := make([]model.Posting, 0, len(feed.Items))
	for _, item := range feed.Items {
		posting := model.Posting{
			Title:       common.CleanText(item.Title),
			URL:         common.ResolveURL(target, item.Link),
			Description: model.Truncate(itemText(item)),
			Source:      label,
		}
		if !posting.Valid() {
			continue
		}
		postings = append(postings, posting)
	}
	return postings, nil
}

func itemText(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	return common.CleanText(html.UnescapeString(htmlTagRe.ReplaceAllString(raw, " ")))
}

func feedName(template string) string {
	u, err := url.Parse(strings.ReplaceAll(template, KeywordPlaceholder, "x"))
	if err != nil || u.Host == "" {
		return "rss"
	}
	return u.Host
}
