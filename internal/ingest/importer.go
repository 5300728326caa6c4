// Package ingest turns a news article URL into a stored Signal.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/forecast"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/httputil"
	"github.com/wonny/imi/pkg/logger"
)

// maxPageBytes bounds how much of an article is read
const maxPageBytes = 2 << 20

// Forecaster is the slice of the forecast client the importer needs
type Forecaster interface {
	ForecastNews(ctx context.Context, req forecast.NewsRequest) forecast.NewsForecast
}

// SignalWriter stores the imported signal
type SignalWriter interface {
	UpsertSignal(ctx context.Context, raw contracts.RawSignal) (contracts.Signal, error)
}

// ImportRequest describes one article. Title and Content override what the page says.
type ImportRequest struct {
	URL     string `json:"url"`
	Ticker  string `json:"ticker"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Page is what the importer extracts from the article HTML
type Page struct {
	Title       string `json:"title"`
	SiteName    string `json:"site_name"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
}

// ImportResult is the stored signal plus what produced it
type ImportResult struct {
	Signal   contracts.Signal      `json:"signal"`
	Forecast forecast.NewsForecast `json:"forecast"`
	Page     Page                  `json:"page"`
	Fetched  bool                  `json:"fetched"`
}

// Importer fetches articles and turns them into signals
// ⭐ SSOT: 기사 수집 → 시그널 변환은 여기서만
type Importer struct {
	http       *httputil.Client
	forecaster Forecaster
	writer     SignalWriter
	logger     *logger.Logger
}

// NewImporter creates an importer
func NewImporter(hc *httputil.Client, f Forecaster, w SignalWriter, log *logger.Logger) *Importer {
	return &Importer{
		http:       hc,
		forecaster: f,
		writer:     w,
		logger:     log.WithField("component", "ingest"),
	}
}

// Import fetches req.URL, forecasts it and upserts the resulting signal.
// A failed fetch still imports using the caller-provided title and content.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ImportResult{}, fmt.Errorf("%w: url must be absolute http(s)", contracts.ErrInvalidSignal)
	}
	ticker := signals.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return ImportResult{}, fmt.Errorf("%w: ticker is required", contracts.ErrInvalidSignal)
	}

	page, fetchErr := im.fetch(ctx, u.String())
	if fetchErr != nil {
		im.logger.WithError(fetchErr).WithField("url", u.String()).Warn("Article fetch failed, importing with provided fields")
	}

	newsReq := forecast.NewsRequest{
		Ticker:  ticker,
		Title:   firstNonEmpty(req.Title, page.Title),
		Content: firstNonEmpty(req.Content, page.Description),
	}
	nf := im.forecaster.ForecastNews(ctx, newsReq)

	sig := nf.ToSignal(newsReq)
	sig.URL = u.String()
	sig.Source = page.SiteName
	sig.CreatedDate = page.PublishedAt

	stored, err := im.writer.UpsertSignal(ctx, signals.ToRaw(sig))
	if err != nil {
		return ImportResult{}, fmt.Errorf("store imported signal: %w", err)
	}

	im.logger.WithFields(map[string]interface{}{
		"id":       stored.ID,
		"ticker":   stored.Ticker,
		"fallback": nf.Fallback,
	}).Info("Article imported")

	return ImportResult{Signal: stored, Forecast: nf, Page: page, Fetched: fetchErr == nil}, nil
}

func (im *Importer) fetch(ctx context.Context, target string) (Page, error) {
	resp, err := im.http.Get(ctx, target)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, &httputil.StatusError{StatusCode: resp.StatusCode}
	}

	return ParsePage(io.LimitReader(resp.Body, maxPageBytes))
}

// ParsePage extracts title, site name, description and publish time from HTML
func ParsePage(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
		return ""
	}

	page := Page{
		Title:       meta(`meta[property="og:title"]`, `meta[name="twitter:title"]`),
		SiteName:    meta(`meta[property="og:site_name"]`),
		Description: meta(`meta[name="description"]`, `meta[property="og:description"]`),
		PublishedAt: meta(`meta[property="article:published_time"]`),
	}
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return page, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
