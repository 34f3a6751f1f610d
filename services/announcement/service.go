// Package announcement serves the latest announcements of a department site.
package announcement

import (
	"context"
	"fmt"
	"time"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/departments"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/htmlutil"
	"unifeed-backend/lib/scrape"
	"unifeed-backend/lib/telemetry"
	"unifeed-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_list_selector = "list.selector"
	report_title         = "detail.title"
)

const (
	// only the most recent announcements at the bottom of the list are kept
	keepLatest   = 10
	contentLimit = 250
)

type Announcement struct {
	Title   string `json:"title"`
	Url     string `json:"url"`
	Content string `json:"content"`
}

type Options struct {
	Fetcher     fetcher.Fetcher
	Store       cache.Store
	Tel         telemetry.API
	Departments departments.Registry
	TTL         time.Duration
}

type Service struct {
	fetch       fetcher.Fetcher
	agg         scrape.Aggregator
	tel         telemetry.API
	departments departments.Registry
	ttl         time.Duration
}

func NewService(opts Options) Service {
	tel := telemetry.NewScopedAPI("announcement", opts.Tel)
	return Service{
		fetch:       opts.Fetcher,
		agg:         scrape.Aggregator{Store: opts.Store, Tel: tel},
		tel:         tel,
		departments: opts.Departments,
		ttl:         opts.TTL,
	}
}

func (s Service) target(base string) scrape.Target {
	return scrape.Target{ListURL: base, KeyPrefix: "announcement", TTL: s.ttl}
}

// Announcements returns the latest announcements of a department, the only error
// is *departments.UnknownDepartmentError.
func (s Service) Announcements(ctx context.Context, department string) ([]Announcement, error) {
	base, err := s.departments.Lookup(department)
	if err != nil {
		return nil, err
	}
	target := s.target(base)

	return scrape.Collect(ctx, s.agg, scrape.Plan[Announcement]{
		Target: target,
		Key:    target.ListKey(department),
		List: func(ctx context.Context) ([]scrape.ListEntry, error) {
			return s.list(ctx, base)
		},
		Detail: s.detail,
	}), nil
}

func (s Service) document(ctx context.Context, link string) (*goquery.Document, error) {
	body, err := s.fetch.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	doc, err := htmlutil.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return doc, nil
}

func (s Service) list(ctx context.Context, base string) ([]scrape.ListEntry, error) {
	doc, err := s.document(ctx, base)
	if err != nil {
		return nil, err
	}

	items := doc.Find("#ctl15_div_duyurulist_ ul li")
	if items.Length() == 0 {
		s.tel.ReportWarning(report_list_selector, "no announcements found", base)
		return nil, nil
	}
	if items.Length() > keepLatest {
		items = items.Slice(items.Length()-keepLatest, items.Length())
	}

	var entries []scrape.ListEntry
	items.Each(func(_ int, li *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, base, li.Find("div > div:nth-child(2) > span > a").First())
		if len(anchors) == 0 {
			return
		}
		entries = append(entries, scrape.ListEntry{DetailURL: anchors[0].Href})
	})
	return entries, nil
}

func (s Service) detail(ctx context.Context, entry scrape.ListEntry) (Announcement, error) {
	doc, err := s.document(ctx, entry.DetailURL)
	if err != nil {
		return Announcement{}, err
	}

	title := htmlutil.Text(doc.Find("#ctl15_aktivitebaslik_"))
	if title == "" {
		s.tel.ReportWarning(report_title, "empty title", entry.DetailURL)
	}
	content := htmlutil.Text(doc.Find("#ctl15_aktivitedetay_"))

	return Announcement{
		Title:   title,
		Url:     entry.DetailURL,
		Content: textutil.Truncate(content, contentLimit),
	}, nil
}

// ClearCache drops the announcements of every department.
func (s Service) ClearCache(ctx context.Context) (int, error) {
	return scrape.Clear(ctx, s.agg, s.target(""))
}

// Warm populates the announcements of the given departments.
func (s Service) Warm(ctx context.Context, keys []string) {
	for _, key := range keys {
		_, err := s.Announcements(ctx, key)
		if err != nil {
			s.tel.ReportWarning("warm", err)
		}
	}
}
