// Package notices serves the university home page feeds: notices (duyurular),
// news and events.
package notices

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/htmlutil"
	"unifeed-backend/lib/scrape"
	"unifeed-backend/lib/telemetry"
	"unifeed-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_notice_title  = "notice.title"
	report_news_title    = "news.title"
	report_news_content  = "news.content"
	report_events_list   = "events.list"
	report_list_selector = "list.selector"
)

const contentLimit = 250

type Notice struct {
	Link             string   `json:"link"`
	Title            string   `json:"title"`
	Content          []string `json:"content"`
	AnnouncementDate string   `json:"announcement_date"`
}

type News struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	ImgUrl  string `json:"img_url"`
	Content string `json:"content"`
}

type Event struct {
	Link string `json:"link"`
	Date string `json:"date"`
}

type Options struct {
	Fetcher fetcher.Fetcher
	Store   cache.Store
	Tel     telemetry.API
	// SiteUrl is the page listing notices, NewsUrl and EventsUrl default to it.
	SiteUrl   string
	NewsUrl   string
	EventsUrl string
	TTL       time.Duration
}

type Service struct {
	fetch   fetcher.Fetcher
	agg     scrape.Aggregator
	tel     telemetry.API
	notices scrape.Target
	news    scrape.Target
	events  scrape.Target
}

func NewService(opts Options) Service {
	if opts.SiteUrl == "" {
		panic("empty site url")
	}
	if opts.NewsUrl == "" {
		opts.NewsUrl = opts.SiteUrl
	}
	if opts.EventsUrl == "" {
		opts.EventsUrl = opts.SiteUrl
	}

	tel := telemetry.NewScopedAPI("notices", opts.Tel)
	return Service{
		fetch:   opts.Fetcher,
		agg:     scrape.Aggregator{Store: opts.Store, Tel: tel},
		tel:     tel,
		notices: scrape.Target{ListURL: opts.SiteUrl, KeyPrefix: "notices", TTL: opts.TTL},
		news:    scrape.Target{ListURL: opts.NewsUrl, KeyPrefix: "news", TTL: opts.TTL},
		events:  scrape.Target{ListURL: opts.EventsUrl, KeyPrefix: "events", TTL: opts.TTL},
	}
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

func (s Service) Notices(ctx context.Context) []Notice {
	return scrape.Collect(ctx, s.agg, scrape.Plan[Notice]{
		Target: s.notices,
		List:   s.listNotices,
		Detail: s.noticeDetail,
	})
}

func (s Service) listNotices(ctx context.Context) ([]scrape.ListEntry, error) {
	doc, err := s.document(ctx, s.notices.ListURL)
	if err != nil {
		return nil, err
	}

	divs := doc.Find("#ctl14_div_duyurulist1_ > div")
	if divs.Length() == 0 {
		s.tel.ReportWarning(report_list_selector, "no notices found", s.notices.ListURL)
	}

	var entries []scrape.ListEntry
	divs.Each(func(_ int, div *goquery.Selection) {
		href, ok := div.Find(".duyuruanadiv.label a").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || !strings.HasSuffix(href, ".html") {
			return
		}
		link, err := htmlutil.Resolve(s.notices.ListURL, href)
		if err != nil {
			return
		}
		date := htmlutil.Text(div.Find("div").First())
		entries = append(entries, scrape.ListEntry{
			DetailURL: link,
			Aux:       textutil.SplitDayMonth(date),
		})
	})
	return entries, nil
}

func (s Service) noticeDetail(ctx context.Context, entry scrape.ListEntry) (Notice, error) {
	doc, err := s.document(ctx, entry.DetailURL)
	if err != nil {
		return Notice{}, err
	}

	title := htmlutil.Text(doc.Find("#ctl14_aktivitebaslik_"))
	if title == "" {
		s.tel.ReportWarning(report_notice_title, "empty title", entry.DetailURL)
	}

	content := []string{}
	nodes := htmlutil.TextNodes(doc.Find("#ctl14_aktivitedetay_"))
	if nodes != nil {
		content = append(content, textutil.Truncate(strings.Join(nodes, " "), contentLimit))
	}

	return Notice{
		Link:             entry.DetailURL,
		Title:            title,
		Content:          content,
		AnnouncementDate: entry.Aux,
	}, nil
}

func (s Service) News(ctx context.Context) []News {
	return scrape.Collect(ctx, s.agg, scrape.Plan[News]{
		Target: s.news,
		List:   s.listNews,
		Detail: s.newsDetail,
	})
}

func (s Service) listNews(ctx context.Context) ([]scrape.ListEntry, error) {
	doc, err := s.document(ctx, s.news.ListURL)
	if err != nil {
		return nil, err
	}

	var entries []scrape.ListEntry
	doc.Find("#ctl14_div_haberler > div").Each(func(_ int, div *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, s.news.ListURL, div.Find("a").First())
		if len(anchors) == 0 {
			return
		}
		entries = append(entries, scrape.ListEntry{DetailURL: anchors[0].Href})
	})
	if len(entries) == 0 {
		s.tel.ReportWarning(report_list_selector, "no news found", s.news.ListURL)
	}
	return entries, nil
}

func (s Service) newsDetail(ctx context.Context, entry scrape.ListEntry) (News, error) {
	doc, err := s.document(ctx, entry.DetailURL)
	if err != nil {
		return News{}, err
	}

	title := htmlutil.Text(doc.Find("#ctl14_aktivitebaslik_"))
	if title == "" {
		s.tel.ReportWarning(report_news_title, "empty title", entry.DetailURL)
	}

	imgUrl := ""
	src, ok := doc.Find("#ctl14_aktivitedetay_ div a img").First().Attr("src")
	if ok && strings.TrimSpace(src) != "" {
		origin, err := htmlutil.Origin(entry.DetailURL)
		if err == nil {
			imgUrl, _ = htmlutil.Resolve(origin+"/", src)
		}
	}

	content := htmlutil.DirectText(doc.Find("#ctl14_aktivitedetay_ > p:nth-of-type(2) > span"))
	if content == "" {
		s.tel.ReportWarning(report_news_content, "empty content", entry.DetailURL)
	}

	return News{
		Link:    entry.DetailURL,
		Title:   title,
		ImgUrl:  imgUrl,
		Content: textutil.Truncate(content, contentLimit),
	}, nil
}

// Events has no detail pages, the list is cached as a single value sorted newest first.
func (s Service) Events(ctx context.Context) []Event {
	events, err := scrape.Cached(ctx, s.agg, s.events.ListKey(), s.events.TTL, s.listEvents)
	if err != nil {
		s.tel.ReportBroken(report_events_list, err, s.events.ListURL)
		return []Event{}
	}
	return events
}

func (s Service) listEvents(ctx context.Context) ([]Event, error) {
	doc, err := s.document(ctx, s.events.ListURL)
	if err != nil {
		return nil, err
	}
	origin, err := htmlutil.Origin(s.events.ListURL)
	if err != nil {
		return nil, err
	}

	events := []Event{}
	doc.Find("#ctl14_div_alt_etkinlik > div").Each(func(_ int, div *goquery.Selection) {
		href, ok := div.Find("div a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link, err := htmlutil.Resolve(origin+"/", href)
		if err != nil {
			return
		}

		date := htmlutil.Text(div.Find(`.date, .eventDate, [id*="date"]`).First())
		if date == "" {
			date = textutil.FindDMY(htmlutil.Text(div))
		}
		events = append(events, Event{Link: link, Date: date})
	})
	if len(events) == 0 {
		return nil, fmt.Errorf("no events on %s", s.events.ListURL)
	}

	sortEvents(events)
	return events, nil
}

// ClearCache drops the notices, news and events caches.
func (s Service) ClearCache(ctx context.Context) (int, error) {
	total := 0
	for _, target := range []scrape.Target{s.notices, s.news, s.events} {
		removed, err := scrape.Clear(ctx, s.agg, target)
		if err != nil {
			return total, fmt.Errorf("clear %s: %w", target.KeyPrefix, err)
		}
		total += removed
	}
	return total, nil
}

// Warm populates whatever has expired.
func (s Service) Warm(ctx context.Context) {
	s.Notices(ctx)
	s.News(ctx)
	s.Events(ctx)
}
