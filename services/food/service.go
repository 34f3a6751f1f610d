// Package food serves the cafeteria menu for today and the next two days.
package food

import (
	"context"
	"errors"
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
	report_menu       = "menu"
	report_menu_parse = "menu.parse"
	report_days       = "days"
)

const DefaultMenuUrl = "https://siirt.edu.tr/yemeklistesi.html"

const todayMarker = "background-color:#ecc41a"

var dayLabels = []string{"Bugün", "Yarın", "Sonraki Gün"}

var (
	ErrNoMenu  = errors.New("menu container not found")
	ErrNoToday = errors.New("today's menu not found")
)

type Item struct {
	Ad     string `json:"ad"`
	Kalori int    `json:"kalori"`
}

type Day struct {
	Gun   string `json:"gun"`
	Tarih string `json:"tarih"`
	Menu  []Item `json:"menu"`
}

type Options struct {
	Fetcher fetcher.Fetcher
	Store   cache.Store
	Tel     telemetry.API
	MenuUrl string
	TTL     time.Duration
}

type Service struct {
	fetch  fetcher.Fetcher
	agg    scrape.Aggregator
	tel    telemetry.API
	target scrape.Target
}

func NewService(opts Options) Service {
	if opts.MenuUrl == "" {
		opts.MenuUrl = DefaultMenuUrl
	}
	tel := telemetry.NewScopedAPI("food", opts.Tel)
	return Service{
		fetch:  opts.Fetcher,
		agg:    scrape.Aggregator{Store: opts.Store, Tel: tel},
		tel:    tel,
		target: scrape.Target{ListURL: opts.MenuUrl, KeyPrefix: "food", TTL: opts.TTL},
	}
}

// Menu returns up to three days starting today, an unreadable page yields an empty slice.
func (s Service) Menu(ctx context.Context) []Day {
	days, err := scrape.Cached(ctx, s.agg, s.target.ListKey(), s.target.TTL, s.scrape)
	if errors.Is(err, ErrNoMenu) || errors.Is(err, ErrNoToday) {
		s.tel.ReportWarning(report_menu_parse, err, s.target.ListURL)
		return []Day{}
	}
	if err != nil {
		s.tel.ReportBroken(report_menu, err, s.target.ListURL)
		return []Day{}
	}
	return days
}

func (s Service) scrape(ctx context.Context) ([]Day, error) {
	body, err := s.fetch.Fetch(ctx, s.target.ListURL)
	if err != nil {
		return nil, err
	}
	doc, err := htmlutil.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.target.ListURL, err)
	}

	days, err := ParseMenu(doc)
	if err != nil {
		return nil, err
	}
	if len(days) < len(dayLabels) {
		s.tel.ReportWarning(report_days, fmt.Sprintf("only %d days listed", len(days)))
	}
	return days, nil
}

func normalizeStyle(style string) string {
	return strings.ToLower(strings.ReplaceAll(style, " ", ""))
}

// ParseMenu reads the menu page. Day blocks are the direct child divs of the menu
// container with a bottom border, today is the block whose first div is highlighted.
// Fewer than three days are returned when the page runs out of blocks.
func ParseMenu(doc *goquery.Document) ([]Day, error) {
	container := doc.Find("#ctl14_div_yemeklist_").First()
	if container.Length() == 0 {
		return nil, ErrNoMenu
	}

	blocks := container.ChildrenFiltered("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
		style, _ := div.Attr("style")
		return strings.Contains(normalizeStyle(style), "border-bottom")
	})

	today := -1
	blocks.EachWithBreak(func(i int, div *goquery.Selection) bool {
		style, _ := div.Find("div").First().Attr("style")
		if strings.Contains(normalizeStyle(style), todayMarker) {
			today = i
			return false
		}
		return true
	})
	if today < 0 {
		return nil, ErrNoToday
	}

	days := []Day{}
	for i, label := range dayLabels {
		if today+i >= blocks.Length() {
			break
		}
		days = append(days, parseDay(label, blocks.Eq(today+i)))
	}
	return days, nil
}

func parseDay(label string, block *goquery.Selection) Day {
	inner := block.Find("div")
	day := Day{
		Gun:   label,
		Tarih: textutil.SplitDayMonth(htmlutil.Text(inner.First())),
		Menu:  []Item{},
	}
	inner.Slice(1, inner.Length()).Each(func(_ int, div *goquery.Selection) {
		text := htmlutil.Text(div)
		if text == "" {
			return
		}
		name, kcal := textutil.ParseCalorie(text)
		day.Menu = append(day.Menu, Item{Ad: name, Kalori: kcal})
	})
	return day
}

func (s Service) ClearCache(ctx context.Context) (int, error) {
	return scrape.Clear(ctx, s.agg, s.target)
}

func (s Service) Warm(ctx context.Context) {
	s.Menu(ctx)
}
