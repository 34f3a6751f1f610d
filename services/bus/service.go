// Package bus serves the municipal bus timetables of the university lines.
package bus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/htmlutil"
	"unifeed-backend/lib/scrape"
	"unifeed-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_route      = "route"
	report_cache_read = "cache.read"
)

var DefaultRoutes = []string{
	"https://www.siirt.bel.tr/a1-universite-hatti",
	"https://www.siirt.bel.tr/a-2-universite-hatti",
}

var DefaultAliases = map[string]string{
	"a1": "a1-universite-hatti",
	"a2": "a-2-universite-hatti",
}

// ErrUnknownRoute is returned when no configured route matches a name.
var ErrUnknownRoute = errors.New("unknown route")

// ErrNoTable is returned when a route page has no table at all.
var ErrNoTable = errors.New("no schedule table")

type Schedule struct {
	CarsKalkisSaati  string `json:"carsKalkisSaati"`
	UniversiteKalkis string `json:"universiteKalkis"`
}

type Options struct {
	Fetcher fetcher.Fetcher
	Store   cache.Store
	Tel     telemetry.API
	// Routes are the timetable pages, the last path segment is the route name.
	Routes  []string
	Aliases map[string]string
	TTL     time.Duration
}

type route struct {
	name string
	url  string
}

type Service struct {
	fetch   fetcher.Fetcher
	agg     scrape.Aggregator
	tel     telemetry.API
	routes  []route
	aliases map[string]string
	target  scrape.Target
}

func routeName(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return path.Base(link)
	}
	return path.Base(strings.TrimSuffix(parsed.Path, "/"))
}

func NewService(opts Options) Service {
	if len(opts.Routes) == 0 {
		opts.Routes = DefaultRoutes
	}
	if opts.Aliases == nil {
		opts.Aliases = DefaultAliases
	}

	routes := make([]route, len(opts.Routes))
	for i, link := range opts.Routes {
		routes[i] = route{name: routeName(link), url: link}
	}

	tel := telemetry.NewScopedAPI("bus", opts.Tel)
	return Service{
		fetch:   opts.Fetcher,
		agg:     scrape.Aggregator{Store: opts.Store, Tel: tel},
		tel:     tel,
		routes:  routes,
		aliases: opts.Aliases,
		target:  scrape.Target{KeyPrefix: "bus", TTL: opts.TTL},
	}
}

func (s Service) lookup(name string) (route, bool) {
	if full, ok := s.aliases[name]; ok {
		name = full
	}
	for _, r := range s.routes {
		if r.name == name {
			return r, true
		}
	}
	for _, r := range s.routes {
		if strings.Contains(r.url, name) {
			return r, true
		}
	}
	return route{}, false
}

func (s Service) scrapeRoute(ctx context.Context, r route) ([]Schedule, error) {
	return scrape.Cached(ctx, s.agg, s.target.Key("route", r.name), s.target.TTL, func(ctx context.Context) ([]Schedule, error) {
		body, err := s.fetch.Fetch(ctx, r.url)
		if err != nil {
			return nil, err
		}
		doc, err := htmlutil.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", r.url, err)
		}
		return ParseTimetable(doc)
	})
}

// Route returns the timetable of a single route, name may be an alias, the full
// route name or any part of the route url. A route that cannot be scraped yields an
// empty timetable.
func (s Service) Route(ctx context.Context, name string) ([]Schedule, error) {
	r, ok := s.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	schedules, err := s.scrapeRoute(ctx, r)
	if err != nil {
		s.tel.ReportBroken(report_route, err, r.url)
		return []Schedule{}, nil
	}
	return schedules, nil
}

// All returns the timetable of every route keyed by route name. Routes are scraped
// concurrently, the map is only cached when every route succeeded.
func (s Service) All(ctx context.Context) map[string][]Schedule {
	ctx = context.WithoutCancel(ctx)
	key := s.target.ListKey()

	cached, err := cache.GetJSON[map[string][]Schedule](ctx, s.agg.Store, key)
	if err == nil {
		return cached
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.tel.ReportBroken(report_cache_read, err, key)
	}

	result := make(map[string][]Schedule, len(s.routes))
	failed := false
	mutex := sync.Mutex{}
	wg := sync.WaitGroup{}
	for _, r := range s.routes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			schedules, err := s.scrapeRoute(ctx, r)
			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				s.tel.ReportBroken(report_route, err, r.url)
				failed = true
				schedules = []Schedule{}
			}
			result[r.name] = schedules
		}()
	}
	wg.Wait()

	if !failed {
		err = cache.SetJSON(ctx, s.agg.Store, key, result, s.target.TTL)
		if err != nil {
			s.tel.ReportBroken("cache.write", err, key)
		}
	}
	return result
}

func (s Service) ClearCache(ctx context.Context) (int, error) {
	return scrape.Clear(ctx, s.agg, s.target)
}

func (s Service) Warm(ctx context.Context) {
	s.All(ctx)
}

var headerPhrases = []string{"Çarşı Kalkış", "Üniversite Kalkış"}

func hasHeader(text string) bool {
	for _, phrase := range headerPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

const headerSearchRows = 5

// ParseTimetable finds the schedule table on a route page and reads its rows.
//
// The table is the first one mentioning a departure header, or else the one with the
// most rows. Rows up to and including the header row (looked for in the first five
// rows) are skipped, data rows need at least three cells: number, departure from the
// town center and departure from the university.
func ParseTimetable(doc *goquery.Document) ([]Schedule, error) {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, ErrNoTable
	}

	var table *goquery.Selection
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if hasHeader(t.Text()) {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		maxRows := -1
		tables.Each(func(_ int, t *goquery.Selection) {
			rows := t.Find("tr").Length()
			if rows > maxRows {
				maxRows = rows
				table = t
			}
		})
	}

	rows := table.Find("tr")
	start := 0
	for i := 0; i < headerSearchRows && i < rows.Length(); i++ {
		if hasHeader(rows.Eq(i).Text()) {
			start = i + 1
			break
		}
	}

	schedules := []Schedule{}
	rows.Slice(start, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		schedule := Schedule{
			CarsKalkisSaati:  htmlutil.Text(cells.Eq(1)),
			UniversiteKalkis: htmlutil.Text(cells.Last()),
		}
		if schedule.CarsKalkisSaati == "" && schedule.UniversiteKalkis == "" {
			return
		}
		schedules = append(schedules, schedule)
	})
	return schedules, nil
}
