// Package academicstaff serves the academic staff directory of a department.
package academicstaff

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

	"github.com/PuerkitoBio/goquery"
)

const (
	report_list_selector = "list.selector"
)

const DefaultStaffPath = "personel/akademik/739614.html"

type Member struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Branch        string `json:"branch"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	DetailPageUrl string `json:"detailPageUrl"`
}

type Options struct {
	Fetcher     fetcher.Fetcher
	Store       cache.Store
	Tel         telemetry.API
	Departments departments.Registry
	// StaffPath is the staff list page relative to a department's base url.
	StaffPath string
	TTL       time.Duration
}

type Service struct {
	fetch       fetcher.Fetcher
	agg         scrape.Aggregator
	tel         telemetry.API
	departments departments.Registry
	staffPath   string
	ttl         time.Duration
}

func NewService(opts Options) Service {
	if opts.StaffPath == "" {
		opts.StaffPath = DefaultStaffPath
	}
	tel := telemetry.NewScopedAPI("academic_staff", opts.Tel)
	return Service{
		fetch:       opts.Fetcher,
		agg:         scrape.Aggregator{Store: opts.Store, Tel: tel},
		tel:         tel,
		departments: opts.Departments,
		staffPath:   opts.StaffPath,
		ttl:         opts.TTL,
	}
}

func (s Service) target(listUrl string) scrape.Target {
	return scrape.Target{ListURL: listUrl, KeyPrefix: "academic_staff", TTL: s.ttl}
}

// Staff returns the staff of a department in list order, the only error is
// *departments.UnknownDepartmentError.
func (s Service) Staff(ctx context.Context, department string) ([]Member, error) {
	base, err := s.departments.Lookup(department)
	if err != nil {
		return nil, err
	}
	listUrl, err := htmlutil.Resolve(base, s.staffPath)
	if err != nil {
		return nil, fmt.Errorf("staff page of %s: %w", department, err)
	}
	target := s.target(listUrl)

	return scrape.Collect(ctx, s.agg, scrape.Plan[Member]{
		Target: target,
		Key:    target.ListKey(department),
		List: func(ctx context.Context) ([]scrape.ListEntry, error) {
			return s.list(ctx, base, listUrl)
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

func (s Service) list(ctx context.Context, base, listUrl string) ([]scrape.ListEntry, error) {
	doc, err := s.document(ctx, listUrl)
	if err != nil {
		return nil, err
	}

	container := doc.Find("#ctl15_div_personlist_2 > ul").First()
	if container.Length() == 0 {
		s.tel.ReportWarning(report_list_selector, "staff list not found", listUrl)
		return nil, nil
	}

	var entries []scrape.ListEntry
	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		anchors := htmlutil.GetAnchors(ctx, base, li.Find("div a").First())
		if len(anchors) == 0 {
			return
		}
		entries = append(entries, scrape.ListEntry{DetailURL: anchors[0].Href})
	})
	return entries, nil
}

func (s Service) detail(ctx context.Context, entry scrape.ListEntry) (Member, error) {
	doc, err := s.document(ctx, entry.DetailURL)
	if err != nil {
		return Member{}, err
	}

	name := htmlutil.Text(doc.Find("#ctl11_h2_kisiad_"))
	if name == "" {
		return Member{}, fmt.Errorf("no name on %s: %w", entry.DetailURL, scrape.ErrIncomplete)
	}

	mail := doc.Find("#ctl11_span_mailkurumsal_").First()
	email := htmlutil.FirstText(mail)
	if email == "" {
		email = htmlutil.Text(mail)
	}

	return Member{
		Name:          name,
		Title:         htmlutil.Text(doc.Find("#ctl11_div_gorev_ table tr:first-child td:nth-child(2) b").First()),
		Branch:        htmlutil.Text(doc.Find("#ctl11_span_abd_")),
		Email:         email,
		Phone:         htmlutil.Text(doc.Find("#ctl11_span_telefon_")),
		DetailPageUrl: entry.DetailURL,
	}, nil
}

// ClearCache drops the staff lists and profiles of every department.
func (s Service) ClearCache(ctx context.Context) (int, error) {
	return scrape.Clear(ctx, s.agg, s.target(""))
}

// Warm populates the staff lists of the given departments.
func (s Service) Warm(ctx context.Context, keys []string) {
	for _, key := range keys {
		_, err := s.Staff(ctx, key)
		if err != nil {
			s.tel.ReportWarning("warm", err)
		}
	}
}
