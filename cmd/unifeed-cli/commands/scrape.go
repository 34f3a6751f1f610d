package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
	"unifeed-backend/lib/serviceutil"
	"unifeed-backend/lib/textutil"
	"unifeed-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeJson *bool

func init() {
	scrapeJson = scrapeCmd.Flags().Bool("json", false, "Print the result as json instead of a table.")
	rootCmd.AddCommand(scrapeCmd)
}

var resources = []string{"notices", "news", "events", "announcement", "staff", "bus", "food", "departments"}

var scrapeCmd = &cobra.Command{
	Use:       "scrape <resource> [department|route]",
	Short:     "Scrapes a resource the way the api does and prints it.",
	Long:      "Resources: " + strings.Join(resources, ", ") + ". announcement and staff need a department key, bus takes an optional route.",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: resources,
	Run: func(cmd *cobra.Command, args []string) {
		env := load()
		defer env.store.Close()

		arg := ""
		if len(args) > 1 {
			arg = args[1]
		}

		done := timer(os.Stderr, timezone.Now)
		result, render, err := scrapeResource(cmd.Context(), env, args[0], arg)
		if err != nil {
			serviceutil.Fatal("failed to scrape", err)
		}
		defer done()

		if *scrapeJson {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(result)
			if err != nil {
				serviceutil.Fatal("failed to encode", err)
			}
			return
		}
		t := newTable()
		render(t)
		t.Render()
	},
}

// timer starts timing now, the returned func prints how long it has been.
func timer(w io.Writer, now timezone.Clock) func() {
	start := now()
	return func() {
		fmt.Fprintf(w, "took %s\n", now().Sub(start).Round(time.Millisecond))
	}
}

func requireArg(resource, arg string) error {
	if arg == "" {
		return fmt.Errorf("%s needs a department key, see `unifeed-cli scrape departments`", resource)
	}
	return nil
}

func scrapeResource(ctx context.Context, env environment, resource, arg string) (any, func(table.Writer), error) {
	s := env.services
	switch resource {
	case "notices":
		notices := s.Notices.Notices(ctx)
		return notices, func(t table.Writer) {
			t.AppendHeader(table.Row{"Date", "Title", "Link"})
			for _, n := range notices {
				t.AppendRow(table.Row{n.AnnouncementDate, n.Title, n.Link})
			}
		}, nil
	case "news":
		news := s.Notices.News(ctx)
		return news, func(t table.Writer) {
			t.AppendHeader(table.Row{"Title", "Content", "Link"})
			for _, n := range news {
				t.AppendRow(table.Row{n.Title, textutil.Truncate(n.Content, 60), n.Link})
			}
		}, nil
	case "events":
		events := s.Notices.Events(ctx)
		return events, func(t table.Writer) {
			t.AppendHeader(table.Row{"Date", "Link"})
			for _, e := range events {
				t.AppendRow(table.Row{e.Date, e.Link})
			}
		}, nil
	case "announcement":
		if err := requireArg(resource, arg); err != nil {
			return nil, nil, err
		}
		announcements, err := s.Announcement.Announcements(ctx, arg)
		if err != nil {
			return nil, nil, err
		}
		return announcements, func(t table.Writer) {
			t.AppendHeader(table.Row{"Title", "Content", "Url"})
			for _, a := range announcements {
				t.AppendRow(table.Row{a.Title, textutil.Truncate(a.Content, 60), a.Url})
			}
		}, nil
	case "staff":
		if err := requireArg(resource, arg); err != nil {
			return nil, nil, err
		}
		staff, err := s.AcademicStaff.Staff(ctx, arg)
		if err != nil {
			return nil, nil, err
		}
		return staff, func(t table.Writer) {
			t.AppendHeader(table.Row{"Name", "Title", "Branch", "Email", "Phone"})
			for _, m := range staff {
				t.AppendRow(table.Row{m.Name, m.Title, m.Branch, m.Email, m.Phone})
			}
		}, nil
	case "bus":
		if arg != "" {
			schedules, err := s.Bus.Route(ctx, arg)
			if err != nil {
				return nil, nil, err
			}
			return schedules, func(t table.Writer) {
				t.AppendHeader(table.Row{"#", "Çarşı Kalkış", "Üniversite Kalkış"})
				for i, sc := range schedules {
					t.AppendRow(table.Row{i + 1, sc.CarsKalkisSaati, sc.UniversiteKalkis})
				}
			}, nil
		}
		all := s.Bus.All(ctx)
		return all, func(t table.Writer) {
			t.AppendHeader(table.Row{"Route", "#", "Çarşı Kalkış", "Üniversite Kalkış"})
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				for i, sc := range all[name] {
					t.AppendRow(table.Row{name, i + 1, sc.CarsKalkisSaati, sc.UniversiteKalkis})
				}
				t.AppendSeparator()
			}
		}, nil
	case "food":
		days := s.Food.Menu(ctx)
		return days, func(t table.Writer) {
			t.AppendHeader(table.Row{"Gün", "Tarih", "Yemek", "Kalori"})
			for _, day := range days {
				for _, item := range day.Menu {
					t.AppendRow(table.Row{day.Gun, day.Tarih, item.Ad, item.Kalori})
				}
				t.AppendSeparator()
			}
		}, nil
	case "departments":
		keys := env.services.Departments.Keys()
		return keys, func(t table.Writer) {
			t.AppendHeader(table.Row{"Department", "Base url"})
			for _, key := range keys {
				base, _ := env.services.Departments.Lookup(key)
				t.AppendRow(table.Row{key, base})
			}
		}, nil
	}

	suggestions := textutil.Suggest(resource, resources, 1)
	if len(suggestions) > 0 {
		return nil, nil, fmt.Errorf("unknown resource %q, did you mean %q?", resource, suggestions[0])
	}
	return nil, nil, fmt.Errorf("unknown resource %q", resource)
}
