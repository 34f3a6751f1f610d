package telemetry

import (
	"fmt"
)

// API is what scrapers, caches and handlers report through instead of logging
// directly. Production passes a SlogAPI, tests pass a Recorder and assert on it.
type API interface {
	// ReportBroken reports a failure that leaves a response degraded, an upstream page
	// that could not be fetched or a cache that could not be written.
	//
	// ids name the step, not the incident: `detail` for a failed detail page fetch,
	// with the url and error passed as params. Services scope their API, so the final
	// id reads `notices.detail` or `bus.route`. Keep ids lowercase, dashes between words.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something worth a look that still produced a usable result,
	// typically a selector that matched nothing on a page that did load.
	ReportWarning(id string, params ...any)

	// ReportDebug is dropped unless running verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount records a gauge-like sample such as how many records a collection
	// returned, samples are not meant to be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace joined by a dot. Scoping an already
// scoped API nests, `bus` inside `warm` reports as `warm.bus.route`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) id(id string) string {
	return s.namespace + "." + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.id(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.id(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.id(id), count)
}
