// Package departments maps the department keys accepted by the api to the base url of
// each department's site.
package departments

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unifeed-backend/lib/textutil"
)

var defaults = map[string]string{
	"siirtUniversitesi":              "https://siirt.edu.tr/",
	"bilgisayarMuhendisligi":         "https://bilgisayar.siirt.edu.tr/",
	"elektrikElektronikMuhendisligi": "https://eem.siirt.edu.tr/",
	"gidaMuhendisligi":               "https://gida.siirt.edu.tr/",
	"insaatMuhendisligi":             "https://insaatmuh.siirt.edu.tr/",
	"kimyaMuhendisligi":              "https://kimyamuhendisligi.siirt.edu.tr/",
	"makineMuhendisligi":             "https://makine.siirt.edu.tr/",
	"egitimBilimleri":                "https://egitimbilimleri.siirt.edu.tr/",
	"matematikVeFenBilimleri":        "https://mfbeb.siirt.edu.tr/",
	"temelEgitim":                    "https://temelegitim.siirt.edu.tr/",
	"turkceVeSosyalBilimlerEgitimi":  "https://sbteb.siirt.edu.tr/",
	"yabanciDillerEgitimi":           "https://yabancidil.siirt.edu.tr/",
	"biyoloji":                       "https://biyoloji.siirt.edu.tr/",
	"cografya":                       "https://cografya.siirt.edu.tr/",
	"kimya":                          "https://kimya.siirt.edu.tr/",
	"matematik":                      "https://matematik.siirt.edu.tr/",
	"sosyoloji":                      "https://sosyoloji.siirt.edu.tr/",
	"psikoloji":                      "https://psikoloji.siirt.edu.tr/",
	"tarih":                          "https://tarih.siirt.edu.tr/",
	"turkDiliVeEdebiyati":            "https://turkdili.siirt.edu.tr/",
	"mutercimTercumanlik":            "https://mutercimtercuman.siirt.edu.tr/",
}

// UnknownDepartmentError is returned by Lookup for a key that is not registered.
type UnknownDepartmentError struct {
	Key         string
	Suggestions []string
}

func (e *UnknownDepartmentError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown department: %s", e.Key)
	}
	return fmt.Sprintf("unknown department: %s (did you mean %s?)", e.Key, strings.Join(e.Suggestions, ", "))
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	urls map[string]string
}

// New builds a registry from the built-in departments, overrides replace or add
// entries. Base urls always end with a slash.
func New(overrides map[string]string) Registry {
	urls := maps.Clone(defaults)
	for key, base := range overrides {
		if base == "" {
			delete(urls, key)
			continue
		}
		urls[key] = base
	}
	for key, base := range urls {
		if !strings.HasSuffix(base, "/") {
			urls[key] = base + "/"
		}
	}
	return Registry{urls: urls}
}

const maxSuggestions = 3

func (r Registry) Lookup(key string) (string, error) {
	base, ok := r.urls[key]
	if ok {
		return base, nil
	}
	return "", &UnknownDepartmentError{
		Key:         key,
		Suggestions: textutil.Suggest(key, r.Keys(), maxSuggestions),
	}
}

// Keys returns every registered department key, sorted.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r.urls))
	for key := range r.urls {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
