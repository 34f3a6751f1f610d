package textutil

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Clean collapses every run of whitespace into one space, trims the ends
// and puts the string into NFC (the site mixes composed and decomposed Turkish letters).
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

const Ellipsis = "..."

// Truncate cuts s to at most limit runes, appending Ellipsis when anything was cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}

var dayMonthRegex = regexp.MustCompile(`(\d)(\p{L})`)

// SplitDayMonth separates digits from the letters glued after them,
// "28Şubat" -> "28 Şubat".
func SplitDayMonth(s string) string {
	return dayMonthRegex.ReplaceAllString(s, "$1 $2")
}

var calorieRegex = regexp.MustCompile(`(?i)^(.*?)(\d+)\s*Kalori$`)

// ParseCalorie splits "Mercimek Çorbası 180 Kalori" into its name and calorie count.
// When there is no calorie suffix the whole string is the name and calories are 0.
func ParseCalorie(s string) (string, int) {
	s = strings.TrimSpace(s)
	match := calorieRegex.FindStringSubmatch(s)
	if match == nil {
		return s, 0
	}
	kcal, err := strconv.Atoi(match[2])
	if err != nil {
		return s, 0
	}
	return strings.TrimSpace(match[1]), kcal
}

var dmyRegex = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})`)
var dmySeparator = regexp.MustCompile(`[/.\-]`)

// FindDMY returns the first DD.MM.YYYY looking date in s (any of . / - as separator)
// normalized to use dots, or "" when there is none.
func FindDMY(s string) string {
	match := dmyRegex.FindStringSubmatch(s)
	if match == nil {
		return ""
	}
	return match[1] + "." + match[2] + "." + match[3]
}

// ParseDMY parses a day/month/year string separated by . / or -.
func ParseDMY(s string) (day, month, year int, ok bool) {
	parts := dmySeparator.Split(strings.TrimSpace(s), -1)
	if len(parts) < 3 {
		return 0, 0, 0, false
	}
	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}

// CompareDMYDesc orders newer dates first, anything unparseable compares equal.
func CompareDMYDesc(a, b string) int {
	da, ma, ya, okA := ParseDMY(a)
	db, mb, yb, okB := ParseDMY(b)
	if !okA || !okB {
		return 0
	}
	if ya != yb {
		return yb - ya
	}
	if ma != mb {
		return mb - ma
	}
	return db - da
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

const suggestThreshold = 0.75

// Suggest returns up to max candidates that look like name, most similar first.
func Suggest(name string, candidates []string, max int) []string {
	type scored struct {
		candidate string
		score     float64
	}

	needle := NormalizeName(name)
	var ranked []scored
	for _, c := range candidates {
		score := matchr.JaroWinkler(needle, NormalizeName(c), false)
		if score >= suggestThreshold {
			ranked = append(ranked, scored{candidate: c, score: score})
		}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})

	out := make([]string, 0, max)
	for i := 0; i < len(ranked) && i < max; i++ {
		out = append(out, ranked[i].candidate)
	}
	return out
}
