// Package slots guesses search criteria from free-text utterances.
// It is an English/Hindi keyword normaliser; the engine only sees the
// resulting domain.SearchCriteria.
package slots

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_concierge/internal/domain"
)

// Vocabulary supplies the catalog's known locations and amenities.
type Vocabulary interface {
	Locations(ctx context.Context) ([]string, error)
	Amenities(ctx context.Context) ([]string, error)
}

var (
	defaultLocations = []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Hyderabad", "Pune", "Kolkata", "Jaipur", "Goa", "Udaipur"}
	defaultAmenities = []string{"wifi", "pool", "gym", "restaurant", "spa", "ac", "parking", "room service", "breakfast", "business center"}

	dmyRE      = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	ymdRE      = regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`)
	adultsRE   = regexp.MustCompile(`(\d+)\s*(adults?|persons?|people|लोग)`)
	childrenRE = regexp.MustCompile(`(\d+)\s*(child|children|kids?|बच्चे)`)
	starsRE    = regexp.MustCompile(`(\d)\s*-?\s*star`)
	priceRE    = regexp.MustCompile(`(\d+)\s*(?:to|-)\s*(\d+)\s*(?:rs|rupees|price|रुपये)`)
)

type RegexParser struct {
	vocab Vocabulary
}

// NewRegexParser uses vocab for location and amenity names; nil vocab
// falls back to the built-in lists.
func NewRegexParser(vocab Vocabulary) *RegexParser { return &RegexParser{vocab: vocab} }

func (p *RegexParser) ParseCriteria(ctx context.Context, utterance string) (domain.SearchCriteria, error) {
	var c domain.SearchCriteria
	low := strings.ToLower(utterance)
	if strings.TrimSpace(low) == "" {
		return c, fmt.Errorf("%w: empty utterance", domain.ErrValidation)
	}

	locations, amenities := p.vocabulary(ctx)

	if loc := longestMention(low, locations); loc != "" {
		c.Location = &loc
	}
	if found := mentions(low, amenities); len(found) > 0 {
		s := strings.Join(found, ",")
		c.Amenities = &s
	}

	if in, out, ok := stayDates(utterance); ok {
		c.CheckIn, c.CheckOut = &in, &out
	}
	if n, ok := firstInt(adultsRE, low); ok {
		c.Adults = &n
	}
	if n, ok := firstInt(childrenRE, low); ok {
		c.Children = &n
	}
	if n, ok := firstInt(starsRE, low); ok && n >= 1 && n <= 5 {
		c.MinStars = &n
	}
	if m := priceRE.FindStringSubmatch(low); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		c.MinPrice, c.MaxPrice = &lo, &hi
	}
	return c, nil
}

func (p *RegexParser) vocabulary(ctx context.Context) (locations, amenities []string) {
	locations, amenities = defaultLocations, defaultAmenities
	if p.vocab == nil {
		return locations, amenities
	}
	if ls, err := p.vocab.Locations(ctx); err == nil {
		locations = append(slices.Clone(ls), defaultLocations...)
	} else {
		log.Warn().Err(err).Msg("slot vocabulary: locations unavailable")
	}
	if as, err := p.vocab.Amenities(ctx); err == nil {
		amenities = append(slices.Clone(as), defaultAmenities...)
	} else {
		log.Warn().Err(err).Msg("slot vocabulary: amenities unavailable")
	}
	return locations, amenities
}

// longestMention returns the longest term contained in text, as spelled in terms.
func longestMention(text string, terms []string) string {
	best := ""
	for _, t := range terms {
		if t != "" && len(t) > len(best) && strings.Contains(text, strings.ToLower(t)) {
			best = t
		}
	}
	return best
}

// mentions returns every term found in text, lowercased, dropping terms
// that are part of a longer term already found ("wifi" inside "free wifi").
func mentions(text string, terms []string) []string {
	sorted := slices.Clone(terms)
	slices.SortStableFunc(sorted, func(a, b string) int { return cmp.Compare(len(b), len(a)) })

	var out []string
	for _, t := range sorted {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || !containsWord(text, t) {
			continue
		}
		covered := false
		for _, o := range out {
			if strings.Contains(o, t) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, t)
		}
	}
	return out
}

// containsWord is a substring match that refuses to split a word, so
// "ac" does not fire inside "place".
func containsWord(text, term string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], term)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(term)
		if (start == 0 || !isLetter(text[start-1])) && (end == len(text) || !isLetter(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' }

type dateHit struct {
	pos int
	d   domain.Date
}

// stayDates takes the first two calendar dates in reading order.
func stayDates(s string) (domain.Date, domain.Date, bool) {
	var hits []dateHit
	for _, m := range dmyRE.FindAllStringSubmatchIndex(s, -1) {
		if d, ok := calendarDate(s[m[6]:m[7]], s[m[4]:m[5]], s[m[2]:m[3]]); ok {
			hits = append(hits, dateHit{m[0], d})
		}
	}
	for _, m := range ymdRE.FindAllStringSubmatchIndex(s, -1) {
		if d, ok := calendarDate(s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]]); ok {
			hits = append(hits, dateHit{m[0], d})
		}
	}
	if len(hits) < 2 {
		return domain.Date{}, domain.Date{}, false
	}
	slices.SortFunc(hits, func(a, b dateHit) int { return cmp.Compare(a.pos, b.pos) })
	return hits[0].d, hits[1].d, true
}

func calendarDate(y, m, d string) (domain.Date, bool) {
	mi, _ := strconv.Atoi(m)
	di, _ := strconv.Atoi(d)
	date, err := domain.ParseDate(fmt.Sprintf("%s-%02d-%02d", y, mi, di))
	return date, err == nil
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
