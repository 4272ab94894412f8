package routing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"jobscout/internal/domain"
)

// Extractor scans raw query text for geographic, industry, distance and
// language signals. Pure and deterministic: the same input always yields the
// same ExtractedSignals, and absence of a signal is a zero value, never an
// error.
type Extractor struct {
	gazetteer *Gazetteer
	maxScan   int
}

// NewExtractor creates an Extractor. maxScan bounds how many runes of the
// query are examined, so hostile input cannot blow up latency.
func NewExtractor(g *Gazetteer, maxScan int) *Extractor {
	if maxScan <= 0 {
		maxScan = 2048
	}
	return &Extractor{gazetteer: g, maxScan: maxScan}
}

// Extract scans query and returns whatever signals it finds.
func (e *Extractor) Extract(query string) domain.ExtractedSignals {
	text := truncateRunes(query, e.maxScan)
	lower := strings.ToLower(text)

	return domain.ExtractedSignals{
		Region:     e.matchRegion(lower),
		Industry:   e.matchIndustry(lower),
		DistanceKM: matchDistance(lower),
		Language:   e.detectLanguage(text),
	}
}

// matchRegion finds the most specific gazetteer region mentioned in the
// query (city > state > country); ties go to the match appearing earliest.
func (e *Extractor) matchRegion(lower string) domain.RegionTag {
	var (
		best    domain.RegionTag
		bestLvl domain.RegionLevel = -1
		bestPos                    = -1
	)
	for _, entry := range e.gazetteer.regions {
		pos := earliestAlias(lower, entry.Aliases)
		if pos < 0 {
			continue
		}
		if entry.Level > bestLvl || (entry.Level == bestLvl && (bestPos < 0 || pos < bestPos)) {
			best = entry.Tag
			bestLvl = entry.Level
			bestPos = pos
		}
	}
	return best
}

// matchIndustry returns the industry whose keyword appears earliest in the
// query. No match is valid and common.
func (e *Extractor) matchIndustry(lower string) domain.IndustryTag {
	var (
		best    domain.IndustryTag
		bestPos = -1
	)
	for _, entry := range e.gazetteer.industries {
		pos := earliestAlias(lower, entry.Keywords)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos {
			best = entry.Tag
			bestPos = pos
		}
	}
	return best
}

func earliestAlias(lower string, aliases []string) int {
	best := -1
	for _, alias := range aliases {
		pos := indexToken(lower, alias)
		if pos >= 0 && (best < 0 || pos < best) {
			best = pos
		}
	}
	return best
}

// indexToken returns the byte index of the first occurrence of token in
// text, or -1. Tokens that start or end with Latin letters/digits must sit
// on word boundaries so "nz" does not match inside "bronze"; CJK and other
// unspaced scripts match as substrings.
func indexToken(text, token string) int {
	if token == "" {
		return -1
	}
	first, _ := utf8.DecodeRuneInString(token)
	last, _ := utf8.DecodeLastRuneInString(token)

	for offset := 0; offset <= len(text)-len(token); {
		i := strings.Index(text[offset:], token)
		if i < 0 {
			return -1
		}
		pos := offset + i
		if boundaryOK(text, pos, first, before) && boundaryOK(text, pos+len(token), last, after) {
			return pos
		}
		offset = pos + 1
	}
	return -1
}

type boundarySide int

const (
	before boundarySide = iota
	after
)

func boundaryOK(text string, pos int, edge rune, side boundarySide) bool {
	if !isLatinWord(edge) {
		return true // boundary rules only apply to Latin-script tokens
	}
	var neighbor rune
	if side == before {
		if pos == 0 {
			return true
		}
		neighbor, _ = utf8.DecodeLastRuneInString(text[:pos])
	} else {
		if pos >= len(text) {
			return true
		}
		neighbor, _ = utf8.DecodeRuneInString(text[pos:])
	}
	return !isLatinWord(neighbor)
}

func isLatinWord(r rune) bool {
	return unicode.Is(unicode.Latin, r) || unicode.IsDigit(r)
}

// distanceRe matches the first number-plus-distance-unit pattern. Latin
// units require a trailing word boundary; CJK units do not have one.
var distanceRe = regexp.MustCompile(
	`(\d+(?:\.\d+)?)\s*(kilometers?\b|kilometres?\b|kms?\b|miles?\b|mi\b|公里|千米|英里)`)

const milesToKM = 1.609344

// matchDistance returns the first distance constraint normalized to
// kilometers, or 0 when none is present.
func matchDistance(lower string) float64 {
	m := distanceRe.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return 0
	}
	switch m[2] {
	case "miles", "mile", "mi", "英里":
		return value * milesToKM
	default:
		return value
	}
}

// detectLanguage classifies the dominant script of the query by character
// count. Japanese kana pulls Han characters into the Japanese bucket since
// Japanese text mixes both. Ties and empty input resolve to the configured
// default.
func (e *Extractor) detectLanguage(text string) domain.LanguageTag {
	var latin, han, kana, hangul, arabic, devanagari int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		}
	}

	counts := []struct {
		lang  domain.LanguageTag
		count int
	}{
		{domain.LangEnglish, latin},
		{domain.LangChinese, han},
		{domain.LangJapanese, kana},
		{domain.LangKorean, hangul},
		{domain.LangArabic, arabic},
		{domain.LangHindi, devanagari},
	}
	if kana > 0 {
		// Kanji in the presence of kana is Japanese, not Chinese.
		counts[2].count += han
		counts[1].count = 0
	}

	best := e.gazetteer.DefaultLanguage()
	bestCount := 0
	tied := false
	for _, c := range counts {
		switch {
		case c.count > bestCount:
			best, bestCount, tied = c.lang, c.count, false
		case c.count == bestCount && c.count > 0:
			tied = true
		}
	}
	if bestCount == 0 {
		return "" // no script signal at all
	}
	if tied {
		return e.gazetteer.DefaultLanguage()
	}
	return best
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
