package domain

// RegionTag names a geographic region from the gazetteer (country, state or
// city). Tags are stable config-defined identifiers, e.g. "australia",
// "sydney", "maharashtra".
type RegionTag string

// RegionLevel orders gazetteer entries by specificity: a city match beats a
// state match beats a country match.
type RegionLevel int

const (
	RegionCountry RegionLevel = iota
	RegionState
	RegionCity
)

func (l RegionLevel) String() string {
	switch l {
	case RegionCity:
		return "city"
	case RegionState:
		return "state"
	default:
		return "country"
	}
}

// IndustryTag names an industry from the keyword mapping, e.g.
// "construction", "software".
type IndustryTag string

// LanguageTag names the dominant script/language detected in a query.
type LanguageTag string

const (
	LangEnglish  LanguageTag = "en"
	LangChinese  LanguageTag = "zh"
	LangJapanese LanguageTag = "ja"
	LangKorean   LanguageTag = "ko"
	LangArabic   LanguageTag = "ar"
	LangHindi    LanguageTag = "hi"
)

// ExtractedSignals is what the signal extractor found in one raw query.
// Zero values mean "no signal"; absence is never an error.
type ExtractedSignals struct {
	Region     RegionTag   `json:"region,omitempty"`
	Industry   IndustryTag `json:"industry,omitempty"`
	DistanceKM float64     `json:"distance_km,omitempty"`
	Language   LanguageTag `json:"language,omitempty"`
}

// HasRegion reports whether a geographic signal was found.
func (s ExtractedSignals) HasRegion() bool { return s.Region != "" }

// HasIndustry reports whether an industry signal was found.
func (s ExtractedSignals) HasIndustry() bool { return s.Industry != "" }

// HasDistance reports whether a distance constraint was found.
func (s ExtractedSignals) HasDistance() bool { return s.DistanceKM > 0 }
