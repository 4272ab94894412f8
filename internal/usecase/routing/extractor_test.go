package routing

import (
	"strings"
	"testing"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
)

func testExtractor() *Extractor {
	g := NewGazetteer(config.GazetteerConfig{DefaultLanguage: "en"})
	return NewExtractor(g, 2048)
}

func TestExtractRegionAndIndustry(t *testing.T) {
	e := testExtractor()
	s := e.Extract("Find software engineer jobs in Sydney, Australia")
	if s.Region != "sydney" {
		t.Errorf("region = %q, want sydney (city beats country)", s.Region)
	}
	if s.Industry != "software" {
		t.Errorf("industry = %q, want software", s.Industry)
	}
	if s.Language != domain.LangEnglish {
		t.Errorf("language = %q, want en", s.Language)
	}
}

func TestExtractCountryOnly(t *testing.T) {
	e := testExtractor()
	s := e.Extract("construction jobs in Australia")
	if s.Region != "australia" {
		t.Errorf("region = %q, want australia", s.Region)
	}
	if s.Industry != "construction" {
		t.Errorf("industry = %q, want construction", s.Industry)
	}
}

func TestExtractSpecificityTieBrokenByPosition(t *testing.T) {
	e := testExtractor()
	s := e.Extract("melbourne or sydney welding jobs")
	if s.Region != "melbourne" {
		t.Errorf("region = %q, want melbourne (earliest of two cities)", s.Region)
	}
}

func TestExtractMixedScript(t *testing.T) {
	e := testExtractor()
	s := e.Extract("悉尼的建築工作")
	if s.Region != "sydney" {
		t.Errorf("region = %q, want sydney via native-script alias", s.Region)
	}
	if s.Industry != "construction" {
		t.Errorf("industry = %q, want construction via 建築", s.Industry)
	}
	if s.Language != domain.LangChinese {
		t.Errorf("language = %q, want zh", s.Language)
	}
}

func TestExtractNoSignals(t *testing.T) {
	e := testExtractor()
	for _, q := range []string{"", "   ", "asdf qwerty zzz"} {
		s := e.Extract(q)
		if s.HasRegion() || s.HasIndustry() || s.HasDistance() {
			t.Errorf("query %q should produce no region/industry/distance, got %+v", q, s)
		}
	}
}

func TestExtractDistance(t *testing.T) {
	e := testExtractor()
	tests := []struct {
		query string
		want  float64
	}{
		{"jobs within 50 km", 50},
		{"jobs within 50km", 50},
		{"jobs within 10 kilometres", 10},
		{"半径50公里内的工作", 50},
		{"jobs with no distance", 0},
		{"10 km or 20 km away", 10}, // first pattern wins
	}
	for _, tt := range tests {
		if got := e.Extract(tt.query).DistanceKM; got != tt.want {
			t.Errorf("Extract(%q).DistanceKM = %v, want %v", tt.query, got, tt.want)
		}
	}

	// Miles normalize to kilometers.
	got := e.Extract("jobs within 30 miles").DistanceKM
	if got < 48.2 || got > 48.4 {
		t.Errorf("30 miles = %v km, want ~48.28", got)
	}
}

func TestExtractTokenBoundaries(t *testing.T) {
	e := testExtractor()
	// "nz" must not match inside "bronze".
	if s := e.Extract("bronze sculptor positions"); s.HasRegion() {
		t.Errorf("expected no region in %q, got %q", "bronze sculptor positions", s.Region)
	}
	if s := e.Extract("roles in NZ please"); s.Region != "new-zealand" {
		t.Errorf("standalone nz should match new-zealand, got %q", s.Region)
	}
}

func TestExtractLanguages(t *testing.T) {
	e := testExtractor()
	tests := []struct {
		query string
		want  domain.LanguageTag
	}{
		{"software jobs in london", domain.LangEnglish},
		{"北京的软件工作", domain.LangChinese},
		{"東京のソフトウェアの仕事", domain.LangJapanese},
		{"서울 소프트웨어 개발자", domain.LangKorean},
		{"وظائف برمجة", domain.LangArabic},
		{"दिल्ली में नौकरियां", domain.LangHindi},
		{"", ""},
	}
	for _, tt := range tests {
		if got := e.Extract(tt.query).Language; got != tt.want {
			t.Errorf("Extract(%q).Language = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestExtractScanLengthBound(t *testing.T) {
	g := NewGazetteer(config.GazetteerConfig{DefaultLanguage: "en"})
	e := NewExtractor(g, 64)
	query := strings.Repeat("x ", 64) + "sydney"
	if s := e.Extract(query); s.HasRegion() {
		t.Errorf("region beyond scan bound should not match, got %q", s.Region)
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := testExtractor()
	q := "nurse jobs within 25 km of Melbourne"
	a, b := e.Extract(q), e.Extract(q)
	if a != b {
		t.Errorf("Extract is not deterministic: %+v vs %+v", a, b)
	}
}

func TestGazetteerConfigOverride(t *testing.T) {
	g := NewGazetteer(config.GazetteerConfig{
		DefaultLanguage: "en",
		Regions: []config.RegionConfig{
			{Tag: "wellington", Level: "city", Parent: "new-zealand", Aliases: []string{"wellington"}},
		},
		Industries: []config.IndustryConfig{
			{Tag: "mining", Keywords: []string{"mining", "driller"}},
		},
	})
	e := NewExtractor(g, 2048)

	s := e.Extract("driller roles in Wellington")
	if s.Region != "wellington" {
		t.Errorf("config region should extend builtins, got %q", s.Region)
	}
	if s.Industry != "mining" {
		t.Errorf("config industry should extend builtins, got %q", s.Industry)
	}

	// Ancestry follows the configured parent into the builtin table.
	chain := g.Ancestry("wellington")
	if len(chain) != 2 || chain[1] != "new-zealand" {
		t.Errorf("ancestry = %v, want [wellington new-zealand]", chain)
	}
}
