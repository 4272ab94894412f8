package routing

import (
	"strings"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
)

// RegionEntry is one compiled gazetteer region with lowercase aliases.
type RegionEntry struct {
	Tag             domain.RegionTag
	Level           domain.RegionLevel
	Parent          domain.RegionTag
	LocalSpecialist domain.AgentID
	Aliases         []string
}

// IndustryEntry maps lowercase keywords to one industry tag.
type IndustryEntry struct {
	Tag      domain.IndustryTag
	Keywords []string
}

// Gazetteer is the curated matching table for geographic and industry
// signals. Compiled once at startup; read-only afterwards. Coverage is a
// data concern: an uncovered region degrades via the routing fallback, it is
// never an error.
type Gazetteer struct {
	regions     []RegionEntry
	industries  []IndustryEntry
	byTag       map[domain.RegionTag]*RegionEntry
	defaultLang domain.LanguageTag
}

// NewGazetteer compiles the built-in tables merged with cfg. Config entries
// with a tag already present replace the built-in entry; new tags extend the
// table.
func NewGazetteer(cfg config.GazetteerConfig) *Gazetteer {
	g := &Gazetteer{
		regions:     builtinRegions(),
		industries:  builtinIndustries(),
		defaultLang: domain.LanguageTag(cfg.DefaultLanguage),
	}
	if g.defaultLang == "" {
		g.defaultLang = domain.LangEnglish
	}

	for _, rc := range cfg.Regions {
		entry := RegionEntry{
			Tag:             domain.RegionTag(rc.Tag),
			Level:           parseLevel(rc.Level),
			Parent:          domain.RegionTag(rc.Parent),
			LocalSpecialist: domain.AgentID(rc.LocalSpecialist),
			Aliases:         lowerAll(rc.Aliases),
		}
		g.regions = replaceOrAppendRegion(g.regions, entry)
	}
	for _, ic := range cfg.Industries {
		entry := IndustryEntry{
			Tag:      domain.IndustryTag(ic.Tag),
			Keywords: lowerAll(ic.Keywords),
		}
		g.industries = replaceOrAppendIndustry(g.industries, entry)
	}

	g.byTag = make(map[domain.RegionTag]*RegionEntry, len(g.regions))
	for i := range g.regions {
		g.byTag[g.regions[i].Tag] = &g.regions[i]
	}
	return g
}

// Region returns the entry for tag, or nil when the tag is unknown.
func (g *Gazetteer) Region(tag domain.RegionTag) *RegionEntry {
	return g.byTag[tag]
}

// Ancestry returns tag followed by its parent chain, most specific first.
// Cycles in config data are cut off at a fixed depth.
func (g *Gazetteer) Ancestry(tag domain.RegionTag) []domain.RegionTag {
	chain := []domain.RegionTag{}
	for depth := 0; tag != "" && depth < 8; depth++ {
		chain = append(chain, tag)
		entry := g.byTag[tag]
		if entry == nil {
			break
		}
		tag = entry.Parent
	}
	return chain
}

// LocalSpecialistFor returns the specialist agent configured for the region
// or the nearest ancestor that has one. Empty when none is configured.
func (g *Gazetteer) LocalSpecialistFor(tag domain.RegionTag) domain.AgentID {
	for _, t := range g.Ancestry(tag) {
		if entry := g.byTag[t]; entry != nil && entry.LocalSpecialist != "" {
			return entry.LocalSpecialist
		}
	}
	return ""
}

// DefaultLanguage is the tie-break language for script detection.
func (g *Gazetteer) DefaultLanguage() domain.LanguageTag { return g.defaultLang }

func parseLevel(s string) domain.RegionLevel {
	switch s {
	case "city":
		return domain.RegionCity
	case "state":
		return domain.RegionState
	default:
		return domain.RegionCountry
	}
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

func replaceOrAppendRegion(entries []RegionEntry, e RegionEntry) []RegionEntry {
	for i := range entries {
		if entries[i].Tag == e.Tag {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

func replaceOrAppendIndustry(entries []IndustryEntry, e IndustryEntry) []IndustryEntry {
	for i := range entries {
		if entries[i].Tag == e.Tag {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

// builtinRegions is the curated default gazetteer. Aliases include
// native-script spellings because queries arrive in mixed languages.
func builtinRegions() []RegionEntry {
	return []RegionEntry{
		{Tag: "australia", Level: domain.RegionCountry, LocalSpecialist: "seek",
			Aliases: []string{"australia", "澳大利亚", "オーストラリア"}},
		{Tag: "sydney", Level: domain.RegionCity, Parent: "australia", LocalSpecialist: "seek",
			Aliases: []string{"sydney", "悉尼", "シドニー"}},
		{Tag: "melbourne", Level: domain.RegionCity, Parent: "australia", LocalSpecialist: "seek",
			Aliases: []string{"melbourne", "墨尔本", "メルボルン"}},
		{Tag: "new-zealand", Level: domain.RegionCountry, LocalSpecialist: "seek",
			Aliases: []string{"new zealand", "nz", "auckland"}},
		{Tag: "india", Level: domain.RegionCountry, LocalSpecialist: "naukri",
			Aliases: []string{"india", "भारत"}},
		{Tag: "mumbai", Level: domain.RegionCity, Parent: "india", LocalSpecialist: "naukri",
			Aliases: []string{"mumbai", "bombay", "मुंबई"}},
		{Tag: "bangalore", Level: domain.RegionCity, Parent: "india", LocalSpecialist: "naukri",
			Aliases: []string{"bangalore", "bengaluru", "बेंगलुरु"}},
		{Tag: "delhi", Level: domain.RegionCity, Parent: "india", LocalSpecialist: "naukri",
			Aliases: []string{"delhi", "new delhi", "दिल्ली"}},
		{Tag: "united-states", Level: domain.RegionCountry,
			Aliases: []string{"united states", "usa", "america", "美国"}},
		{Tag: "california", Level: domain.RegionState, Parent: "united-states",
			Aliases: []string{"california"}},
		{Tag: "new-york", Level: domain.RegionCity, Parent: "united-states",
			Aliases: []string{"new york", "nyc", "纽约"}},
		{Tag: "san-francisco", Level: domain.RegionCity, Parent: "california",
			Aliases: []string{"san francisco", "旧金山"}},
		{Tag: "united-kingdom", Level: domain.RegionCountry,
			Aliases: []string{"united kingdom", "uk", "britain", "england"}},
		{Tag: "london", Level: domain.RegionCity, Parent: "united-kingdom",
			Aliases: []string{"london", "伦敦", "ロンドン"}},
		{Tag: "japan", Level: domain.RegionCountry,
			Aliases: []string{"japan", "日本"}},
		{Tag: "tokyo", Level: domain.RegionCity, Parent: "japan",
			Aliases: []string{"tokyo", "東京", "东京"}},
		{Tag: "china", Level: domain.RegionCountry,
			Aliases: []string{"china", "中国"}},
		{Tag: "shanghai", Level: domain.RegionCity, Parent: "china",
			Aliases: []string{"shanghai", "上海"}},
		{Tag: "beijing", Level: domain.RegionCity, Parent: "china",
			Aliases: []string{"beijing", "北京"}},
		{Tag: "singapore", Level: domain.RegionCountry,
			Aliases: []string{"singapore", "新加坡", "シンガポール"}},
		{Tag: "germany", Level: domain.RegionCountry,
			Aliases: []string{"germany", "deutschland"}},
		{Tag: "berlin", Level: domain.RegionCity, Parent: "germany",
			Aliases: []string{"berlin"}},
	}
}

func builtinIndustries() []IndustryEntry {
	return []IndustryEntry{
		{Tag: "software", Keywords: []string{
			"software", "developer", "programmer", "devops", "软件", "ソフトウェア"}},
		{Tag: "construction", Keywords: []string{
			"construction", "builder", "carpenter", "建築", "建筑"}},
		{Tag: "healthcare", Keywords: []string{
			"healthcare", "nurse", "nursing", "doctor", "medical", "医疗"}},
		{Tag: "finance", Keywords: []string{
			"finance", "banking", "accountant", "accounting", "金融"}},
		{Tag: "education", Keywords: []string{
			"education", "teacher", "teaching", "tutor"}},
		{Tag: "hospitality", Keywords: []string{
			"hospitality", "chef", "waiter", "barista", "hotel"}},
		{Tag: "retail", Keywords: []string{
			"retail", "cashier", "store manager"}},
		{Tag: "logistics", Keywords: []string{
			"logistics", "warehouse", "forklift", "物流"}},
		{Tag: "marketing", Keywords: []string{
			"marketing", "advertising", "seo"}},
	}
}
