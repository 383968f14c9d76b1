// Package extract holds the text heuristics applied to provider answers: brand
// mention detection, competitor detection and citation extraction. Everything
// here is deterministic and free of I/O.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openclaw/geo-monitor/internal/models"
	"mvdan.cc/xurls/v2"
)

const (
	// OtherMedia labels a URL whose domain is not in the media table
	OtherMedia = "其他媒体"
	// URLTitlePlaceholder is the title of every URL-derived source
	URLTitlePlaceholder = "相关新闻/报告"
)

var urlPattern = xurls.Strict()

// cjkBreaks turns full-width punctuation into spaces before URL matching;
// xurls otherwise treats it as part of the path
var cjkBreaks = func() *strings.Replacer {
	var pairs []string
	for _, r := range "，。；：！？、（）《》【】“”" {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}()

// CompetitorAlias maps one spelling to the canonical company name
type CompetitorAlias struct {
	Spelling  string `json:"spelling" yaml:"spelling"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// MediaDomain maps a domain fragment to a media label
type MediaDomain struct {
	Domain string `json:"domain" yaml:"domain"`
	Label  string `json:"label" yaml:"label"`
}

// Extractor applies fixed literal tables to text
type Extractor struct {
	BrandSpellings []string
	Competitors    []CompetitorAlias
	MediaDomains   []MediaDomain
	MediaKeywords  []string
}

// DefaultBrandSpellings are the tracked spellings of the monitored brand
var DefaultBrandSpellings = []string{"联想", "Lenovo", "lenovo"}

// DefaultCompetitors is the hand-maintained competitor table
var DefaultCompetitors = []CompetitorAlias{
	{"华为", "华为"}, {"Huawei", "华为"},
	{"小米", "小米"}, {"Xiaomi", "小米"},
	{"阿里", "阿里"}, {"Alibaba", "阿里"},
	{"腾讯", "腾讯"}, {"Tencent", "腾讯"},
	{"百度", "百度"}, {"Baidu", "百度"},
	{"字节", "字节"}, {"ByteDance", "字节"},
	{"京东", "京东"}, {"JD", "京东"},
	{"海尔", "海尔"}, {"Haier", "海尔"},
	{"美的", "美的"}, {"Midea", "美的"},
	{"比亚迪", "比亚迪"}, {"BYD", "比亚迪"},
	{"大疆", "大疆"}, {"DJI", "大疆"},
	{"宁德时代", "宁德时代"}, {"CATL", "宁德时代"},
}

// DefaultMediaDomains is checked in order; the first matching domain wins
var DefaultMediaDomains = []MediaDomain{
	{"36kr.com", "36氪"},
	{"huxiu.com", "虎嗅"},
	{"sina.com", "新浪"},
	{"163.com", "网易"},
	{"sohu.com", "搜狐"},
	{"caixin.com", "财新"},
	{"thepaper.cn", "澎湃"},
	{"jiemian.com", "界面"},
	{"zhihu.com", "知乎"},
	{"wikipedia.org", "维基百科"},
}

// DefaultMediaKeywords are media names detected as bare text
var DefaultMediaKeywords = []string{"36氪", "虎嗅", "财新", "澎湃", "界面", "晚点", "知乎", "维基百科"}

// Default is the extractor built from the default tables
var Default = New(DefaultBrandSpellings, DefaultCompetitors, DefaultMediaDomains, DefaultMediaKeywords)

// New creates an extractor; nil tables fall back to the defaults
func New(brand []string, competitors []CompetitorAlias, domains []MediaDomain, keywords []string) *Extractor {
	if len(brand) == 0 {
		brand = DefaultBrandSpellings
	}
	if len(competitors) == 0 {
		competitors = DefaultCompetitors
	}
	if len(domains) == 0 {
		domains = DefaultMediaDomains
	}
	if len(keywords) == 0 {
		keywords = DefaultMediaKeywords
	}
	return &Extractor{
		BrandSpellings: brand,
		Competitors:    competitors,
		MediaDomains:   domains,
		MediaKeywords:  keywords,
	}
}

// IsBrandMentioned reports whether any tracked brand spelling occurs in text
func (e *Extractor) IsBrandMentioned(text string) bool {
	for _, spelling := range e.BrandSpellings {
		if spelling != "" && strings.Contains(text, spelling) {
			return true
		}
	}
	return false
}

// ExtractCompetitors returns the sorted canonical names of competitors found in text.
// Matching is a case-insensitive substring test, so short spellings can match
// inside unrelated words.
func (e *Extractor) ExtractCompetitors(text string) []string {
	lower := strings.ToLower(text)
	found := make(map[string]struct{})
	for _, alias := range e.Competitors {
		if alias.Spelling == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(alias.Spelling)) {
			found[alias.Canonical] = struct{}{}
		}
	}
	return sortedKeys(found)
}

// ExtractSources finds URL citations and bare media-name mentions
func (e *Extractor) ExtractSources(text string) []models.SourceEntry {
	sources := []models.SourceEntry{}

	for _, raw := range urlPattern.FindAllString(cjkBreaks.Replace(text), -1) {
		url := strings.TrimRight(raw, ".,;:!?")
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		sources = append(sources, models.SourceEntry{
			Media: e.mediaLabel(url),
			URL:   url,
			Title: URLTitlePlaceholder,
		})
	}

	for _, keyword := range e.MediaKeywords {
		if keyword == "" || !strings.Contains(text, keyword) || hasMedia(sources, keyword) {
			continue
		}
		sources = append(sources, models.SourceEntry{
			Media: keyword,
			URL:   models.SourceReferenceInText,
			Title: fmt.Sprintf("关于%s的相关报道", keyword),
		})
	}

	return sources
}

func (e *Extractor) mediaLabel(url string) string {
	for _, md := range e.MediaDomains {
		if strings.Contains(url, md.Domain) {
			return md.Label
		}
	}
	return OtherMedia
}

// MergeSources deduplicates answer and reasoning sources by URL, keeping
// first-seen order. Text references are keyed by media label so different
// media named without a link do not collapse into one.
func MergeSources(answer, reasoning []models.SourceEntry) []models.SourceEntry {
	merged := make([]models.SourceEntry, 0, len(answer)+len(reasoning))
	seen := make(map[string]struct{})

	for _, group := range [][]models.SourceEntry{answer, reasoning} {
		for _, s := range group {
			key := sourceKey(s)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, s)
		}
	}

	return merged
}

// MergeCompetitors returns the sorted union of competitor sets
func MergeCompetitors(sets ...[]string) []string {
	found := make(map[string]struct{})
	for _, set := range sets {
		for _, name := range set {
			found[name] = struct{}{}
		}
	}
	return sortedKeys(found)
}

func sourceKey(s models.SourceEntry) string {
	if s.IsTextReference() {
		return s.URL + "_" + s.Media
	}
	return s.URL
}

func hasMedia(sources []models.SourceEntry, media string) bool {
	for _, s := range sources {
		if s.Media == media {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
