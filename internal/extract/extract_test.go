package extract

import (
	"testing"

	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_IsBrandMentioned(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "Native script", text: "联想在绿色制造方面表现突出", expected: true},
		{name: "English name", text: "Lenovo ThinkPad is popular", expected: true},
		{name: "Lower-cased", text: "see lenovo.com for details", expected: true},
		{name: "Upper-cased only", text: "LENOVO", expected: false},
		{name: "No brand", text: "Dell and HP make laptops", expected: false},
		{name: "Empty", text: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Default.IsBrandMentioned(tt.text))
		})
	}
}

func TestExtractor_ExtractCompetitors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "Native and English spellings collapse", text: "华为 and Huawei lead", expected: []string{"华为"}},
		{name: "Case-insensitive", text: "XIAOMI and tencent", expected: []string{"小米", "腾讯"}},
		{name: "Brand is not a competitor", text: "Lenovo and 联想", expected: []string{}},
		{name: "Nothing found", text: "Dell and HP", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Default.ExtractCompetitors(tt.text))
		})
	}
}

func TestExtractor_ExtractCompetitors_IdempotentAndUnion(t *testing.T) {
	a := "百度 and Alibaba invest in AI"
	b := "BYD and 大疆 lead hardware"

	first := Default.ExtractCompetitors(a)
	assert.Equal(t, first, Default.ExtractCompetitors(a))

	combined := Default.ExtractCompetitors(a + "\n" + b)
	assert.Equal(t, MergeCompetitors(first, Default.ExtractCompetitors(b)), combined)
	assert.Equal(t, []string{"大疆", "比亚迪", "百度", "阿里"}, combined)
}

func TestExtractor_ExtractSources(t *testing.T) {
	t.Run("URL with trailing period", func(t *testing.T) {
		sources := Default.ExtractSources("Dell is a strong option, see https://36kr.com/article/123.")
		require.Len(t, sources, 1)
		assert.Equal(t, "36氪", sources[0].Media)
		assert.Equal(t, "https://36kr.com/article/123", sources[0].URL)
		assert.Equal(t, URLTitlePlaceholder, sources[0].Title)
	})

	t.Run("Unknown domain", func(t *testing.T) {
		sources := Default.ExtractSources("(https://example.org/x)")
		require.Len(t, sources, 1)
		assert.Equal(t, OtherMedia, sources[0].Media)
		assert.Equal(t, "https://example.org/x", sources[0].URL)
	})

	t.Run("Bare keyword becomes text reference", func(t *testing.T) {
		sources := Default.ExtractSources("据财新报道，该公司表现优异")
		require.Len(t, sources, 1)
		assert.Equal(t, "财新", sources[0].Media)
		assert.True(t, sources[0].IsTextReference())
		assert.Equal(t, "关于财新的相关报道", sources[0].Title)
	})

	t.Run("Keyword already covered by URL", func(t *testing.T) {
		sources := Default.ExtractSources("知乎上有讨论 https://www.zhihu.com/question/1")
		require.Len(t, sources, 1)
		assert.Equal(t, "知乎", sources[0].Media)
		assert.False(t, sources[0].IsTextReference())
	})

	t.Run("URL stops at Chinese punctuation", func(t *testing.T) {
		sources := Default.ExtractSources("参见https://www.huxiu.com/a/1。另见虎嗅")
		require.Len(t, sources, 1)
		assert.Equal(t, "https://www.huxiu.com/a/1", sources[0].URL)
	})

	t.Run("Full-width punctuation separates URLs", func(t *testing.T) {
		sources := Default.ExtractSources("详见https://36kr.com/p/1，以及（https://www.huxiu.com/a/2）的分析")
		require.Len(t, sources, 2)
		assert.Equal(t, "https://36kr.com/p/1", sources[0].URL)
		assert.Equal(t, "36氪", sources[0].Media)
		assert.Equal(t, "https://www.huxiu.com/a/2", sources[1].URL)
		assert.Equal(t, "虎嗅", sources[1].Media)
	})

	t.Run("Non-web schemes are ignored", func(t *testing.T) {
		assert.Empty(t, Default.ExtractSources("联系 mailto:press@example.com"))
	})

	t.Run("No sources", func(t *testing.T) {
		assert.Empty(t, Default.ExtractSources("Dell and Lenovo are excellent choices."))
	})
}

func TestMergeSources(t *testing.T) {
	answer := []models.SourceEntry{
		{Media: "36氪", URL: "https://36kr.com/a", Title: URLTitlePlaceholder},
		{Media: "财新", URL: models.SourceReferenceInText, Title: "关于财新的相关报道"},
	}
	reasoning := []models.SourceEntry{
		{Media: "36氪", URL: "https://36kr.com/a", Title: URLTitlePlaceholder},
		{Media: "澎湃", URL: models.SourceReferenceInText, Title: "关于澎湃的相关报道"},
		{Media: "财新", URL: models.SourceReferenceInText, Title: "关于财新的相关报道"},
		{Media: "其他媒体", URL: "https://example.org", Title: URLTitlePlaceholder},
	}

	merged := MergeSources(answer, reasoning)

	require.Len(t, merged, 4)
	assert.Equal(t, "https://36kr.com/a", merged[0].URL)
	assert.Equal(t, "财新", merged[1].Media)
	assert.Equal(t, "澎湃", merged[2].Media)
	assert.Equal(t, "https://example.org", merged[3].URL)

	seen := map[string]bool{}
	for _, s := range merged {
		key := sourceKey(s)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestMergeSources_Empty(t *testing.T) {
	merged := MergeSources(nil, nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestExtractor_Analyze(t *testing.T) {
	analysis := Default.Analyze(
		"华为和小米都不错，参考 https://www.sina.com.cn/tech",
		"Lenovo might also fit; 36氪 covered it",
	)

	assert.False(t, analysis.IsMentioned)
	assert.True(t, analysis.MentionedInReasoning)
	assert.Equal(t, []string{"华为", "小米"}, analysis.Competitors)
	require.Len(t, analysis.Sources, 2)
	assert.Equal(t, "新浪", analysis.Sources[0].Media)
	assert.Equal(t, "36氪", analysis.Sources[1].Media)
	assert.Len(t, analysis.Breakdown.Answer, 1)
	assert.Len(t, analysis.Breakdown.Reasoning, 1)
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	e := New([]string{"Acme"}, nil, nil, nil)
	assert.True(t, e.IsBrandMentioned("Acme rocks"))
	assert.False(t, e.IsBrandMentioned("Lenovo"))
	assert.Equal(t, DefaultCompetitors, e.Competitors)
}
