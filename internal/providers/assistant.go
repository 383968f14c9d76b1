package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/openclaw/geo-monitor/internal/models"
)

// ErrUnparseableSources means the provider answered but no JSON array could be read
var ErrUnparseableSources = errors.New("unparseable structured sources")

const (
	questionTemperature = 1.0
	strategyTemperature = 0.7
	sourcesTemperature  = 0.3
	gapTemperature      = 0.7
)

// Assistant builds prompts for the helper operations layered on a provider
type Assistant struct {
	provider Provider
	brand    string
}

// NewAssistant wraps a provider. brand is the display name used in prompts.
func NewAssistant(provider Provider, brand string) *Assistant {
	return &Assistant{provider: provider, brand: brand}
}

// Name returns the name of the wrapped provider
func (a *Assistant) Name() string {
	return a.provider.GetName()
}

// GenerateQuestions asks for count natural search questions about an intent
func (a *Assistant) GenerateQuestions(ctx context.Context, intent string, keywords []string, count int) ([]string, error) {
	prompt := fmt.Sprintf(`你是一名关注【%s】的普通用户。
请写出 %d 个搜索问题，目的是找到在该领域表现优秀的中国公司。

要求：
1. 以“哪些公司在%s方面做得好？”及其自然变体为主。
2. 每个问题末尾自然地要求对方给出参考链接或新闻来源。
3. 每个问题自然包含以下关键词之一：%s。
4. 不要直接提及“%s”。
5. 每行一个问题，不要编号。`, intent, count, intent, strings.Join(keywords, "、"), a.brand)

	result, err := a.provider.Chat(ctx, UserMessage(prompt), questionTemperature)
	if err != nil {
		return nil, err
	}

	return ParseQuestions(result.Content, count), nil
}

// AnalyzeStrategy asks for a short optimisation recommendation for one answer
func (a *Assistant) AnalyzeStrategy(ctx context.Context, intent, answer string, competitors []string) (string, error) {
	prompt := fmt.Sprintf(`你是生成式引擎优化 (GEO) 顾问。下面是大模型关于【%s】的回答。

回答：
%s

回答中出现的竞品：%s

请给出简短、直接的建议：
1. %s 没有被提及或权重不足的可能原因。
2. %s 应该在公开内容中补充哪些关键词或叙事。
3. 针对上述竞品的差异化策略。`, intent, answer, joinOrNone(competitors), a.brand, a.brand)

	result, err := a.provider.Chat(ctx, UserMessage(prompt), strategyTemperature)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Content), nil
}

// ExtractStructuredSources asks the provider to list cited sources as JSON.
// An empty slice with a nil error means the provider found no sources.
func (a *Assistant) ExtractStructuredSources(ctx context.Context, answer string) ([]models.SourceEntry, error) {
	prompt := fmt.Sprintf(`请从下面的文本中提取所有引用的信源，只返回 JSON 数组，不要解释。
没有信源时返回 []。

格式：[{"title": "标题或描述", "url": "完整链接", "media": "媒体名称或域名"}]

文本：
%s`, answer)

	result, err := a.provider.Chat(ctx, UserMessage(prompt), sourcesTemperature)
	if err != nil {
		return nil, err
	}

	return ParseSourceList(result.Content)
}

// AnalyzeGap asks why competitors are recommended for an intent while the brand is not
func (a *Assistant) AnalyzeGap(ctx context.Context, intent string, topCompetitors, samples []string) (string, error) {
	sampleJSON, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sample answers: %w", err)
	}

	prompt := fmt.Sprintf(`你是生成式引擎优化 (GEO) 战略顾问，正在分析【%s】领域的大模型回答。

现状：
1. 大模型频繁推荐的竞品：%s。
2. %s 在这些回答中没有出现。

典型回答片段：
%s

请做差距分析：
1. 核心差距：竞品在哪些具体叙事点上胜出？
2. 关键词雷达：竞品被提及时高频出现的 5 个褒义词或场景词。
3. 反击策略：%s 需要补充哪些类型的公开内容？

使用 Markdown 分点输出，风格直接。`, intent, joinOrNone(topCompetitors), a.brand, string(sampleJSON), a.brand)

	result, err := a.provider.Chat(ctx, UserMessage(prompt), gapTemperature)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Content), nil
}

// ParseQuestions splits generated text into at most count questions. Lines that
// start with a digit are treated as numbered and dropped; if that leaves nothing,
// the numbering is stripped instead.
func ParseQuestions(raw string, count int) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	var questions []string
	for _, line := range lines {
		if !startsWithDigit(line) {
			questions = append(questions, line)
		}
	}

	if len(questions) == 0 {
		for _, line := range lines {
			if stripped := strings.TrimLeft(line, "0123456789.、) "); stripped != "" {
				questions = append(questions, stripped)
			}
		}
	}

	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}
	return questions
}

// ParseSourceList reads the JSON array between the first '[' and the last ']'
func ParseSourceList(content string) ([]models.SourceEntry, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrUnparseableSources)
	}

	var sources []models.SourceEntry
	if err := json.Unmarshal([]byte(content[start:end+1]), &sources); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableSources, err)
	}

	if sources == nil {
		sources = []models.SourceEntry{}
	}
	return sources, nil
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "无"
	}
	return strings.Join(items, ", ")
}
