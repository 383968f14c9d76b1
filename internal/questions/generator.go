package questions

import (
	"context"

	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// Source produces candidate questions for an intent
type Source interface {
	Name() string
	GenerateQuestions(ctx context.Context, intent string, keywords []string, count int) ([]string, error)
}

// Generator builds the question set shared by every provider in a run
type Generator struct {
	source Source
	count  int
	logger *logrus.Logger
}

// NewGenerator creates a generator. source may be nil, in which case only the
// configured fallback questions are used.
func NewGenerator(source Source, count int, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Generator{source: source, count: count, logger: logger}
}

// Build generates questions for every intent, in intent order. An intent whose
// generation fails or returns nothing uses its fallback questions truncated to
// the target count.
func (g *Generator) Build(ctx context.Context, intents []models.Intent) (*models.QuestionSet, error) {
	set := models.NewQuestionSet()

	for _, intent := range intents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var generated []string
		if g.source != nil {
			g.logger.Infof("Generating %d questions for intent %s with %s", g.count, intent.Label, g.source.Name())
			qs, err := g.source.GenerateQuestions(ctx, intent.Label, intent.Keywords, g.count)
			if err != nil {
				g.logger.Warnf("Question generation failed for intent %s: %v", intent.Label, err)
			} else {
				generated = qs
			}
		}

		if len(generated) == 0 {
			generated = Fallback(intent, g.count)
			g.logger.Infof("Using %d fallback questions for intent %s", len(generated), intent.Label)
		}

		set.Set(intent.Label, generated)
	}

	return set, nil
}

// Fallback returns the intent's configured questions, at most count of them
func Fallback(intent models.Intent, count int) []string {
	questions := intent.Questions
	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}
	out := make([]string, len(questions))
	copy(out, questions)
	return out
}
