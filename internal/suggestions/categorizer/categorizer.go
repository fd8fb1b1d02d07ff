// Package categorizer assigns a prompt to a topical category by keyword scoring.
package categorizer

import (
	"strings"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

// keywords maps each category to the substrings that count towards it.
// CategoryGeneral has no keywords: it is the result when nothing matches.
var keywords = map[domain.Category][]string{
	domain.CategoryWriting: {
		"write", "blog", "article", "essay", "post", "email", "newsletter",
		"copy", "headline", "draft", "edit", "proofread",
	},
	domain.CategoryCreative: {
		"story", "poem", "creative", "fiction", "novel", "character", "song",
		"lyrics", "imagine", "fantasy", "screenplay",
	},
	domain.CategoryBusiness: {
		"business", "market", "sales", "startup", "strategy", "customer",
		"brand", "pitch", "revenue", "product launch", "investor",
	},
	domain.CategoryTechnical: {
		"code", "program", "software", "function", "debug", "api", "database",
		"algorithm", "deploy", "python", "javascript", "golang",
	},
	domain.CategoryEducational: {
		"learn", "teach", "explain", "lesson", "student", "course", "tutorial",
		"study", "quiz", "curriculum",
	},
	domain.CategoryAnalysis: {
		"analy", "research", "evaluate", "compare", "trend", "data", "insight",
		"assess", "statistic", "metric",
	},
}

// Classify returns the category whose keyword set has the most hits in the
// lower-cased prompt and tags. Ties go to the category declared first in
// domain.Categories; no hits at all yields CategoryGeneral.
func Classify(promptText string, tags []string) domain.Category {
	text := strings.ToLower(promptText + " " + strings.Join(tags, " "))

	best := domain.CategoryGeneral
	bestScore := 0
	for _, category := range domain.Categories {
		score := Score(text, category)
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// Score counts how many keywords of category occur in text. text is expected
// to be lower-cased already.
func Score(text string, category domain.Category) int {
	score := 0
	for _, kw := range keywords[category] {
		if strings.Contains(text, kw) {
			score++
		}
	}
	return score
}
