// Package templates renders deterministic prompt expansions. It is the
// baseline every other suggestion path falls back to, so nothing here may fail.
package templates

import (
	"fmt"
	"strings"

	"github.com/promptpal/promptpal-backend/internal/suggestions/categorizer"
	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

const noTags = "no specific tags"

// templateSet holds three format strings. %[1]s is the prompt, %[2]s the tag
// context. The three entries follow the same shapes for every category:
// step-by-step, framework, structured breakdown.
type templateSet [domain.SuggestionCount]string

var templateSets = map[domain.Category]templateSet{
	domain.CategoryWriting: {
		"Write a detailed, step-by-step piece on %[1]s for a clearly defined audience, with a compelling hook, well-organized sections and a strong call to action (focus: %[2]s)",
		"Create a comprehensive writing framework for %[1]s that specifies tone, target reader, length, key messages and a revision checklist tailored to %[2]s",
		"Produce a structured breakdown for %[1]s: outline, headline options, section-by-section talking points and concrete examples, keeping %[2]s in mind",
	},
	domain.CategoryCreative: {
		"Develop %[1]s step by step, starting with setting and characters, then building conflict, tension and a satisfying resolution inspired by %[2]s",
		"Create a comprehensive creative framework for %[1]s that defines mood, point of view, structure and stylistic constraints drawing on %[2]s",
		"Give a structured breakdown of %[1]s into scenes or stanzas, describing the imagery, emotional beat and purpose of each part, themed around %[2]s",
	},
	domain.CategoryBusiness: {
		"Write a detailed step-by-step plan for %[1]s covering objectives, target customers, budget, timeline and measurable success metrics (context: %[2]s)",
		"Create a comprehensive business framework for %[1]s that analyzes the market, competitors, risks and opportunities, with recommendations for %[2]s",
		"Produce a structured breakdown of %[1]s as an executive brief: problem, proposed solution, value proposition, go-to-market and next steps for %[2]s",
	},
	domain.CategoryTechnical: {
		"Explain step by step how to implement %[1]s, including prerequisites, code examples, edge cases, testing strategy and common pitfalls (stack: %[2]s)",
		"Create a comprehensive technical framework for %[1]s that compares possible approaches, states trade-offs and recommends a design for %[2]s",
		"Provide a structured breakdown of %[1]s into components, interfaces and data flow, with acceptance criteria for each part, considering %[2]s",
	},
	domain.CategoryEducational: {
		"Write a detailed step-by-step tutorial on %[1]s for a beginner, with clear examples, visual explanations and practice exercises related to %[2]s",
		"Create a comprehensive learning framework for %[1]s with progressive difficulty levels, milestones, common mistakes to avoid and self-checks for %[2]s",
		"Produce a structured lesson breakdown for %[1]s using the Feynman technique, from fundamentals to advanced applications, focused on %[2]s",
	},
	domain.CategoryAnalysis: {
		"Conduct a detailed step-by-step analysis of %[1]s, stating the data sources, methodology, assumptions and how findings should be visualized (scope: %[2]s)",
		"Create a comprehensive analytical framework for %[1]s that evaluates multiple perspectives, historical context, current trends and future implications for %[2]s",
		"Give a structured breakdown of %[1]s with specific evaluation criteria, case studies, comparative metrics and a prioritized list of conclusions about %[2]s",
	},
	domain.CategoryGeneral: {
		"Create a detailed step-by-step guide to %[1]s that covers fundamental concepts, advanced techniques and practical applications in %[2]s",
		"Design a comprehensive framework for approaching %[1]s that combines theoretical knowledge with hands-on examples tailored for %[2]s",
		"Develop a structured breakdown of %[1]s with clear sections, progressive depth, concrete deliverables and milestones focused on %[2]s",
	},
}

// GenerateFallback returns exactly three template-based expansions of
// promptText for the category it classifies into.
func GenerateFallback(promptText string, tags []string) []string {
	return Render(categorizer.Classify(promptText, tags), promptText, tags)
}

// Render fills the template set of category. Unknown categories use the
// general set.
func Render(category domain.Category, promptText string, tags []string) []string {
	set, ok := templateSets[category]
	if !ok {
		set = templateSets[domain.CategoryGeneral]
	}

	topic := normalizeTopic(promptText)
	tagContext := TagContext(tags)

	out := make([]string, 0, len(set))
	for _, tmpl := range set {
		out = append(out, fmt.Sprintf(tmpl, topic, tagContext))
	}
	return out
}

// TagContext joins non-blank tags with ", " or reports that there are none.
func TagContext(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return noTags
	}
	return strings.Join(clean, ", ")
}

// normalizeTopic trims the prompt, collapses internal whitespace and drops
// trailing sentence punctuation so it reads naturally mid-sentence.
func normalizeTopic(promptText string) string {
	topic := strings.Join(strings.Fields(promptText), " ")
	topic = strings.TrimRight(topic, ".!?;:")
	if topic == "" {
		return "this topic"
	}
	return topic
}
