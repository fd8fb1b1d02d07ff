package remote

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert prompt engineer. You rewrite rough prompt ideas into
expert-level prompts that are specific, structured and ready to use as-is.
You always answer with raw JSON and nothing else.`

// BuildInstruction renders the single user instruction sent to the model.
func BuildInstruction(promptText string, tags []string, minLength int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Original prompt: %q\n", strings.TrimSpace(promptText))
	if tagContext := joinTags(tags); tagContext != "" {
		fmt.Fprintf(&b, "Context tags: %s\n", tagContext)
	}

	b.WriteString("\nRewrite the original prompt into 3 improved prompts.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Respond with a JSON array of exactly 3 strings and no other text.\n")
	b.WriteString("2. Each string must preserve the original intent.\n")
	b.WriteString("3. Each string must add specificity: audience, output format, constraints and depth.\n")
	b.WriteString("4. Each string must explore a different angle from the other two.\n")
	fmt.Fprintf(&b, "5. Each string must be longer than %d characters.\n", minLength)
	b.WriteString("6. Do not number the prompts or prefix them with labels.\n")
	if len(tags) > 0 {
		b.WriteString("7. Reflect the context tags where they are relevant.\n")
	}

	return b.String()
}

func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ", ")
}
