package llm

import (
	"strings"
)

// maxPromptChars caps the block text sent to the model.
const maxPromptChars = 3000

// BuildSystemPrompt composes the system message for entity tagging.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a named-entity tagger for shipping documents (Bills of Lading).",
		"Return ONLY JSON of the form {\"entities\": [{\"text\": ..., \"label\": ..., \"confidence\": ...}]} that matches the provided JSON Schema.",
		"Labels: ORG for companies and organizations, PERSON for people, GPE for cities, countries and addresses, MISC for anything else worth tagging.",
		"Copy entity text exactly as it appears, including legal suffixes such as S.A., LTD or L.L.C.",
		"Do not merge an organization with its address, phone number or tax id.",
		"confidence is your probability (0..1) that the span and label are correct.",
		"If nothing qualifies, return {\"entities\": []}.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the text block and, when known, the section it came from.
func BuildUserPrompt(req EntityRequest) string {
	var b strings.Builder
	if s := strings.TrimSpace(req.Section); s != "" {
		b.WriteString("Section: ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nText:\n")
	if len(text) > maxPromptChars {
		b.WriteString(text[:maxPromptChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
