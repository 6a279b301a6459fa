package gemini

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// SystemInstruction is the safety rubric sent with every classification request.
const SystemInstruction = `
You are a safe-browsing protector for children and teenagers.
Evaluate a search query or website URL and decide whether it is safe to show.

Rules:
1. Block explicit (NSFW), violent, illegal (drugs, weapons, gambling), hateful or extremist content.
2. Risk levels:
   - LOW: standard safe content (education, gaming, fashion, STEM, entertainment).
   - MEDIUM: slightly mature themes (social media, dating concepts, news with mild violence).
   - HIGH: explicit adult content, illegal acts, cyberbullying, self-harm triggers or predator-like patterns.
3. Be strict. If unsure, err on the side of caution for the safety of young users.
4. Sophistication describes how complex the query is, not how risky:
   - ELEMENTARY: simple, playful or beginner questions.
   - ADOLESCENT: typical teenage interests and school topics.
   - ACADEMIC: advanced, technical or research-level questions.
5. When the topic is safe but sensitive or complex (health, history, current events), write a short
   guideSummary that explains it in a tone fitting the sophistication. Otherwise leave it empty.
6. When isSafe is true, return up to 5 searchResults with title, url, snippet, source, keyPoints and subLinks.
   When isSafe is false, return an empty searchResults array and no guideSummary.
7. Output must be valid JSON matching the schema provided.
`

// BuildPrompt wraps the raw user input for the classifier.
func BuildPrompt(input string) string {
	return fmt.Sprintf("Evaluate for child safety: %q", input)
}

// ResponseSchema is the structured output contract for an assessment.
func ResponseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	enum := func(values ...string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: values}
	}

	link := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": str(),
			"url":   str(),
		},
		Required: []string{"title", "url"},
	}

	result := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":     str(),
			"url":       str(),
			"snippet":   str(),
			"source":    str(),
			"keyPoints": {Type: genai.TypeArray, Items: str()},
			"subLinks":  {Type: genai.TypeArray, Items: link},
		},
		Required: []string{"title", "url", "snippet", "source"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isSafe":         {Type: genai.TypeBoolean},
			"riskLevel":      enum("LOW", "MEDIUM", "HIGH"),
			"sophistication": enum("ELEMENTARY", "ADOLESCENT", "ACADEMIC"),
			"reason":         str(),
			"guideSummary":   str(),
			"searchResults":  {Type: genai.TypeArray, Items: result},
		},
		Required: []string{"isSafe", "riskLevel", "sophistication", "reason", "searchResults"},
	}
}
