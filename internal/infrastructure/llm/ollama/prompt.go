package ollama

import (
	"fmt"
	"strings"
)

const maxSnippet = 8000

func buildRoutingPrompt(text string, candidates []string) string {
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	var list strings.Builder
	for _, candidate := range candidates {
		list.WriteString("- ")
		list.WriteString(candidate)
		list.WriteString("\n")
	}

	return fmt.Sprintf(`You are a document archivist. Pick the archive folder this document belongs to.
Existing folders (category/subcategory/issuer/person):
%s
Return a strict JSON object with exactly these keys:
matched (bool), selectedPath (string or null), confidence (number from 0 to 1), reason (string), needsNewFolder (bool), suggestedPath (string or null).
If one existing folder fits, set matched=true and selectedPath to it verbatim.
If none fits, set matched=false, needsNewFolder=true and propose suggestedPath with the same four-level shape.
No markdown, no extra keys, no surrounding text.

Document:
%s`, list.String(), snippet)
}

func buildSummaryPrompt(text, lang string) string {
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	language := "Russian"
	if strings.EqualFold(lang, "de") {
		language = "German"
	}
	return fmt.Sprintf(`Summarize the document below in %s, at most five sentences.
Plain text only, no markdown.

Document:
%s`, language, snippet)
}
