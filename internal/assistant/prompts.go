package assistant

import (
	"fmt"
	"strings"
)

// buildSummarizePrompt renders the abstract summarization prompt.
func buildSummarizePrompt(abstract string) string {
	return fmt.Sprintf(`You are an expert scientific summarizer. Please provide a concise summary of the following research paper abstract:

Abstract: %s

Respond with a JSON object of the form {"summary": "..."}.`, abstract)
}

// buildSuggestPrompt renders the similar-paper suggestion prompt.
func buildSuggestPrompt(searchQuery string, papers []PaperSummary, numSuggestions int) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert research assistant. Given a user's search query and a list of search results, suggest %d similar papers from the provided search results that the user may find helpful, but which they have not already seen.

User Search Query: %s

Search Results:
`, numSuggestions, searchQuery)

	for _, p := range papers {
		fmt.Fprintf(&b, "Title: %s\nAbstract: %s\n", p.Title, p.Abstract)
	}

	b.WriteString(`
Suggest similar papers as a JSON array of objects, each with "title" and "abstract" fields.`)

	return b.String()
}

// buildExtractPrompt renders the attribute extraction prompt. Papers are
// numbered so the model can key its results by paper index.
func buildExtractPrompt(papers []PaperSummary, attributes []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert research assistant. Your task is to extract specific information from a list of research papers based on requested attributes.

For each paper provided, analyze the title and abstract to extract the following attributes: %s.

If an attribute cannot be explicitly found, infer it if possible, or state "Not specified".
Keep the extracted text concise and relevant.

Papers:
`, strings.Join(attributes, ", "))

	for i, p := range papers {
		fmt.Fprintf(&b, "---\nPaper Index: %d\nTitle: %s\nAbstract: %s\n---\n", i, p.Title, p.Abstract)
	}

	b.WriteString(`
Respond with a JSON object of the form {"results": [{"paperIndex": 0, "attributes": {"<attribute>": "<value>"}}]} containing one entry per paper.`)

	return b.String()
}

// buildReviewPrompt renders the literature review prompt. The required
// section structure is spelled out so the markdown output is stable.
func buildReviewPrompt(papers []PaperSummary) string {
	var b strings.Builder

	b.WriteString(`You are a research assistant with expertise in academic writing, tasked with creating a literature review from a given set of research papers.

Your response must be in Markdown format and structured as follows:

# Literature Review

## Introduction
- Briefly introduce the overarching topic and its significance.
- State the purpose of this literature review.

## Thematic Analysis
- Synthesize and group the provided papers by common themes, methodologies, or findings.
- For each theme, create a subheading (e.g., ### Theme 1: [Name of Theme]).
- Discuss the papers within each theme, highlighting their contributions and how they relate to one another.

## Conclusion and Future Directions
- Summarize the key insights and trends identified from the papers.
- Briefly mention any gaps in the literature and suggest potential areas for future research based on the analysis.

Here are the papers (Title and Abstract) to use for the review:
`)

	for _, p := range papers {
		fmt.Fprintf(&b, "---\nTitle: %s\nAbstract: %s\n---\n", p.Title, p.Abstract)
	}

	b.WriteString(`
Respond with a JSON object of the form {"literatureReview": "<markdown>"}.`)

	return b.String()
}
