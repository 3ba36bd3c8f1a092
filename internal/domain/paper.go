package domain

import (
	"strings"
)

// SourceType identifies which external API a paper came from.
type SourceType string

// Supported paper sources.
const (
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeCrossRef        SourceType = "crossref"
	SourceTypeCORE            SourceType = "core"
)

// SourcePriority is the fixed order in which source results are merged.
// The aggregator concatenates per-source results in this order before
// deduplication, so earlier sources win title collisions.
var SourcePriority = []SourceType{
	SourceTypeArXiv,
	SourceTypeSemanticScholar,
	SourceTypeCrossRef,
	SourceTypeCORE,
}

// IsValidSourceType returns true if the source type is one of the supported sources.
func IsValidSourceType(st SourceType) bool {
	switch st {
	case SourceTypeArXiv, SourceTypeSemanticScholar, SourceTypeCrossRef, SourceTypeCORE:
		return true
	}
	return false
}

// Author represents a paper author. AuthorID is the source-native author
// identifier and is empty for sources that do not expose one.
type Author struct {
	Name     string `json:"name"`
	AuthorID string `json:"authorId,omitempty"`
}

// Journal holds publication venue details when the source reports them.
type Journal struct {
	Name   string `json:"name"`
	Volume string `json:"volume,omitempty"`
	Pages  string `json:"pages,omitempty"`
}

// Paper is the canonical normalized record for a scholarly article.
//
// It is a value type materialized fresh per search response and never
// mutated after construction. PaperID is the source-native identifier
// (URL, DOI, or API id) and is not guaranteed globally unique across
// sources; the dedup key is the normalized title, not the id.
type Paper struct {
	PaperID      string     `json:"paperId"`
	URL          string     `json:"url,omitempty"`
	Title        string     `json:"title"`
	Abstract     string     `json:"abstract,omitempty"`
	Authors      []Author   `json:"authors"`
	Year         int        `json:"year,omitempty"`
	Journal      *Journal   `json:"journal,omitempty"`
	IsOpenAccess bool       `json:"isOpenAccess"`
	Source       SourceType `json:"source,omitempty"`
}

// HasIdentity returns true if the paper carries at least a title or an id.
// Records failing this never reach the aggregator output.
func (p *Paper) HasIdentity() bool {
	return strings.TrimSpace(p.Title) != "" || strings.TrimSpace(p.PaperID) != ""
}

// TitleKey returns the deduplication key for the paper: the title
// lowercased with runs of whitespace collapsed to single spaces.
// Punctuation is deliberately not normalized, matching the aggregator's
// documented dedup behavior.
func (p *Paper) TitleKey() string {
	return NormalizeTitle(p.Title)
}

// NormalizeTitle lowercases a title and collapses internal whitespace.
func NormalizeTitle(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	return strings.Join(fields, " ")
}
