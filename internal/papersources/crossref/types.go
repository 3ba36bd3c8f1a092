// Package crossref provides a client for the CrossRef REST API.
//
// CrossRef indexes DOI metadata for scholarly works. This package implements
// the papersources.PaperSource interface on top of the /works search
// endpoint. No API key is required, but CrossRef's usage policy asks polite
// clients to identify themselves via a User-Agent header carrying a mailto
// contact; requests without one are served from a slower shared pool.
//
// API Documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// WorksResponse represents the envelope of a /works search response.
type WorksResponse struct {
	// Status is "ok" for successful responses.
	Status string `json:"status"`

	// Message contains the result payload.
	Message WorksMessage `json:"message"`
}

// WorksMessage contains the paginated list of matching works.
type WorksMessage struct {
	// TotalResults is the total number of works matching the query.
	TotalResults int `json:"total-results"`

	// Items is the list of works in this page.
	Items []Work `json:"items"`
}

// Work represents a single scholarly work in the CrossRef API response.
// CrossRef wraps most scalar fields in arrays.
type Work struct {
	// DOI is the Digital Object Identifier of the work.
	DOI string `json:"DOI"`

	// URL is the canonical DOI resolution URL.
	URL string `json:"URL"`

	// Title holds the work title; typically a single-element array.
	Title []string `json:"title"`

	// Abstract is the abstract with embedded JATS/HTML markup.
	Abstract string `json:"abstract"`

	// Author is the list of contributors.
	Author []WorkAuthor `json:"author"`

	// Published is the preferred publication date.
	Published *DateParts `json:"published"`

	// PublishedPrint is the print publication date.
	PublishedPrint *DateParts `json:"published-print"`

	// PublishedOnline is the online publication date.
	PublishedOnline *DateParts `json:"published-online"`

	// ContainerTitle holds the journal or proceedings title.
	ContainerTitle []string `json:"container-title"`

	// Volume is the journal volume.
	Volume string `json:"volume"`

	// Page is the page range (e.g., "1-15").
	Page string `json:"page"`

	// IsOpenAccess indicates whether the work is open access.
	IsOpenAccess bool `json:"is-open-access"`
}

// WorkAuthor represents a contributor to a work. Persons carry Given and
// Family names; organizations carry only Name.
type WorkAuthor struct {
	Given  string `json:"given,omitempty"`
	Family string `json:"family,omitempty"`
	Name   string `json:"name,omitempty"`
}

// DateParts is CrossRef's date representation: an array of
// [year, month, day] triples, any suffix of which may be omitted.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component of the first date, or 0 when absent.
func (d *DateParts) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}
