// Package core provides a client for the CORE v3 API.
//
// CORE aggregates open access research papers from repositories and
// journals worldwide. This package implements the papersources.PaperSource
// interface on top of the /search/works endpoint. A bearer API key is
// required; without one the source reports itself as disabled and is skipped.
//
// API Documentation: https://api.core.ac.uk/docs/v3
package core

import (
	"encoding/json"
)

// SearchResponse represents the response from the /search/works endpoint.
type SearchResponse struct {
	// TotalHits is the total number of works matching the query.
	TotalHits int `json:"totalHits"`

	// Limit is the page size applied by the API.
	Limit int `json:"limit"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Results contains the list of works returned by the search.
	Results []WorkResult `json:"results"`
}

// WorkResult represents a single work in the CORE API response.
type WorkResult struct {
	// ID is the CORE numeric identifier for the work.
	ID int64 `json:"id"`

	// Title is the title of the work.
	Title string `json:"title"`

	// Abstract is the work's abstract text.
	Abstract string `json:"abstract"`

	// Authors is the list of authors.
	Authors []Author `json:"authors"`

	// YearPublished is the publication year.
	YearPublished int `json:"yearPublished"`

	// DownloadURL is the direct download link for the full text,
	// when CORE hosts or mirrors one.
	DownloadURL string `json:"downloadUrl"`

	// Journals lists the journals the work appeared in.
	Journals []JournalRef `json:"journals"`
}

// JournalRef identifies a journal a work appeared in.
type JournalRef struct {
	// Title is the journal title.
	Title string `json:"title"`
}

// Author represents a work author. CORE has returned authors both as
// plain name strings and as {"name": ...} objects across API revisions,
// so unmarshalling accepts either shape.
type Author struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts either a JSON string or an object with a name field.
func (a *Author) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		a.Name = name
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Name = obj.Name
	return nil
}
