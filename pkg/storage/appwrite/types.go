package appwrite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kasuboski/moviefind/pkg/storage"
)

// document is a search record as stored in the collection
type document struct {
	ID         string    `json:"$id"`
	CreatedAt  time.Time `json:"$createdAt"`
	UpdatedAt  time.Time `json:"$updatedAt"`
	SearchTerm string    `json:"searchTerm"`
	Count      int       `json:"count"`
	PosterURL  string    `json:"poster_url"`
	MovieID    int       `json:"movie_id"`
}

func (d document) toRecord() storage.SearchRecord {
	return storage.SearchRecord{
		ID:         d.ID,
		SearchTerm: d.SearchTerm,
		Count:      d.Count,
		PosterURL:  d.PosterURL,
		MovieID:    d.MovieID,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []document `json:"documents"`
}

type documentData struct {
	SearchTerm string `json:"searchTerm"`
	Count      int    `json:"count"`
	PosterURL  string `json:"poster_url"`
	MovieID    int    `json:"movie_id"`
}

type countData struct {
	Count int `json:"count"`
}

type createDocumentRequest struct {
	DocumentID string       `json:"documentId"`
	Data       documentData `json:"data"`
}

type updateDocumentRequest struct {
	Data countData `json:"data"`
}

// query is the json form of an Appwrite query
type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func equal(attribute string, value any) query {
	return query{Method: "equal", Attribute: attribute, Values: []any{value}}
}

func orderDesc(attribute string) query {
	return query{Method: "orderDesc", Attribute: attribute}
}

func orderAsc(attribute string) query {
	return query{Method: "orderAsc", Attribute: attribute}
}

func limitQuery(n int) query {
	return query{Method: "limit", Values: []any{n}}
}

func offsetQuery(n int) query {
	return query{Method: "offset", Values: []any{n}}
}

// APIError is a non 2xx answer from Appwrite
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("appwrite: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("appwrite: %s (%d %s)", e.Message, e.StatusCode, e.Type)
}

func newAPIError(resp *http.Response, body []byte) error {
	apiErr := &APIError{}
	// best effort, the body is not always json
	_ = json.Unmarshal(body, apiErr)
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
