package tmdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMalformedResponse is returned when a successful response cannot be decoded
var ErrMalformedResponse = errors.New("malformed tmdb response")

// MovieSummary is a movie as listed by search and discover. Fields are passed through as returned.
type MovieSummary struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    *string  `json:"original_title,omitempty"`
	OriginalLanguage *string  `json:"original_language,omitempty"`
	Overview         *string  `json:"overview,omitempty"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path,omitempty"`
	ReleaseDate      *string  `json:"release_date,omitempty"`
	GenreIDs         []int    `json:"genre_ids,omitempty"`
	Popularity       *float64 `json:"popularity,omitempty"`
	VoteAverage      *float64 `json:"vote_average,omitempty"`
	VoteCount        *int     `json:"vote_count,omitempty"`
	Adult            *bool    `json:"adult,omitempty"`
	Video            *bool    `json:"video,omitempty"`
}

// MovieListResponse is the paged body shared by search and discover
type MovieListResponse struct {
	Page         *int           `json:"page,omitempty"`
	TotalPages   *int           `json:"total_pages,omitempty"`
	TotalResults *int           `json:"total_results,omitempty"`
	Results      []MovieSummary `json:"results"`

	// Response and Error carry a logical failure reported with a success status
	Response json.RawMessage `json:"response,omitempty"`
	Error    *string         `json:"error,omitempty"`

	// Success and StatusMessage are TMDB's own failure envelope
	Success       *bool   `json:"success,omitempty"`
	StatusMessage *string `json:"status_message,omitempty"`
}

// LogicalFailure reports whether the body flags a failure and the message that came with it.
// The message may be empty when the api did not provide one.
func (r MovieListResponse) LogicalFailure() (string, bool) {
	if isFalse(r.Response) {
		return deref(r.Error), true
	}

	if r.Success != nil && !*r.Success {
		return deref(r.StatusMessage), true
	}

	return "", false
}

func isFalse(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return !b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(s, "false")
	}

	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseMovieListResponse reads a search or discover response.
// Any non 2xx status is an error; the body is not consulted.
func ParseMovieListResponse(res *http.Response) (*MovieListResponse, error) {
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected movie list status: %s", statusText(res))
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	result := new(MovieListResponse)
	if err := json.Unmarshal(b, result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return result, nil
}

func statusText(res *http.Response) string {
	if res.Status != "" {
		return res.Status
	}
	return fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode))
}
