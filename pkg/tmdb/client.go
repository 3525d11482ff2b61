package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

const (
	searchMoviePath   = "/3/search/movie"
	discoverMoviePath = "/3/discover/movie"

	SortByPopularityDesc = "popularity.desc"
)

// HttpRequestDoer performs HTTP requests
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn is the function signature for the RequestEditor callback function
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// ClientInterface is the subset of the TMDB api used for movie discovery
type ClientInterface interface {
	SearchMovie(ctx context.Context, params *SearchMovieParams, reqEditors ...RequestEditorFn) (*http.Response, error)
	DiscoverMovie(ctx context.Context, params *DiscoverMovieParams, reqEditors ...RequestEditorFn) (*http.Response, error)
}

type SearchMovieParams struct {
	Query        string
	IncludeAdult *bool
	Language     *string
	Page         *int
}

type DiscoverMovieParams struct {
	SortBy   *string
	Language *string
	Page     *int
}

// Client talks to the TMDB v3 api
type Client struct {
	// Server is the base URL without the version prefix, e.g. https://api.themoviedb.org
	Server         string
	Client         HttpRequestDoer
	RequestEditors []RequestEditorFn
}

// ClientOption allows setting custom parameters during construction
type ClientOption func(*Client) error

// NewClient creates a new Client, with reasonable defaults
func NewClient(server string, opts ...ClientOption) (*Client, error) {
	client := Client{
		Server: strings.TrimSuffix(server, "/"),
	}

	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}

	if _, err := url.Parse(client.Server); err != nil {
		return nil, fmt.Errorf("invalid tmdb server url: %w", err)
	}

	if client.Client == nil {
		client.Client = &http.Client{}
	}

	return &client, nil
}

// WithHTTPClient allows overriding the default Doer
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn allows setting up a callback function, which will be
// called right before sending the request
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

func (c *Client) SearchMovie(ctx context.Context, params *SearchMovieParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewSearchMovieRequest(c.Server, params)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) DiscoverMovie(ctx context.Context, params *DiscoverMovieParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewDiscoverMovieRequest(c.Server, params)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) do(ctx context.Context, req *http.Request, reqEditors []RequestEditorFn) (*http.Response, error) {
	req = req.WithContext(ctx)
	if err := c.applyEditors(ctx, req, reqEditors); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

func (c *Client) applyEditors(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) error {
	for _, r := range c.RequestEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	for _, r := range additionalEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// NewSearchMovieRequest generates requests for SearchMovie
func NewSearchMovieRequest(server string, params *SearchMovieParams) (*http.Request, error) {
	queryURL, err := url.Parse(strings.TrimSuffix(server, "/") + searchMoviePath)
	if err != nil {
		return nil, err
	}

	if params != nil {
		queryValues := queryURL.Query()

		if err := addQueryParam(queryValues, "query", params.Query); err != nil {
			return nil, err
		}
		if params.IncludeAdult != nil {
			if err := addQueryParam(queryValues, "include_adult", *params.IncludeAdult); err != nil {
				return nil, err
			}
		}
		if params.Language != nil {
			if err := addQueryParam(queryValues, "language", *params.Language); err != nil {
				return nil, err
			}
		}
		if params.Page != nil {
			if err := addQueryParam(queryValues, "page", *params.Page); err != nil {
				return nil, err
			}
		}

		queryURL.RawQuery = queryValues.Encode()
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewDiscoverMovieRequest generates requests for DiscoverMovie
func NewDiscoverMovieRequest(server string, params *DiscoverMovieParams) (*http.Request, error) {
	queryURL, err := url.Parse(strings.TrimSuffix(server, "/") + discoverMoviePath)
	if err != nil {
		return nil, err
	}

	if params != nil {
		queryValues := queryURL.Query()

		if params.SortBy != nil {
			if err := addQueryParam(queryValues, "sort_by", *params.SortBy); err != nil {
				return nil, err
			}
		}
		if params.Language != nil {
			if err := addQueryParam(queryValues, "language", *params.Language); err != nil {
				return nil, err
			}
		}
		if params.Page != nil {
			if err := addQueryParam(queryValues, "page", *params.Page); err != nil {
				return nil, err
			}
		}

		queryURL.RawQuery = queryValues.Encode()
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// addQueryParam encodes value as an exploded form parameter
func addQueryParam(values url.Values, name string, value any) error {
	queryFrag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return err
	}

	parsed, err := url.ParseQuery(queryFrag)
	if err != nil {
		return err
	}

	for k, v := range parsed {
		for _, v2 := range v {
			values.Add(k, v2)
		}
	}

	return nil
}
