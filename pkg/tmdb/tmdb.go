package tmdb

import (
	"context"
	"net/http"
)

// SetRequestAPIKey authenticates requests with a TMDB read access token
func SetRequestAPIKey(apiKey string) RequestEditorFn {
	return func(ctx context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Accept", "application/json")
		return nil
	}
}
