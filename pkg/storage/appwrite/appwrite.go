package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kasuboski/moviefind/pkg/keylock"
	"github.com/kasuboski/moviefind/pkg/storage"
)

const (
	projectHeader = "X-Appwrite-Project"
	keyHeader     = "X-Appwrite-Key"

	// uniqueID asks the server to generate the document id
	uniqueID = "unique()"

	pageSize = 100
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config identifies the collection holding search records
type Config struct {
	Endpoint     string
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
}

// Appwrite stores search records as documents in an Appwrite collection.
// Appwrite has no conditional update so writes for the same term are serialized in process.
type Appwrite struct {
	http     HTTPClient
	config   Config
	endpoint *url.URL
	locks    *keylock.KeyLock[string]
}

var _ storage.Storage = (*Appwrite)(nil)

// New creates an Appwrite backed store
func New(client HTTPClient, config Config) (*Appwrite, error) {
	if client == nil {
		return nil, errors.New("http client is nil")
	}

	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid appwrite endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid appwrite endpoint: %q", config.Endpoint)
	}

	return &Appwrite{
		http:     client,
		config:   config,
		endpoint: endpoint,
		locks:    keylock.New[string](),
	}, nil
}

// Close is a no-op, the store holds no connections of its own
func (a *Appwrite) Close() error {
	return nil
}

// UpsertSearch looks the term up and either bumps its count or creates it
func (a *Appwrite) UpsertSearch(ctx context.Context, search storage.SearchUpsert) (storage.SearchRecord, bool, error) {
	unlock := a.locks.Lock(search.SearchTerm)
	defer unlock()

	existing, err := a.findByTerm(ctx, search.SearchTerm)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.SearchRecord{}, false, err
	}

	if err == nil {
		doc, err := a.updateCount(ctx, existing.ID, existing.Count+1)
		if err != nil {
			return storage.SearchRecord{}, false, err
		}
		return doc.toRecord(), false, nil
	}

	doc, err := a.create(ctx, documentData{
		SearchTerm: search.SearchTerm,
		Count:      1,
		PosterURL:  search.PosterURL,
		MovieID:    search.MovieID,
	})
	if err != nil {
		return storage.SearchRecord{}, false, err
	}

	return doc.toRecord(), true, nil
}

// GetSearch returns the record for the exact term
func (a *Appwrite) GetSearch(ctx context.Context, searchTerm string) (storage.SearchRecord, error) {
	return a.findByTerm(ctx, searchTerm)
}

// ListTrending returns the most counted terms
func (a *Appwrite) ListTrending(ctx context.Context, limit int) ([]storage.SearchRecord, error) {
	if limit <= 0 {
		return []storage.SearchRecord{}, nil
	}

	list, err := a.list(ctx,
		orderDesc("count"),
		orderDesc("$updatedAt"),
		orderAsc("$id"),
		limitQuery(limit),
	)
	if err != nil {
		return nil, err
	}

	records := make([]storage.SearchRecord, 0, len(list.Documents))
	for _, doc := range list.Documents {
		records = append(records, doc.toRecord())
	}
	storage.SortTrending(records)

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// GetSearchStats pages through the collection summing counts
func (a *Appwrite) GetSearchStats(ctx context.Context) (*storage.SearchStats, error) {
	var stats storage.SearchStats

	for offset := 0; ; offset += pageSize {
		list, err := a.list(ctx, limitQuery(pageSize), offsetQuery(offset))
		if err != nil {
			return nil, err
		}

		for _, doc := range list.Documents {
			stats.Searches += doc.Count
		}
		stats.Terms = max(stats.Terms, list.Total)

		if len(list.Documents) < pageSize {
			break
		}
	}

	return &stats, nil
}

func (a *Appwrite) findByTerm(ctx context.Context, searchTerm string) (storage.SearchRecord, error) {
	list, err := a.list(ctx, equal("searchTerm", searchTerm), limitQuery(1))
	if err != nil {
		return storage.SearchRecord{}, err
	}

	if len(list.Documents) == 0 {
		return storage.SearchRecord{}, storage.ErrNotFound
	}

	return list.Documents[0].toRecord(), nil
}

func (a *Appwrite) list(ctx context.Context, queries ...query) (documentList, error) {
	var list documentList

	values := url.Values{}
	for _, q := range queries {
		b, err := json.Marshal(q)
		if err != nil {
			return list, err
		}
		values.Add("queries[]", string(b))
	}

	err := a.do(ctx, http.MethodGet, a.documentsURL("", values), nil, &list)
	return list, err
}

func (a *Appwrite) create(ctx context.Context, data documentData) (document, error) {
	var doc document
	body := createDocumentRequest{
		DocumentID: uniqueID,
		Data:       data,
	}

	err := a.do(ctx, http.MethodPost, a.documentsURL("", nil), body, &doc)
	return doc, err
}

func (a *Appwrite) updateCount(ctx context.Context, id string, count int) (document, error) {
	var doc document
	body := updateDocumentRequest{
		Data: countData{Count: count},
	}

	err := a.do(ctx, http.MethodPatch, a.documentsURL(id, nil), body, &doc)
	return doc, err
}

func (a *Appwrite) documentsURL(id string, values url.Values) string {
	elems := []string{
		"databases", a.config.DatabaseID,
		"collections", a.config.CollectionID,
		"documents",
	}
	if id != "" {
		elems = append(elems, id)
	}

	u := a.endpoint.JoinPath(elems...)
	u.RawQuery = values.Encode()

	return u.String()
}

func (a *Appwrite) do(ctx context.Context, method, uri string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(projectHeader, a.config.ProjectID)
	if a.config.APIKey != "" {
		req.Header.Set(keyHeader, a.config.APIKey)
	}

	resp, err := a.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, b)
	}

	return json.Unmarshal(b, out)
}
