package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortTrending(t *testing.T) {
	now := time.Now()
	records := []SearchRecord{
		{ID: "a", SearchTerm: "alien", Count: 2, UpdatedAt: now.Add(-time.Hour)},
		{ID: "b", SearchTerm: "batman", Count: 5, UpdatedAt: now.Add(-time.Hour)},
		{ID: "c", SearchTerm: "cars", Count: 2, UpdatedAt: now},
		{ID: "d", SearchTerm: "dune", Count: 2, UpdatedAt: now},
	}

	SortTrending(records)

	var terms []string
	for _, r := range records {
		terms = append(terms, r.SearchTerm)
	}
	assert.Equal(t, []string{"batman", "cars", "dune", "alien"}, terms)
}
