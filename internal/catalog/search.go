// internal/catalog/search.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// ElasticSearcher serves discovery queries from an Elasticsearch index of
// opportunity documents.
type ElasticSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticSearcher(client *elasticsearch.Client, index string) *ElasticSearcher {
	return &ElasticSearcher{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Opportunity `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ElasticSearcher) Search(ctx context.Context, query string) ([]models.Opportunity, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "description", "agency", "categories"},
			},
		},
		"size": 50,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, stderrors.NewSearchQueryFailedError(err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, stderrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, stderrors.NewSearchQueryFailedError(
			&esStatusError{status: res.Status()},
		)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, stderrors.NewSearchQueryFailedError(err)
	}

	out := make([]models.Opportunity, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, hit.Source)
	}
	return out, nil
}

type esStatusError struct {
	status string
}

func (e *esStatusError) Error() string {
	return "elasticsearch search error: " + e.status
}

// matchSeed is the in-memory fallback matcher: case-insensitive substring
// match across title, description, agency, and categories. A blank query
// matches everything.
func matchSeed(seed []models.Opportunity, query string) []models.Opportunity {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]models.Opportunity, len(seed))
		copy(out, seed)
		return out
	}

	out := []models.Opportunity{}
	for _, opp := range seed {
		if strings.Contains(strings.ToLower(opp.Title), q) ||
			strings.Contains(strings.ToLower(opp.Description), q) ||
			strings.Contains(strings.ToLower(opp.Agency), q) {
			out = append(out, opp)
			continue
		}
		for _, cat := range opp.Categories {
			if strings.Contains(strings.ToLower(cat), q) {
				out = append(out, opp)
				break
			}
		}
	}
	return out
}
