// audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const decisionIndex = "admission-decisions"

type Repository interface {
	LogDecision(ctx context.Context, record DecisionRecord) error
	QueryDecisions(ctx context.Context, from, to time.Time, clientIP string) ([]DecisionRecord, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// LogDecision indexes one admission decision.
func (r *ElasticsearchRepository) LogDecision(ctx context.Context, record DecisionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      decisionIndex,
		DocumentID: fmt.Sprintf("%d-%s", record.Timestamp.UnixNano(), record.RequestID),
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing decision record: %s", res.String())
	}

	return nil
}

// QueryDecisions searches decision records within a time frame, optionally
// filtered by client address.
func (r *ElasticsearchRepository) QueryDecisions(ctx context.Context, from, to time.Time, clientIP string) ([]DecisionRecord, error) {
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}

	if clientIP != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"client_ip": clientIP,
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(decisionIndex),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching decision records: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source DecisionRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	records := make([]DecisionRecord, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}
