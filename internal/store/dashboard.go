// internal/store/dashboard.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/database"
)

const reportMapping = `{
  "mappings": {
    "properties": {
      "allocationId":        {"type": "keyword"},
      "generatedAt":         {"type": "date"},
      "totalAllocated":      {"type": "integer"},
      "compliantCategories": {"type": "integer"},
      "report":              {"type": "object", "enabled": false}
    }
  }
}`

// ReportDocument is what dashboards query; the full report rides along
// unindexed.
type ReportDocument struct {
	AllocationID        string                     `json:"allocationId"`
	GeneratedAt         time.Time                  `json:"generatedAt"`
	TotalAllocated      int                        `json:"totalAllocated"`
	CompliantCategories int                        `json:"compliantCategories"`
	Report              allocation.DiversityReport `json:"report"`
}

// ReportIndexer writes diversity reports to Elasticsearch, one document per
// allocation run.
type ReportIndexer struct {
	es    *database.ElasticsearchClient
	index string

	mu    sync.Mutex
	ready bool
}

func NewReportIndexer(es *database.ElasticsearchClient, index string) *ReportIndexer {
	return &ReportIndexer{es: es, index: index}
}

func (r *ReportIndexer) Index() string { return r.index }

func (r *ReportIndexer) ensureIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if err := r.es.EnsureIndex(ctx, r.index, reportMapping); err != nil {
		return err
	}
	r.ready = true
	return nil
}

// Put indexes the report under allocationID, replacing any earlier version.
func (r *ReportIndexer) Put(ctx context.Context, allocationID string, report allocation.DiversityReport) error {
	if err := r.ensureIndex(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(ReportDocument{
		AllocationID:        allocationID,
		GeneratedAt:         report.GeneratedAt,
		TotalAllocated:      report.TotalAllocated,
		CompliantCategories: report.CompliantCategories(),
		Report:              report,
	})
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: allocationID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.es.Client)
	if err != nil {
		return fmt.Errorf("index report %s: %w", allocationID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index report %s: %s", allocationID, res.Status())
	}
	return nil
}
