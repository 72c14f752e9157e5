package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
	"internship-allocator/internal/common/database"
	"internship-allocator/internal/models"
)

type indexStub struct {
	mu        sync.Mutex
	created   int
	docs      map[string][]byte
	rejectDoc bool
}

func (s *indexStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead:
		if s.created > 0 {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/diversity-reports":
		s.created++
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case r.Method == http.MethodPut:
		if s.rejectDoc {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.docs[r.URL.Path] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newIndexer(t *testing.T, stub *indexStub) *ReportIndexer {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewReportIndexer(es, "diversity-reports")
}

func sampleReport() allocation.DiversityReport {
	return allocation.DiversityReport{
		GeneratedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		TotalAllocated: 3,
		Compliance: map[models.QuotaCategory]allocation.ComplianceEntry{
			models.QuotaGeneral: {Compliant: true},
			models.QuotaSC:      {Compliant: false},
		},
	}
}

func TestReportIndexer_Put(t *testing.T) {
	stub := &indexStub{docs: map[string][]byte{}}
	indexer := newIndexer(t, stub)
	ctx := context.Background()

	require.NoError(t, indexer.Put(ctx, "run-1", sampleReport()))
	require.NoError(t, indexer.Put(ctx, "run-2", sampleReport()))
	assert.Equal(t, 1, stub.created)

	raw, ok := stub.docs["/diversity-reports/_doc/run-1"]
	require.True(t, ok)
	var doc ReportDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "run-1", doc.AllocationID)
	assert.Equal(t, 3, doc.TotalAllocated)
	assert.Equal(t, 1, doc.CompliantCategories)
}

func TestReportIndexer_Rejected(t *testing.T) {
	stub := &indexStub{docs: map[string][]byte{}, rejectDoc: true}
	indexer := newIndexer(t, stub)

	err := indexer.Put(context.Background(), "run-1", sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
