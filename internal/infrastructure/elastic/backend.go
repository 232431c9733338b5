package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"go.uber.org/zap"
)

type backend struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewSearchBackend - поисковый бэкенд поверх индекса локаций в Elasticsearch
func NewSearchBackend(es *elasticsearch.Client, index string, logger *zap.Logger) repository.SearchBackend {
	return &backend{
		es:     es,
		index:  index,
		logger: logger,
	}
}

func (b *backend) Name() string {
	return "elasticsearch"
}

// Search выполняет один запрос к индексу
func (b *backend) Search(ctx context.Context, q domain.BackendQuery) ([]domain.CandidateHit, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchBody(q)); err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	b.logger.Debug("Executing elasticsearch query",
		zap.String("index", b.index),
		zap.String("source", string(q.Source)),
		zap.Int("size", q.Size))

	res, err := b.es.Search(
		b.es.Search.WithContext(ctx),
		b.es.Search.WithIndex(b.index),
		b.es.Search.WithBody(&buf),
		b.es.Search.WithTrackTotalHits(false),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: elasticsearch transport: %v", domain.ErrBackendTransient, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]domain.CandidateHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hit := h.toCandidate(q.Source)
		if !hit.Type.IsValid() {
			b.logger.Warn("Skipping document with unknown type",
				zap.String("id", hit.ID),
				zap.String("type", string(hit.Type)))
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Ping - доступность кластера
func (b *backend) Ping(ctx context.Context) error {
	res, err := b.es.Ping(b.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: elasticsearch ping: %v", domain.ErrBackendTransient, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res)
	}
	return nil
}

// responseError - 5xx и 429 считаются временными, остальное нет
func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	reason := string(body)
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Type != "" {
		reason = parsed.Error.Type + ": " + parsed.Error.Reason
	}

	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: elasticsearch status %d: %s", domain.ErrBackendTransient, res.StatusCode, reason)
	}
	return fmt.Errorf("elasticsearch status %d: %s", res.StatusCode, reason)
}
