package elastic

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/location-lookup/internal/config"
	"go.uber.org/zap"
)

// NewClient создаёт клиента Elasticsearch. Встроенные повторы отключены:
// политикой повторов владеет search.Client.
func NewClient(cfg *config.ElasticConfig, logger *zap.Logger) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Hosts,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	logger.Info("Elasticsearch client created",
		zap.Strings("hosts", cfg.Hosts),
		zap.String("index", cfg.Index),
	)
	return es, nil
}
