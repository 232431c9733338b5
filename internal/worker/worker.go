package worker

import (
	"context"
)

// Worker - фоновый процесс, живущий вместе с API
type Worker interface {
	// Start блокирует до отмены ctx или вызова Stop
	Start(ctx context.Context) error

	// Stop сигнализирует о завершении; повторный вызов безопасен
	Stop() error

	Name() string
}
