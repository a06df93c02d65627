package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
)

const maxSeedBytes = 4 << 20

// Seeder fetches the fixed example set used to populate a first run.
type Seeder struct {
	urls   []string
	client *http.Client
	logger *slog.Logger
}

// NewSeeder creates a seeder for the given example URLs.
func NewSeeder(urls []string, timeout time.Duration, logger *slog.Logger) *Seeder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		urls:   urls,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch retrieves every example document concurrently. Failures are isolated
// per URL: a failed fetch omits that example and never aborts the batch.
// The configured URL order is preserved in the result.
func (s *Seeder) Fetch(ctx context.Context) []*domain.Creation {
	results := make([]*domain.Creation, len(s.urls))

	var wg sync.WaitGroup
	for i, url := range s.urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			creation, err := s.fetchOne(ctx, url)
			if err != nil {
				s.logger.Warn("Example seed fetch failed", "url", url, "error", err)
				return
			}
			results[i] = creation
		}(i, url)
	}
	wg.Wait()

	creations := make([]*domain.Creation, 0, len(results))
	for _, c := range results {
		if c != nil {
			creations = append(creations, c)
		}
	}
	return creations
}

func (s *Seeder) fetchOne(ctx context.Context, url string) (*domain.Creation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch example: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("failed to close seed response body", "url", url, "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read example: %w", err)
	}

	creation, err := codec.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("parse example: %w", err)
	}
	return creation, nil
}
