// Package search is the HTTP client for the candidate/search service,
// which returns semantically similar memories for a query memory.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/domain/core/entities"
	appErrors "github.com/rawcontext/engram-sub005/pkg/errors"
)

// requestLimit bounds how many raw candidates one lookup asks for; the
// scanner applies its own similarity floor and cap on top.
const requestLimit = 20

// Client calls the candidate/search service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a search service client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) ports.CandidateSearchService {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type similarRequest struct {
	Query           string `json:"query"`
	Project         string `json:"project,omitempty"`
	Limit           int    `json:"limit"`
	ExcludeMemoryID string `json:"exclude_memory_id,omitempty"`
}

type similarResponse struct {
	Results []candidateDTO `json:"results"`
}

type candidateDTO struct {
	MemoryID   string     `json:"memory_id"`
	Content    string     `json:"content"`
	Type       string     `json:"type"`
	Similarity float64    `json:"similarity"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
}

// Similar returns memories semantically close to the given memory.
func (c *Client) Similar(ctx context.Context, memory entities.Memory) ([]entities.Candidate, error) {
	payload, err := json.Marshal(similarRequest{
		Query:           memory.Content,
		Project:         memory.Project,
		Limit:           requestLimit,
		ExcludeMemoryID: memory.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := c.baseURL + "/v1/memories/similar"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.NewExternalError("search", "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.NewExternalError("search",
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var body similarResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, appErrors.NewExternalError("search", "invalid response body").WithCause(err)
	}

	candidates := make([]entities.Candidate, len(body.Results))
	for i, dto := range body.Results {
		candidates[i] = entities.Candidate{
			MemoryID:   dto.MemoryID,
			Content:    dto.Content,
			Type:       dto.Type,
			Similarity: dto.Similarity,
			ValidFrom:  dto.ValidFrom,
			ValidTo:    dto.ValidTo,
		}
	}
	return candidates, nil
}
