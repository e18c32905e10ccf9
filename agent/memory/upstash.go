package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

const maxResponseSizeBytes = 8 << 20

var _ contractx.MemoryStore = (*UpstashStore)(nil)

type UpstashConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// UpstashOption customizes UpstashStore.
type UpstashOption func(*UpstashStore)

func WithListKey(key string) UpstashOption {
	return func(s *UpstashStore) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			s.key = trimmed
		}
	}
}

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(s *UpstashStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashStore keeps the memory log in an Upstash Redis list over the REST
// API. Records are appended with RPUSH and read back with LRANGE.
type UpstashStore struct {
	baseURL    string
	token      string
	key        string
	httpClient *http.Client
}

type restResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashStore(cfg UpstashConfig, opts ...UpstashOption) (*UpstashStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashStore{
		baseURL:    baseURL,
		token:      token,
		key:        defaultListKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *UpstashStore) Append(ctx context.Context, records ...contractx.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	cmd := make([]any, 0, len(records)+2)
	cmd = append(cmd, "RPUSH", s.key)
	for _, r := range records {
		encoded, err := encodeRecord(r)
		if err != nil {
			return err
		}
		cmd = append(cmd, encoded)
	}

	_, err := s.exec(ctx, cmd)
	return err
}

func (s *UpstashStore) SimilaritySearch(ctx context.Context, embedding []float32, k int, minScore float64) ([]contractx.ScoredRecord, error) {
	resp, err := s.exec(ctx, []any{"LRANGE", s.key, 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var values []string
	if err := json.Unmarshal(result, &values); err != nil {
		return nil, fmt.Errorf("decode lrange result: %w", err)
	}
	records, err := decodeRecords(values)
	if err != nil {
		return nil, err
	}
	return rank(records, embedding, k, minScore), nil
}

func (s *UpstashStore) Count(ctx context.Context) (int, error) {
	resp, err := s.exec(ctx, []any{"LLEN", s.key})
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(resp.Result, &n); err != nil {
		return 0, fmt.Errorf("decode llen result: %w", err)
	}
	return n, nil
}

func (s *UpstashStore) exec(ctx context.Context, command []any) (*restResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed restResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}
