package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/pricefeed/pkg/version"
)

// maxResponseBytes caps the body read from a price API.
const maxResponseBytes = 1 << 20

// HTTPSource reads a decimal price from a JSON API.
//
// Config:
//
//	url:     endpoint returning JSON
//	field:   dotted path to the price, e.g. "data.ohm.usd"; array indexes are numeric segments
//	headers: optional map of request headers
//	timeout: optional request timeout (default 10s)
type HTTPSource struct {
	*BaseSource
	url      string
	field    []string
	headers  map[string]string
	decimals int
	client   *http.Client
}

var _ Source = (*HTTPSource)(nil)

func init() {
	Register(SourceTypeHTTP, NewHTTPSource)
}

// NewHTTPSource creates a JSON API source.
func NewHTTPSource(name string, config map[string]interface{}) (Source, error) {
	url := GetString(config, "url", "")
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	field := GetString(config, "field", "")
	if field == "" {
		return nil, fmt.Errorf("%w: field is required", ErrInvalidConfig)
	}

	decimals, err := GetDecimals(config)
	if err != nil {
		return nil, err
	}
	timeout, err := GetDuration(config, "timeout", 10*time.Second)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	if raw, ok := config["headers"].(map[string]interface{}); ok {
		for k, v := range raw {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: header %s is %T", ErrInvalidConfig, k, v)
			}
			headers[k] = s
		}
	}

	return &HTTPSource{
		BaseSource: NewBaseSource(name, SourceTypeHTTP, GetLoggerFromConfig(config)),
		url:        url,
		field:      strings.Split(field, "."),
		headers:    headers,
		decimals:   decimals,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Fetch requests the URL and scales the configured field.
func (s *HTTPSource) Fetch(ctx context.Context) (*big.Int, error) {
	price, err := s.fetch(ctx)
	s.RecordFetch(err)
	return price, err
}

func (s *HTTPSource) fetch(ctx context.Context) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.AgentString())
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	raw, err := lookupField(doc, s.field)
	if err != nil {
		return nil, err
	}

	price, err := parseDecimal(raw)
	if err != nil {
		return nil, err
	}

	return ScaleDecimal(price, s.decimals)
}

// lookupField walks a decoded JSON document along path.
func lookupField(doc interface{}, path []string) (interface{}, error) {
	current := doc
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, strings.Join(path, "."))
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, strings.Join(path, "."))
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, strings.Join(path, "."))
		}
	}
	return current, nil
}

func parseDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: price field is %T", ErrInvalidResponse, raw)
	}
}
