// Package adapters holds one connector per supported exchange. API adapters
// speak REST or GraphQL, browser adapters drive a scrape.Fetcher, and
// on-chain adapters read gauge contracts.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

const userAgent = "ovn-pools/1.0"

// getJSON decodes a GET response into out. Transport and status failures are
// SourceUnavailable, decode failures SourceShapeChanged.
func getJSON(ctx context.Context, client *http.Client, ex pool.ExchangerType, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pool.Unavailable(ex, url, err)
	}
	return doJSON(client, ex, req, out)
}

func postJSON(ctx context.Context, client *http.Client, ex pool.ExchangerType, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pool.Unavailable(ex, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, ex, req, out)
}

func doJSON(client *http.Client, ex pool.ExchangerType, req *http.Request, out any) error {
	url := req.URL.String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return pool.Unavailable(ex, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return pool.Unavailable(ex, url, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pool.ShapeChanged(ex, url, fmt.Errorf("decode: %w", err))
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// graphQL posts query and decodes its data field into out.
func graphQL(ctx context.Context, client *http.Client, ex pool.ExchangerType, url, query string, vars map[string]any, out any) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := postJSON(ctx, client, ex, url, graphQLRequest{Query: query, Variables: vars}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return pool.ShapeChanged(ex, url, fmt.Errorf("graphql: %s", resp.Errors[0].Message))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return pool.ShapeChanged(ex, url, errors.New("graphql: empty data"))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return pool.ShapeChanged(ex, url, fmt.Errorf("decode data: %w", err))
	}
	return nil
}
