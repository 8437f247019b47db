package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// normalizingTransport rewrites non-standard embedding responses into the
// {"data": [{"embedding": [...]}]} shape go-openai decodes.
type normalizingTransport struct {
	base http.RoundTripper
}

func newNormalizingTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &normalizingTransport{base: base}
}

func (t *normalizingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err //nolint:wrapcheck // RoundTripper must return transport errors as-is
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !strings.HasSuffix(req.URL.Path, "/embeddings") {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	if rewritten, ok := normalizeEmbeddingBody(body); ok {
		body = rewritten
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

type legacyEmbeddingBody struct {
	Data      json.RawMessage `json:"data"`
	Embedding json.RawMessage `json:"embedding"`
	Vector    json.RawMessage `json:"vector"`
	Model     string          `json:"model"`
	Usage     json.RawMessage `json:"usage"`
}

type normalizedItem struct {
	Object    string          `json:"object"`
	Index     int             `json:"index"`
	Embedding json.RawMessage `json:"embedding"`
}

type normalizedBody struct {
	Object string           `json:"object"`
	Data   []normalizedItem `json:"data"`
	Model  string           `json:"model"`
	Usage  json.RawMessage  `json:"usage,omitempty"`
}

// normalizeEmbeddingBody returns the rewritten body and true when the input
// used the top-level "embedding" or "vector" shape. Standard bodies pass through.
func normalizeEmbeddingBody(body []byte) ([]byte, bool) {
	var in legacyEmbeddingBody
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, false
	}
	if len(in.Data) > 0 && string(in.Data) != "null" {
		return nil, false
	}

	vec := in.Embedding
	if len(vec) == 0 || string(vec) == "null" {
		vec = in.Vector
	}
	if len(vec) == 0 || string(vec) == "null" {
		return nil, false
	}

	out, err := json.Marshal(normalizedBody{
		Object: "list",
		Data:   []normalizedItem{{Object: "embedding", Index: 0, Embedding: vec}},
		Model:  in.Model,
		Usage:  in.Usage,
	})
	if err != nil {
		return nil, false
	}
	return out, true
}
