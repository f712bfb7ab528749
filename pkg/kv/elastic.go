package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticStore 把每个 key 存为索引中 _id=key 的文档 {"value": ...}。
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticStore(client *elasticsearch.Client, index string) *ElasticStore {
	return &ElasticStore{client: client, index: index}
}

type kvDocument struct {
	Value string `json:"value"`
}

func (s *ElasticStore) Get(ctx context.Context, key string) (string, bool, error) {
	req := esapi.GetRequest{Index: s.index, DocumentID: key}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return "", false, fmt.Errorf("failed to get document for key %q: %w", key, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", false, fmt.Errorf("elasticsearch get for key %q returned %s: %s", key, res.Status(), string(body))
	}

	var hit struct {
		Found  bool       `json:"found"`
		Source kvDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return "", false, fmt.Errorf("failed to decode document for key %q: %w", key, err)
	}
	if !hit.Found {
		return "", false, nil
	}
	return hit.Source.Value, true, nil
}

func (s *ElasticStore) Set(ctx context.Context, key, value string) error {
	docBytes, err := json.Marshal(kvDocument{Value: value})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: key,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("failed to index document for key %q: %w", key, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("elasticsearch index for key %q returned %s: %s", key, res.Status(), string(body))
	}
	return nil
}
