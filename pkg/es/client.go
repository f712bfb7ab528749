// Package es 负责创建 Elasticsearch 客户端并准备 KV 索引。
package es

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"chatbot-go/internal/config"
	"chatbot-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// value 字段只存不索引，历史 blob 不参与搜索。
const kvMapping = `{
	"mappings": {
		"properties": {
			"value": { "type": "text", "index": false }
		}
	}
}`

// NewClient 创建 Elasticsearch 客户端，并在索引不存在时创建它。
func NewClient(ctx context.Context, esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := createIndexIfNotExists(ctx, client, esCfg.IndexName); err != nil {
		return nil, err
	}
	return client, nil
}

func createIndexIfNotExists(ctx context.Context, client *elasticsearch.Client, indexName string) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{indexName}}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
	}

	res, err = esapi.IndicesCreateRequest{Index: indexName, Body: strings.NewReader(kvMapping)}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
	}
	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}
