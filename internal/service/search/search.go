package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/inkpress/blog_platform/internal/models"
)

// Index maintains and queries the post search index.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func (i *Index) IndexPost(ctx context.Context, post models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("search: marshal post: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.Name,
		DocumentID: strconv.FormatUint(uint64(post.ID), 10),
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.ES)
	if err != nil {
		return fmt.Errorf("search: index post: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index post: %s", res.Status())
	}
	return nil
}

func (i *Index) DeletePost(ctx context.Context, id uint) error {
	req := esapi.DeleteRequest{
		Index:      i.Name,
		DocumentID: strconv.FormatUint(uint64(id), 10),
	}
	res, err := req.Do(ctx, i.ES)
	if err != nil {
		return fmt.Errorf("search: delete post: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete post: %s", res.Status())
	}
	return nil
}

func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Post, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "caption^2", "content", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Post `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	posts := make([]models.Post, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		posts[n] = hit.Source
	}
	return r.Hits.Total.Value, posts, nil
}
