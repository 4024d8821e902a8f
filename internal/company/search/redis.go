package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix = "company:doc:"
	idSetKey     = "company:ids"
	versionKey   = "company:index:version"
	indexVersion = "1"
)

// RedisIndex stores one hash per document plus a membership set. Queries scan
// the set and substring-match projection fields; good enough for a directory
// of this size and it keeps the index a plain key-value concern.
type RedisIndex struct {
	client redis.Cmdable
}

func NewRedisIndex(client redis.Cmdable) *RedisIndex {
	return &RedisIndex{client: client}
}

// EnsureIndex stamps the index version if absent. Running it on every startup
// is safe; it never touches existing documents.
func (r *RedisIndex) EnsureIndex(ctx context.Context) error {
	if err := r.client.SetNX(ctx, versionKey, indexVersion, 0).Err(); err != nil {
		return fmt.Errorf("ensure company index: %w", err)
	}
	return nil
}

func (r *RedisIndex) Create(ctx context.Context, doc Document) error {
	if err := r.write(ctx, doc, true); err != nil {
		return fmt.Errorf("index create %s: %w", doc.ID, err)
	}
	return nil
}

// Update writes only the fields present in the document. An update for a
// document the index never saw materializes it, which narrows drift a little.
func (r *RedisIndex) Update(ctx context.Context, doc Document) error {
	if err := r.write(ctx, doc, false); err != nil {
		return fmt.Errorf("index update %s: %w", doc.ID, err)
	}
	return nil
}

func (r *RedisIndex) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, docKeyPrefix+id)
	pipe.SRem(ctx, idSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index delete %s: %w", id, err)
	}
	return nil
}

func (r *RedisIndex) Search(ctx context.Context, query string) ([]Document, error) {
	docs, err := r.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	q := strings.ToLower(query)
	var out []Document
	for _, doc := range docs {
		if matches(doc, q) {
			out = append(out, doc)
		}
	}
	sortByTitle(out)
	return out, nil
}

func (r *RedisIndex) List(ctx context.Context, page, size int) ([]Document, error) {
	docs, err := r.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	sortByTitle(docs)
	return paginate(docs, page, size), nil
}

func (r *RedisIndex) write(ctx context.Context, doc Document, full bool) error {
	fields := map[string]any{}
	if full || doc.Title != "" {
		fields["title"] = doc.Title
	}
	if full || doc.URL != "" {
		fields["url"] = doc.URL
	}
	if full || doc.Description != "" {
		fields["description"] = doc.Description
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, docKeyPrefix+doc.ID, fields)
	pipe.SAdd(ctx, idSetKey, doc.ID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisIndex) all(ctx context.Context) ([]Document, error) {
	ids, err := r.client.SMembers(ctx, idSetKey).Result()
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		fields, err := r.client.HGetAll(ctx, docKeyPrefix+id).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		docs = append(docs, Document{
			ID:          id,
			Title:       fields["title"],
			URL:         fields["url"],
			Description: fields["description"],
		})
	}
	return docs, nil
}
