package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blugelabs/bluge"

	"neighborhub/internal/models"
)

const (
	fieldNeighborhood = "neighborhood"
	fieldTitle        = "title"
	fieldContent      = "content"
	fieldTag          = "tag"
	fieldCategory     = "category"
)

// ForumIndex is an in-memory full text index over forum posts. The store
// stays the source of truth; the index only resolves search text to post ids.
type ForumIndex struct {
	writer *bluge.Writer
}

// NewForumIndex opens an empty in-memory index.
func NewForumIndex() (*ForumIndex, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open forum index: %w", err)
	}
	return &ForumIndex{writer: writer}, nil
}

func postDocument(post models.ForumPost) *bluge.Document {
	doc := bluge.NewDocument(post.ID).
		AddField(bluge.NewKeywordField(fieldNeighborhood, post.NeighborhoodID)).
		AddField(bluge.NewKeywordField(fieldCategory, post.Category)).
		AddField(bluge.NewTextField(fieldTitle, post.Title)).
		AddField(bluge.NewTextField(fieldContent, post.Content))
	for _, tag := range post.Tags {
		doc.AddField(bluge.NewKeywordField(fieldTag, strings.ToLower(tag)))
	}
	return doc
}

// Index adds or replaces post.
func (i *ForumIndex) Index(post models.ForumPost) error {
	doc := postDocument(post)
	return i.writer.Update(doc.ID(), doc)
}

// Remove drops the post with id. Unknown ids are ignored.
func (i *ForumIndex) Remove(id string) error {
	return i.writer.Delete(bluge.Identifier(id))
}

// Rebuild indexes posts in one batch.
func (i *ForumIndex) Rebuild(posts []models.ForumPost) error {
	batch := bluge.NewBatch()
	for _, post := range posts {
		doc := postDocument(post)
		batch.Update(doc.ID(), doc)
	}
	return i.writer.Batch(batch)
}

// Search returns ids of posts in neighborhoodID whose title, content or tags
// match text, best match first.
func (i *ForumIndex) Search(ctx context.Context, neighborhoodID, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	matches := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(text).SetField(fieldTitle).SetBoost(2)).
		AddShould(bluge.NewMatchQuery(text).SetField(fieldContent)).
		AddShould(bluge.NewTermQuery(strings.ToLower(text)).SetField(fieldTag)).
		SetMinShould(1)
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(neighborhoodID).SetField(fieldNeighborhood)).
		AddMust(matches)

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open forum index reader: %w", err)
	}
	defer reader.Close()

	dmi, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search forum index: %w", err)
	}

	var ids []string
	match, err := dmi.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate forum matches: %w", err)
	}
	return ids, nil
}

// Close releases the index.
func (i *ForumIndex) Close() error {
	return i.writer.Close()
}
