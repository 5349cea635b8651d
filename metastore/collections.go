package metastore

import (
	"context"
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery-timelines/core"
)

const collectionTitlesQuery = `
query CollectionTitles($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Collection {
      id
      title
    }
  }
}`

type collectionTitlesData struct {
	Nodes []collectionNode `json:"nodes"`
}

type collectionNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CollectionResolver resolves collection ids to display titles with one
// batch lookup against the store.
type CollectionResolver struct {
	Store core.StoreClient
}

func NewCollectionResolver(store core.StoreClient) *CollectionResolver {
	return &CollectionResolver{Store: store}
}

// ResolveTitles returns a title per id. Ids the store no longer knows are
// simply absent from the result; callers decide on fallbacks.
func (r *CollectionResolver) ResolveTitles(ctx context.Context, ids []string) (map[string]string, error) {
	if r == nil || r.Store == nil {
		return nil, core.TimelineError(
			"metastore: collection resolver is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	data, err := r.Store.Execute(ctx, collectionTitlesQuery, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	var parsed collectionTitlesData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"metastore: decode collection titles",
			map[string]any{"id_count": len(ids)},
		)
	}
	titles := make(map[string]string, len(parsed.Nodes))
	for _, node := range parsed.Nodes {
		id := strings.TrimSpace(node.ID)
		if id == "" {
			continue
		}
		titles[id] = node.Title
	}
	return titles, nil
}
