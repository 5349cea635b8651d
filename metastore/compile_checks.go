package metastore

import (
	"github.com/goliatone/go-delivery-timelines/core"
	"github.com/goliatone/go-delivery-timelines/enrich"
)

var (
	_ core.StoreClient          = (*Client)(nil)
	_ enrich.CollectionResolver = (*CollectionResolver)(nil)
)
