// Package repository persists the timeline rule list as the singleton record
// in the host object store, deciding create vs. update on every save.
package repository

import (
	"context"
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-delivery-timelines/core"
)

const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionNothingToDelete = "nothing_to_delete"
)

const singletonQuery = `
query TimelineRecord($type: String!, $first: Int!) {
  metaobjects(type: $type, first: $first) {
    edges {
      node {
        id
        fields {
          key
          value
        }
      }
    }
  }
}`

const recordCreateMutation = `
mutation TimelineRecordCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

const recordUpdateMutation = `
mutation TimelineRecordUpdate($id: ID!, $metaobject: MetaobjectUpdateInput!) {
  metaobjectUpdate(id: $id, metaobject: $metaobject) {
    metaobject {
      id
    }
    userErrors {
      field
      message
    }
  }
}`

const recordDeleteMutation = `
mutation TimelineRecordDelete($id: ID!) {
  metaobjectDelete(id: $id) {
    deletedId
    userErrors {
      field
      message
    }
  }
}`

type recordPageData struct {
	Metaobjects struct {
		Edges []struct {
			Node recordNode `json:"node"`
		} `json:"edges"`
	} `json:"metaobjects"`
}

type recordNode struct {
	ID     string        `json:"id"`
	Fields []recordField `json:"fields"`
}

type recordField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type recordCreateData struct {
	MetaobjectCreate mutationPayload `json:"metaobjectCreate"`
}

type recordUpdateData struct {
	MetaobjectUpdate mutationPayload `json:"metaobjectUpdate"`
}

type mutationPayload struct {
	Metaobject *struct {
		ID string `json:"id"`
	} `json:"metaobject"`
	UserErrors []core.UserError `json:"userErrors"`
}

type recordDeleteData struct {
	MetaobjectDelete struct {
		DeletedID  string           `json:"deletedId"`
		UserErrors []core.UserError `json:"userErrors"`
	} `json:"metaobjectDelete"`
}

type SaveResult struct {
	Action string
	ID     string
}

type DeleteResult struct {
	Action    string
	DeletedID string
}

type Config struct {
	RecordType        string
	FieldKey          string
	SingletonPageSize int
}

type Repository struct {
	config Config
	store  core.StoreClient
	logger core.Logger
}

func New(store core.StoreClient, cfg Config, logger core.Logger) *Repository {
	if strings.TrimSpace(cfg.RecordType) == "" {
		cfg.RecordType = core.RecordType
	}
	if strings.TrimSpace(cfg.FieldKey) == "" {
		cfg.FieldKey = core.FieldKey
	}
	if cfg.SingletonPageSize <= 0 {
		cfg.SingletonPageSize = core.SingletonPageSize
	}
	return &Repository{
		config: cfg,
		store:  store,
		logger: glog.Ensure(logger),
	}
}

// Load returns the persisted rule list, or nil when nothing was ever saved.
// A nil result also covers a record whose timelines field is absent or
// empty. Store-call failures propagate as errors, never as "not found".
func (r *Repository) Load(ctx context.Context) ([]core.Rule, error) {
	if r == nil || r.store == nil {
		return nil, core.TimelineError(
			"repository: store client is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	record, err := r.findSingleton(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	value := r.fieldValue(record)
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	rules, err := core.DecodeRules([]byte(value))
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: parse stored rules",
			map[string]any{"record_id": record.ID},
		)
	}
	return rules, nil
}

// Save writes the whole rule list to the singleton record, creating it on
// first save and updating it afterwards. The query-then-write sequence is
// not atomic against a concurrent writer; accepted for a singleton record
// with low write frequency.
func (r *Repository) Save(ctx context.Context, rules []core.Rule) (SaveResult, error) {
	if r == nil || r.store == nil {
		return SaveResult{}, core.TimelineError(
			"repository: store client is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	encoded, err := core.EncodeRules(rules)
	if err != nil {
		return SaveResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryBadInput,
			"repository: encode rules",
			map[string]any{"rule_count": len(rules)},
		)
	}
	fields := []map[string]any{
		{"key": r.config.FieldKey, "value": string(encoded)},
	}

	record, err := r.findSingleton(ctx)
	if err != nil {
		return SaveResult{}, err
	}

	if record != nil {
		data, err := r.store.Execute(ctx, recordUpdateMutation, map[string]any{
			"id":         record.ID,
			"metaobject": map[string]any{"fields": fields},
		})
		if err != nil {
			return SaveResult{}, core.TimelineWrapError(
				err,
				goerrors.CategoryExternal,
				"repository: update record",
				map[string]any{"record_id": record.ID},
			)
		}
		var updated recordUpdateData
		if err := json.Unmarshal(data, &updated); err != nil {
			return SaveResult{}, core.TimelineWrapError(
				err,
				goerrors.CategoryExternal,
				"repository: decode update response",
				map[string]any{"record_id": record.ID},
			)
		}
		if len(updated.MetaobjectUpdate.UserErrors) > 0 {
			return SaveResult{}, &MutationError{
				Op:         "update",
				UserErrors: updated.MetaobjectUpdate.UserErrors,
			}
		}
		id := record.ID
		if updated.MetaobjectUpdate.Metaobject != nil {
			id = updated.MetaobjectUpdate.Metaobject.ID
		}
		r.logger.Debug("timeline record updated", "record_id", id, "rule_count", len(rules))
		return SaveResult{Action: ActionUpdated, ID: id}, nil
	}

	data, err := r.store.Execute(ctx, recordCreateMutation, map[string]any{
		"metaobject": map[string]any{
			"type":   r.config.RecordType,
			"fields": fields,
		},
	})
	if err != nil {
		return SaveResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: create record",
			map[string]any{"record_type": r.config.RecordType},
		)
	}
	var created recordCreateData
	if err := json.Unmarshal(data, &created); err != nil {
		return SaveResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: decode create response",
			map[string]any{"record_type": r.config.RecordType},
		)
	}
	if len(created.MetaobjectCreate.UserErrors) > 0 {
		return SaveResult{}, &MutationError{
			Op:         "create",
			UserErrors: created.MetaobjectCreate.UserErrors,
		}
	}
	if created.MetaobjectCreate.Metaobject == nil {
		return SaveResult{}, core.TimelineError(
			"repository: create returned no record",
			goerrors.CategoryExternal,
			map[string]any{"record_type": r.config.RecordType},
		)
	}
	id := created.MetaobjectCreate.Metaobject.ID
	r.logger.Debug("timeline record created", "record_id", id, "rule_count", len(rules))
	return SaveResult{Action: ActionCreated, ID: id}, nil
}

// Delete removes the singleton record when present.
func (r *Repository) Delete(ctx context.Context) (DeleteResult, error) {
	if r == nil || r.store == nil {
		return DeleteResult{}, core.TimelineError(
			"repository: store client is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	record, err := r.findSingleton(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	if record == nil {
		return DeleteResult{Action: ActionNothingToDelete}, nil
	}
	data, err := r.store.Execute(ctx, recordDeleteMutation, map[string]any{"id": record.ID})
	if err != nil {
		return DeleteResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: delete record",
			map[string]any{"record_id": record.ID},
		)
	}
	var deleted recordDeleteData
	if err := json.Unmarshal(data, &deleted); err != nil {
		return DeleteResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: decode delete response",
			map[string]any{"record_id": record.ID},
		)
	}
	if len(deleted.MetaobjectDelete.UserErrors) > 0 {
		return DeleteResult{}, &MutationError{
			Op:         "delete",
			UserErrors: deleted.MetaobjectDelete.UserErrors,
		}
	}
	id := deleted.MetaobjectDelete.DeletedID
	if strings.TrimSpace(id) == "" {
		id = record.ID
	}
	r.logger.Debug("timeline record deleted", "record_id", id)
	return DeleteResult{Action: ActionDeleted, DeletedID: id}, nil
}

// findSingleton returns the first record of the configured type, or nil when
// none exists. Any duplicates beyond the first are tolerated and ignored.
func (r *Repository) findSingleton(ctx context.Context) (*recordNode, error) {
	data, err := r.store.Execute(ctx, singletonQuery, map[string]any{
		"type":  r.config.RecordType,
		"first": r.config.SingletonPageSize,
	})
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: query singleton record",
			map[string]any{"record_type": r.config.RecordType},
		)
	}
	var page recordPageData
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"repository: decode singleton page",
			map[string]any{"record_type": r.config.RecordType},
		)
	}
	if len(page.Metaobjects.Edges) == 0 {
		return nil, nil
	}
	node := page.Metaobjects.Edges[0].Node
	return &node, nil
}

func (r *Repository) fieldValue(record *recordNode) string {
	for _, field := range record.Fields {
		if field.Key == r.config.FieldKey {
			return field.Value
		}
	}
	return ""
}
