// Package schema provisions the timeline record definition in the host
// object store. Provisioning is idempotent: it runs ahead of every
// persistence operation and only issues a create when the definition is
// missing.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery-timelines/core"
)

const definitionListQuery = `
query TimelineDefinitions($first: Int!) {
  metaobjectDefinitions(first: $first) {
    edges {
      node {
        id
        type
      }
    }
  }
}`

const definitionCreateMutation = `
mutation TimelineDefinitionCreate($definition: MetaobjectDefinitionCreateInput!) {
  metaobjectDefinitionCreate(definition: $definition) {
    metaobjectDefinition {
      id
      type
    }
    userErrors {
      field
      message
    }
  }
}`

type definitionListData struct {
	MetaobjectDefinitions struct {
		Edges []struct {
			Node struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"metaobjectDefinitions"`
}

type definitionCreateData struct {
	MetaobjectDefinitionCreate struct {
		MetaobjectDefinition *struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"metaobjectDefinition"`
		UserErrors []core.UserError `json:"userErrors"`
	} `json:"metaobjectDefinitionCreate"`
}

type Config struct {
	RecordType         string
	FieldKey           string
	DefinitionPageSize int
}

type Provisioner struct {
	config Config
	store  core.StoreClient
}

func NewProvisioner(store core.StoreClient, cfg Config) *Provisioner {
	if strings.TrimSpace(cfg.RecordType) == "" {
		cfg.RecordType = core.RecordType
	}
	if strings.TrimSpace(cfg.FieldKey) == "" {
		cfg.FieldKey = core.FieldKey
	}
	if cfg.DefinitionPageSize <= 0 {
		cfg.DefinitionPageSize = core.DefinitionPageSize
	}
	return &Provisioner{config: cfg, store: store}
}

// Ensure creates the record definition unless one with the target type
// already exists. Repeat calls against a provisioned store are no-ops.
// Creation user errors are fatal: they signal a naming collision or a
// malformed definition that a retry will not fix.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if p == nil || p.store == nil {
		return core.TimelineError(
			"schema: provisioner is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}

	data, err := p.store.Execute(ctx, definitionListQuery, map[string]any{
		"first": p.config.DefinitionPageSize,
	})
	if err != nil {
		return core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"schema: list record definitions",
			map[string]any{"record_type": p.config.RecordType},
		)
	}
	var listed definitionListData
	if err := json.Unmarshal(data, &listed); err != nil {
		return core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"schema: decode record definitions",
			map[string]any{"record_type": p.config.RecordType},
		)
	}
	for _, edge := range listed.MetaobjectDefinitions.Edges {
		if edge.Node.Type == p.config.RecordType {
			return nil
		}
	}

	data, err = p.store.Execute(ctx, definitionCreateMutation, map[string]any{
		"definition": map[string]any{
			"name": core.DefinitionName,
			"type": p.config.RecordType,
			"fieldDefinitions": []map[string]any{
				{
					"key":      p.config.FieldKey,
					"name":     core.FieldName,
					"type":     core.FieldType,
					"required": true,
				},
			},
		},
	})
	if err != nil {
		return core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"schema: create record definition",
			map[string]any{"record_type": p.config.RecordType},
		)
	}
	var created definitionCreateData
	if err := json.Unmarshal(data, &created); err != nil {
		return core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"schema: decode definition create response",
			map[string]any{"record_type": p.config.RecordType},
		)
	}
	if len(created.MetaobjectDefinitionCreate.UserErrors) > 0 {
		return &ProvisionError{
			RecordType: p.config.RecordType,
			UserErrors: created.MetaobjectDefinitionCreate.UserErrors,
		}
	}
	if created.MetaobjectDefinitionCreate.MetaobjectDefinition == nil {
		return core.TimelineError(
			fmt.Sprintf("schema: definition create returned no definition for %q", p.config.RecordType),
			goerrors.CategoryExternal,
			map[string]any{"record_type": p.config.RecordType},
		)
	}
	return nil
}
