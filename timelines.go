// Package timelines assembles the delivery-timeline components behind one
// builder: config resolution (defaults, then loaded config, then runtime
// overrides), schema provisioning, the singleton repository, enrichment, the
// inbound boundary, and the form session controller.
package timelines

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-delivery-timelines/core"
	"github.com/goliatone/go-delivery-timelines/enrich"
	"github.com/goliatone/go-delivery-timelines/inbound"
	"github.com/goliatone/go-delivery-timelines/metastore"
	"github.com/goliatone/go-delivery-timelines/repository"
	"github.com/goliatone/go-delivery-timelines/schema"
	"github.com/goliatone/go-delivery-timelines/session"
)

type appBuilder struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	notifier        core.Notifier
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	resolver        enrich.CollectionResolver
}

type Option func(*appBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *appBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *appBuilder) {
		b.loggerProvider = provider
	}
}

func WithNotifier(notifier core.Notifier) Option {
	return func(b *appBuilder) {
		b.notifier = notifier
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *appBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *appBuilder) {
		b.optionsResolver = resolver
	}
}

func WithCollectionResolver(resolver enrich.CollectionResolver) Option {
	return func(b *appBuilder) {
		b.resolver = resolver
	}
}

// App holds the wired component graph for one store.
type App struct {
	config      core.Config
	provisioner *schema.Provisioner
	repo        *repository.Repository
	enricher    *enrich.Enricher
	handler     *inbound.Handler
	controller  *session.Controller
}

// New resolves the final configuration (defaults, then the config provider's
// values, then runtime overrides) and constructs every component from it.
func New(store core.StoreClient, runtime core.Config, opts ...Option) (*App, error) {
	if store == nil {
		return nil, fmt.Errorf("timelines: store client is required")
	}

	builder := appBuilder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	_, logger := glog.Resolve("timelines", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)

	if builder.notifier == nil {
		builder.notifier = core.NopNotifier{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.resolver == nil {
		builder.resolver = metastore.NewCollectionResolver(store)
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, fmt.Errorf("timelines: load config: %w", err)
	}
	resolved, err := builder.optionsResolver.Resolve(defaults, loaded, runtime)
	if err != nil {
		return nil, fmt.Errorf("timelines: resolve config: %w", err)
	}

	provisioner := schema.NewProvisioner(store, schema.Config{
		RecordType:         resolved.RecordType,
		FieldKey:           resolved.FieldKey,
		DefinitionPageSize: resolved.DefinitionPageSize,
	})
	repo := repository.New(store, repository.Config{
		RecordType:        resolved.RecordType,
		FieldKey:          resolved.FieldKey,
		SingletonPageSize: resolved.SingletonPageSize,
	}, logger)
	enricher := enrich.New(builder.resolver)
	handler := inbound.NewHandler(provisioner, repo, enricher, builder.notifier, logger)
	controller := session.NewController(handler, builder.notifier, resolved.MinDays)

	return &App{
		config:      resolved,
		provisioner: provisioner,
		repo:        repo,
		enricher:    enricher,
		handler:     handler,
		controller:  controller,
	}, nil
}

// Config returns the resolved configuration the components were built from.
func (a *App) Config() core.Config {
	if a == nil {
		return core.Config{}
	}
	return a.config
}

func (a *App) Provisioner() *schema.Provisioner {
	if a == nil {
		return nil
	}
	return a.provisioner
}

func (a *App) Repository() *repository.Repository {
	if a == nil {
		return nil
	}
	return a.repo
}

func (a *App) Enricher() *enrich.Enricher {
	if a == nil {
		return nil
	}
	return a.enricher
}

func (a *App) Handler() *inbound.Handler {
	if a == nil {
		return nil
	}
	return a.handler
}

func (a *App) Controller() *session.Controller {
	if a == nil {
		return nil
	}
	return a.controller
}
