package vecgate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/domain"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
	"github.com/kailas-cloud/vecgate/internal/repository"
	collectionuc "github.com/kailas-cloud/vecgate/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/vecgate/internal/usecase/document"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
)

// Internal interfaces, swapped for mocks in tests.
type collectionUseCase interface {
	Create(ctx context.Context, name string, metadata map[string]any, dim int) (domcol.Collection, error)
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Summary, error)
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
	Metadata(ctx context.Context, name string) (domcol.Descriptor, error)
}

type documentUseCase interface {
	Add(ctx context.Context, req documentuc.AddRequest) (int, error)
	Get(ctx context.Context, collection string, includeEmbeddings bool) (result.DocumentSet, error)
	Query(ctx context.Context, req documentuc.QueryRequest) (result.QueryResult, error)
	Delete(ctx context.Context, collection string, ids []string) error
	DeleteByMetadata(ctx context.Context, collection string, metadata map[string]any) (int, error)
	Count(ctx context.Context, collection string) (int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// storeHandle is the part of the store client the SDK owns directly.
type storeHandle interface {
	Ping(ctx context.Context) error
	Close() error
}

// Client is the vecgate SDK entry point. Safe for concurrent use.
type Client struct {
	store     storeHandle
	collSvc   collectionUseCase
	docSvc    documentUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New opens the configured backend and wires the services.
// Remote backends are pinged until ready; ctx bounds that wait.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	full := config.Config{Store: cfg.store}
	full.ApplyDefaults()
	if err := full.Validate(); err != nil {
		return nil, fmt.Errorf("vecgate: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, full.Store, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("vecgate: open store: %w", err)
	}
	return wireClient(store, full.Store, obs), nil
}

func wireClient(store *repository.Client, cfg config.StoreConfig, obs *observer) *Client {
	return &Client{
		store:   store,
		collSvc: collectionuc.New(store),
		docSvc: documentuc.New(store).WithQueryLimits(domain.QueryLimits{
			DefaultNResults: cfg.DefaultNResults,
			MaxNResults:     cfg.MaxNResults,
		}),
		healthSvc: healthuc.New(store),
		obs:       obs,
	}
}

// Close releases the backend.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("vecgate: close: %w", err)
	}
	return nil
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Collections returns the collection management service.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{svc: c.collSvc, obs: c.obs}
}

// Documents returns the document service for a given collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{
		collection: collection,
		svc:        c.docSvc,
		obs:        c.obs,
	}
}
