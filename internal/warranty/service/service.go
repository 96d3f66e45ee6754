// Package service implements the warranty lifecycle: the serial registry,
// the claim ledger, and the registration, claim filing, and status update
// protocols that move a serial through its states.
//
// Every status write funnels through Registry.Transition, a compare-and-swap
// on (serial id, status). Protocols never read-then-write a status.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"warranty/internal/warranty/metrics"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	"warranty/pkg/platform/audit"
)

type SerialStore interface {
	Create(ctx context.Context, rec *models.SerialRecord) error
	FindByID(ctx context.Context, serialID id.SerialID) (*models.SerialRecord, error)
	FindBySerialNumber(ctx context.Context, code string) (*models.SerialRecord, error)
	Transition(ctx context.Context, serialID id.SerialID, from []models.Status, to models.Status, changes models.SerialChanges, now time.Time) (*models.SerialRecord, error)
	List(ctx context.Context, filter models.SerialFilter) ([]*models.SerialRecord, error)
	Delete(ctx context.Context, serialID id.SerialID, allowed []models.Status) error
}

type ClaimStore interface {
	Create(ctx context.Context, claim *models.ClaimRecord) error
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.ClaimRecord, error)
	ListAll(ctx context.Context) ([]*models.ClaimRecord, error)
	ListBySerialIDs(ctx context.Context, serialIDs []id.SerialID) ([]*models.ClaimRecord, error)
	DeleteBySerial(ctx context.Context, serialID id.SerialID) error
}

// ObjectStore uploads a blob and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, contentType, pathHint string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx runs fn inside a transactional boundary. Stores called with txCtx
// join the transaction when the backend supports one.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

const tracerName = "warranty/internal/warranty/service"

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tx             StoreTx
	tracer         trace.Tracer
	importWorkers  int
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTx sets the transactional boundary. Defaults to an in-memory boundary
// that serializes callers but cannot roll back.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = tracer
	}
}

// WithImportWorkers bounds concurrent row creation during bulk import.
func WithImportWorkers(n int) Option {
	return func(c *serviceConfig) {
		c.importWorkers = n
	}
}

func newConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tx == nil {
		cfg.tx = NewInMemoryStoreTx()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.importWorkers <= 0 {
		cfg.importWorkers = 8
	}
	return cfg
}
