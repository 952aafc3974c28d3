// Package ports defines the interfaces the registry service depends on.
// Stores, caches and audit sinks implement them; the service never sees a
// concrete backend.
package ports

import (
	"context"

	"skillchain/internal/registry/models"
	"skillchain/pkg/platform/audit"
)

// Store is the registry's persistent key-value substrate. Reads return
// sentinel.ErrNotFound for absent entities unless noted otherwise.
type Store interface {
	// Root returns the registry root. An uninitialised registry returns the
	// zero Registry, not an error.
	Root(ctx context.Context) (models.Registry, error)
	SaveRoot(ctx context.Context, root models.Registry) error

	FindIssuer(ctx context.Context, addr models.Address) (*models.Issuer, error)
	SaveIssuer(ctx context.Context, issuer models.Issuer) error

	FindCertificate(ctx context.Context, id models.TokenID) (*models.Certificate, error)
	// FindCertificates returns certificates in the order of ids.
	FindCertificates(ctx context.Context, ids []models.TokenID) ([]models.Certificate, error)
	// CreateCertificate returns sentinel.ErrConflict if the id is taken.
	CreateCertificate(ctx context.Context, cert models.Certificate) error

	OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error)
	// BalanceOf returns 0 for addresses that never held a certificate.
	BalanceOf(ctx context.Context, owner models.Address) (uint64, error)
	// TokensOf returns owned ids in issuance order; never nil.
	TokensOf(ctx context.Context, owner models.Address) ([]models.TokenID, error)
	// AssignToken records owner as the holder of id, appends id to the
	// owner's list and stores the owner's new balance.
	AssignToken(ctx context.Context, owner models.Address, id models.TokenID, balance uint64) error
}

// StoreTx runs fn atomically against a transactional view of the store.
// Writes made through st become visible only if fn returns nil.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, st Store) error) error
}

// CertificateCache holds immutable certificate records. Entries are scoped
// to a ledger so registries sharing one cache never see each other's ids.
type CertificateCache interface {
	Get(ctx context.Context, ledger string, id models.TokenID) (*models.Certificate, bool)
	Put(ctx context.Context, ledger string, certs ...models.Certificate)
}

// AuditPublisher emits audit events for registry mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
