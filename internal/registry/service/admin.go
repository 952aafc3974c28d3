package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"skillchain/internal/registry/models"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/audit"
	"skillchain/pkg/platform/sentinel"
	"skillchain/pkg/requestcontext"
)

// Initialize sets the administrator exactly once.
func (s *Service) Initialize(ctx context.Context, administrator models.Address) (err error) {
	ctx, done := s.observe(ctx, opInitialize, attribute.String("administrator", administrator.Hex()))
	defer func() { done(err) }()

	if administrator == models.ZeroAddress {
		return dErrors.New(dErrors.CodeInvalidInput, "administrator must not be the zero address")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}
		if root.Initialized() {
			return dErrors.New(dErrors.CodeAlreadyInitialized, "Already initialized")
		}
		root = models.NewRegistry(administrator)
		root.Ledger = uuid.NewString()
		return st.SaveRoot(ctx, root)
	})
	if err != nil {
		return translate(err, "failed to initialize registry")
	}

	s.logAudit(ctx, audit.EventRegistryInitialized, administrator, nil, "")
	return nil
}

// AddVerifiedIssuer provisions addr as a verified issuer. An existing record
// is replaced, resetting its counters.
func (s *Service) AddVerifiedIssuer(ctx context.Context, addr models.Address, name string) (err error) {
	ctx, done := s.observe(ctx, opAddIssuer, attribute.String("issuer", addr.Hex()))
	defer func() { done(err) }()

	caller := requestcontext.Caller(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}
		if err := requireAdministrator(root, caller); err != nil {
			return err
		}
		return st.SaveIssuer(ctx, models.NewVerifiedIssuer(addr, name))
	})
	if err != nil {
		return translate(err, "failed to add issuer")
	}

	s.logAudit(ctx, audit.EventIssuerAdded, addr, nil, name, "issuer_name", name)
	return nil
}

// RemoveIssuer clears the verified flag and keeps every other field.
func (s *Service) RemoveIssuer(ctx context.Context, addr models.Address) (err error) {
	ctx, done := s.observe(ctx, opRemoveIssuer, attribute.String("issuer", addr.Hex()))
	defer func() { done(err) }()

	caller := requestcontext.Caller(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}
		if err := requireAdministrator(root, caller); err != nil {
			return err
		}
		issuer, err := loadIssuer(ctx, st, addr)
		if err != nil {
			return err
		}
		issuer.Verified = false
		return st.SaveIssuer(ctx, issuer)
	})
	if err != nil {
		return translate(err, "failed to remove issuer")
	}

	s.logAudit(ctx, audit.EventIssuerRemoved, addr, nil, "")
	return nil
}

// UpdateIssuerReputation overwrites the reputation score of addr.
func (s *Service) UpdateIssuerReputation(ctx context.Context, addr models.Address, score uint64) (err error) {
	ctx, done := s.observe(ctx, opUpdateReputation,
		attribute.String("issuer", addr.Hex()),
		attribute.String("score", strconv.FormatUint(score, 10)),
	)
	defer func() { done(err) }()

	caller := requestcontext.Caller(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}
		if err := requireAdministrator(root, caller); err != nil {
			return err
		}
		if score > models.MaxReputation {
			return dErrors.New(dErrors.CodeInvalidScore, "Score must be 0-100")
		}
		issuer, err := loadIssuer(ctx, st, addr)
		if err != nil {
			return err
		}
		issuer.Reputation = score
		return st.SaveIssuer(ctx, issuer)
	})
	if err != nil {
		return translate(err, "failed to update issuer reputation")
	}

	s.logAudit(ctx, audit.EventIssuerReputationUpdated, addr, nil, strconv.FormatUint(score, 10), "score", score)
	return nil
}

// loadIssuer returns the stored record, or an empty unverified one for an
// address that was never provisioned.
func loadIssuer(ctx context.Context, st Store, addr models.Address) (models.Issuer, error) {
	issuer, err := st.FindIssuer(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Issuer{Address: addr}, nil
		}
		return models.Issuer{}, err
	}
	return *issuer, nil
}
