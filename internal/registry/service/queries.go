package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"skillchain/internal/registry/models"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/sentinel"
)

// Queries have no access control and never write.

// GetIssuerInfo returns the issuer record; addresses never provisioned read
// as an empty, unverified issuer.
func (s *Service) GetIssuerInfo(ctx context.Context, addr models.Address) (models.Issuer, error) {
	issuer, err := loadIssuer(ctx, s.store, addr)
	if err != nil {
		return models.Issuer{}, translate(err, "failed to load issuer")
	}
	return issuer, nil
}

func (s *Service) IsVerifiedIssuer(ctx context.Context, addr models.Address) (bool, error) {
	issuer, err := s.GetIssuerInfo(ctx, addr)
	if err != nil {
		return false, err
	}
	return issuer.Verified, nil
}

func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	root, err := s.store.Root(ctx)
	if err != nil {
		return 0, translate(err, "failed to load registry")
	}
	return root.TotalSupply, nil
}

// GetOwner returns the administrator, or the zero address before
// initialization.
func (s *Service) GetOwner(ctx context.Context) (models.Address, error) {
	root, err := s.store.Root(ctx)
	if err != nil {
		return models.ZeroAddress, translate(err, "failed to load registry")
	}
	return root.Administrator, nil
}

func (s *Service) BalanceOf(ctx context.Context, owner models.Address) (uint64, error) {
	balance, err := s.store.BalanceOf(ctx, owner)
	if err != nil {
		return 0, translate(err, "failed to load balance")
	}
	return balance, nil
}

// OwnerOf returns the holder of id, or the zero address if id was never
// issued.
func (s *Service) OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error) {
	owner, err := s.store.OwnerOf(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.ZeroAddress, nil
		}
		return models.ZeroAddress, translate(err, "failed to load owner")
	}
	return owner, nil
}

// GetCertificate returns the certificate with the given id. Certificates are
// immutable, so a cached copy is always current.
func (s *Service) GetCertificate(ctx context.Context, id models.TokenID) (cert *models.Certificate, err error) {
	ctx, done := s.observe(ctx, opGetCertificate, attribute.Int64("token_id", int64(id)))
	defer func() { done(err) }()

	ledger := ""
	if s.cache != nil {
		ledger = s.ledger(ctx)
	}
	if ledger != "" {
		cached, ok := s.cache.Get(ctx, ledger, id)
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(ok)
		}
		if ok {
			return cached, nil
		}
	}

	// The shared load outlives any one caller; each caller still honours its
	// own deadline.
	load := s.certLoads.DoChan(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		return s.store.FindCertificate(context.WithoutCancel(ctx), id)
	})
	var res singleflight.Result
	select {
	case res = <-load:
	case <-ctx.Done():
		return nil, translate(ctx.Err(), "failed to load certificate")
	}
	if res.Err != nil {
		if errors.Is(res.Err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeCertificateNotFound, "Certificate does not exist")
		}
		return nil, translate(res.Err, "failed to load certificate")
	}
	found := *res.Val.(*models.Certificate)
	if ledger != "" {
		s.cache.Put(ctx, ledger, found)
	}
	return &found, nil
}

// GetCertificatesByOwner returns a copy of the ids held by owner in issuance
// order. Owners with no certificates get an empty slice.
func (s *Service) GetCertificatesByOwner(ctx context.Context, owner models.Address) ([]models.TokenID, error) {
	ids, err := s.store.TokensOf(ctx, owner)
	if err != nil {
		return nil, translate(err, "failed to load owned certificates")
	}
	out := make([]models.TokenID, len(ids))
	copy(out, ids)
	return out, nil
}

// ListCertificatesByOwner returns the full records held by owner in issuance
// order.
func (s *Service) ListCertificatesByOwner(ctx context.Context, owner models.Address) (certs []models.Certificate, err error) {
	ctx, done := s.observe(ctx, opListByOwner, attribute.String("owner", owner.Hex()))
	defer func() { done(err) }()

	ids, err := s.store.TokensOf(ctx, owner)
	if err != nil {
		return nil, translate(err, "failed to load owned certificates")
	}
	if len(ids) == 0 {
		return []models.Certificate{}, nil
	}
	certs, err = s.store.FindCertificates(ctx, ids)
	if err != nil {
		return nil, translate(err, "failed to load certificates")
	}
	return certs, nil
}
