package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"skillchain/internal/registry/models"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/audit"
	"skillchain/pkg/requestcontext"
)

// IssueRequest carries the fields shared by every certificate in one call.
type IssueRequest struct {
	SkillName   string
	Level       models.Level
	MetadataURI string
}

func (r IssueRequest) validate() error {
	if !r.Level.Valid() {
		return dErrors.New(dErrors.CodeInvalidLevel, "Level must be 1-4")
	}
	return nil
}

// IssueCertificate issues one certificate from the calling verified issuer to
// recipient and returns its token id.
func (s *Service) IssueCertificate(ctx context.Context, recipient models.Address, req IssueRequest) (id models.TokenID, err error) {
	ctx, done := s.observe(ctx, opIssue,
		attribute.String("recipient", recipient.Hex()),
		attribute.String("skill", req.SkillName),
	)
	defer func() { done(err) }()

	certs, err := s.issue(ctx, []models.Address{recipient}, req)
	if err != nil {
		return 0, translate(err, "failed to issue certificate")
	}
	cert := certs[0]

	s.afterIssue(ctx, certs, false)
	s.logAudit(ctx, audit.EventCertificateIssued, recipient, []models.TokenID{cert.TokenID}, req.SkillName,
		"token_id", uint64(cert.TokenID),
		"level", cert.Level.String(),
	)
	return cert.TokenID, nil
}

// BatchIssueCertificates issues one certificate per recipient, in order, with
// the same skill, level and metadata. Either every certificate is issued or
// none is.
func (s *Service) BatchIssueCertificates(ctx context.Context, recipients []models.Address, req IssueRequest) (ids []models.TokenID, err error) {
	ctx, done := s.observe(ctx, opBatchIssue,
		attribute.Int("recipients", len(recipients)),
		attribute.String("skill", req.SkillName),
	)
	defer func() { done(err) }()

	certs, err := s.issue(ctx, recipients, req)
	if err != nil {
		return nil, translate(err, "failed to issue certificates")
	}

	ids = make([]models.TokenID, 0, len(certs))
	for _, cert := range certs {
		ids = append(ids, cert.TokenID)
	}
	if len(certs) == 0 {
		return ids, nil
	}

	s.afterIssue(ctx, certs, true)
	s.logAudit(ctx, audit.EventCertificatesBatchIssued, requestcontext.Caller(ctx), ids, req.SkillName,
		"count", len(ids),
		"level", req.Level.String(),
	)
	return ids, nil
}

// issue resolves the caller once and then runs the single-certificate step
// per recipient inside one transaction.
func (s *Service) issue(ctx context.Context, recipients []models.Address, req IssueRequest) ([]models.Certificate, error) {
	caller := requestcontext.Caller(ctx)
	issuedAt := requestcontext.UnixNow(ctx)

	var certs []models.Certificate
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		issuer, err := requireVerifiedIssuer(ctx, st, caller)
		if err != nil {
			return err
		}
		if err := req.validate(); err != nil {
			return err
		}
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}

		certs = make([]models.Certificate, 0, len(recipients))
		for _, recipient := range recipients {
			cert, err := issueOne(ctx, st, &root, issuer, recipient, req, issuedAt)
			if err != nil {
				return err
			}
			certs = append(certs, cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// issueOne writes the certificate, then the ownership index, then the
// issuer's count, then the root counters. All arithmetic is checked before
// the first write.
func issueOne(ctx context.Context, st Store, root *models.Registry, issuer *models.Issuer, recipient models.Address, req IssueRequest, issuedAt uint64) (models.Certificate, error) {
	if recipient == models.ZeroAddress {
		return models.Certificate{}, dErrors.New(dErrors.CodeInvalidInput, "recipient must not be the zero address")
	}

	id := root.NextTokenID
	next, err := increment(uint64(id), "token id")
	if err != nil {
		return models.Certificate{}, err
	}
	supply, err := increment(root.TotalSupply, "total supply")
	if err != nil {
		return models.Certificate{}, err
	}
	issued, err := increment(issuer.CertificatesIssued, "issuer certificate count")
	if err != nil {
		return models.Certificate{}, err
	}
	balance, err := st.BalanceOf(ctx, recipient)
	if err != nil {
		return models.Certificate{}, err
	}
	balance, err = increment(balance, "balance")
	if err != nil {
		return models.Certificate{}, err
	}

	cert := models.Certificate{
		TokenID:     id,
		SkillName:   req.SkillName,
		Level:       req.Level,
		Issuer:      issuer.Address,
		Recipient:   recipient,
		IssuedAt:    issuedAt,
		MetadataURI: req.MetadataURI,
	}
	if err := st.CreateCertificate(ctx, cert); err != nil {
		return models.Certificate{}, err
	}
	if err := st.AssignToken(ctx, recipient, id, balance); err != nil {
		return models.Certificate{}, err
	}

	issuer.CertificatesIssued = issued
	if err := st.SaveIssuer(ctx, *issuer); err != nil {
		return models.Certificate{}, err
	}

	root.NextTokenID = models.TokenID(next)
	root.TotalSupply = supply
	if err := st.SaveRoot(ctx, *root); err != nil {
		return models.Certificate{}, err
	}
	return cert, nil
}

func (s *Service) afterIssue(ctx context.Context, certs []models.Certificate, batch bool) {
	if s.cache != nil {
		s.cache.Put(ctx, s.ledger(ctx), certs...)
	}
	if s.metrics != nil {
		s.metrics.RecordIssued(len(certs), batch)
	}
}
