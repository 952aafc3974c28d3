package store_test

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"skillchain/internal/registry/models"
	"skillchain/internal/registry/ports"
	"skillchain/pkg/platform/sentinel"
)

type transactionalStore interface {
	ports.Store
	ports.StoreTx
}

var (
	holderA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	holderB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	issuerX = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

var errAbort = errors.New("abort")

// storeContractSuite holds the behaviour every registry store must share.
// Concrete suites set store in SetupTest.
type storeContractSuite struct {
	suite.Suite
	store transactionalStore
}

func certificate(id models.TokenID, recipient models.Address) models.Certificate {
	return models.Certificate{
		TokenID:     id,
		SkillName:   "Solidity",
		Level:       models.LevelIntermediate,
		Issuer:      issuerX,
		Recipient:   recipient,
		IssuedAt:    1_700_000_000,
		MetadataURI: "ipfs://cert",
	}
}

func (s *storeContractSuite) TestRootStartsEmpty() {
	root, err := s.store.Root(context.Background())
	s.Require().NoError(err)
	s.False(root.Initialized())
	s.Zero(root.TotalSupply)
}

func (s *storeContractSuite) TestRootRoundTripsFullRange() {
	ctx := context.Background()
	root := models.Registry{Administrator: holderA, Ledger: "ledger-1", NextTokenID: models.TokenID(^uint64(0)), TotalSupply: ^uint64(0) - 1}
	s.Require().NoError(s.store.SaveRoot(ctx, root))

	got, err := s.store.Root(ctx)
	s.Require().NoError(err)
	s.Equal(root, got)
}

func (s *storeContractSuite) TestIssuers() {
	ctx := context.Background()

	_, err := s.store.FindIssuer(ctx, issuerX)
	s.ErrorIs(err, sentinel.ErrNotFound)

	issuer := models.NewVerifiedIssuer(issuerX, "Ethereum Foundation")
	s.Require().NoError(s.store.SaveIssuer(ctx, issuer))

	got, err := s.store.FindIssuer(ctx, issuerX)
	s.Require().NoError(err)
	s.Equal(issuer, *got)

	issuer.Verified = false
	issuer.CertificatesIssued = 12
	s.Require().NoError(s.store.SaveIssuer(ctx, issuer))
	got, err = s.store.FindIssuer(ctx, issuerX)
	s.Require().NoError(err)
	s.Equal(issuer, *got)
}

func (s *storeContractSuite) TestCertificates() {
	ctx := context.Background()

	_, err := s.store.FindCertificate(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)

	cert := certificate(1, holderA)
	cert.SkillName = "  Go  é "
	s.Require().NoError(s.store.CreateCertificate(ctx, cert))
	s.Require().NoError(s.store.CreateCertificate(ctx, certificate(2, holderB)))

	got, err := s.store.FindCertificate(ctx, 1)
	s.Require().NoError(err)
	s.Equal(cert, *got, "text fields are stored verbatim")

	err = s.store.CreateCertificate(ctx, certificate(1, holderB))
	s.ErrorIs(err, sentinel.ErrConflict)

	list, err := s.store.FindCertificates(ctx, []models.TokenID{2, 1})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(models.TokenID(2), list[0].TokenID)
	s.Equal(models.TokenID(1), list[1].TokenID)

	_, err = s.store.FindCertificates(ctx, []models.TokenID{1, 9})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestOwnershipIndex() {
	ctx := context.Background()

	_, err := s.store.OwnerOf(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	balance, err := s.store.BalanceOf(ctx, holderA)
	s.Require().NoError(err)
	s.Zero(balance)
	ids, err := s.store.TokensOf(ctx, holderA)
	s.Require().NoError(err)
	s.NotNil(ids)
	s.Empty(ids)

	s.Require().NoError(s.store.AssignToken(ctx, holderA, 1, 1))
	s.Require().NoError(s.store.AssignToken(ctx, holderB, 2, 1))
	s.Require().NoError(s.store.AssignToken(ctx, holderA, 3, 2))

	owner, err := s.store.OwnerOf(ctx, 3)
	s.Require().NoError(err)
	s.Equal(holderA, owner)

	balance, err = s.store.BalanceOf(ctx, holderA)
	s.Require().NoError(err)
	s.Equal(uint64(2), balance)

	ids, err = s.store.TokensOf(ctx, holderA)
	s.Require().NoError(err)
	s.Equal([]models.TokenID{1, 3}, ids)

	err = s.store.AssignToken(ctx, holderB, 1, 2)
	s.ErrorIs(err, sentinel.ErrConflict)
	ids, err = s.store.TokensOf(ctx, holderB)
	s.Require().NoError(err)
	s.Equal([]models.TokenID{2}, ids)
}

func (s *storeContractSuite) TestRunInTxCommitsOnSuccess() {
	ctx := context.Background()

	err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		if err := st.SaveRoot(ctx, models.NewRegistry(holderA)); err != nil {
			return err
		}
		if err := st.CreateCertificate(ctx, certificate(1, holderB)); err != nil {
			return err
		}
		if err := st.AssignToken(ctx, holderB, 1, 1); err != nil {
			return err
		}

		// writes are visible inside the transaction
		ids, err := st.TokensOf(ctx, holderB)
		s.Require().NoError(err)
		s.Equal([]models.TokenID{1}, ids)
		balance, err := st.BalanceOf(ctx, holderB)
		s.Require().NoError(err)
		s.Equal(uint64(1), balance)
		return nil
	})
	s.Require().NoError(err)

	root, err := s.store.Root(ctx)
	s.Require().NoError(err)
	s.Equal(holderA, root.Administrator)
	owner, err := s.store.OwnerOf(ctx, 1)
	s.Require().NoError(err)
	s.Equal(holderB, owner)
}

func (s *storeContractSuite) TestRunInTxRollsBackOnError() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveRoot(ctx, models.NewRegistry(holderA)))

	err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		root, err := st.Root(ctx)
		if err != nil {
			return err
		}
		root.NextTokenID = 2
		root.TotalSupply = 1
		if err := st.SaveRoot(ctx, root); err != nil {
			return err
		}
		if err := st.SaveIssuer(ctx, models.NewVerifiedIssuer(issuerX, "Rolled Back")); err != nil {
			return err
		}
		if err := st.CreateCertificate(ctx, certificate(1, holderB)); err != nil {
			return err
		}
		if err := st.AssignToken(ctx, holderB, 1, 1); err != nil {
			return err
		}
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	root, err := s.store.Root(ctx)
	s.Require().NoError(err)
	s.Equal(models.NewRegistry(holderA), root)

	_, err = s.store.FindIssuer(ctx, issuerX)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindCertificate(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.OwnerOf(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)
	balance, err := s.store.BalanceOf(ctx, holderB)
	s.Require().NoError(err)
	s.Zero(balance)
	ids, err := s.store.TokensOf(ctx, holderB)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *storeContractSuite) TestRunInTxRejectsCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.store.RunInTx(ctx, func(context.Context, ports.Store) error {
		called = true
		return nil
	})
	s.Error(err)
	s.False(called)
}
