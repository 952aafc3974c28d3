//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"skillchain/internal/registry/models"
	"skillchain/internal/registry/ports"
	"skillchain/internal/registry/store"
	"skillchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	storeContractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.DB))
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"owned_tokens", "balances", "token_owners", "certificates", "issuers", "registry_root")
	s.Require().NoError(err)
	// Migrate restores the singleton root row.
	s.Require().NoError(store.Migrate(ctx, s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

// TestConcurrentIssuanceSerialises verifies that the root row lock keeps
// concurrent read-modify-write transactions from allocating the same id.
func (s *PostgresStoreSuite) TestConcurrentIssuanceSerialises() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveRoot(ctx, models.NewRegistry(holderA)))

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
				root, err := st.Root(ctx)
				if err != nil {
					return err
				}
				id := root.NextTokenID
				if err := st.CreateCertificate(ctx, certificate(id, holderB)); err != nil {
					return err
				}
				balance, err := st.BalanceOf(ctx, holderB)
				if err != nil {
					return err
				}
				if err := st.AssignToken(ctx, holderB, id, balance+1); err != nil {
					return err
				}
				root.NextTokenID++
				root.TotalSupply++
				return st.SaveRoot(ctx, root)
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	root, err := s.store.Root(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(goroutines), root.TotalSupply)

	ids, err := s.store.TokensOf(ctx, holderB)
	s.Require().NoError(err)
	s.Len(ids, goroutines)
	for i, id := range ids {
		s.Equal(models.TokenID(i+1), id)
	}
}
