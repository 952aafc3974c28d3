package store

import (
	"context"
	"fmt"
	"sync"

	"skillchain/internal/registry/models"
	"skillchain/internal/registry/ports"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/sentinel"
)

// InMemoryStore keeps registry state in process memory. Transactions hold the
// write lock for their whole duration and stage writes in an overlay that is
// applied only when the closure succeeds.
type InMemoryStore struct {
	mu sync.RWMutex
	state
}

type state struct {
	root     models.Registry
	issuers  map[models.Address]models.Issuer
	certs    map[models.TokenID]models.Certificate
	owners   map[models.TokenID]models.Address
	balances map[models.Address]uint64
	owned    map[models.Address][]models.TokenID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{state: state{
		issuers:  make(map[models.Address]models.Issuer),
		certs:    make(map[models.TokenID]models.Certificate),
		owners:   make(map[models.TokenID]models.Address),
		balances: make(map[models.Address]uint64),
		owned:    make(map[models.Address][]models.TokenID),
	}}
}

// RunInTx serialises fn against every other transaction.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, st ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemoryTx(&s.state)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

func (s *InMemoryStore) Root(_ context.Context) (models.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, nil
}

func (s *InMemoryStore) SaveRoot(ctx context.Context, root models.Registry) error {
	return s.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		return st.SaveRoot(ctx, root)
	})
}

func (s *InMemoryStore) FindIssuer(_ context.Context, addr models.Address) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findIssuer(addr)
}

func (s *InMemoryStore) SaveIssuer(ctx context.Context, issuer models.Issuer) error {
	return s.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		return st.SaveIssuer(ctx, issuer)
	})
}

func (s *InMemoryStore) FindCertificate(_ context.Context, id models.TokenID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findCertificate(id)
}

func (s *InMemoryStore) FindCertificates(_ context.Context, ids []models.TokenID) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findCertificates(ids)
}

func (s *InMemoryStore) CreateCertificate(ctx context.Context, cert models.Certificate) error {
	return s.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		return st.CreateCertificate(ctx, cert)
	})
}

func (s *InMemoryStore) OwnerOf(_ context.Context, id models.TokenID) (models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerOf(id)
}

func (s *InMemoryStore) BalanceOf(_ context.Context, owner models.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[owner], nil
}

func (s *InMemoryStore) TokensOf(_ context.Context, owner models.Address) ([]models.TokenID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TokenID{}, s.owned[owner]...), nil
}

func (s *InMemoryStore) AssignToken(ctx context.Context, owner models.Address, id models.TokenID, balance uint64) error {
	return s.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		return st.AssignToken(ctx, owner, id, balance)
	})
}

func (s *state) findIssuer(addr models.Address) (*models.Issuer, error) {
	issuer, ok := s.issuers[addr]
	if !ok {
		return nil, fmt.Errorf("issuer %s: %w", addr.Hex(), sentinel.ErrNotFound)
	}
	return &issuer, nil
}

func (s *state) findCertificate(id models.TokenID) (*models.Certificate, error) {
	cert, ok := s.certs[id]
	if !ok {
		return nil, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	return &cert, nil
}

func (s *state) findCertificates(ids []models.TokenID) ([]models.Certificate, error) {
	out := make([]models.Certificate, 0, len(ids))
	for _, id := range ids {
		cert, err := s.findCertificate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *cert)
	}
	return out, nil
}

func (s *state) ownerOf(id models.TokenID) (models.Address, error) {
	owner, ok := s.owners[id]
	if !ok {
		return models.ZeroAddress, fmt.Errorf("owner of %d: %w", id, sentinel.ErrNotFound)
	}
	return owner, nil
}

// memoryTx reads through its overlay to the committed state it was opened on.
// The caller holds the store's write lock for the lifetime of the tx.
type memoryTx struct {
	base *state

	root     *models.Registry
	issuers  map[models.Address]models.Issuer
	certs    map[models.TokenID]models.Certificate
	owners   map[models.TokenID]models.Address
	balances map[models.Address]uint64
	appended map[models.Address][]models.TokenID
}

func newMemoryTx(base *state) *memoryTx {
	return &memoryTx{
		base:     base,
		issuers:  make(map[models.Address]models.Issuer),
		certs:    make(map[models.TokenID]models.Certificate),
		owners:   make(map[models.TokenID]models.Address),
		balances: make(map[models.Address]uint64),
		appended: make(map[models.Address][]models.TokenID),
	}
}

func (t *memoryTx) apply() {
	if t.root != nil {
		t.base.root = *t.root
	}
	for addr, issuer := range t.issuers {
		t.base.issuers[addr] = issuer
	}
	for id, cert := range t.certs {
		t.base.certs[id] = cert
	}
	for id, owner := range t.owners {
		t.base.owners[id] = owner
	}
	for addr, balance := range t.balances {
		t.base.balances[addr] = balance
	}
	for addr, ids := range t.appended {
		t.base.owned[addr] = append(t.base.owned[addr], ids...)
	}
}

func (t *memoryTx) Root(_ context.Context) (models.Registry, error) {
	if t.root != nil {
		return *t.root, nil
	}
	return t.base.root, nil
}

func (t *memoryTx) SaveRoot(_ context.Context, root models.Registry) error {
	t.root = &root
	return nil
}

func (t *memoryTx) FindIssuer(_ context.Context, addr models.Address) (*models.Issuer, error) {
	if issuer, ok := t.issuers[addr]; ok {
		return &issuer, nil
	}
	return t.base.findIssuer(addr)
}

func (t *memoryTx) SaveIssuer(_ context.Context, issuer models.Issuer) error {
	t.issuers[issuer.Address] = issuer
	return nil
}

func (t *memoryTx) FindCertificate(_ context.Context, id models.TokenID) (*models.Certificate, error) {
	if cert, ok := t.certs[id]; ok {
		return &cert, nil
	}
	return t.base.findCertificate(id)
}

func (t *memoryTx) FindCertificates(ctx context.Context, ids []models.TokenID) ([]models.Certificate, error) {
	out := make([]models.Certificate, 0, len(ids))
	for _, id := range ids {
		cert, err := t.FindCertificate(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *cert)
	}
	return out, nil
}

func (t *memoryTx) CreateCertificate(_ context.Context, cert models.Certificate) error {
	_, staged := t.certs[cert.TokenID]
	_, committed := t.base.certs[cert.TokenID]
	if staged || committed {
		return fmt.Errorf("certificate %d: %w", cert.TokenID, sentinel.ErrConflict)
	}
	t.certs[cert.TokenID] = cert
	return nil
}

func (t *memoryTx) OwnerOf(_ context.Context, id models.TokenID) (models.Address, error) {
	if owner, ok := t.owners[id]; ok {
		return owner, nil
	}
	return t.base.ownerOf(id)
}

func (t *memoryTx) BalanceOf(_ context.Context, owner models.Address) (uint64, error) {
	if balance, ok := t.balances[owner]; ok {
		return balance, nil
	}
	return t.base.balances[owner], nil
}

func (t *memoryTx) TokensOf(_ context.Context, owner models.Address) ([]models.TokenID, error) {
	ids := append([]models.TokenID{}, t.base.owned[owner]...)
	return append(ids, t.appended[owner]...), nil
}

func (t *memoryTx) AssignToken(_ context.Context, owner models.Address, id models.TokenID, balance uint64) error {
	if _, ok := t.owners[id]; ok {
		return fmt.Errorf("owner of %d: %w", id, sentinel.ErrConflict)
	}
	if _, ok := t.base.owners[id]; ok {
		return fmt.Errorf("owner of %d: %w", id, sentinel.ErrConflict)
	}
	t.owners[id] = owner
	t.balances[owner] = balance
	t.appended[owner] = append(t.appended[owner], id)
	return nil
}
