package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"skillchain/internal/registry/models"
	"skillchain/internal/registry/ports"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/sentinel"
	txcontext "skillchain/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgresStore persists registry state in PostgreSQL. Methods run on the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

type PostgresOption func(*PostgresStore)

// WithTxTimeout bounds transactions whose context has no deadline.
func WithTxTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx opens a transaction, takes the registry root row lock so writers
// are serialised, and commits only if fn returns nil.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, st ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM registry_root WHERE id = 1 FOR UPDATE`); err != nil {
		return fmt.Errorf("lock registry root: %w", err)
	}

	if err := fn(txcontext.WithTx(ctx, tx), s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) exec(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

func (s *PostgresStore) Root(ctx context.Context) (models.Registry, error) {
	var (
		admin            []byte
		ledger           string
		nextID, supplied string
	)
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT administrator, ledger, next_token_id, total_supply FROM registry_root WHERE id = 1`,
	).Scan(&admin, &ledger, &nextID, &supplied)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registry{}, nil
	}
	if err != nil {
		return models.Registry{}, fmt.Errorf("load registry root: %w", err)
	}
	if admin == nil {
		return models.Registry{}, nil
	}

	root := models.Registry{Ledger: ledger}
	if root.Administrator, err = toAddress(admin); err != nil {
		return models.Registry{}, err
	}
	next, err := parseU64(nextID)
	if err != nil {
		return models.Registry{}, err
	}
	root.NextTokenID = models.TokenID(next)
	if root.TotalSupply, err = parseU64(supplied); err != nil {
		return models.Registry{}, err
	}
	return root, nil
}

func (s *PostgresStore) SaveRoot(ctx context.Context, root models.Registry) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO registry_root (id, administrator, ledger, next_token_id, total_supply)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			administrator = EXCLUDED.administrator,
			ledger = EXCLUDED.ledger,
			next_token_id = EXCLUDED.next_token_id,
			total_supply = EXCLUDED.total_supply
	`, root.Administrator.Bytes(), root.Ledger, formatU64(uint64(root.NextTokenID)), formatU64(root.TotalSupply))
	if err != nil {
		return fmt.Errorf("save registry root: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindIssuer(ctx context.Context, addr models.Address) (*models.Issuer, error) {
	var issued, reputation string
	issuer := models.Issuer{Address: addr}
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT name, verified, certificates_issued, reputation FROM issuers WHERE address = $1`,
		addr.Bytes(),
	).Scan(&issuer.Name, &issuer.Verified, &issued, &reputation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issuer %s: %w", addr.Hex(), sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find issuer: %w", err)
	}
	if issuer.CertificatesIssued, err = parseU64(issued); err != nil {
		return nil, err
	}
	if issuer.Reputation, err = parseU64(reputation); err != nil {
		return nil, err
	}
	return &issuer, nil
}

func (s *PostgresStore) SaveIssuer(ctx context.Context, issuer models.Issuer) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO issuers (address, name, verified, certificates_issued, reputation)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			verified = EXCLUDED.verified,
			certificates_issued = EXCLUDED.certificates_issued,
			reputation = EXCLUDED.reputation
	`, issuer.Address.Bytes(), issuer.Name, issuer.Verified,
		formatU64(issuer.CertificatesIssued), formatU64(issuer.Reputation))
	if err != nil {
		return fmt.Errorf("save issuer: %w", err)
	}
	return nil
}

const certificateColumns = `token_id, skill_name, level, issuer, recipient, issued_at, metadata_uri`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (models.Certificate, error) {
	var (
		cert                   models.Certificate
		tokenID, level, issued string
		issuerAddr, recipient  []byte
	)
	if err := row.Scan(&tokenID, &cert.SkillName, &level, &issuerAddr, &recipient, &issued, &cert.MetadataURI); err != nil {
		return models.Certificate{}, err
	}
	id, err := parseU64(tokenID)
	if err != nil {
		return models.Certificate{}, err
	}
	cert.TokenID = models.TokenID(id)
	lvl, err := parseU64(level)
	if err != nil {
		return models.Certificate{}, err
	}
	cert.Level = models.Level(lvl)
	if cert.IssuedAt, err = parseU64(issued); err != nil {
		return models.Certificate{}, err
	}
	if cert.Issuer, err = toAddress(issuerAddr); err != nil {
		return models.Certificate{}, err
	}
	if cert.Recipient, err = toAddress(recipient); err != nil {
		return models.Certificate{}, err
	}
	return cert, nil
}

func (s *PostgresStore) FindCertificate(ctx context.Context, id models.TokenID) (*models.Certificate, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE token_id = $1`,
		formatU64(uint64(id)),
	)
	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

func (s *PostgresStore) FindCertificates(ctx context.Context, ids []models.TokenID) ([]models.Certificate, error) {
	if len(ids) == 0 {
		return []models.Certificate{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = formatU64(uint64(id))
	}

	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE token_id = ANY($1::text[]::numeric[])`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, fmt.Errorf("find certificates: %w", err)
	}
	defer rows.Close()

	byID := make(map[models.TokenID]models.Certificate, len(ids))
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		byID[cert.TokenID] = cert
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}

	out := make([]models.Certificate, 0, len(ids))
	for _, id := range ids {
		cert, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("certificate %d: %w", id, sentinel.ErrNotFound)
		}
		out = append(out, cert)
	}
	return out, nil
}

func (s *PostgresStore) CreateCertificate(ctx context.Context, cert models.Certificate) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO certificates (`+certificateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token_id) DO NOTHING
	`, formatU64(uint64(cert.TokenID)), cert.SkillName, formatU64(uint64(cert.Level)),
		cert.Issuer.Bytes(), cert.Recipient.Bytes(), formatU64(cert.IssuedAt), cert.MetadataURI)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("certificate %d: %w", cert.TokenID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error) {
	var owner []byte
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT owner FROM token_owners WHERE token_id = $1`, formatU64(uint64(id)),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ZeroAddress, fmt.Errorf("owner of %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.ZeroAddress, fmt.Errorf("find owner: %w", err)
	}
	return toAddress(owner)
}

func (s *PostgresStore) BalanceOf(ctx context.Context, owner models.Address) (uint64, error) {
	var balance string
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE owner = $1`, owner.Bytes(),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find balance: %w", err)
	}
	return parseU64(balance)
}

func (s *PostgresStore) TokensOf(ctx context.Context, owner models.Address) ([]models.TokenID, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT token_id FROM owned_tokens WHERE owner = $1 ORDER BY position`, owner.Bytes(),
	)
	if err != nil {
		return nil, fmt.Errorf("list owned tokens: %w", err)
	}
	defer rows.Close()

	ids := []models.TokenID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan owned token: %w", err)
		}
		id, err := parseU64(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, models.TokenID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned tokens: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) AssignToken(ctx context.Context, owner models.Address, id models.TokenID, balance uint64) error {
	exec := s.exec(ctx)
	tokenKey := formatU64(uint64(id))

	res, err := exec.ExecContext(ctx, `
		INSERT INTO token_owners (token_id, owner) VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`, tokenKey, owner.Bytes())
	if err != nil {
		return fmt.Errorf("assign token owner: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("owner of %d: %w", id, sentinel.ErrConflict)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO balances (owner, balance) VALUES ($1, $2)
		ON CONFLICT (owner) DO UPDATE SET balance = EXCLUDED.balance
	`, owner.Bytes(), formatU64(balance)); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `
		INSERT INTO owned_tokens (owner, position, token_id)
		SELECT $1, COALESCE(MAX(position), 0) + 1, $2 FROM owned_tokens WHERE owner = $1
	`, owner.Bytes(), tokenKey); err != nil {
		return fmt.Errorf("append owned token: %w", err)
	}
	return nil
}

func formatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode counter %q: %w", s, sentinel.ErrInvalidState)
	}
	return v, nil
}

func toAddress(b []byte) (models.Address, error) {
	if len(b) != len(models.Address{}) {
		return models.ZeroAddress, fmt.Errorf("decode address of %d bytes: %w", len(b), sentinel.ErrInvalidState)
	}
	return common.BytesToAddress(b), nil
}
