// Package models defines the registry's entities: certificates, issuers and
// the registry root that allocates token ids.
package models

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "skillchain/pkg/domain-errors"
)

// Address is a 20-byte account identifier. The zero address means "absent"
// at the external boundary.
type Address = common.Address

// ZeroAddress is the absent-owner sentinel returned by OwnerOf.
var ZeroAddress = Address{}

// ParseAddress accepts a 0x-prefixed 40-digit hex string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address")
	}
	return common.HexToAddress(s), nil
}

// TokenID identifies a certificate. Ids are allocated from 1 and 0 never
// names a certificate.
type TokenID uint64

// Level is a proficiency level, valid from 1 (Beginner) to 4 (Expert).
type Level uint64

const (
	LevelBeginner     Level = 1
	LevelIntermediate Level = 2
	LevelAdvanced     Level = 3
	LevelExpert       Level = 4
)

func (l Level) Valid() bool {
	return l >= LevelBeginner && l <= LevelExpert
}

func (l Level) String() string {
	switch l {
	case LevelBeginner:
		return "Beginner"
	case LevelIntermediate:
		return "Intermediate"
	case LevelAdvanced:
		return "Advanced"
	case LevelExpert:
		return "Expert"
	default:
		return "Unknown"
	}
}

const (
	// InitialReputation is assigned to every newly verified issuer.
	InitialReputation uint64 = 50
	// MaxReputation bounds issuer reputation scores.
	MaxReputation uint64 = 100
)

// Certificate is created once at issuance and never mutated.
type Certificate struct {
	TokenID     TokenID
	SkillName   string
	Level       Level
	Issuer      Address
	Recipient   Address
	IssuedAt    uint64
	MetadataURI string
}

// Issuer is an authority approved by the administrator.
type Issuer struct {
	Address            Address
	Name               string
	Verified           bool
	CertificatesIssued uint64
	Reputation         uint64
}

// NewVerifiedIssuer returns the record written by AddVerifiedIssuer.
func NewVerifiedIssuer(addr Address, name string) Issuer {
	return Issuer{
		Address:    addr,
		Name:       name,
		Verified:   true,
		Reputation: InitialReputation,
	}
}

// Registry is the root aggregate. Ledger is a random identifier assigned at
// initialization; certificate ids are only unique within one ledger.
type Registry struct {
	Administrator Address
	Ledger        string
	NextTokenID   TokenID
	TotalSupply   uint64
}

// Initialized reports whether an administrator has been set.
func (r Registry) Initialized() bool {
	return r.Administrator != ZeroAddress
}

// NewRegistry returns the root written by Initialize.
func NewRegistry(administrator Address) Registry {
	return Registry{
		Administrator: administrator,
		NextTokenID:   1,
		TotalSupply:   0,
	}
}
