package handler

import "skillchain/internal/registry/models"

type CertificateResponse struct {
	TokenID     uint64 `json:"token_id"`
	SkillName   string `json:"skill_name"`
	Level       uint64 `json:"level"`
	LevelLabel  string `json:"level_label"`
	Issuer      string `json:"issuer"`
	Recipient   string `json:"recipient"`
	IssuedAt    uint64 `json:"issued_at"`
	MetadataURI string `json:"metadata_uri"`
}

func toCertificateResponse(cert models.Certificate) CertificateResponse {
	return CertificateResponse{
		TokenID:     uint64(cert.TokenID),
		SkillName:   cert.SkillName,
		Level:       uint64(cert.Level),
		LevelLabel:  cert.Level.String(),
		Issuer:      cert.Issuer.Hex(),
		Recipient:   cert.Recipient.Hex(),
		IssuedAt:    cert.IssuedAt,
		MetadataURI: cert.MetadataURI,
	}
}

type IssuerResponse struct {
	Address            string `json:"address"`
	Name               string `json:"name"`
	Verified           bool   `json:"verified"`
	CertificatesIssued uint64 `json:"certificates_issued"`
	Reputation         uint64 `json:"reputation"`
}

func toIssuerResponse(addr models.Address, issuer models.Issuer) IssuerResponse {
	return IssuerResponse{
		Address:            addr.Hex(),
		Name:               issuer.Name,
		Verified:           issuer.Verified,
		CertificatesIssued: issuer.CertificatesIssued,
		Reputation:         issuer.Reputation,
	}
}

type TokenIDResponse struct {
	TokenID uint64 `json:"token_id"`
}

type TokenIDsResponse struct {
	TokenIDs []uint64 `json:"token_ids"`
}

func toTokenIDs(ids []models.TokenID) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	return out
}

// OwnerResponse is returned for the registry administrator and for token
// holders. The zero address means "none".
type OwnerResponse struct {
	Owner string `json:"owner"`
}

type TotalSupplyResponse struct {
	TotalSupply uint64 `json:"total_supply"`
}

type BalanceResponse struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

type OwnedCertificatesResponse struct {
	Owner        string                `json:"owner"`
	TokenIDs     []uint64              `json:"token_ids"`
	Certificates []CertificateResponse `json:"certificates,omitempty"`
}
