package handler

import (
	"strconv"

	"skillchain/internal/registry/models"
	dErrors "skillchain/pkg/domain-errors"
)

// maxBatchRecipients bounds the size of one batch transaction.
const maxBatchRecipients = 1000

// InitializeRequest is the body of POST /v1/registry/initialize.
type InitializeRequest struct {
	Administrator string `json:"administrator"`

	administrator models.Address
}

func (r *InitializeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseAddressField("administrator", r.Administrator)
	if err != nil {
		return err
	}
	r.administrator = addr
	return nil
}

// AddIssuerRequest is the body of POST /v1/issuers.
type AddIssuerRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`

	address models.Address
}

func (r *AddIssuerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseAddressField("address", r.Address)
	if err != nil {
		return err
	}
	r.address = addr
	return nil
}

// UpdateReputationRequest is the body of PUT /v1/issuers/{address}/reputation.
type UpdateReputationRequest struct {
	Score *uint64 `json:"score"`
}

func (r *UpdateReputationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Score == nil {
		return dErrors.New(dErrors.CodeValidation, "score is required")
	}
	return nil
}

// IssueCertificateRequest is the body of POST /v1/certificates. Level is
// checked by the registry so the caller's role is verified first.
type IssueCertificateRequest struct {
	Recipient   string `json:"recipient"`
	SkillName   string `json:"skill_name"`
	Level       uint64 `json:"level"`
	MetadataURI string `json:"metadata_uri"`

	recipient models.Address
}

func (r *IssueCertificateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseAddressField("recipient", r.Recipient)
	if err != nil {
		return err
	}
	r.recipient = addr
	return nil
}

// BatchIssueRequest is the body of POST /v1/certificates/batch.
type BatchIssueRequest struct {
	Recipients  []string `json:"recipients"`
	SkillName   string   `json:"skill_name"`
	Level       uint64   `json:"level"`
	MetadataURI string   `json:"metadata_uri"`

	recipients []models.Address
}

func (r *BatchIssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Recipients) > maxBatchRecipients {
		return dErrors.New(dErrors.CodeValidation,
			"recipients must contain at most "+strconv.Itoa(maxBatchRecipients)+" addresses")
	}
	r.recipients = make([]models.Address, 0, len(r.Recipients))
	for i, raw := range r.Recipients {
		addr, err := parseAddressField("recipients["+strconv.Itoa(i)+"]", raw)
		if err != nil {
			return err
		}
		r.recipients = append(r.recipients, addr)
	}
	return nil
}

func parseAddressField(field, raw string) (models.Address, error) {
	if raw == "" {
		return models.Address{}, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	addr, err := models.ParseAddress(raw)
	if err != nil {
		return models.Address{}, dErrors.New(dErrors.CodeInvalidInput, field+" must be a 0x-prefixed hex address")
	}
	return addr, nil
}

func parseTokenID(raw string) (models.TokenID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid token id")
	}
	return models.TokenID(id), nil
}
