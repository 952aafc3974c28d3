package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"skillchain/internal/registry/handler/mocks"
	"skillchain/internal/registry/models"
	"skillchain/internal/registry/service"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/registry-mocks.go -package=mocks -exclude_interfaces=validatable

var (
	adminAddr     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	issuerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	recipientAddr = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	otherAddr     = common.HexToAddress("0x00000000000000000000000000000000000000c2")
)

type RegistryHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger).Register(r)
	s.router = r
}

func (s *RegistryHandlerSuite) TestInitialize() {
	s.Run("valid administrator returns 201", func() {
		s.service.EXPECT().Initialize(gomock.Any(), adminAddr).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/registry/initialize",
			map[string]string{"administrator": adminAddr.Hex()})
		rr := testutil.DoRequest(s.router, testutil.WithCaller(req, adminAddr))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[OwnerResponse](s.T(), rr)
		s.Equal(adminAddr.Hex(), resp.Owner)
	})

	s.Run("second initialization maps to 409", func() {
		s.service.EXPECT().Initialize(gomock.Any(), adminAddr).
			Return(dErrors.New(dErrors.CodeAlreadyInitialized, "Already initialized"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/registry/initialize",
			map[string]string{"administrator": adminAddr.Hex()})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_initialized")
	})

	s.Run("malformed address is rejected before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/registry/initialize",
			map[string]string{"administrator": "0x1234"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/registry/initialize",
			`{"administrator":"`+adminAddr.Hex()+`","extra":true}`)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *RegistryHandlerSuite) TestIssuerEndpoints() {
	s.Run("add issuer returns the provisioned record", func() {
		s.service.EXPECT().AddVerifiedIssuer(gomock.Any(), issuerAddr, "Rust Foundation").Return(nil)
		s.service.EXPECT().GetIssuerInfo(gomock.Any(), issuerAddr).Return(models.NewVerifiedIssuer(issuerAddr, "Rust Foundation"), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/issuers",
			map[string]string{"address": issuerAddr.Hex(), "name": "Rust Foundation"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[IssuerResponse](s.T(), rr)
		s.True(resp.Verified)
		s.Equal(uint64(50), resp.Reputation)
	})

	s.Run("non administrator maps to 403", func() {
		s.service.EXPECT().AddVerifiedIssuer(gomock.Any(), issuerAddr, "x").
			Return(dErrors.New(dErrors.CodeUnauthorized, "Not authorized: only owner"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/issuers",
			map[string]string{"address": issuerAddr.Hex(), "name": "x"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("remove issuer returns 204", func() {
		s.service.EXPECT().RemoveIssuer(gomock.Any(), issuerAddr).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/v1/issuers/"+issuerAddr.Hex()))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("reputation update passes the score through", func() {
		s.service.EXPECT().UpdateIssuerReputation(gomock.Any(), issuerAddr, uint64(100)).Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/issuers/"+issuerAddr.Hex()+"/reputation",
			map[string]uint64{"score": 100})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("reputation above 100 maps to 400", func() {
		s.service.EXPECT().UpdateIssuerReputation(gomock.Any(), issuerAddr, uint64(101)).
			Return(dErrors.New(dErrors.CodeInvalidScore, "Score must be 0-100"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/issuers/"+issuerAddr.Hex()+"/reputation",
			map[string]uint64{"score": 101})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_score")
	})

	s.Run("missing score is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/issuers/"+issuerAddr.Hex()+"/reputation",
			map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("negative score fails to decode", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPut, "/v1/issuers/"+issuerAddr.Hex()+"/reputation",
			`{"score":-1}`)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("get issuer", func() {
		s.service.EXPECT().GetIssuerInfo(gomock.Any(), otherAddr).Return(models.Issuer{Address: otherAddr}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/issuers/"+otherAddr.Hex()))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[IssuerResponse](s.T(), rr)
		s.Equal(otherAddr.Hex(), resp.Address)
		s.False(resp.Verified)
		s.Empty(resp.Name)
	})
}

func (s *RegistryHandlerSuite) TestIssuanceEndpoints() {
	s.Run("issue returns the token id", func() {
		s.service.EXPECT().IssueCertificate(gomock.Any(), recipientAddr, service.IssueRequest{
			SkillName: "Rust", Level: models.LevelAdvanced, MetadataURI: "ipfs://rust",
		}).Return(models.TokenID(7), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates", map[string]any{
			"recipient": recipientAddr.Hex(), "skill_name": "Rust", "level": 3, "metadata_uri": "ipfs://rust",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[TokenIDResponse](s.T(), rr)
		s.Equal(uint64(7), resp.TokenID)
	})

	s.Run("invalid level maps to 400", func() {
		s.service.EXPECT().IssueCertificate(gomock.Any(), recipientAddr, gomock.Any()).
			Return(models.TokenID(0), dErrors.New(dErrors.CodeInvalidLevel, "Level must be 1-4"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates", map[string]any{
			"recipient": recipientAddr.Hex(), "skill_name": "Rust", "level": 5,
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_level")
	})

	s.Run("batch returns ids in order", func() {
		s.service.EXPECT().BatchIssueCertificates(gomock.Any(), []models.Address{recipientAddr, otherAddr}, gomock.Any()).
			Return([]models.TokenID{3, 4}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates/batch", map[string]any{
			"recipients": []string{recipientAddr.Hex(), otherAddr.Hex()}, "skill_name": "Go", "level": 1,
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[TokenIDsResponse](s.T(), rr)
		s.Equal([]uint64{3, 4}, resp.TokenIDs)
	})

	s.Run("batch with a malformed recipient names the index", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates/batch", map[string]any{
			"recipients": []string{recipientAddr.Hex(), "nope"}, "skill_name": "Go", "level": 1,
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Contains(errResp["error_description"], "recipients[1]")
	})

	s.Run("oversized batch is rejected before the service", func() {
		recipients := make([]string, maxBatchRecipients+1)
		for i := range recipients {
			recipients[i] = recipientAddr.Hex()
		}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates/batch", map[string]any{
			"recipients": recipients, "skill_name": "Go", "level": 1,
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("overflow maps to 409", func() {
		s.service.EXPECT().BatchIssueCertificates(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeOverflow, "balance overflow"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/certificates/batch", map[string]any{
			"recipients": []string{recipientAddr.Hex()}, "skill_name": "Go", "level": 1,
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "overflow")
	})
}

func (s *RegistryHandlerSuite) TestQueryEndpoints() {
	cert := &models.Certificate{
		TokenID:     1,
		SkillName:   "Rust",
		Level:       models.LevelExpert,
		Issuer:      issuerAddr,
		Recipient:   recipientAddr,
		IssuedAt:    1_700_000_000,
		MetadataURI: "ipfs://rust",
	}

	s.Run("certificate includes the level label", func() {
		s.service.EXPECT().GetCertificate(gomock.Any(), models.TokenID(1)).Return(cert, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/certificates/1"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[CertificateResponse](s.T(), rr)
		s.Equal("Expert", resp.LevelLabel)
		s.Equal(recipientAddr.Hex(), resp.Recipient)
		s.Equal(uint64(1_700_000_000), resp.IssuedAt)
	})

	s.Run("missing certificate maps to 404", func() {
		s.service.EXPECT().GetCertificate(gomock.Any(), models.TokenID(99)).
			Return(nil, dErrors.New(dErrors.CodeCertificateNotFound, "Certificate does not exist"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/certificates/99"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "certificate_not_found")
	})

	s.Run("non numeric token id is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/certificates/abc"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("owner of an unissued token is the zero address", func() {
		s.service.EXPECT().OwnerOf(gomock.Any(), models.TokenID(99)).Return(models.ZeroAddress, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/certificates/99/owner"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "owner", models.ZeroAddress.Hex())
	})

	s.Run("registry owner and supply", func() {
		s.service.EXPECT().GetOwner(gomock.Any()).Return(adminAddr, nil)
		s.service.EXPECT().TotalSupply(gomock.Any()).Return(uint64(12), nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/registry/owner"))
		testutil.AssertJSONContains(s.T(), rr, "owner", adminAddr.Hex())

		rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/registry/total-supply"))
		testutil.AssertJSONContains(s.T(), rr, "total_supply", float64(12))
	})

	s.Run("balance", func() {
		s.service.EXPECT().BalanceOf(gomock.Any(), recipientAddr).Return(uint64(2), nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/owners/"+recipientAddr.Hex()+"/balance"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[BalanceResponse](s.T(), rr)
		s.Equal(uint64(2), resp.Balance)
	})

	s.Run("owned ids without expansion", func() {
		s.service.EXPECT().GetCertificatesByOwner(gomock.Any(), recipientAddr).Return([]models.TokenID{1, 5}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/owners/"+recipientAddr.Hex()+"/certificates"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[OwnedCertificatesResponse](s.T(), rr)
		s.Equal([]uint64{1, 5}, resp.TokenIDs)
		s.Empty(resp.Certificates)
	})

	s.Run("owned certificates expanded", func() {
		s.service.EXPECT().ListCertificatesByOwner(gomock.Any(), recipientAddr).Return([]models.Certificate{*cert}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/owners/"+recipientAddr.Hex()+"/certificates?expand=true"))
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[OwnedCertificatesResponse](s.T(), rr)
		s.Equal([]uint64{1}, resp.TokenIDs)
		s.Require().Len(resp.Certificates, 1)
		s.Equal("Rust", resp.Certificates[0].SkillName)
	})

	s.Run("invalid expand flag", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/owners/"+recipientAddr.Hex()+"/certificates?expand=maybe"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().TotalSupply(gomock.Any()).
			Return(uint64(0), dErrors.Wrap(context.DeadlineExceeded, dErrors.CodeInternal, "db exploded"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/registry/total-supply"))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", errResp["error"])
		s.Empty(errResp["error_description"])
	})
}

func TestCallerAuthGuardsMutatingRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), WithCallerAuth(deny)).Register(r)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/v1/certificates", map[string]any{
		"recipient": recipientAddr.Hex(), "level": 1,
	}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	svc.EXPECT().TotalSupply(gomock.Any()).Return(uint64(0), nil)
	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/v1/registry/total-supply"))
	require.Equal(t, http.StatusOK, rr.Code, "queries need no caller token")
}
