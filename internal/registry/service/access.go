package service

import (
	"context"
	"errors"

	"skillchain/internal/registry/models"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/sentinel"
)

// Access checks read the current state and never write. They run inside the
// mutation's transaction so the decision and the write see the same view.

func requireCaller(caller models.Address) error {
	if caller == models.ZeroAddress {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	return nil
}

func requireAdministrator(root models.Registry, caller models.Address) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !root.Initialized() || caller != root.Administrator {
		return dErrors.New(dErrors.CodeUnauthorized, "Not authorized: only owner")
	}
	return nil
}

// requireVerifiedIssuer returns the caller's issuer record when it exists and
// is verified.
func requireVerifiedIssuer(ctx context.Context, st Store, caller models.Address) (*models.Issuer, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	issuer, err := st.FindIssuer(ctx, caller)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Not a verified issuer")
		}
		return nil, err
	}
	if !issuer.Verified {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not a verified issuer")
	}
	return issuer, nil
}
