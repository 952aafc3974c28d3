package testutil

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"skillchain/pkg/requestcontext"
)

// WithCaller adds a caller address to the request context.
// This simulates what the auth middleware does for requests carrying a valid
// caller token.
func WithCaller(req *http.Request, caller common.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestTime pins the request time used for issuance timestamps.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
