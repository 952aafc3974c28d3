package callertoken

import (
	"github.com/ethereum/go-ethereum/common"

	authmw "skillchain/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.CallerClaims {
	return &authmw.CallerClaims{
		Caller: common.HexToAddress(claims.Caller),
		JTI:    claims.ID,
	}
}

// ValidateToken satisfies authmw.CallerValidator.
func (s *Service) ValidateToken(tokenString string) (*authmw.CallerClaims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
