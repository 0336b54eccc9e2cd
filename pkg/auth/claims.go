package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/canteen-coupons/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Kind      enums.PrincipalKind
	AccountID int64
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. The token
// names the account only; role and status are reloaded on every request.
type AccessTokenClaims struct {
	Kind      enums.PrincipalKind `json:"kind"`
	AccountID int64               `json:"account_id"`
	jwt.RegisteredClaims
}
