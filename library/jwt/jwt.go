// Package jwt defines the claims shape for the optional admin surface.
package jwt

import (
	gjwt "github.com/golang-jwt/jwt/v5"
)

// AdminClaims identifies an operator allowed to hit /admin/* endpoints.
type AdminClaims struct {
	gjwt.RegisteredClaims
	Operator string `json:"operator"`
}
