package models

// SessionClaims represents the claims carried by a session token
type SessionClaims struct {
	Sub      string `json:"sub"`      // Subject (user ID)
	Username string `json:"username"` // Display name, informational only
	Exp      int64  `json:"exp"`      // Expiration time
	Iat      int64  `json:"iat"`      // Issued at
	Iss      string `json:"iss"`      // Issuer
}
