package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos de la sesión del portal.
// Role permite al middleware RBAC decidir sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	PortalUserID int64  `json:"portalUserId"`
	FirmID       int64  `json:"firmId"`
	FirmName     string `json:"firmName,omitempty"`
	Email        string `json:"email"`
	Role         string `json:"role"` // "admin" | "user"
}

// Session datos extraídos de un token válido.
type Session struct {
	UserID   int64
	FirmID   int64
	FirmName string
	Email    string
	Role     string
}

// Generate firma un token HS256 para la sesión indicada.
func Generate(secret string, s Session, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%d", s.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		PortalUserID: s.UserID,
		FirmID:       s.FirmID,
		FirmName:     s.FirmName,
		Email:        s.Email,
		Role:         s.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve la sesión.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o no trae firma/usuario.
func Parse(secret, tokenString string) (*Session, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.FirmID == 0 || claims.PortalUserID == 0 {
		return nil, fmt.Errorf("jwt: token sin firmId o portalUserId")
	}
	return &Session{
		UserID:   claims.PortalUserID,
		FirmID:   claims.FirmID,
		FirmName: claims.FirmName,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}
