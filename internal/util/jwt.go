package util

import (
	"lms_backoffice/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	RoleName string `json:"role"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(user *model.User, roleName, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		UserID:   user.ID,
		RoleName: roleName,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// BuildAuthContext 由 JWT 声明和展开后的权限集合组装授权上下文
func BuildAuthContext(claims *Claims, permissions map[string]struct{}) *model.AuthContext {
	return &model.AuthContext{
		UserID:      claims.UserID,
		RoleName:    claims.RoleName,
		Permissions: permissions,
	}
}

// GetAuthContext 取出中间件构建的授权上下文
func GetAuthContext(c *gin.Context) *model.AuthContext {
	v, exists := c.Get("authContext")
	if !exists {
		return nil
	}
	actor, ok := v.(*model.AuthContext)
	if !ok {
		return nil
	}
	return actor
}
