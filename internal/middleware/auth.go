package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Ключ контекста с идентификатором владельца
const ownerIDKey = "owner_id"

// AuthConfig конфигурация аутентификации по bearer-токену.
// Провайдер аутентификации - внешний чёрный ящик: мы только проверяем
// подпись токена и достаём из claim sub непрозрачный ID владельца.
type AuthConfig struct {
	// Secret - ключ HMAC подписи токенов
	Secret []byte
}

// Auth middleware аутентификации владельца
type Auth struct {
	config AuthConfig
}

func NewAuth(config AuthConfig) *Auth {
	return &Auth{config: config}
}

// Middleware возвращает Gin handler, требующий валидный bearer-токен
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Требуется заголовок Authorization: Bearer <token>",
			})
			c.Abort()
			return
		}

		ownerID, err := a.parseOwnerID(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Невалидный или просроченный токен",
			})
			c.Abort()
			return
		}

		c.Set(ownerIDKey, ownerID)
		c.Next()
	}
}

// parseOwnerID проверяет подпись и возвращает sub claim
func (a *Auth) parseOwnerID(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.config.Secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireOwner хелпер для создания middleware с заданным секретом
func RequireOwner(secret string) gin.HandlerFunc {
	return NewAuth(AuthConfig{Secret: []byte(secret)}).Middleware()
}

// OwnerID извлекает идентификатор владельца из контекста
func OwnerID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ownerIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
