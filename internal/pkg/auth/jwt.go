/**
 * 工具类:JWT工具
 * @description: JWT工具类,签发与校验携带租户信息的访问令牌
 * @func:
 * 	1.创建JWT
 * 	2.验证JWT
 * 	3.从令牌提取租户/操作者
 */

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // 引入jwt包
)

// JWTClaims JWT声明结构
// TenantID 是多租户隔离的根依据,所有数据访问都以它为作用域
type JWTClaims struct {
	TenantID string   `json:"tenant_id"`
	Actor    string   `json:"actor"` // 操作者标识(用户名或服务账号)
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey      []byte
	issuer         string
	accessTokenTTL time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey, issuer string, accessTokenTTL time.Duration) *JWTManager {
	if issuer == "" {
		issuer = "neoinventory"
	}
	return &JWTManager{
		secretKey:      []byte(secretKey),
		issuer:         issuer,
		accessTokenTTL: accessTokenTTL,
	}
}

// GenerateAccessToken 生成访问令牌
func (j *JWTManager) GenerateAccessToken(tenantID, actor string, roles []string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		TenantID: tenantID,
		Actor:    actor,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   actor,
			Audience:  []string{"neoinventory-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        generateJTI(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateAccessToken 验证访问令牌
func (j *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		// 检查令牌是否过期
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, errors.New("token has expired")
		}
		if claims.TenantID == "" {
			return nil, errors.New("token missing tenant_id claim")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GetTenantIDFromToken 从访问令牌中获取租户标识
func (j *JWTManager) GetTenantIDFromToken(tokenString string) (string, error) {
	claims, err := j.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.TenantID, nil
}

// GetActorFromToken 从访问令牌中获取操作者标识
func (j *JWTManager) GetActorFromToken(tokenString string) (string, error) {
	claims, err := j.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Actor, nil
}

// ExtractTokenFromHeader 从Authorization头中提取令牌
func ExtractTokenFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// generateJTI 生成JWT ID
func generateJTI() string {
	// 使用纳秒级时间戳确保唯一性
	now := time.Now()
	return now.Format("20060102150405") + "-" + fmt.Sprintf("%09d", now.Nanosecond())
}
