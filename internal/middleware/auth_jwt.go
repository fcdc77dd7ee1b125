package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c.Request().Header.Get("Authorization"), cfg.JWTSecret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			claims.store(c)
			return next(c)
		}
	}
}

// OptionalAuth sets the caller when a valid bearer token is present and lets
// everyone else through as anonymous.
func OptionalAuth(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authz := c.Request().Header.Get("Authorization"); authz != "" {
				if claims, err := parseBearer(authz, cfg.JWTSecret); err == nil {
					claims.store(c)
				}
			}
			return next(c)
		}
	}
}

type authClaims struct {
	userID int64
	role   string
	tv     int
}

func (a authClaims) store(c echo.Context) {
	c.Set(CtxUserIDKey, a.userID)
	c.Set(CtxUserRoleKey, a.role)
	c.Set(CtxTokenVersionKey, a.tv)
}

var errUnauthorized = errors.New("unauthorized")

func parseBearer(authz string, secret string) (authClaims, error) {
	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return authClaims{}, errUnauthorized
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return authClaims{}, errUnauthorized
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return authClaims{}, errUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authClaims{}, errUnauthorized
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return authClaims{}, errUnauthorized
	}

	//roleを取り出す（CUSTOMER/STAFF/ADMIN）
	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return authClaims{}, errUnauthorized
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return authClaims{}, errUnauthorized
	}

	return authClaims{userID: userID, role: role, tv: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
