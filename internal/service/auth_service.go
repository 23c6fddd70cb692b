package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// Common auth errors.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the identity-provider claims this service relies on.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthService verifies identity-provider tokens and maps subjects to users.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	userRepo *repository.UserRepository
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, userRepo *repository.UserRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		rdb:      rdb,
		userRepo: userRepo,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// ValidateToken parses and validates an identity-provider JWT, returning the claims.
// Issuer and audience are only enforced when configured.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.AuthIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.AuthIssuer))
	}
	if s.cfg.AuthAudience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.AuthAudience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.AuthJWTSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// IssueToken signs a token the way the identity provider does. Used by
// local tooling and tests; production tokens come from the provider.
func (s *AuthService) IssueToken(subject, name, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    s.cfg.AuthIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:  name,
		Email: email,
	}
	if s.cfg.AuthAudience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.AuthAudience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.AuthJWTSecret))
}

// Authenticate validates the token and resolves the internal user behind it.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*model.User, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	return s.ResolveUser(ctx, claims)
}

// ResolveUser maps the token subject to an internal user, creating it on first
// sight. The mapping is cached in Redis for UserCacheTTL; the profile is
// refreshed from the claims whenever the cache entry is rebuilt.
func (s *AuthService) ResolveUser(ctx context.Context, claims *Claims) (*model.User, error) {
	key := config.CacheKey.UserByExternalIDKey(claims.Subject)

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var user model.User
		if err := json.Unmarshal(data, &user); err == nil {
			user.ExternalID = claims.Subject
			return &user, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding unreadable user cache entry")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Msg("User cache lookup failed, falling back to database")
	}

	user := &model.User{
		ExternalID: claims.Subject,
		Name:       claims.Name,
		Email:      claims.Email,
	}
	if user.Name == "" {
		user.Name = claims.Email
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	s.cacheUser(ctx, user)
	return user, nil
}

// UpdateRole changes a user's role and drops the cached mapping.
func (s *AuthService) UpdateRole(ctx context.Context, user *model.User, role model.Role) error {
	if err := s.userRepo.UpdateRole(ctx, user.ID, role); err != nil {
		return notFound(err)
	}
	user.Role = role

	if err := s.rdb.Del(ctx, config.CacheKey.UserByExternalIDKey(user.ExternalID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to drop user cache")
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(role)).
		Msg("Role updated")
	return nil
}

func (s *AuthService) cacheUser(ctx context.Context, user *model.User) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	key := config.CacheKey.UserByExternalIDKey(user.ExternalID)
	if err := s.rdb.Set(ctx, key, data, s.cfg.UserCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache user")
	}
}
