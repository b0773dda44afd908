// Package services содержит логику поставщика идентификации: регистрацию, вход и выход
// пользователей и подписку на изменения сессии.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/work-diary/internal/lib/jwt"
	"github.com/magabrotheeeer/work-diary/internal/lib/password"
	"github.com/magabrotheeeer/work-diary/internal/lib/sl"
	"github.com/magabrotheeeer/work-diary/internal/models"
	"github.com/magabrotheeeer/work-diary/internal/storage/repository"
)

var (
	// ErrAuth неверные учётные данные, недействительный или отозванный токен.
	ErrAuth = errors.New("authentication failed")
	// ErrUserExists пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя.
	RegisterUser(ctx context.Context, user models.User) error
	// GetUserByEmail возвращает пользователя по email или repository.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RevocationStore хранит идентификаторы отозванных токенов до истечения их срока.
type RevocationStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AuthService отвечает за регистрацию, вход, выход и проверку JWT.
type AuthService struct {
	users    UserRepository
	revoked  RevocationStore
	jwtMaker jwt.Maker
	log      *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(*models.UserRef)
	nextID    int
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, revoked RevocationStore, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		revoked:   revoked,
		jwtMaker:  jwtMaker,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func(*models.UserRef)),
	}
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

// Register создает нового пользователя с хэшированием пароля.
func (s *AuthService) Register(ctx context.Context, email, displayName, photoURL, rawPassword string) (*models.UserRef, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		UUID:         uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		PhotoURL:     photoURL,
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC(),
	}
	if err = s.users.RegisterUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_id", user.UUID))
	return user.Ref(), nil
}

// SignIn проверяет пароль и выпускает токен сессии. Подписчики OnChange получают пользователя.
func (s *AuthService) SignIn(ctx context.Context, email, rawPassword string) (string, *models.UserRef, error) {
	const op = "services.auth.SignIn"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}

	ref := user.Ref()
	token, _, err := s.jwtMaker.GenerateToken(ref)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ref)
	return token, ref, nil
}

// SignOut отзывает токен до конца его срока действия. Подписчики OnChange получают nil.
// Если отзыв не удалось сохранить, возвращается models.ErrStoreUnavailable и выход не засчитывается.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	const op = "services.auth.SignOut"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrAuth, err)
	}
	if claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Time.Sub(s.now())
		if ttl > 0 {
			if err = s.revoked.Set(ctx, revokedKey(claims.ID), true, ttl); err != nil {
				s.log.Error("failed to revoke token", slog.String("user_id", claims.UserID), sl.Err(err))
				return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
			}
		}
	}

	s.log.Info("user signed out", slog.String("user_id", claims.UserID))
	s.notify(nil)
	return nil
}

// Validate проверяет токен и возвращает пользователя. Отозванный токен даёт ErrAuth.
// Если хранилище отзывов недоступно, возвращается models.ErrStoreUnavailable.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.UserRef, error) {
	const op = "services.auth.Validate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrAuth, err)
	}
	revoked, err := s.revoked.Exists(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w: token revoked", op, ErrAuth)
	}
	return claims.User(), nil
}

// OnChange подписывает callback на изменения сессии: вызов с пользователем при входе
// и с nil при выходе. Возвращает функцию отписки, повторный вызов которой безопасен.
func (s *AuthService) OnChange(callback func(*models.UserRef)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = callback
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *AuthService) notify(user *models.UserRef) {
	s.mu.RLock()
	callbacks := make([]func(*models.UserRef), 0, len(s.listeners))
	for _, cb := range s.listeners {
		callbacks = append(callbacks, cb)
	}
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb(user)
	}
}
