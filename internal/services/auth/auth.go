// Package auth содержит логику бизнес-уровня для регистрации, входа и выхода
// пользователей учебного центра.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/institute-app/internal/lib/jwt"
	"github.com/magabrotheeeer/institute-app/internal/lib/password"
	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/sessionstore"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

// ErrInvalidCredentials — единый ответ на "нет такого пользователя" и
// "неверный пароль". Случаи не различаются, чтобы не раскрывать
// существование учётной записи.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken возвращается регистрацией, если учётная запись с таким
// email уже существует.
var ErrEmailTaken = errors.New("email already registered")

// Service отвечает за регистрацию, вход, выход и валидацию JWT.
type Service struct {
	store    storage.Store
	sessions *sessionstore.Store
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(store storage.Store, sessions *sessionstore.Store, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Login проверяет идентификатор и пароль пользователя.
//
// Идентификатор с символом "@" ищется по полю email, иначе — по полю mobile,
// в обоих случаях точным совпадением. При успехе профиль без хэша пароля
// сохраняется в хранилище сессии и возвращается вместе с JWT.
// При любой неудаче сессия остаётся нетронутой.
func (s *Service) Login(ctx context.Context, identifier, rawPassword string) (*models.User, string, error) {
	const op = "auth.Login"

	identifier = strings.TrimSpace(identifier)
	field := "mobile"
	if strings.Contains(identifier, "@") {
		field = "email"
	}

	docs, err := s.store.Query(ctx, models.UsersCollection, field, identifier)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if len(docs) == 0 {
		return nil, "", ErrInvalidCredentials
	}

	var user models.User
	if err := docs[0].Decode(&user); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Verify(user.PasswordHash, rawPassword); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	sanitized := user.Sanitized()
	if err := s.sessions.Save(ctx, sanitized); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("login success", slog.String("user_id", user.ID), slog.String("role", user.Role))
	return &sanitized, token, nil
}

// Register создает нового пользователя с хэшированием пароля и ролью student.
//
// Email проверяется на занятость точным совпадением в том виде, в каком его
// ввёл пользователь. Дата создания проставляется на стороне хранилища.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	const op = "auth.Register"

	existing, err := s.store.Query(ctx, models.UsersCollection, "email", req.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(existing) > 0 {
		return "", ErrEmailTaken
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		Mobile:       req.Mobile,
		Address:      req.Address,
		Role:         models.RoleStudent, // дефолтная роль при регистрации
		PasswordHash: hashed,
	}
	fields, err := storage.EncodeFields(user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.store.Create(ctx, models.UsersCollection, fields)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("user_id", id))
	return id, nil
}

// Profile возвращает профиль пользователя без хэша пароля.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "auth.Profile"

	doc, err := s.store.Get(ctx, models.UsersCollection, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var user models.User
	if err := doc.Decode(&user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateProfile меняет редактируемые поля профиля. Email, роль и пароль
// этой операцией не меняются.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.DummyProfileUpdate) error {
	const op = "auth.UpdateProfile"

	if _, err := s.store.Get(ctx, models.UsersCollection, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fields := map[string]any{
		"name":    req.Name,
		"mobile":  req.Mobile,
		"address": req.Address,
	}
	if err := s.store.Merge(ctx, models.UsersCollection, userID, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("profile updated", slog.String("user_id", userID))
	return nil
}

// Logout очищает хранилище сессии.
func (s *Service) Logout(ctx context.Context) error {
	const op = "auth.Logout"

	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе,
// роль и признак валидности.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return user, claims.Role, true, nil
}
