package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

const bcryptCost = 12

type AuthUsecase struct {
	users     repo.UserRepository
	jwtSecret []byte
	log       *slog.Logger
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string, log *slog.Logger) *AuthUsecase {
	return &AuthUsecase{users: users, jwtSecret: []byte(jwtSecret), log: log}
}

type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (u *AuthUsecase) Register(ctx context.Context, username, email, password string) (UserDTO, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || len(username) > 100 {
		return UserDTO{}, &InvalidArgumentError{Reason: "invalid username"}
	}
	if !strings.Contains(email, "@") || len(email) > 255 {
		return UserDTO{}, &InvalidArgumentError{Reason: "invalid email"}
	}
	if len(password) < 8 || len(password) > 72 {
		return UserDTO{}, &InvalidArgumentError{Reason: "password must be 8-72 chars"}
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return UserDTO{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if existing != nil {
		return UserDTO{}, &ConflictError{Reason: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return UserDTO{}, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := u.users.Create(ctx, user); err != nil {
		// unique index衝突（同時登録）もここに来る
		return UserDTO{}, &ConflictError{Reason: "email already registered"}
	}

	u.log.Info("user registered", "user_id", user.ID)
	return toUserDTO(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (TokenDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return TokenDTO{}, &InvalidArgumentError{Reason: "email and password are required"}
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return TokenDTO{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// 存在しないのかパスワード違いなのかは外に出さない
	if user == nil {
		return TokenDTO{}, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return TokenDTO{}, ErrUnauthorized
	}

	token, err := u.issueAccessToken(user.ID)
	if err != nil {
		return TokenDTO{}, err
	}

	return TokenDTO{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(accessTokenTTL.Seconds()),
	}, nil
}

func (u *AuthUsecase) issueAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(u.jwtSecret)
}

func toUserDTO(user *model.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
