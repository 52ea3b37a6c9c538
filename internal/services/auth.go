package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/requestdata"
	"github.com/yungbote/filatrack-backend/internal/types"
)

const credentialsProvider = "credentials"

// JWTClaims carries the user's role so authorization is decided from the
// token itself, never from comparing identifiers against configuration.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, params RegisterParams) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (*TokenPair, error)
	RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	accountRepo      repos.AccountRepo
	userTokenRepo    repos.UserTokenRepo
	analyticsService AnalyticsService
	jwtSecretKey     string
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	accountRepo repos.AccountRepo,
	userTokenRepo repos.UserTokenRepo,
	analyticsService AnalyticsService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:               db,
		log:              log.With("service", "AuthService"),
		userRepo:         userRepo,
		accountRepo:      accountRepo,
		userTokenRepo:    userTokenRepo,
		analyticsService: analyticsService,
		jwtSecretKey:     jwtSecretKey,
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, params RegisterParams) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	name := strings.TrimSpace(params.Name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apierr.InvalidField("Invalid email address")
	}
	if name == "" {
		return nil, apierr.InvalidField("You must provide a name")
	}
	if len(params.Password) < 8 {
		return nil, apierr.InvalidField("Password must be at least 8 characters")
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.InvalidField("An account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Role:     types.RoleUser,
	}
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		account := &types.Account{
			ID:       uuid.New(),
			UserID:   user.ID,
			Provider: credentialsProvider,
		}
		if _, err := as.accountRepo.Create(ctx, tx, []*types.Account{account}); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := as.analyticsService.IncrementDaily(ctx, time.Now(), types.AnalyticsDeltas{SignUps: 1}); err != nil {
		as.log.Warn("Failed to record sign up in analytics", "error", err)
	}
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotAuthenticated()
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.NotAuthenticated()
	}

	var pair *TokenPair
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pair, err = as.issueTokens(ctx, tx, user)
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apierr.NotAuthenticated()
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if existing == nil {
			return apierr.NotAuthenticated()
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return apierr.NotAuthenticated()
		}
		users, err := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("fetch user for refresh: %w", err)
		}
		if len(users) == 0 {
			return apierr.NotAuthenticated()
		}
		if err := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("rotate token: %w", err)
		}
		pair, err = as.issueTokens(ctx, tx, users[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.NotAuthenticated()
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := as.userTokenRepo.GetByAccessToken(ctx, tx, rd.TokenString)
		if err != nil {
			return fmt.Errorf("fetch session token: %w", err)
		}
		if token == nil {
			return nil
		}
		return as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{token.ID})
	})
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*TokenPair, error) {
	accessToken, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.NotAuthenticated()
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsedToken.Valid {
		return ctx, apierr.NotAuthenticated()
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok {
		return ctx, apierr.NotAuthenticated()
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.NotAuthenticated()
	}
	// A signed token alone is not a session; logout deletes the row and the
	// access token dies with it.
	tokenRow, err := as.userTokenRepo.GetByAccessToken(ctx, nil, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("fetch session token: %w", err)
	}
	if tokenRow == nil {
		return ctx, apierr.NotAuthenticated()
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		IsAdmin:     claims.Role == types.RoleAdmin,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
