package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/infinity-cafe/cafe-backend/pkg/auth"
	"github.com/infinity-cafe/cafe-backend/pkg/config"
	"github.com/infinity-cafe/cafe-backend/pkg/db"
	"github.com/infinity-cafe/cafe-backend/pkg/db/models"
	"github.com/infinity-cafe/cafe-backend/pkg/enums"
	pkgerrors "github.com/infinity-cafe/cafe-backend/pkg/errors"
	"github.com/infinity-cafe/cafe-backend/pkg/logger"
	"github.com/infinity-cafe/cafe-backend/pkg/security"
)

// UserDTO is the staff account payload returned to clients.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Username  string         `json:"username"`
	Role      enums.UserRole `json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// RegisterInput holds the payload to create a staff account.
type RegisterInput struct {
	Username string
	Password string
	Role     enums.UserRole
}

// LoginResult pairs the minted token with the account it belongs to.
type LoginResult struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}

// Service exposes staff account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]UserDTO, error)
}

type service struct {
	db        *gorm.DB
	jwtConfig config.JWTConfig
	pwConfig  config.PasswordConfig
	logg      *logger.Logger
	clock     func() time.Time
}

// NewService constructs the user service.
func NewService(conn *gorm.DB, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:        conn,
		jwtConfig: jwtCfg,
		pwConfig:  pwCfg,
		logg:      logg,
		clock:     time.Now,
	}, nil
}

const minPasswordLength = 8

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	if input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	hash, err := security.HashPassword(input.Password, s.pwConfig)
	if err != nil {
		return nil, err
	}

	row := models.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, row.ID.String()), "staff account created")
	return newUserDTO(&row), nil
}

// Login verifies credentials and mints an access token. Unknown usernames
// and bad passwords return the same error so the response does not leak
// which accounts exist.
func (s *service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	if username == "" || password == "" {
		return nil, invalid
	}

	var row models.User
	err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, invalid
	}

	ok, err := security.VerifyPassword(password, row.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}

	token, err := auth.MintAccessToken(s.jwtConfig, s.clock(), auth.AccessTokenPayload{
		UserID:   row.ID,
		Username: row.Username,
		Role:     row.Role,
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, row.ID.String()), "staff login")
	return &LoginResult{AccessToken: token, User: *newUserDTO(&row)}, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	var rows []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newUserDTO(&rows[i]))
	}
	return out, nil
}

func newUserDTO(row *models.User) *UserDTO {
	return &UserDTO{
		ID:        row.ID,
		Username:  row.Username,
		Role:      row.Role,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
	}
}
