package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/somang-dev/classcoin-api/internal/models"
	"github.com/somang-dev/classcoin-api/internal/repository"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

type authUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByLoginID(ctx context.Context, loginID string) (*models.User, error)
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type authClassStore interface {
	FindOrCreate(ctx context.Context, key models.ClassKey) (*models.SchoolClass, error)
}

type schoolValidator interface {
	ValidateSchool(ctx context.Context, officeCode, schoolCode string) (string, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides signup and login use cases.
type AuthService struct {
	users     authUserStore
	classes   authClassStore
	schools   schoolValidator
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users authUserStore,
	classes authClassStore,
	schools schoolValidator,
	validate *validator.Validate,
	logger *zap.Logger,
	config AuthConfig,
) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		classes:   classes,
		schools:   schools,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// normalizeSchoolName strips whitespace and lowercases for comparison with
// the registry spelling.
func normalizeSchoolName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// Register creates a student or teacher account. The school tuple is checked
// against the national registry and the canonical spelling is stored.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}
	if err := validateRoleFields(req); err != nil {
		return nil, err
	}

	schoolName, err := s.schools.ValidateSchool(ctx, req.EducationOfficeCode, req.SchoolCode)
	if err != nil {
		return nil, err
	}
	if normalizeSchoolName(req.School) != normalizeSchoolName(schoolName) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school name does not match the given education office and school codes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Role:                req.Role,
		Name:                req.Name,
		LoginID:             req.UserID,
		School:              schoolName,
		EducationOfficeCode: req.EducationOfficeCode,
		SchoolCode:          req.SchoolCode,
		PasswordHash:        string(hash),
	}

	switch req.Role {
	case models.RoleStudent:
		user.Grade = req.Grade
		user.ClassNumber = req.ClassNumber
		user.StudentNumber = req.StudentNumber
		if _, err := s.classes.FindOrCreate(ctx, models.ClassKey{
			EducationOfficeCode: req.EducationOfficeCode,
			SchoolCode:          req.SchoolCode,
			Grade:               *req.Grade,
			ClassNumber:         *req.ClassNumber,
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
		}
	case models.RoleTeacher:
		user.Subject = req.Subject
		user.HomeroomGrade = req.HomeroomGrade
		user.HomeroomClass = req.HomeroomClass
		if req.HomeroomGrade != nil && req.HomeroomClass != nil {
			if _, err := s.classes.FindOrCreate(ctx, models.ClassKey{
				EducationOfficeCode: req.EducationOfficeCode,
				SchoolCode:          req.SchoolCode,
				Grade:               *req.HomeroomGrade,
				ClassNumber:         *req.HomeroomClass,
			}); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve homeroom classroom")
			}
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user id already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered",
		zap.String("userId", user.ID),
		zap.String("role", string(user.Role)))

	return &models.UserInfo{
		ID:     user.ID,
		UserID: user.LoginID,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}

func validateRoleFields(req models.RegisterRequest) error {
	switch req.Role {
	case models.RoleStudent:
		if req.Grade == nil || req.ClassNumber == nil || req.StudentNumber == nil {
			return appErrors.Clone(appErrors.ErrValidation, "grade, class and student number are required for students")
		}
	case models.RoleTeacher:
		if (req.HomeroomGrade == nil) != (req.HomeroomClass == nil) {
			return appErrors.Clone(appErrors.ErrValidation, "homeroom grade and class must be provided together")
		}
	}
	return nil
}

// Login authenticates a user and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByLoginID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid user id or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid user id or password")
	}

	accessToken, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			ID:     user.ID,
			UserID: user.LoginID,
			Name:   user.Name,
			Role:   user.Role,
		},
	}, nil
}

// Profile returns the authenticated user's own record.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserLookupErr(err)
	}
	return user, nil
}

// IsLoginIDAvailable reports whether a login identifier is free to register.
func (s *AuthService) IsLoginIDAvailable(ctx context.Context, loginID string) (bool, error) {
	if loginID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	exists, err := s.users.ExistsByLoginID(ctx, loginID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user id")
	}
	return !exists, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:  user.ID,
		Role:    user.Role,
		Name:    user.Name,
		LoginID: user.LoginID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
