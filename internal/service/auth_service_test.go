package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/somang-dev/classcoin-api/internal/models"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

type stubAuthUserStore struct {
	byID      map[string]*models.User
	byLoginID map[string]*models.User
	createErr error
	created   []*models.User
}

func (s *stubAuthUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserStore) FindByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	user, ok := s.byLoginID[loginID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserStore) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	_, ok := s.byLoginID[loginID]
	return ok, nil
}

func (s *stubAuthUserStore) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.ID = "user-new"
	s.created = append(s.created, user)
	return nil
}

type stubSchoolValidator struct {
	schoolName string
	err        error
}

func (s *stubSchoolValidator) ValidateSchool(ctx context.Context, officeCode, schoolCode string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.schoolName, nil
}

type authFixture struct {
	service *AuthService
	users   *stubAuthUserStore
	schools *stubSchoolValidator
	classes *stubLedgerStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := &stubAuthUserStore{
		byID:      map[string]*models.User{},
		byLoginID: map[string]*models.User{},
	}
	schools := &stubSchoolValidator{schoolName: "서울중학교"}
	classes := &stubLedgerStore{}

	svc := NewAuthService(users, classes, schools, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "classcoin-api",
	})
	return &authFixture{service: svc, users: users, schools: schools, classes: classes}
}

func studentRegisterRequest() models.RegisterRequest {
	return models.RegisterRequest{
		Role:                models.RoleStudent,
		Name:                "김하늘",
		UserID:              "sky-student",
		Password:            "password123",
		School:              "서울 중학교",
		EducationOfficeCode: "B10",
		SchoolCode:          "7011911",
		Grade:               intPtr(2),
		ClassNumber:         intPtr(3),
		StudentNumber:       intPtr(14),
	}
}

func TestAuthServiceRegisterStudentStoresCanonicalSchool(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.service.Register(context.Background(), studentRegisterRequest())
	require.NoError(t, err)

	assert.Equal(t, "sky-student", res.UserID)
	assert.Equal(t, models.RoleStudent, res.Role)
	require.Len(t, f.users.created, 1)
	created := f.users.created[0]
	assert.Equal(t, "서울중학교", created.School)
	assert.NotEqual(t, "password123", created.PasswordHash)
	require.NotNil(t, f.classes.class)
	assert.Equal(t, 2, f.classes.class.Grade)
	assert.Equal(t, 3, f.classes.class.ClassNumber)
}

func TestAuthServiceRegisterRejectsSchoolMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.schools.schoolName = "부산중학교"

	_, err := f.service.Register(context.Background(), studentRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.users.created)
}

func TestAuthServiceRegisterRequiresStudentFields(t *testing.T) {
	f := newAuthFixture(t)
	req := studentRegisterRequest()
	req.Grade = nil

	_, err := f.service.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterConflictOnDuplicateLoginID(t *testing.T) {
	f := newAuthFixture(t)
	f.users.createErr = &pq.Error{Code: "23505"}

	_, err := f.service.Register(context.Background(), studentRegisterRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterTeacherHomeroomMustBePaired(t *testing.T) {
	f := newAuthFixture(t)
	req := models.RegisterRequest{
		Role:                models.RoleTeacher,
		Name:                "박선생",
		UserID:              "homeroom-teacher",
		Password:            "password123",
		School:              "서울중학교",
		EducationOfficeCode: "B10",
		SchoolCode:          "7011911",
		HomeroomGrade:       intPtr(2),
	}

	_, err := f.service.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	f.users.byLoginID["sky-student"] = &models.User{
		ID:           "student-1",
		Role:         models.RoleStudent,
		Name:         "김하늘",
		LoginID:      "sky-student",
		PasswordHash: string(hash),
	}

	res, err := f.service.Login(context.Background(), models.LoginRequest{
		UserID:   "sky-student",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "student-1", res.User.ID)

	claims, err := f.service.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "classcoin-api", claims.Issuer)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	f.users.byLoginID["sky-student"] = &models.User{
		ID:           "student-1",
		LoginID:      "sky-student",
		PasswordHash: string(hash),
	}

	_, err = f.service.Login(context.Background(), models.LoginRequest{
		UserID:   "sky-student",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), models.LoginRequest{
		UserID:   "nobody",
		Password: "password123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceIsLoginIDAvailable(t *testing.T) {
	f := newAuthFixture(t)
	f.users.byLoginID["taken"] = &models.User{ID: "user-1", LoginID: "taken"}

	available, err := f.service.IsLoginIDAvailable(context.Background(), "taken")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.service.IsLoginIDAvailable(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = f.service.IsLoginIDAvailable(context.Background(), "")
	require.Error(t, err)
}
