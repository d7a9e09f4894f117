package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somang-dev/classcoin-api/internal/dto"
	"github.com/somang-dev/classcoin-api/internal/models"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

type stubCacheRepo struct {
	values  map[string]dto.ClassCharacterResponse
	deleted []string
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	out, ok := dest.(*dto.ClassCharacterResponse)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*out = value
	return nil
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]dto.ClassCharacterResponse)
	}
	payload, ok := value.(*dto.ClassCharacterResponse)
	if ok {
		s.values[key] = *payload
	}
	return nil
}

func (s *stubCacheRepo) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.values, key)
	return nil
}

type classFixture struct {
	service *ClassService
	classes *stubLedgerStore
	cache   *stubCacheRepo
}

func newClassFixture(t *testing.T, coinCount float64) *classFixture {
	t.Helper()

	users := &stubCatalogUserStore{users: map[string]*models.User{
		"student-1": {
			ID:                  "student-1",
			Role:                models.RoleStudent,
			EducationOfficeCode: "B10",
			SchoolCode:          "7011911",
			Grade:               intPtr(2),
			ClassNumber:         intPtr(3),
		},
		"teacher-1": {
			ID:                  "teacher-1",
			Role:                models.RoleTeacher,
			EducationOfficeCode: "B10",
			SchoolCode:          "7011911",
			HomeroomGrade:       intPtr(2),
			HomeroomClass:       intPtr(3),
		},
		"teacher-2": {
			ID:                  "teacher-2",
			Role:                models.RoleTeacher,
			EducationOfficeCode: "B10",
			SchoolCode:          "7011911",
		},
	}}
	classes := &stubLedgerStore{class: &models.SchoolClass{
		ID: "class-1",
		ClassKey: models.ClassKey{
			EducationOfficeCode: "B10",
			SchoolCode:          "7011911",
			Grade:               2,
			ClassNumber:         3,
		},
		CoinCount: coinCount,
	}}
	cacheRepo := &stubCacheRepo{}
	cache := NewCharacterCache(cacheRepo, nil, time.Minute, nil)

	return &classFixture{
		service: NewClassService(users, classes, cache, nil, nil, nil),
		classes: classes,
		cache:   cacheRepo,
	}
}

func TestClassServiceGetCharacterResolvesBalance(t *testing.T) {
	f := newClassFixture(t, 650)

	res, err := f.service.GetCharacter(context.Background(), "student-1", dto.ClassCharacterQuery{})
	require.NoError(t, err)
	assert.InDelta(t, 650, res.CoinCount, 1e-9)
	assert.Equal(t, 3, res.Level)
	assert.Equal(t, "/static/images/3.svg", res.Image)
}

func TestClassServiceGetCharacterAcceptsExplicitTuple(t *testing.T) {
	f := newClassFixture(t, 200)

	// teacher-2 has no homeroom, so the explicit tuple is the only way to
	// name a classroom.
	res, err := f.service.GetCharacter(context.Background(), "teacher-2", dto.ClassCharacterQuery{
		Grade:       intPtr(2),
		ClassNumber: intPtr(3),
	})
	require.NoError(t, err)
	assert.InDelta(t, 200, res.CoinCount, 1e-9)
	assert.Equal(t, models.ClassKey{
		EducationOfficeCode: "B10",
		SchoolCode:          "7011911",
		Grade:               2,
		ClassNumber:         3,
	}, f.classes.lastKey)
}

func TestClassServiceGetCharacterQueryOverridesPrincipal(t *testing.T) {
	f := newClassFixture(t, 0)

	_, err := f.service.GetCharacter(context.Background(), "teacher-1", dto.ClassCharacterQuery{
		SchoolCode:  strPtr("7011912"),
		Grade:       intPtr(5),
		ClassNumber: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClassKey{
		EducationOfficeCode: "B10",
		SchoolCode:          "7011912",
		Grade:               5,
		ClassNumber:         1,
	}, f.classes.lastKey)
}

func TestClassServiceGetCharacterRequiresTupleWithoutHomeroom(t *testing.T) {
	f := newClassFixture(t, 0)

	_, err := f.service.GetCharacter(context.Background(), "teacher-2", dto.ClassCharacterQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceGetCharacterServesFromCache(t *testing.T) {
	f := newClassFixture(t, 100)

	first, err := f.service.GetCharacter(context.Background(), "student-1", dto.ClassCharacterQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Level)

	// A stale balance change without invalidation keeps serving the cached
	// payload until the TTL expires.
	f.classes.class.CoinCount = 5000
	second, err := f.service.GetCharacter(context.Background(), "student-1", dto.ClassCharacterQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Level)
	assert.InDelta(t, 100, second.CoinCount, 1e-9)
}

func TestClassServiceIncrementCoinDefaultsToHomeroom(t *testing.T) {
	f := newClassFixture(t, 10)

	delta := 1.25
	res, err := f.service.IncrementCoin(context.Background(), "teacher-1", dto.IncrementCoinRequest{
		CoinDelta: &delta,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Grade)
	assert.Equal(t, 3, res.ClassNumber)
	assert.InDelta(t, 11.25, res.CoinCount, 1e-9)
	assert.Contains(t, f.cache.deleted, characterCacheKey("class-1"))
}

func TestClassServiceIncrementCoinRejectsStudent(t *testing.T) {
	f := newClassFixture(t, 0)

	delta := 1.0
	_, err := f.service.IncrementCoin(context.Background(), "student-1", dto.IncrementCoinRequest{
		CoinDelta: &delta,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClassServiceIncrementCoinRejectsNegativeDelta(t *testing.T) {
	f := newClassFixture(t, 0)

	delta := -2.0
	_, err := f.service.IncrementCoin(context.Background(), "teacher-1", dto.IncrementCoinRequest{
		CoinDelta: &delta,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceIncrementCoinRequiresTupleWithoutHomeroom(t *testing.T) {
	f := newClassFixture(t, 0)

	delta := 1.0
	_, err := f.service.IncrementCoin(context.Background(), "teacher-2", dto.IncrementCoinRequest{
		CoinDelta: &delta,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
