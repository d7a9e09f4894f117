package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/somang-dev/classcoin-api/internal/dto"
	"github.com/somang-dev/classcoin-api/internal/models"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

// characterCacheStore abstracts persistence for cached character payloads.
type characterCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CharacterCache caches resolved class characters keyed by classroom id.
// All methods are nil-safe; a nil cache disables caching entirely.
type CharacterCache struct {
	repo    characterCacheStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCharacterCache constructs the cache wrapper.
func NewCharacterCache(repo characterCacheStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CharacterCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CharacterCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

func characterCacheKey(classID string) string {
	return fmt.Sprintf("class:character:%s", classID)
}

// Get attempts a cached lookup, reporting whether the cache was hit.
func (c *CharacterCache) Get(ctx context.Context, classID string) (*dto.ClassCharacterResponse, bool) {
	if c == nil || c.repo == nil {
		return nil, false
	}
	start := time.Now()
	var payload dto.ClassCharacterResponse
	err := c.repo.Get(ctx, characterCacheKey(classID), &payload)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			c.logger.Warn("character cache get failed", zap.String("classId", classID), zap.Error(err))
		}
		return nil, false
	}
	c.metrics.RecordCacheOperation(true, duration)
	return &payload, true
}

// Set stores a resolved character payload.
func (c *CharacterCache) Set(ctx context.Context, classID string, payload *dto.ClassCharacterResponse) {
	if c == nil || c.repo == nil || payload == nil {
		return
	}
	if err := c.repo.Set(ctx, characterCacheKey(classID), payload, c.ttl); err != nil {
		c.logger.Warn("character cache set failed", zap.String("classId", classID), zap.Error(err))
	}
}

// Invalidate drops the cached character after a ledger change.
func (c *CharacterCache) Invalidate(ctx context.Context, classID string) {
	if c == nil || c.repo == nil {
		return
	}
	if err := c.repo.Delete(ctx, characterCacheKey(classID)); err != nil {
		c.logger.Warn("character cache invalidate failed", zap.String("classId", classID), zap.Error(err))
	}
}

type classUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type classLedgerStore interface {
	FindOrCreate(ctx context.Context, key models.ClassKey) (*models.SchoolClass, error)
	Credit(ctx context.Context, classID string, delta float64) (*models.SchoolClass, error)
}

// ClassService exposes the classroom ledger: the character view and the
// teacher-only manual credit.
type ClassService struct {
	users     classUserStore
	classes   classLedgerStore
	cache     *CharacterCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService wires classroom dependencies.
func NewClassService(
	users classUserStore,
	classes classLedgerStore,
	cache *CharacterCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		users:     users,
		classes:   classes,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// characterClassKey merges explicit query fields over the principal's own
// classroom tuple: students default to their class assignment, teachers to
// their homeroom.
func characterClassKey(user *models.User, q dto.ClassCharacterQuery) (models.ClassKey, error) {
	key := models.ClassKey{
		EducationOfficeCode: user.EducationOfficeCode,
		SchoolCode:          user.SchoolCode,
	}
	if q.EducationOfficeCode != nil {
		key.EducationOfficeCode = *q.EducationOfficeCode
	}
	if q.SchoolCode != nil {
		key.SchoolCode = *q.SchoolCode
	}

	grade := q.Grade
	classNumber := q.ClassNumber
	switch {
	case user.IsStudent():
		if grade == nil {
			grade = user.Grade
		}
		if classNumber == nil {
			classNumber = user.ClassNumber
		}
	case user.IsTeacher():
		if grade == nil {
			grade = user.HomeroomGrade
		}
		if classNumber == nil {
			classNumber = user.HomeroomClass
		}
	}
	if grade == nil || classNumber == nil {
		return models.ClassKey{}, appErrors.Clone(appErrors.ErrValidation, "grade and class number are required")
	}
	key.Grade = *grade
	key.ClassNumber = *classNumber
	return key, nil
}

func mapUserLookupErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
}

// GetCharacter resolves a classroom balance into the display character,
// serving from cache when fresh. The target classroom comes from the query
// tuple with missing fields defaulted from the principal.
func (s *ClassService) GetCharacter(ctx context.Context, principalID string, q dto.ClassCharacterQuery) (*dto.ClassCharacterResponse, error) {
	user, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		return nil, mapUserLookupErr(err)
	}
	key, err := characterClassKey(user, q)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindOrCreate(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
	}

	if cached, ok := s.cache.Get(ctx, class.ID); ok {
		return cached, nil
	}

	level, image := ResolveCharacter(class.CoinCount)
	payload := &dto.ClassCharacterResponse{
		CoinCount: class.CoinCount,
		Level:     level,
		Image:     image,
	}
	s.cache.Set(ctx, class.ID, payload)
	return payload, nil
}

// IncrementCoin applies a teacher-initiated manual credit to a classroom. The
// tuple defaults from the teacher's own school and homeroom when omitted.
func (s *ClassService) IncrementCoin(ctx context.Context, teacherID string, req dto.IncrementCoinRequest) (*dto.ClassCoinResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coin increment payload")
	}

	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, mapUserLookupErr(err)
	}
	if !teacher.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can credit classrooms directly")
	}

	key := models.ClassKey{
		EducationOfficeCode: teacher.EducationOfficeCode,
		SchoolCode:          teacher.SchoolCode,
	}
	if req.EducationOfficeCode != nil {
		key.EducationOfficeCode = *req.EducationOfficeCode
	}
	if req.SchoolCode != nil {
		key.SchoolCode = *req.SchoolCode
	}
	switch {
	case req.Grade != nil && req.ClassNumber != nil:
		key.Grade = *req.Grade
		key.ClassNumber = *req.ClassNumber
	case teacher.HasHomeroom():
		key.Grade = *teacher.HomeroomGrade
		key.ClassNumber = *teacher.HomeroomClass
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and class number are required without a homeroom class")
	}

	delta := roundCoin(*req.CoinDelta)
	if delta < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coin delta must not be negative")
	}

	class, err := s.classes.FindOrCreate(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
	}
	if delta > 0 {
		class, err = s.classes.Credit(ctx, class.ID, delta)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit classroom")
		}
		s.cache.Invalidate(ctx, class.ID)
		s.metrics.ObserveCoinsCredited(delta)
	}

	s.logger.Info("classroom credited",
		zap.String("teacherId", teacher.ID),
		zap.String("classId", class.ID),
		zap.Float64("coinDelta", delta))

	return &dto.ClassCoinResponse{
		EducationOfficeCode: class.EducationOfficeCode,
		SchoolCode:          class.SchoolCode,
		Grade:               class.Grade,
		ClassNumber:         class.ClassNumber,
		CoinCount:           class.CoinCount,
	}, nil
}
