package service

import (
	"context"
	"math/rand"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/somang-dev/classcoin-api/internal/dto"
	"github.com/somang-dev/classcoin-api/internal/models"
	"github.com/somang-dev/classcoin-api/internal/repository"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

// defaultMissions is the seeded regular mission catalog. Titles may repeat;
// the (title, description) pair is the identity used by seeding.
var defaultMissions = []repository.MissionSeed{
	{Title: "교복 등교", Description: "교복 잘 입고 등교"},
	{Title: "수행준비", Description: "영어 PPT 발표 준비"},
	{Title: "수행준비", Description: "수학 포트폴리오 준비"},
	{Title: "인사하기", Description: "밝게 인사하기"},
	{Title: "일찍등교", Description: "지각하지 않기"},
	{Title: "노트정리", Description: "배운 내용 정리"},
	{Title: "친구돕기", Description: "친구 도와주기"},
	{Title: "과제완료", Description: "국어 과제 제출하기"},
	{Title: "자리정돈", Description: "책상 깨끗이 하기"},
	{Title: "실내화신기", Description: "실습실 실내화 착용"},
}

const dailyMissionCount = 2

type catalogMissionStore interface {
	EnsureDefaults(ctx context.Context, seeds []repository.MissionSeed) error
	Create(ctx context.Context, mission *models.Mission) error
	ListRegular(ctx context.Context) ([]models.Mission, error)
	ListEmergencyByTeacher(ctx context.Context, teacherID string) ([]models.Mission, error)
	ListEmergencyForClass(ctx context.Context, classID *string) ([]models.Mission, error)
}

type catalogUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type catalogClassStore interface {
	FindOrCreate(ctx context.Context, key models.ClassKey) (*models.SchoolClass, error)
}

// CatalogService manages the mission catalog: the seeded regular missions,
// the daily random pick and teacher-authored emergency missions.
type CatalogService struct {
	missions  catalogMissionStore
	users     catalogUserStore
	classes   catalogClassStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService wires catalog dependencies.
func NewCatalogService(
	missions catalogMissionStore,
	users catalogUserStore,
	classes catalogClassStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		missions:  missions,
		users:     users,
		classes:   classes,
		validator: validate,
		logger:    logger,
	}
}

// SeedDefaults inserts any missing default regular missions. Safe to run on
// every startup.
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	if err := s.missions.EnsureDefaults(ctx, defaultMissions); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed default missions")
	}
	return nil
}

// DailyMissions returns up to two randomly picked regular missions. The pick
// changes per call; each submission is still capped by the daily quota.
func (s *CatalogService) DailyMissions(ctx context.Context) ([]dto.DailyMissionItem, error) {
	if err := s.SeedDefaults(ctx); err != nil {
		return nil, err
	}
	missions, err := s.missions.ListRegular(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regular missions")
	}
	if len(missions) > dailyMissionCount {
		rand.Shuffle(len(missions), func(i, j int) {
			missions[i], missions[j] = missions[j], missions[i]
		})
		missions = missions[:dailyMissionCount]
	}

	items := make([]dto.DailyMissionItem, 0, len(missions))
	for _, m := range missions {
		items = append(items, dto.DailyMissionItem{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
		})
	}
	return items, nil
}

// CreateEmergency registers a teacher-authored emergency mission. The class
// scope defaults to the teacher's homeroom; without one the mission is
// school-wide.
func (s *CatalogService) CreateEmergency(ctx context.Context, teacherID string, req dto.CreateEmergencyMissionRequest) (*dto.EmergencyMissionItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid emergency mission payload")
	}

	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, mapUserLookupErr(err)
	}
	if !teacher.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can create emergency missions")
	}

	grade := req.Grade
	classNumber := req.ClassNumber
	if grade == nil {
		grade = teacher.HomeroomGrade
	}
	if classNumber == nil {
		classNumber = teacher.HomeroomClass
	}

	mission := &models.Mission{
		Title:       req.Title,
		Description: req.Description,
		IsEmergency: true,
		Deadline:    req.Deadline,
		TeacherID:   &teacher.ID,
	}

	var classInfo *dto.ClassInfo
	if grade != nil && classNumber != nil {
		class, err := s.classes.FindOrCreate(ctx, models.ClassKey{
			EducationOfficeCode: teacher.EducationOfficeCode,
			SchoolCode:          teacher.SchoolCode,
			Grade:               *grade,
			ClassNumber:         *classNumber,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
		}
		mission.SchoolClassID = &class.ID
		classInfo = &dto.ClassInfo{Grade: class.Grade, ClassNumber: class.ClassNumber}
	}

	if err := s.missions.Create(ctx, mission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create emergency mission")
	}

	s.logger.Info("emergency mission created",
		zap.String("missionId", mission.ID),
		zap.String("teacherId", teacher.ID))

	return &dto.EmergencyMissionItem{
		ID:          mission.ID,
		Title:       mission.Title,
		Description: mission.Description,
		Deadline:    mission.Deadline,
		ClassInfo:   classInfo,
	}, nil
}

// ListEmergency returns emergency missions scoped to the caller: teachers see
// what they authored, students see unscoped missions plus those aimed at
// their classroom.
func (s *CatalogService) ListEmergency(ctx context.Context, principalID string) ([]dto.EmergencyMissionItem, error) {
	user, err := s.users.FindByID(ctx, principalID)
	if err != nil {
		return nil, mapUserLookupErr(err)
	}

	var missions []models.Mission
	switch {
	case user.IsTeacher():
		missions, err = s.missions.ListEmergencyByTeacher(ctx, user.ID)
	case user.IsStudent():
		var classID *string
		if user.Grade != nil && user.ClassNumber != nil {
			class, classErr := s.classes.FindOrCreate(ctx, models.ClassKey{
				EducationOfficeCode: user.EducationOfficeCode,
				SchoolCode:          user.SchoolCode,
				Grade:               *user.Grade,
				ClassNumber:         *user.ClassNumber,
			})
			if classErr != nil {
				return nil, appErrors.Wrap(classErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
			}
			classID = &class.ID
		}
		missions, err = s.missions.ListEmergencyForClass(ctx, classID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unsupported role")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list emergency missions")
	}

	items := make([]dto.EmergencyMissionItem, 0, len(missions))
	for _, m := range missions {
		item := dto.EmergencyMissionItem{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Deadline:    m.Deadline,
		}
		if m.ClassGrade != nil && m.ClassNumber != nil {
			item.ClassInfo = &dto.ClassInfo{Grade: *m.ClassGrade, ClassNumber: *m.ClassNumber}
		}
		items = append(items, item)
	}
	return items, nil
}
