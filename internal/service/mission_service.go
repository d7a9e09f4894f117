package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/somang-dev/classcoin-api/internal/dto"
	"github.com/somang-dev/classcoin-api/internal/models"
	"github.com/somang-dev/classcoin-api/internal/repository"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type submissionUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	LockTx(ctx context.Context, tx *sqlx.Tx, id string) error
	CountStudentsInClassTx(ctx context.Context, tx *sqlx.Tx, key models.ClassKey) (int, error)
}

type submissionMissionStore interface {
	FindByID(ctx context.Context, id string) (*models.Mission, error)
}

type submissionLedgerStore interface {
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.SchoolClass, error)
	FindOrCreate(ctx context.Context, key models.ClassKey) (*models.SchoolClass, error)
	CreditTx(ctx context.Context, tx *sqlx.Tx, classID string, delta float64) (*models.SchoolClass, error)
}

type submissionLogStore interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, log *models.MissionLog) error
	FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.MissionLog, error)
	UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, log *models.MissionLog) error
	SumDailyRegular(ctx context.Context, studentID, date string) (float64, error)
	SumDailyRegularTx(ctx context.Context, tx *sqlx.Tx, studentID, date string) (float64, error)
	CountApprovedStudentsTx(ctx context.Context, tx *sqlx.Tx, classID, date string) (int, error)
	ListPendingForTeacher(ctx context.Context, teacherID string, homeroomClassID *string) ([]repository.PendingLogRow, error)
}

type classDailyStore interface {
	EnsureTx(ctx context.Context, tx *sqlx.Tx, classID, date string) (*models.ClassDailyMission, error)
	MarkAwardedTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type completionCounterStore interface {
	IncrementTx(ctx context.Context, tx *sqlx.Tx, studentID, missionID string) error
}

// MissionService runs the submission and review flows. Every ledger mutation
// happens inside a single transaction together with the log write and the
// class bonus check.
type MissionService struct {
	users     submissionUserStore
	missions  submissionMissionStore
	classes   submissionLedgerStore
	logs      submissionLogStore
	daily     classDailyStore
	counters  completionCounterStore
	tx        txProvider
	cache     *CharacterCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMissionService wires the submission pipeline dependencies.
func NewMissionService(
	users submissionUserStore,
	missions submissionMissionStore,
	classes submissionLedgerStore,
	logs submissionLogStore,
	daily classDailyStore,
	counters completionCounterStore,
	tx txProvider,
	cache *CharacterCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *MissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissionService{
		users:     users,
		missions:  missions,
		classes:   classes,
		logs:      logs,
		daily:     daily,
		counters:  counters,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Submit records a mission completion for a student. Regular missions are
// credited immediately with the capped daily step; emergency missions stay
// pending until a teacher reviews them.
func (s *MissionService) Submit(ctx context.Context, studentID string, req dto.SubmitMissionRequest) (*dto.SubmitMissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mission submission payload")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, s.mapLookupErr(err, "student not found")
	}
	if !student.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit missions")
	}
	if student.Grade == nil || student.ClassNumber == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no class assignment")
	}

	mission, err := s.missions.FindByID(ctx, req.MissionID)
	if err != nil {
		return nil, s.mapLookupErr(err, "mission not found")
	}
	if mission.IsEmergency != (req.MissionType == models.MissionEmergency) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mission type does not match the mission")
	}

	class, err := s.classes.FindOrCreate(ctx, models.ClassKey{
		EducationOfficeCode: student.EducationOfficeCode,
		SchoolCode:          student.SchoolCode,
		Grade:               *student.Grade,
		ClassNumber:         *student.ClassNumber,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom")
	}
	if mission.SchoolClassID != nil && *mission.SchoolClassID != class.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "mission is scoped to a different classroom")
	}

	date := ensureDate(req.Date)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Serialises concurrent submissions by the same student so the daily
	// cap cannot be overshot by a read-compute-write race.
	if err = s.users.LockTx(ctx, tx, student.ID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock student row")
		return nil, err
	}

	var (
		delta      float64
		status     models.LogStatus
		dailyAfter float64
	)
	switch req.MissionType {
	case models.MissionRegular:
		var dailySoFar float64
		dailySoFar, err = s.logs.SumDailyRegularTx(ctx, tx, student.ID, date)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum daily coins")
			return nil, err
		}
		delta = regularDelta(dailySoFar)
		status = models.LogStatusApproved
		dailyAfter = roundCoin(dailySoFar + delta)
	case models.MissionEmergency:
		delta = emergencyReward
		status = models.LogStatusPending
	}

	log := &models.MissionLog{
		StudentID:     student.ID,
		MissionID:     &mission.ID,
		SchoolClassID: class.ID,
		MissionType:   req.MissionType,
		CoinDelta:     delta,
		Date:          date,
		Status:        status,
	}
	if status == models.LogStatusApproved {
		now := time.Now().UTC()
		log.ApprovedAt = &now
	}
	if err = s.logs.CreateTx(ctx, tx, log); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
		return nil, err
	}

	bonusGranted := false
	if status == models.LogStatusApproved && delta > 0 {
		class, err = s.classes.CreditTx(ctx, tx, class.ID, delta)
		if err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit classroom")
			return nil, err
		}
		bonusGranted, class, err = s.awardBonusTx(ctx, tx, class, date)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit submission")
		return nil, err
	}

	if status == models.LogStatusApproved && delta > 0 {
		s.cache.Invalidate(ctx, class.ID)
		s.metrics.ObserveCoinsCredited(delta)
	}
	s.metrics.ObserveSubmission(req.MissionType, status)
	if bonusGranted {
		s.metrics.ObserveBonusAwarded()
	}

	if req.MissionType == models.MissionEmergency {
		dailyAfter, err = s.logs.SumDailyRegular(ctx, student.ID, date)
		if err != nil {
			s.logger.Warn("failed to read daily coin total after submission", zap.Error(err))
			dailyAfter = 0
			err = nil
		}
	}

	level, image := ResolveCharacter(class.CoinCount)
	s.logger.Info("mission submitted",
		zap.String("studentId", student.ID),
		zap.String("missionId", mission.ID),
		zap.String("missionType", string(req.MissionType)),
		zap.Float64("coinDelta", delta),
		zap.String("status", string(status)),
		zap.Bool("bonusGranted", bonusGranted))

	return &dto.SubmitMissionResponse{
		CoinDelta:        delta,
		TotalCoin:        class.CoinCount,
		Level:            level,
		Image:            image,
		DailyRegularCoin: dailyAfter,
		BonusGranted:     bonusGranted,
		Status:           status,
		LogID:            log.ID,
	}, nil
}

// Review decides a pending submission. The log row is locked for the whole
// transaction so two reviewers cannot both win.
func (s *MissionService) Review(ctx context.Context, teacherID, logID string, req dto.ReviewSubmissionRequest) (*dto.ReviewSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, s.mapLookupErr(err, "teacher not found")
	}
	if !teacher.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can review submissions")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	log, err := s.logs.FindByIDForUpdateTx(ctx, tx, logID)
	if err != nil {
		err = s.mapLookupErr(err, "submission not found")
		return nil, err
	}
	if log.Status != models.LogStatusPending {
		err = appErrors.Clone(appErrors.ErrConflict, "submission has already been reviewed")
		return nil, err
	}

	var class *models.SchoolClass
	class, err = s.classes.FindByIDTx(ctx, tx, log.SchoolClassID)
	if err != nil {
		err = s.mapLookupErr(err, "classroom not found")
		return nil, err
	}
	var authorized bool
	authorized, err = s.canReview(ctx, teacher, class, log)
	if err != nil {
		return nil, err
	}
	if !authorized {
		err = appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another teacher's scope")
		return nil, err
	}

	bonusGranted := false
	now := time.Now().UTC()
	log.ReviewedBy = &teacher.ID

	switch req.Action {
	case dto.ReviewActionApprove:
		log.Status = models.LogStatusApproved
		log.ApprovedAt = &now
		if err = s.logs.UpdateReviewTx(ctx, tx, log); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
			return nil, err
		}
		if log.CoinDelta > 0 {
			class, err = s.classes.CreditTx(ctx, tx, class.ID, log.CoinDelta)
			if err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit classroom")
				return nil, err
			}
			if log.MissionID != nil {
				if err = s.counters.IncrementTx(ctx, tx, log.StudentID, *log.MissionID); err != nil {
					err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bump completion counter")
					return nil, err
				}
			}
			bonusGranted, class, err = s.awardBonusTx(ctx, tx, class, log.Date)
			if err != nil {
				return nil, err
			}
		}
	case dto.ReviewActionReject:
		log.Status = models.LogStatusRejected
		log.RejectionReason = req.RejectionReason
		// ApprovedAt doubles as the decision timestamp for rejections.
		log.ApprovedAt = &now
		if err = s.logs.UpdateReviewTx(ctx, tx, log); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit review")
		return nil, err
	}

	if log.Status == models.LogStatusApproved && log.CoinDelta > 0 {
		s.cache.Invalidate(ctx, class.ID)
		s.metrics.ObserveCoinsCredited(log.CoinDelta)
	}
	if bonusGranted {
		s.metrics.ObserveBonusAwarded()
	}

	level, image := ResolveCharacter(class.CoinCount)
	s.logger.Info("submission reviewed",
		zap.String("logId", log.ID),
		zap.String("teacherId", teacher.ID),
		zap.String("action", req.Action),
		zap.Bool("bonusGranted", bonusGranted))

	return &dto.ReviewSubmissionResponse{
		Status:          log.Status,
		CoinDelta:       log.CoinDelta,
		TotalCoin:       class.CoinCount,
		Level:           level,
		Image:           image,
		BonusGranted:    bonusGranted,
		RejectionReason: log.RejectionReason,
	}, nil
}

// ListPending returns the reviewable submissions visible to a teacher: those
// from their homeroom class plus those against missions they authored.
func (s *MissionService) ListPending(ctx context.Context, teacherID string) ([]dto.PendingSubmissionItem, error) {
	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, s.mapLookupErr(err, "teacher not found")
	}
	if !teacher.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can list pending submissions")
	}

	var homeroomClassID *string
	if teacher.HasHomeroom() {
		class, err := s.classes.FindOrCreate(ctx, models.ClassKey{
			EducationOfficeCode: teacher.EducationOfficeCode,
			SchoolCode:          teacher.SchoolCode,
			Grade:               *teacher.HomeroomGrade,
			ClassNumber:         *teacher.HomeroomClass,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve homeroom classroom")
		}
		homeroomClassID = &class.ID
	}

	rows, err := s.logs.ListPendingForTeacher(ctx, teacher.ID, homeroomClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending submissions")
	}

	items := make([]dto.PendingSubmissionItem, 0, len(rows))
	for _, row := range rows {
		item := dto.PendingSubmissionItem{
			LogID: row.LogID,
			Student: dto.PendingStudent{
				ID:     row.StudentID,
				Name:   row.StudentName,
				UserID: row.StudentLoginID,
			},
			MissionType: row.MissionType,
			CoinDelta:   row.CoinDelta,
			Date:        row.Date,
			SubmittedAt: row.SubmittedAt,
		}
		if row.MissionID != nil && row.MissionTitle != nil {
			item.Mission = &dto.PendingMission{
				ID:    *row.MissionID,
				Title: *row.MissionTitle,
			}
			if row.MissionDescription != nil {
				item.Mission.Description = *row.MissionDescription
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// awardBonusTx grants the once-per-day class bonus when every enrolled
// student has an approved positive-delta log for the date. The per-day row is
// locked so concurrent approvals cannot double-grant.
func (s *MissionService) awardBonusTx(ctx context.Context, tx *sqlx.Tx, class *models.SchoolClass, date string) (bool, *models.SchoolClass, error) {
	daily, err := s.daily.EnsureTx(ctx, tx, class.ID, date)
	if err != nil {
		return false, class, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class daily record")
	}
	if daily.BonusAwarded {
		return false, class, nil
	}

	total, err := s.users.CountStudentsInClassTx(ctx, tx, class.ClassKey)
	if err != nil {
		return false, class, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolled students")
	}
	if total == 0 {
		return false, class, nil
	}

	approved, err := s.logs.CountApprovedStudentsTx(ctx, tx, class.ID, date)
	if err != nil {
		return false, class, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approved students")
	}
	if approved < total {
		return false, class, nil
	}

	if err := s.daily.MarkAwardedTx(ctx, tx, daily.ID); err != nil {
		return false, class, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark bonus awarded")
	}
	credited, err := s.classes.CreditTx(ctx, tx, class.ID, classBonusCoin)
	if err != nil {
		return false, class, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to credit class bonus")
	}
	return true, credited, nil
}

// canReview checks homeroom ownership first, then mission authorship.
func (s *MissionService) canReview(ctx context.Context, teacher *models.User, class *models.SchoolClass, log *models.MissionLog) (bool, error) {
	if teacher.HasHomeroom() &&
		teacher.EducationOfficeCode == class.EducationOfficeCode &&
		teacher.SchoolCode == class.SchoolCode &&
		*teacher.HomeroomGrade == class.Grade &&
		*teacher.HomeroomClass == class.ClassNumber {
		return true, nil
	}
	if log.MissionID == nil {
		return false, nil
	}
	mission, err := s.missions.FindByID(ctx, *log.MissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	return mission.TeacherID != nil && *mission.TeacherID == teacher.ID, nil
}

func (s *MissionService) mapLookupErr(err error, notFoundMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch record")
}
