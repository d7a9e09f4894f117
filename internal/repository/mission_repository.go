package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/somang-dev/classcoin-api/internal/models"
)

const missionColumns = `m.id, m.title, m.description, m.is_emergency, m.deadline, m.teacher_id, m.school_class_id`

// MissionSeed is one catalog entry ensured at startup.
type MissionSeed struct {
	Title       string
	Description string
}

// MissionRepository persists the mission catalog.
type MissionRepository struct {
	db *sqlx.DB
}

// NewMissionRepository constructs the repository.
func NewMissionRepository(db *sqlx.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// FindByID loads a mission by primary key.
func (r *MissionRepository) FindByID(ctx context.Context, id string) (*models.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions m WHERE m.id = $1`, missionColumns)
	var mission models.Mission
	if err := r.db.GetContext(ctx, &mission, query, id); err != nil {
		return nil, err
	}
	return &mission, nil
}

// Create inserts a new mission row.
func (r *MissionRepository) Create(ctx context.Context, mission *models.Mission) error {
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}
	const query = `INSERT INTO missions (id, title, description, is_emergency, deadline, teacher_id, school_class_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		mission.ID, mission.Title, mission.Description, mission.IsEmergency,
		mission.Deadline, mission.TeacherID, mission.SchoolClassID,
	); err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

// EnsureDefaults upserts the seed catalog keyed by title+description. Safe to
// run repeatedly; existing rows are left untouched.
func (r *MissionRepository) EnsureDefaults(ctx context.Context, seeds []MissionSeed) error {
	const query = `INSERT INTO missions (id, title, description, is_emergency)
	SELECT $1, $2, $3, FALSE
	WHERE NOT EXISTS (
		SELECT 1 FROM missions WHERE title = $2 AND description = $3 AND is_emergency = FALSE
	)`

	for _, seed := range seeds {
		if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), seed.Title, seed.Description); err != nil {
			return fmt.Errorf("seed mission %q: %w", seed.Title, err)
		}
	}
	return nil
}

// ListRegular returns the full non-emergency catalog.
func (r *MissionRepository) ListRegular(ctx context.Context) ([]models.Mission, error) {
	query := fmt.Sprintf(`SELECT %s FROM missions m WHERE m.is_emergency = FALSE ORDER BY m.title ASC`, missionColumns)
	var missions []models.Mission
	if err := r.db.SelectContext(ctx, &missions, query); err != nil {
		return nil, fmt.Errorf("list regular missions: %w", err)
	}
	return missions, nil
}

// ListEmergencyByTeacher returns the missions authored by the teacher,
// earliest deadline first.
func (r *MissionRepository) ListEmergencyByTeacher(ctx context.Context, teacherID string) ([]models.Mission, error) {
	query := fmt.Sprintf(`SELECT %s, sc.grade AS class_grade, sc.class_number AS class_number
	FROM missions m
	LEFT JOIN school_classes sc ON sc.id = m.school_class_id
	WHERE m.is_emergency = TRUE AND m.teacher_id = $1
	ORDER BY m.deadline ASC NULLS LAST`, missionColumns)

	var missions []models.Mission
	if err := r.db.SelectContext(ctx, &missions, query, teacherID); err != nil {
		return nil, fmt.Errorf("list emergency missions by teacher: %w", err)
	}
	return missions, nil
}

// ListEmergencyForClass returns emergency missions visible to a student:
// unscoped missions plus those targeting the given classroom. A nil classID
// restricts the listing to unscoped missions.
func (r *MissionRepository) ListEmergencyForClass(ctx context.Context, classID *string) ([]models.Mission, error) {
	base := fmt.Sprintf(`SELECT %s, sc.grade AS class_grade, sc.class_number AS class_number
	FROM missions m
	LEFT JOIN school_classes sc ON sc.id = m.school_class_id
	WHERE m.is_emergency = TRUE`, missionColumns)

	var (
		missions []models.Mission
		err      error
	)
	if classID != nil {
		query := base + ` AND (m.school_class_id IS NULL OR m.school_class_id = $1)
	ORDER BY m.deadline ASC NULLS LAST`
		err = r.db.SelectContext(ctx, &missions, query, *classID)
	} else {
		query := base + ` AND m.school_class_id IS NULL
	ORDER BY m.deadline ASC NULLS LAST`
		err = r.db.SelectContext(ctx, &missions, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list emergency missions for class: %w", err)
	}
	return missions, nil
}
