package therapist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/psqlbuilder"
)

var therapistColumns = []string{
	"t.id",
	"t.name",
	"t.last_name",
	"t.email",
	"t.phone",
	"t.is_active",
	"t.created_at",
	"t.updated_at",
}

var scheduleColumns = []string{
	"id",
	"therapist_id",
	"day_of_week",
	"start_time",
	"end_time",
	"is_active",
	"created_at",
	"updated_at",
}

// Repository репозиторий терапевтов: сами терапевты, их квалификации
// и недельные расписания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория терапевтов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает терапевта с квалификациями и всем расписанием
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Therapist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(therapistColumns...).
		From("therapists t").
		Where(squirrel.Eq{"t.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	t, err := scanTherapist(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTherapistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan therapist: %v", ErrScanRow, err)
	}

	therapists := []*domain.Therapist{t}
	if err := r.attachServices(ctx, therapists); err != nil {
		return nil, err
	}
	if err := r.attachSchedules(ctx, therapists); err != nil {
		return nil, err
	}
	return t, nil
}

// FindActiveQualifiedFor получает активных терапевтов, квалифицированных для
// услуги, вместе с расписанием. Порядок детерминирован: порядок
// добавления (created_at, затем id).
func (r *Repository) FindActiveQualifiedFor(ctx context.Context, serviceID string) ([]*domain.Therapist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(therapistColumns...).
		From("therapists t").
		Join("therapist_services ts ON ts.therapist_id = t.id").
		Where(squirrel.Eq{"ts.service_id": serviceID}).
		Where(squirrel.Eq{"t.is_active": true}).
		OrderBy("t.created_at ASC", "t.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveQualifiedFor - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveQualifiedFor - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	therapists := make([]*domain.Therapist, 0)
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: FindActiveQualifiedFor - scan therapist: %v", ErrScanRow, err)
		}
		t.ServiceIDs = []string{serviceID}
		therapists = append(therapists, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindActiveQualifiedFor - rows iteration: %v", ErrScanRow, err)
	}

	if err := r.attachSchedules(ctx, therapists); err != nil {
		return nil, err
	}
	return therapists, nil
}

// ListSchedules получает недельное расписание терапевта, отсортированное по дню,
// затем по времени начала
func (r *Repository) ListSchedules(ctx context.Context, therapistID string, includeInactive bool) ([]domain.WeeklySchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	sb := psqlbuilder.Select(scheduleColumns...).
		From("therapist_schedules").
		Where(squirrel.Eq{"therapist_id": therapistID}).
		OrderBy(dayOrder, "start_time ASC", "id ASC")
	if !includeInactive {
		sb = sb.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListSchedules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListSchedules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ReplaceSchedules удаляет расписание терапевта и вставляет переданные
// записи. Вызывать внутри транзакции.
func (r *Repository) ReplaceSchedules(ctx context.Context, therapistID string, entries []domain.WeeklySchedule) ([]domain.WeeklySchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("therapist_schedules").
		Where(squirrel.Eq{"therapist_id": therapistID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceSchedules - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: ReplaceSchedules - execute delete: %v", ErrExecQuery, err)
	}

	if len(entries) == 0 {
		return []domain.WeeklySchedule{}, nil
	}

	ib := psqlbuilder.Insert("therapist_schedules").
		Columns("id", "therapist_id", "day_of_week", "start_time", "end_time", "is_active")
	for _, e := range entries {
		ib = ib.Values(e.ID, therapistID, e.DayOfWeek, e.StartTime, e.EndTime, e.IsActive)
	}

	query, args, err = ib.Suffix("RETURNING " + strings.Join(scheduleColumns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceSchedules - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ReplaceSchedules - execute insert: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// dayOrder сортирует MONDAY..SUNDAY вместо алфавитного порядка
const dayOrder = "CASE day_of_week " +
	"WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3 WHEN 'THURSDAY' THEN 4 " +
	"WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7 END"

func (r *Repository) attachServices(ctx context.Context, therapists []*domain.Therapist) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	byID, ids := index(therapists)

	query, args, err := psqlbuilder.Select("therapist_id", "service_id").
		From("therapist_services").
		Where(squirrel.Eq{"therapist_id": ids}).
		OrderBy("therapist_id", "service_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var therapistID, serviceID string
		if err := rows.Scan(&therapistID, &serviceID); err != nil {
			return fmt.Errorf("%w: attachServices - scan: %v", ErrScanRow, err)
		}
		if t, ok := byID[therapistID]; ok {
			t.ServiceIDs = append(t.ServiceIDs, serviceID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachServices - rows iteration: %v", ErrScanRow, err)
	}
	return nil
}

// attachSchedules загружает расписание всех терапевтов одним запросом.
// Записи отсортированы по времени начала, затем id, поэтому ScheduleFor выбирает
// самую раннюю активную запись дня.
func (r *Repository) attachSchedules(ctx context.Context, therapists []*domain.Therapist) error {
	if len(therapists) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)
	byID, ids := index(therapists)

	query, args, err := psqlbuilder.Select(scheduleColumns...).
		From("therapist_schedules").
		Where(squirrel.Eq{"therapist_id": ids}).
		OrderBy("therapist_id", "start_time ASC", "id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachSchedules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachSchedules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedules, err := scanSchedules(rows)
	if err != nil {
		return err
	}
	for _, s := range schedules {
		if t, ok := byID[s.TherapistID]; ok {
			t.Schedules = append(t.Schedules, s)
		}
	}
	return nil
}

func index(therapists []*domain.Therapist) (map[string]*domain.Therapist, []string) {
	byID := make(map[string]*domain.Therapist, len(therapists))
	ids := make([]string, 0, len(therapists))
	for _, t := range therapists {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	return byID, ids
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTherapist(row rowScanner) (*domain.Therapist, error) {
	var (
		t            domain.Therapist
		email, phone sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.LastName,
		&email,
		&phone,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		t.Email = &email.String
	}
	if phone.Valid {
		t.Phone = &phone.String
	}
	return &t, nil
}

func scanSchedules(rows *sql.Rows) ([]domain.WeeklySchedule, error) {
	schedules := make([]domain.WeeklySchedule, 0)
	for rows.Next() {
		var s domain.WeeklySchedule
		err := rows.Scan(
			&s.ID,
			&s.TherapistID,
			&s.DayOfWeek,
			&s.StartTime,
			&s.EndTime,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan schedule: %v", ErrScanRow, err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: schedules iteration: %v", ErrScanRow, err)
	}
	return schedules, nil
}
