package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/pgerrors"
	"github.com/m04kA/SMC-AgendaService/pkg/psqlbuilder"
)

const table = "appointments"

var columns = []string{
	"id",
	"customer_id",
	"therapist_id",
	"service_id",
	"start_at",
	"end_at",
	"status",
	"notes",
	"reminder_sent",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями в PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись. ID назначает вызывающий код.
// Использует транзакцию из ctx, если она есть.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"customer_id",
			"therapist_id",
			"service_id",
			"start_at",
			"end_at",
			"status",
			"notes",
			"reminder_sent",
		).
		Values(
			a.ID,
			a.CustomerID,
			a.TherapistID,
			a.ServiceID,
			a.StartAt.UTC(),
			a.EndAt.UTC(),
			a.Status,
			a.Notes,
			a.ReminderSent,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	created := *a
	err = executor.QueryRowContext(ctx, query, args...).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, classifyWriteError("Create", err)
	}

	return &created, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}
	return a, nil
}

// List получает страницу записей по фильтру, новые первыми.
// Фильтр должен быть нормализован.
func (r *Repository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	sb := applyFilter(psqlbuilder.Select(columns...).From(table), filter).
		OrderBy("start_at DESC", "id DESC")
	if filter.PageSize > 0 {
		sb = sb.Limit(uint64(filter.PageSize)).Offset(uint64(filter.Offset()))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// Count возвращает количество записей по фильтру без учета пагинации
func (r *Repository) Count(ctx context.Context, filter domain.AppointmentsFilter) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := applyFilter(psqlbuilder.Select("COUNT(*)").From(table), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Count - build select query: %v", ErrBuildQuery, err)
	}

	var total int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: Count - scan: %v", ErrScanRow, err)
	}
	return total, nil
}

func applyFilter(sb squirrel.SelectBuilder, filter domain.AppointmentsFilter) squirrel.SelectBuilder {
	if filter.TherapistID != nil {
		sb = sb.Where(squirrel.Eq{"therapist_id": *filter.TherapistID})
	}
	if filter.CustomerID != nil {
		sb = sb.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		sb = sb.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.StartFrom != nil {
		sb = sb.Where(squirrel.GtOrEq{"start_at": filter.StartFrom.UTC()})
	}
	if filter.StartTo != nil {
		sb = sb.Where(squirrel.LtOrEq{"start_at": filter.StartTo.UTC()})
	}
	return sb
}

// FindOverlapping получает активные записи указанных терапевтов,
// пересекающие [q.Start, q.End), по времени начала. Внутри транзакции
// строки блокируются (FOR UPDATE), и проверка конфликтов держится до коммита.
func (r *Repository) FindOverlapping(ctx context.Context, q domain.OverlapQuery) ([]*domain.Appointment, error) {
	if len(q.TherapistIDs) == 0 {
		return []*domain.Appointment{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	sb := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"therapist_id": q.TherapistIDs}).
		Where(squirrel.NotEq{"status": domain.InactiveStatuses}).
		Where(squirrel.Lt{"start_at": q.End.UTC()}).
		Where(squirrel.Gt{"end_at": q.Start.UTC()}).
		OrderBy("start_at ASC", "id ASC")

	if q.ExcludeID != nil {
		sb = sb.Where(squirrel.NotEq{"id": *q.ExcludeID})
	}
	if dbmetrics.IsInTransaction(ctx) {
		sb = sb.Suffix("FOR UPDATE")
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		if pgerrors.IsSerializationFailure(err) {
			return nil, fmt.Errorf("%w: FindOverlapping", ErrSerialization)
		}
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// Update записывает только заданные в patch поля и возвращает сохраненную строку
func (r *Repository) Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	ub := psqlbuilder.Update(table).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if patch.CustomerID != nil {
		ub = ub.Set("customer_id", *patch.CustomerID)
	}
	if patch.TherapistID != nil {
		ub = ub.Set("therapist_id", *patch.TherapistID)
	}
	if patch.ServiceID != nil {
		ub = ub.Set("service_id", *patch.ServiceID)
	}
	if patch.StartAt != nil {
		ub = ub.Set("start_at", patch.StartAt.UTC())
	}
	if patch.EndAt != nil {
		ub = ub.Set("end_at", patch.EndAt.UTC())
	}
	if patch.Status != nil {
		ub = ub.Set("status", *patch.Status)
	}
	if patch.Notes != nil {
		ub = ub.Set("notes", *patch.Notes)
	}
	if patch.ReminderSent != nil {
		ub = ub.Set("reminder_sent", *patch.ReminderSent)
	}

	query, args, err := ub.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, classifyWriteError("Update", err)
	}
	return a, nil
}

// Delete удаляет запись безвозвратно
func (r *Repository) Delete(ctx context.Context, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func classifyWriteError(op string, err error) error {
	switch {
	case pgerrors.IsExclusionViolation(err):
		return fmt.Errorf("%w: %s", ErrOverlap, op)
	case pgerrors.IsSerializationFailure(err):
		return fmt.Errorf("%w: %s", ErrSerialization, op)
	case pgerrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s - %s", ErrReferenceNotFound, op, pgerrors.ConstraintName(err))
	default:
		return fmt.Errorf("%w: %s - execute: %v", ErrExecQuery, op, err)
	}
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a           domain.Appointment
		therapistID sql.NullString
		notes       sql.NullString
	)

	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&therapistID,
		&a.ServiceID,
		&a.StartAt,
		&a.EndAt,
		&a.Status,
		&notes,
		&a.ReminderSent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if therapistID.Valid {
		a.TherapistID = &therapistID.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	a.StartAt = a.StartAt.UTC()
	a.EndAt = a.EndAt.UTC()

	return &a, nil
}

func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %v", ErrScanRow, err)
	}
	return appointments, nil
}
