package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/institute-registry-api/internal/models"
)

const enrollmentDetailSelect = `SELECT cd.id, cd.client_id, cd.diploma_id, cd.institute_id, cd.attendance_type, cd.added_at, cd.added_by,
        d.name AS diploma_name, d.date AS diploma_date, i.name AS institute_name, u.full_name AS added_by_name
        FROM client_diplomas cd
        JOIN diplomas d ON d.id = cd.diploma_id
        JOIN institutes i ON i.id = cd.institute_id
        JOIN users u ON u.id = cd.added_by`

const reportSelect = `SELECT cd.id AS enrollment_id, c.id AS client_id, c.name AS client_name, c.identity_number, c.phone_number, c.email, c.sector, c.area,
        d.id AS diploma_id, d.name AS diploma_name, d.date AS diploma_date,
        i.id AS institute_id, i.name AS institute_name, i.city AS institute_city,
        cd.attendance_type, cd.added_at, u.id AS added_by_id, u.full_name AS added_by_name
        FROM client_diplomas cd
        JOIN clients c ON c.id = cd.client_id
        JOIN diplomas d ON d.id = cd.diploma_id
        JOIN institutes i ON i.id = cd.institute_id
        JOIN users u ON u.id = cd.added_by`

// EnrollmentRepository handles persistence of client diploma enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const heldQuery = `SELECT DISTINCT d.id, d.name FROM client_diplomas cd
        JOIN diplomas d ON d.id = cd.diploma_id
        WHERE cd.client_id = $1 AND cd.diploma_id = ANY($2)
        ORDER BY d.name`

// FindHeld returns the diplomas among diplomaIDs that the client already holds at any institute.
func (r *EnrollmentRepository) FindHeld(ctx context.Context, clientID string, diplomaIDs []string) ([]models.Diploma, error) {
	held := make([]models.Diploma, 0)
	if len(diplomaIDs) == 0 {
		return held, nil
	}
	if err := r.db.SelectContext(ctx, &held, heldQuery, clientID, pq.Array(diplomaIDs)); err != nil {
		return nil, fmt.Errorf("find held diplomas: %w", err)
	}
	return held, nil
}

// CreateBatch inserts every enrollment in a single transaction. Each client row is locked and
// its held diplomas re-read, so concurrent batches for one client serialise and a diploma held
// at another institute fails with *models.HeldError. The diploma's attendance mode is re-read
// and checked before each insert; any failure rolls back the whole batch.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, enrollments []*models.Enrollment) (err error) {
	if len(enrollments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockHoldings(ctx, tx, enrollments); err != nil {
		return err
	}

	now := time.Now().UTC()
	const modeQuery = `SELECT attendance_mode FROM diplomas WHERE id = $1 FOR SHARE`
	const insert = `INSERT INTO client_diplomas (id, client_id, diploma_id, institute_id, attendance_type, added_at, added_by)
        VALUES (:id, :client_id, :diploma_id, :institute_id, :attendance_type, :added_at, :added_by)`

	for _, enrollment := range enrollments {
		var mode models.AttendanceMode
		if err = tx.GetContext(ctx, &mode, modeQuery, enrollment.DiplomaID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock diploma %s: %w", enrollment.DiplomaID, err)
		}
		if err = models.CheckAttendance(mode, enrollment.AttendanceType); err != nil {
			return err
		}
		if enrollment.ID == "" {
			enrollment.ID = uuid.NewString()
		}
		enrollment.AddedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment tx: %w", err)
	}
	return nil
}

// lockHoldings takes a row lock on every client in the batch, in id order, then rejects the
// batch if any client already holds one of its diplomas.
func lockHoldings(ctx context.Context, tx *sqlx.Tx, enrollments []*models.Enrollment) error {
	byClient := make(map[string][]string)
	for _, e := range enrollments {
		byClient[e.ClientID] = append(byClient[e.ClientID], e.DiplomaID)
	}
	clientIDs := make([]string, 0, len(byClient))
	for id := range byClient {
		clientIDs = append(clientIDs, id)
	}
	sort.Strings(clientIDs)

	const lockQuery = `SELECT id FROM clients WHERE id = $1 FOR UPDATE`
	for _, clientID := range clientIDs {
		var locked string
		if err := tx.GetContext(ctx, &locked, lockQuery, clientID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock client %s: %w", clientID, err)
		}
		held := make([]models.Diploma, 0)
		if err := tx.SelectContext(ctx, &held, heldQuery, clientID, pq.Array(byClient[clientID])); err != nil {
			return fmt.Errorf("recheck held diplomas: %w", err)
		}
		if len(held) > 0 {
			return &models.HeldError{Diplomas: held}
		}
	}
	return nil
}

// ListDetailsByIDs returns details for the given enrollment ids ordered by diploma name.
func (r *EnrollmentRepository) ListDetailsByIDs(ctx context.Context, ids []string) ([]models.EnrollmentDetail, error) {
	details := make([]models.EnrollmentDetail, 0, len(ids))
	if len(ids) == 0 {
		return details, nil
	}
	query := enrollmentDetailSelect + ` WHERE cd.id = ANY($1) ORDER BY d.name ASC, cd.id ASC`
	if err := r.db.SelectContext(ctx, &details, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list enrollment details: %w", err)
	}
	return details, nil
}

// ListDetailsByClient returns every enrollment of a client, oldest first.
func (r *EnrollmentRepository) ListDetailsByClient(ctx context.Context, clientID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE cd.client_id = $1 ORDER BY cd.added_at ASC, cd.id ASC`
	details := make([]models.EnrollmentDetail, 0)
	if err := r.db.SelectContext(ctx, &details, query, clientID); err != nil {
		return nil, fmt.Errorf("list client enrollments: %w", err)
	}
	return details, nil
}

// FindFirstHolding returns the earliest enrollment of a client in a diploma.
func (r *EnrollmentRepository) FindFirstHolding(ctx context.Context, clientID, diplomaID string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE cd.client_id = $1 AND cd.diploma_id = $2 ORDER BY cd.added_at ASC, cd.id ASC LIMIT 1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, clientID, diplomaID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client holding: %w", err)
	}
	return &detail, nil
}

// Report returns denormalised rows matching every non-zero criterion. A positive limit caps
// the number of rows.
func (r *EnrollmentRepository) Report(ctx context.Context, criteria models.EnrollmentCriteria, limit int) ([]models.ReportRow, error) {
	var p predicates
	if criteria.Sector != "" {
		p.add("c.sector = ?", criteria.Sector)
	}
	if criteria.Area != "" {
		p.add("c.area = ?", criteria.Area)
	}
	if criteria.Search != "" {
		p.add("(LOWER(c.name) LIKE ? OR LOWER(d.name) LIKE ?)", likePattern(criteria.Search))
	}
	if criteria.From != nil {
		p.add("cd.added_at >= ?", *criteria.From)
	}
	if criteria.ToExclusive != nil {
		p.add("cd.added_at < ?", *criteria.ToExclusive)
	}
	if criteria.AddedBy != "" {
		p.add("LOWER(u.full_name) LIKE ?", likePattern(criteria.AddedBy))
	}
	if criteria.DiplomaID != "" {
		p.add("cd.diploma_id = ?", criteria.DiplomaID)
	}
	if criteria.UserID != "" {
		p.add("cd.added_by = ?", criteria.UserID)
	}
	if criteria.InstituteID != "" {
		p.add("cd.institute_id = ?", criteria.InstituteID)
	}
	if criteria.ClientID != "" {
		p.add("cd.client_id = ?", criteria.ClientID)
	}

	query := reportSelect + p.where()
	query += " ORDER BY cd.added_at ASC, cd.id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows := make([]models.ReportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, p.args...); err != nil {
		return nil, fmt.Errorf("enrollment report: %w", err)
	}
	return rows, nil
}
