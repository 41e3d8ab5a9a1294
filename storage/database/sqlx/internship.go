package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ghabbala/VU-Interniship-System/core/internship"
)

type (
	periodRow struct {
		ID        int       `db:"id"`
		Name      string    `db:"name"`
		StartDate time.Time `db:"start_date"`
		EndDate   time.Time `db:"end_date"`
		IsActive  bool      `db:"is_active"`
	}

	requestRow struct {
		ID                      int       `db:"id"`
		StudentID               int       `db:"student_id"`
		PeriodID                int       `db:"period_id"`
		Source                  string    `db:"request_source"`
		PreferredCompanyID      null.Int  `db:"preferred_company_id"`
		ProposedCompanyName     string    `db:"proposed_company_name"`
		ProposedCompanyDistrict string    `db:"proposed_company_district"`
		ProposedCompanyAddress  string    `db:"proposed_company_address"`
		ProposedCompanyContact  string    `db:"proposed_company_contact"`
		PreferredField          string    `db:"preferred_field"`
		Notes                   string    `db:"notes"`
		CV                      string    `db:"cv"`
		RequestLetter           string    `db:"request_letter"`
		RecommendationLetter    string    `db:"recommendation_letter"`
		AcceptanceLetter        string    `db:"acceptance_letter"`
		Status                  string    `db:"status"`
		SubmittedAt             null.Time `db:"submitted_at"`
		ReviewedBy              null.Int  `db:"reviewed_by"`
		ReviewedAt              null.Time `db:"reviewed_at"`
		ReviewNotes             string    `db:"review_notes"`
		CoordinatorComment      string    `db:"coordinator_comment"`
		CoordinatorCommentedAt  null.Time `db:"coordinator_commented_at"`
		RecommendationIssuedAt  null.Time `db:"recommendation_issued_at"`
		AcceptanceUploadedAt    null.Time `db:"acceptance_uploaded_at"`
		AcceptanceVerified      bool      `db:"acceptance_verified"`
		AcceptanceVerifiedAt    null.Time `db:"acceptance_verified_at"`
		CreatedAt               time.Time `db:"created_at"`
	}

	placementRow struct {
		ID                     int       `db:"id"`
		RequestID              int       `db:"request_id"`
		StudentID              int       `db:"student_id"`
		CompanyID              int       `db:"company_id"`
		IndustrySupervisorID   null.Int  `db:"industry_supervisor_id"`
		UniversitySupervisorID null.Int  `db:"university_supervisor_id"`
		StartDate              null.Time `db:"start_date"`
		EndDate                null.Time `db:"end_date"`
		PlacementLetter        string    `db:"placement_letter"`
		Status                 string    `db:"status"`
		CreatedAt              time.Time `db:"created_at"`
	}
)

func (r requestRow) model() internship.Request {
	return internship.Request{
		ID:                      r.ID,
		StudentID:               r.StudentID,
		PeriodID:                r.PeriodID,
		Source:                  r.Source,
		PreferredCompanyID:      int(r.PreferredCompanyID.Int),
		ProposedCompanyName:     r.ProposedCompanyName,
		ProposedCompanyDistrict: r.ProposedCompanyDistrict,
		ProposedCompanyAddress:  r.ProposedCompanyAddress,
		ProposedCompanyContact:  r.ProposedCompanyContact,
		PreferredField:          r.PreferredField,
		Notes:                   r.Notes,
		CV:                      r.CV,
		RequestLetter:           r.RequestLetter,
		RecommendationLetter:    r.RecommendationLetter,
		AcceptanceLetter:        r.AcceptanceLetter,
		Status:                  r.Status,
		SubmittedAt:             r.SubmittedAt.Time,
		ReviewedBy:              int(r.ReviewedBy.Int),
		ReviewedAt:              r.ReviewedAt.Time,
		ReviewNotes:             r.ReviewNotes,
		CoordinatorComment:      r.CoordinatorComment,
		CoordinatorCommentedAt:  r.CoordinatorCommentedAt.Time,
		RecommendationIssuedAt:  r.RecommendationIssuedAt.Time,
		AcceptanceUploadedAt:    r.AcceptanceUploadedAt.Time,
		AcceptanceVerified:      r.AcceptanceVerified,
		AcceptanceVerifiedAt:    r.AcceptanceVerifiedAt.Time,
		CreatedAt:               r.CreatedAt,
	}
}

func (r placementRow) model() internship.Placement {
	return internship.Placement{
		ID:                     r.ID,
		RequestID:              r.RequestID,
		StudentID:              r.StudentID,
		CompanyID:              r.CompanyID,
		IndustrySupervisorID:   int(r.IndustrySupervisorID.Int),
		UniversitySupervisorID: int(r.UniversitySupervisorID.Int),
		StartDate:              r.StartDate.Time,
		EndDate:                r.EndDate.Time,
		PlacementLetter:        r.PlacementLetter,
		Status:                 r.Status,
		CreatedAt:              r.CreatedAt,
	}
}

type internshipRepository struct {
	db *sqlx.DB
}

var _ internship.Repository = (*internshipRepository)(nil) // interface compliance check

func NewInternshipRepository(db *sqlx.DB) *internshipRepository {
	return &internshipRepository{db: db}
}

// Periods

func (repo *internshipRepository) CreatePeriod(p internship.Period) (internship.Period, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO internship_period (name, start_date, end_date, is_active)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.StartDate, p.EndDate, p.IsActive,
	).Scan(&p.ID)
	if err != nil {
		return internship.Period{}, errors.Wrap(err, "creating period")
	}
	return p, nil
}

func (repo *internshipRepository) GetPeriodByID(id int) (internship.Period, error) {
	return repo.getPeriod(`SELECT * FROM internship_period WHERE id = $1`, id)
}

func (repo *internshipRepository) GetActivePeriod() (internship.Period, error) {
	return repo.getPeriod(`SELECT * FROM internship_period WHERE is_active LIMIT 1`)
}

func (repo *internshipRepository) getPeriod(query string, args ...interface{}) (internship.Period, error) {
	var row periodRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if isNoRows(err) {
			return internship.Period{}, internship.ErrPeriodNotFound
		}
		return internship.Period{}, errors.Wrap(err, "getting period")
	}
	return internship.Period(row), nil
}

func (repo *internshipRepository) QueryAllPeriods() ([]internship.Period, error) {
	var rows []periodRow
	if err := repo.db.Select(&rows, `SELECT * FROM internship_period ORDER BY start_date DESC`); err != nil {
		return nil, errors.Wrap(err, "querying periods")
	}
	periods := make([]internship.Period, 0, len(rows))
	for _, r := range rows {
		periods = append(periods, internship.Period(r))
	}
	return periods, nil
}

func (repo *internshipRepository) SetActivePeriod(id int) (internship.Period, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return internship.Period{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(`UPDATE internship_period SET is_active = FALSE WHERE id <> $1`, id); err != nil {
		return internship.Period{}, errors.Wrap(err, "deactivating periods")
	}
	res, err := tx.Exec(`UPDATE internship_period SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return internship.Period{}, errors.Wrap(err, "activating period")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.Period{}, internship.ErrPeriodNotFound
	}
	if err = tx.Commit(); err != nil {
		return internship.Period{}, errors.Wrap(err, "committing tx")
	}
	return repo.GetPeriodByID(id)
}

// Requests

func (repo *internshipRepository) GetOrCreateRequest(r internship.Request) (internship.Request, error) {
	existing, err := repo.GetRequestForPeriod(r.StudentID, r.PeriodID)
	if err == nil {
		return existing, nil
	}
	if err != internship.ErrNotFound {
		return internship.Request{}, err
	}

	created, err := repo.insertRequest(repo.db, r)
	if isUniqueViolation(errors.Cause(err)) {
		// concurrent insert won; re-fetch
		return repo.GetRequestForPeriod(r.StudentID, r.PeriodID)
	}
	return created, err
}

func (repo *internshipRepository) insertRequest(q sqlx.Queryer, r internship.Request) (internship.Request, error) {
	err := q.QueryRowx(
		`INSERT INTO internship_request
		 (student_id, period_id, request_source, preferred_company_id, proposed_company_name,
		  proposed_company_district, proposed_company_address, proposed_company_contact,
		  preferred_field, notes, cv, request_letter, recommendation_letter, acceptance_letter,
		  status, submitted_at, reviewed_by, reviewed_at, review_notes, coordinator_comment,
		  coordinator_commented_at, recommendation_issued_at, acceptance_uploaded_at,
		  acceptance_verified, acceptance_verified_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		         $19, $20, $21, $22, $23, $24, $25, $26)
		 RETURNING id`,
		r.StudentID, r.PeriodID, r.Source, nullInt(r.PreferredCompanyID), r.ProposedCompanyName,
		r.ProposedCompanyDistrict, r.ProposedCompanyAddress, r.ProposedCompanyContact,
		r.PreferredField, r.Notes, r.CV, r.RequestLetter, r.RecommendationLetter, r.AcceptanceLetter,
		r.Status, nullTime(r.SubmittedAt), nullInt(r.ReviewedBy), nullTime(r.ReviewedAt), r.ReviewNotes,
		r.CoordinatorComment, nullTime(r.CoordinatorCommentedAt), nullTime(r.RecommendationIssuedAt),
		nullTime(r.AcceptanceUploadedAt), r.AcceptanceVerified, nullTime(r.AcceptanceVerifiedAt), r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return internship.Request{}, errors.Wrap(err, "creating request")
	}
	return r, nil
}

func (repo *internshipRepository) GetRequestByID(id int) (internship.Request, error) {
	return repo.getRequest(`SELECT * FROM internship_request WHERE id = $1`, id)
}

func (repo *internshipRepository) GetRequestForPeriod(studentID, periodID int) (internship.Request, error) {
	return repo.getRequest(
		`SELECT * FROM internship_request WHERE student_id = $1 AND period_id = $2`, studentID, periodID)
}

func (repo *internshipRepository) getRequest(query string, args ...interface{}) (internship.Request, error) {
	var row requestRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if isNoRows(err) {
			return internship.Request{}, internship.ErrNotFound
		}
		return internship.Request{}, errors.Wrap(err, "getting request")
	}
	return row.model(), nil
}

func (repo *internshipRepository) QueryRequestsByStatus(statuses ...string) ([]internship.Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		`SELECT * FROM internship_request WHERE status IN (?) ORDER BY submitted_at DESC NULLS LAST, id DESC`,
		statuses,
	)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.queryRequests(repo.db.Rebind(q), args...)
}

func (repo *internshipRepository) QueryRequestsAwaitingAcceptance() ([]internship.Request, error) {
	return repo.queryRequests(
		`SELECT * FROM internship_request
		 WHERE status IN ($1, $2) AND acceptance_letter = ''
		 ORDER BY recommendation_issued_at DESC NULLS LAST, id DESC`,
		internship.StatusRecommended, internship.StatusReturnedForAcceptance,
	)
}

func (repo *internshipRepository) queryRequests(query string, args ...interface{}) ([]internship.Request, error) {
	var rows []requestRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}
	requests := make([]internship.Request, 0, len(rows))
	for _, r := range rows {
		requests = append(requests, r.model())
	}
	return requests, nil
}

func (repo *internshipRepository) UpdateRequest(r internship.Request) (internship.Request, error) {
	res, err := repo.updateRequest(repo.db, r)
	if err != nil {
		return internship.Request{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.Request{}, internship.ErrNotFound
	}
	return r, nil
}

func (repo *internshipRepository) updateRequest(e sqlx.Execer, r internship.Request) (sql.Result, error) {
	res, err := e.Exec(
		`UPDATE internship_request SET
		   request_source = $1, preferred_company_id = $2, proposed_company_name = $3,
		   proposed_company_district = $4, proposed_company_address = $5, proposed_company_contact = $6,
		   preferred_field = $7, notes = $8, cv = $9, request_letter = $10, recommendation_letter = $11,
		   acceptance_letter = $12, status = $13, submitted_at = $14, reviewed_by = $15, reviewed_at = $16,
		   review_notes = $17, coordinator_comment = $18, coordinator_commented_at = $19,
		   recommendation_issued_at = $20, acceptance_uploaded_at = $21, acceptance_verified = $22,
		   acceptance_verified_at = $23
		 WHERE id = $24`,
		r.Source, nullInt(r.PreferredCompanyID), r.ProposedCompanyName,
		r.ProposedCompanyDistrict, r.ProposedCompanyAddress, r.ProposedCompanyContact,
		r.PreferredField, r.Notes, r.CV, r.RequestLetter, r.RecommendationLetter,
		r.AcceptanceLetter, r.Status, nullTime(r.SubmittedAt), nullInt(r.ReviewedBy), nullTime(r.ReviewedAt),
		r.ReviewNotes, r.CoordinatorComment, nullTime(r.CoordinatorCommentedAt),
		nullTime(r.RecommendationIssuedAt), nullTime(r.AcceptanceUploadedAt), r.AcceptanceVerified,
		nullTime(r.AcceptanceVerifiedAt), r.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "updating request")
	}
	return res, nil
}

// SaveRequestWithPlacement persists both rows in one transaction.
func (repo *internshipRepository) SaveRequestWithPlacement(r internship.Request, p internship.Placement) (internship.Request, internship.Placement, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return internship.Request{}, internship.Placement{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = repo.updateRequest(tx, r); err != nil {
		return internship.Request{}, internship.Placement{}, err
	}

	err = tx.QueryRowx(
		`INSERT INTO placement
		 (request_id, student_id, company_id, industry_supervisor_id, university_supervisor_id,
		  start_date, end_date, placement_letter, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (request_id) DO UPDATE SET
		   company_id = EXCLUDED.company_id,
		   industry_supervisor_id = COALESCE(EXCLUDED.industry_supervisor_id, placement.industry_supervisor_id),
		   university_supervisor_id = COALESCE(EXCLUDED.university_supervisor_id, placement.university_supervisor_id),
		   start_date = COALESCE(EXCLUDED.start_date, placement.start_date),
		   end_date = COALESCE(EXCLUDED.end_date, placement.end_date),
		   status = EXCLUDED.status
		 RETURNING id`,
		p.RequestID, p.StudentID, p.CompanyID, nullInt(p.IndustrySupervisorID),
		nullInt(p.UniversitySupervisorID), nullTime(p.StartDate), nullTime(p.EndDate),
		p.PlacementLetter, p.Status, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return internship.Request{}, internship.Placement{}, errors.Wrap(err, "upserting placement")
	}

	if err = tx.Commit(); err != nil {
		return internship.Request{}, internship.Placement{}, errors.Wrap(err, "committing tx")
	}
	return r, p, nil
}

// Placements

func (repo *internshipRepository) GetPlacementByID(id int) (internship.Placement, error) {
	return repo.getPlacement(`SELECT * FROM placement WHERE id = $1`, id)
}

func (repo *internshipRepository) GetPlacementByRequest(requestID int) (internship.Placement, error) {
	return repo.getPlacement(`SELECT * FROM placement WHERE request_id = $1`, requestID)
}

func (repo *internshipRepository) GetCurrentPlacementForStudent(studentID int) (internship.Placement, error) {
	return repo.getPlacement(
		`SELECT * FROM placement
		 WHERE student_id = $1 AND status NOT IN ($2, $3)
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		studentID, internship.PlacementCompleted, internship.PlacementTerminated,
	)
}

func (repo *internshipRepository) getPlacement(query string, args ...interface{}) (internship.Placement, error) {
	var row placementRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if isNoRows(err) {
			return internship.Placement{}, internship.ErrPlacementNotFound
		}
		return internship.Placement{}, errors.Wrap(err, "getting placement")
	}
	return row.model(), nil
}

func (repo *internshipRepository) QueryPlacementsBySupervisor(staffID int) ([]internship.Placement, error) {
	return repo.queryPlacements(`SELECT * FROM placement WHERE university_supervisor_id = $1 ORDER BY id`, staffID)
}

func (repo *internshipRepository) QueryPlacementsByCompany(companyID int) ([]internship.Placement, error) {
	return repo.queryPlacements(`SELECT * FROM placement WHERE company_id = $1 ORDER BY id`, companyID)
}

func (repo *internshipRepository) QueryNonTerminalPlacements() ([]internship.Placement, error) {
	return repo.queryPlacements(
		`SELECT * FROM placement WHERE status NOT IN ($1, $2) ORDER BY id`,
		internship.PlacementCompleted, internship.PlacementTerminated,
	)
}

func (repo *internshipRepository) QueryAllPlacements() ([]internship.Placement, error) {
	return repo.queryPlacements(`SELECT * FROM placement ORDER BY id`)
}

func (repo *internshipRepository) queryPlacements(query string, args ...interface{}) ([]internship.Placement, error) {
	var rows []placementRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying placements")
	}
	placements := make([]internship.Placement, 0, len(rows))
	for _, r := range rows {
		placements = append(placements, r.model())
	}
	return placements, nil
}

func (repo *internshipRepository) UpdatePlacement(p internship.Placement) (internship.Placement, error) {
	res, err := repo.db.Exec(
		`UPDATE placement SET
		   company_id = $1, industry_supervisor_id = $2, university_supervisor_id = $3,
		   start_date = $4, end_date = $5, placement_letter = $6, status = $7
		 WHERE id = $8`,
		p.CompanyID, nullInt(p.IndustrySupervisorID), nullInt(p.UniversitySupervisorID),
		nullTime(p.StartDate), nullTime(p.EndDate), p.PlacementLetter, p.Status, p.ID,
	)
	if err != nil {
		return internship.Placement{}, errors.Wrap(err, "updating placement")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internship.Placement{}, internship.ErrPlacementNotFound
	}
	return p, nil
}
