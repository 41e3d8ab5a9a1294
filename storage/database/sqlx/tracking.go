package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ghabbala/VU-Interniship-System/core/tracking"
)

type (
	weeklyLogRow struct {
		ID              int       `db:"id"`
		PlacementID     int       `db:"placement_id"`
		WeekNo          int       `db:"week_no"`
		FromDate        time.Time `db:"from_date"`
		ToDate          time.Time `db:"to_date"`
		Activities      string    `db:"activities"`
		Challenges      string    `db:"challenges"`
		Lessons         string    `db:"lessons"`
		Attachment      string    `db:"attachment"`
		Status          string    `db:"status"`
		SubmittedAt     null.Time `db:"submitted_at"`
		CompanyActionBy null.Int  `db:"company_action_by"`
		CompanyActionAt null.Time `db:"company_action_at"`
		ReturnReason    string    `db:"return_reason"`
		CreatedAt       time.Time `db:"created_at"`
	}

	siteVisitRow struct {
		ID              int       `db:"id"`
		PlacementID     int       `db:"placement_id"`
		SupervisorID    int       `db:"supervisor_id"`
		VisitDate       time.Time `db:"visit_date"`
		Findings        string    `db:"findings"`
		Recommendations string    `db:"recommendations"`
		Attachment      string    `db:"attachment"`
		CreatedAt       time.Time `db:"created_at"`
	}
)

func (r weeklyLogRow) model() tracking.WeeklyLog {
	return tracking.WeeklyLog{
		ID:              r.ID,
		PlacementID:     r.PlacementID,
		WeekNo:          r.WeekNo,
		FromDate:        r.FromDate,
		ToDate:          r.ToDate,
		Activities:      r.Activities,
		Challenges:      r.Challenges,
		Lessons:         r.Lessons,
		Attachment:      r.Attachment,
		Status:          r.Status,
		SubmittedAt:     r.SubmittedAt.Time,
		CompanyActionBy: int(r.CompanyActionBy.Int),
		CompanyActionAt: r.CompanyActionAt.Time,
		ReturnReason:    r.ReturnReason,
		CreatedAt:       r.CreatedAt,
	}
}

type trackingRepository struct {
	db *sqlx.DB
}

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *sqlx.DB) *trackingRepository {
	return &trackingRepository{db: db}
}

func (repo *trackingRepository) CreateLog(log tracking.WeeklyLog, entries []tracking.WeeklyLogEntry) (tracking.WeeklyLog, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return tracking.WeeklyLog{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowx(
		`INSERT INTO weekly_log
		 (placement_id, week_no, from_date, to_date, activities, challenges, lessons, attachment,
		  status, submitted_at, company_action_by, company_action_at, return_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		log.PlacementID, log.WeekNo, log.FromDate, log.ToDate, log.Activities, log.Challenges,
		log.Lessons, log.Attachment, log.Status, nullTime(log.SubmittedAt),
		nullInt(log.CompanyActionBy), nullTime(log.CompanyActionAt), log.ReturnReason, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return tracking.WeeklyLog{}, errors.Wrap(err, "creating weekly log")
	}

	for _, e := range entries {
		if _, err = tx.Exec(
			`INSERT INTO weekly_log_entry (weekly_log_id, day, work_assignment, activities_steps)
			 VALUES ($1, $2, $3, $4)`,
			log.ID, e.Day, e.WorkAssignment, e.ActivitiesSteps,
		); err != nil {
			return tracking.WeeklyLog{}, errors.Wrap(err, "creating log entry")
		}
	}

	if err = tx.Commit(); err != nil {
		return tracking.WeeklyLog{}, errors.Wrap(err, "committing tx")
	}
	return log, nil
}

func (repo *trackingRepository) GetLogByID(id int) (tracking.WeeklyLog, error) {
	var row weeklyLogRow
	if err := repo.db.Get(&row, `SELECT * FROM weekly_log WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return tracking.WeeklyLog{}, tracking.ErrNotFound
		}
		return tracking.WeeklyLog{}, errors.Wrap(err, "getting weekly log")
	}
	return row.model(), nil
}

func (repo *trackingRepository) MaxWeekNo(placementID int) (int, error) {
	var max int
	err := repo.db.Get(&max,
		`SELECT COALESCE(MAX(week_no), 0) FROM weekly_log WHERE placement_id = $1`, placementID)
	if err != nil {
		return 0, errors.Wrap(err, "getting max week no")
	}
	return max, nil
}

func (repo *trackingRepository) QueryLogsByPlacement(placementID int) ([]tracking.WeeklyLog, error) {
	return repo.queryLogs(`SELECT * FROM weekly_log WHERE placement_id = $1 ORDER BY week_no`, placementID)
}

func (repo *trackingRepository) QueryLogsByPlacements(placementIDs []int, statuses ...string) ([]tracking.WeeklyLog, error) {
	if len(placementIDs) == 0 {
		return nil, nil
	}
	query := `SELECT * FROM weekly_log WHERE placement_id IN (?)`
	args := []interface{}{placementIDs}
	if len(statuses) > 0 {
		query += ` AND status IN (?)`
		args = append(args, statuses)
	}
	query += ` ORDER BY placement_id, week_no`

	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.queryLogs(repo.db.Rebind(q), inArgs...)
}

func (repo *trackingRepository) HasLogInRange(placementID int, start, end time.Time, statuses ...string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM weekly_log
	            WHERE placement_id = ? AND from_date <= ? AND to_date >= ?`
	args := []interface{}{placementID, end, start}
	if len(statuses) > 0 {
		query += ` AND status IN (?)`
		args = append(args, statuses)
	}
	query += `)`

	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	var exists bool
	if err = repo.db.Get(&exists, repo.db.Rebind(q), inArgs...); err != nil {
		return false, errors.Wrap(err, "checking log range")
	}
	return exists, nil
}

func (repo *trackingRepository) queryLogs(query string, args ...interface{}) ([]tracking.WeeklyLog, error) {
	var rows []weeklyLogRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying weekly logs")
	}
	logs := make([]tracking.WeeklyLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.model())
	}
	return logs, nil
}

func (repo *trackingRepository) UpdateLog(log tracking.WeeklyLog) (tracking.WeeklyLog, error) {
	res, err := repo.db.Exec(
		`UPDATE weekly_log SET
		   activities = $1, challenges = $2, lessons = $3, attachment = $4, status = $5,
		   submitted_at = $6, company_action_by = $7, company_action_at = $8, return_reason = $9
		 WHERE id = $10`,
		log.Activities, log.Challenges, log.Lessons, log.Attachment, log.Status,
		nullTime(log.SubmittedAt), nullInt(log.CompanyActionBy), nullTime(log.CompanyActionAt),
		log.ReturnReason, log.ID,
	)
	if err != nil {
		return tracking.WeeklyLog{}, errors.Wrap(err, "updating weekly log")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tracking.WeeklyLog{}, tracking.ErrNotFound
	}
	return log, nil
}

func (repo *trackingRepository) DeleteLog(id int) error {
	// entries cascade
	if _, err := repo.db.Exec(`DELETE FROM weekly_log WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting weekly log")
	}
	return nil
}

func (repo *trackingRepository) GetLogEntries(logID int) ([]tracking.WeeklyLogEntry, error) {
	rows, err := repo.db.Queryx(
		`SELECT id, weekly_log_id, day, work_assignment, activities_steps FROM weekly_log_entry
		 WHERE weekly_log_id = $1
		 ORDER BY CASE day
		   WHEN 'mon' THEN 1 WHEN 'tue' THEN 2 WHEN 'wed' THEN 3 WHEN 'thu' THEN 4 WHEN 'fri' THEN 5
		   ELSE 6 END`,
		logID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying log entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []tracking.WeeklyLogEntry
	for rows.Next() {
		var e tracking.WeeklyLogEntry
		if err = rows.Scan(&e.ID, &e.WeeklyLogID, &e.Day, &e.WorkAssignment, &e.ActivitiesSteps); err != nil {
			return nil, errors.Wrap(err, "scanning log entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (repo *trackingRepository) UpdateLogEntry(e tracking.WeeklyLogEntry) (tracking.WeeklyLogEntry, error) {
	res, err := repo.db.Exec(
		`UPDATE weekly_log_entry SET work_assignment = $1, activities_steps = $2 WHERE id = $3`,
		e.WorkAssignment, e.ActivitiesSteps, e.ID,
	)
	if err != nil {
		return tracking.WeeklyLogEntry{}, errors.Wrap(err, "updating log entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tracking.WeeklyLogEntry{}, tracking.ErrNotFound
	}
	return e, nil
}

func (repo *trackingRepository) CreateSiteVisit(v tracking.SiteVisit) (tracking.SiteVisit, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO site_visit (placement_id, supervisor_id, visit_date, findings, recommendations, attachment, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		v.PlacementID, v.SupervisorID, v.VisitDate, v.Findings, v.Recommendations, v.Attachment, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		return tracking.SiteVisit{}, errors.Wrap(err, "creating site visit")
	}
	return v, nil
}

func (repo *trackingRepository) QuerySiteVisitsByPlacement(placementID int) ([]tracking.SiteVisit, error) {
	var rows []siteVisitRow
	err := repo.db.Select(&rows,
		`SELECT * FROM site_visit WHERE placement_id = $1 ORDER BY visit_date DESC, id DESC`, placementID)
	if err != nil {
		return nil, errors.Wrap(err, "querying site visits")
	}
	visits := make([]tracking.SiteVisit, 0, len(rows))
	for _, r := range rows {
		visits = append(visits, tracking.SiteVisit(r))
	}
	return visits, nil
}
