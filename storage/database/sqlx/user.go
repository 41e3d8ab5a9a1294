package sqlxrepos

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type userRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	IsActive     bool        `db:"is_active"`
	Roles        string      `db:"roles"` // comma-separated
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r userRow) model() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
	if r.Roles != "" {
		usr.Roles = strings.Split(r.Roles, ",")
	}
	return usr
}

func rowFromUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        strings.Join(usr.Roles, ","),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    nullTime(usr.LastLogin),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excluded := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}
	if len(excluded) == 0 {
		excluded = append(excluded, 0)
	}

	q, args, err := sqlx.In(
		`SELECT username, email FROM "user" WHERE (username = ? OR email = ?) AND id NOT IN (?)`,
		username, email, excluded,
	)
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var rows []userRow
	if err = repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	row := rowFromUser(usr)
	err := repo.db.QueryRowx(
		`INSERT INTO "user" (name, username, email, is_active, roles, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		row.Name, row.Username, row.Email, row.IsActive, row.Roles, row.PasswordHash, row.CreatedAt, row.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT * FROM "user" ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return usersFromRows(rows), nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE username = $1`, username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	return repo.getUser(`SELECT * FROM "user" WHERE username = $1 OR email = $1`, username)
}

func (repo *userRepository) getUser(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.model(), nil
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT * FROM "user" WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?)`
		args = append(args, search, search, search)
	}
	if len(filter.Roles) > 0 {
		var likes []string
		for _, role := range filter.Roles {
			likes = append(likes, "roles LIKE ?")
			args = append(args, role+"%")
		}
		query += ` AND (` + strings.Join(likes, " OR ") + `)`
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.CreatedTo.UTC())
	}
	query += ` ORDER BY id`

	var rows []userRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return usersFromRows(rows), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	// only set fields are written; zero values keep the stored column
	query := `UPDATE "user" SET updated_at = ?`
	args := []interface{}{usr.UpdatedAt}

	if usr.Name != "" {
		query += `, name = ?`
		args = append(args, usr.Name)
	}
	if usr.Username != "" {
		query += `, username = ?`
		args = append(args, usr.Username)
	}
	if usr.Email != "" {
		query += `, email = ?`
		args = append(args, usr.Email)
	}
	if usr.Roles != nil {
		query += `, roles = ?`
		args = append(args, strings.Join(usr.Roles, ","))
	}
	if usr.PasswordHash != nil {
		query += `, password_hash = ?`
		args = append(args, usr.PasswordHash)
	}
	if isActive != nil {
		query += `, is_active = ?`
		args = append(args, *isActive)
	}
	query += ` WHERE id = ?`
	args = append(args, usr.ID)

	res, err := repo.db.Exec(repo.db.Rebind(query), args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) SetLastLogin(id int, t time.Time) (user.User, error) {
	res, err := repo.db.Exec(`UPDATE "user" SET last_login = $1 WHERE id = $2`, t.UTC(), id)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(id)
}

func (repo *userRepository) DeleteUsersByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

// Profiles

func (repo *userRepository) GetStudentProfile(userID int) (user.StudentProfile, error) {
	return repo.getStudentProfile(`SELECT * FROM student_profile WHERE user_id = $1`, userID)
}

func (repo *userRepository) GetStudentProfileByID(id int) (user.StudentProfile, error) {
	return repo.getStudentProfile(`SELECT * FROM student_profile WHERE id = $1`, id)
}

func (repo *userRepository) GetStudentProfileByRegNo(regNo string) (user.StudentProfile, error) {
	return repo.getStudentProfile(`SELECT * FROM student_profile WHERE reg_no = $1`, regNo)
}

func (repo *userRepository) getStudentProfile(query string, arg interface{}) (user.StudentProfile, error) {
	var p user.StudentProfile
	err := repo.db.QueryRowx(query, arg).Scan(&p.ID, &p.UserID, &p.RegNo, &p.Phone)
	if err != nil {
		if isNoRows(err) {
			return user.StudentProfile{}, user.ErrProfileNotFound
		}
		return user.StudentProfile{}, errors.Wrap(err, "getting student profile")
	}
	return p, nil
}

func (repo *userRepository) UpsertStudentProfile(p user.StudentProfile) (user.StudentProfile, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO student_profile (user_id, reg_no, phone) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET reg_no = EXCLUDED.reg_no, phone = EXCLUDED.phone
		 RETURNING id`,
		p.UserID, p.RegNo, p.Phone,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.StudentProfile{}, user.ErrRegNoExists
		}
		return user.StudentProfile{}, errors.Wrap(err, "upserting student profile")
	}
	return p, nil
}

func (repo *userRepository) GetStaffProfile(userID int) (user.StaffProfile, error) {
	return repo.getStaffProfile(`SELECT * FROM staff_profile WHERE user_id = $1`, userID)
}

func (repo *userRepository) GetStaffProfileByID(id int) (user.StaffProfile, error) {
	return repo.getStaffProfile(`SELECT * FROM staff_profile WHERE id = $1`, id)
}

func (repo *userRepository) getStaffProfile(query string, arg interface{}) (user.StaffProfile, error) {
	var p user.StaffProfile
	err := repo.db.QueryRowx(query, arg).Scan(&p.ID, &p.UserID, &p.StaffNo, &p.Department)
	if err != nil {
		if isNoRows(err) {
			return user.StaffProfile{}, user.ErrProfileNotFound
		}
		return user.StaffProfile{}, errors.Wrap(err, "getting staff profile")
	}
	return p, nil
}

func (repo *userRepository) QueryAllStaffProfiles() ([]user.StaffProfile, error) {
	rows, err := repo.db.Queryx(`SELECT * FROM staff_profile ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying staff profiles")
	}
	defer func() { _ = rows.Close() }()

	var profiles []user.StaffProfile
	for rows.Next() {
		var p user.StaffProfile
		if err = rows.Scan(&p.ID, &p.UserID, &p.StaffNo, &p.Department); err != nil {
			return nil, errors.Wrap(err, "scanning staff profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (repo *userRepository) UpsertStaffProfile(p user.StaffProfile) (user.StaffProfile, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO staff_profile (user_id, staff_no, department) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET staff_no = EXCLUDED.staff_no, department = EXCLUDED.department
		 RETURNING id`,
		p.UserID, p.StaffNo, p.Department,
	).Scan(&p.ID)
	if err != nil {
		return user.StaffProfile{}, errors.Wrap(err, "upserting staff profile")
	}
	return p, nil
}

func (repo *userRepository) GetIndustryProfile(userID int) (user.IndustryProfile, error) {
	var p user.IndustryProfile
	err := repo.db.QueryRowx(`SELECT * FROM industry_profile WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.CompanyID)
	if err != nil {
		if isNoRows(err) {
			return user.IndustryProfile{}, user.ErrProfileNotFound
		}
		return user.IndustryProfile{}, errors.Wrap(err, "getting industry profile")
	}
	return p, nil
}

func (repo *userRepository) UpsertIndustryProfile(p user.IndustryProfile) (user.IndustryProfile, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO industry_profile (user_id, company_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET company_id = EXCLUDED.company_id
		 RETURNING id`,
		p.UserID, p.CompanyID,
	).Scan(&p.ID)
	if err != nil {
		return user.IndustryProfile{}, errors.Wrap(err, "upserting industry profile")
	}
	return p, nil
}

func usersFromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users
}
