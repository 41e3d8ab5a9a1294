package dummydb

import (
	"sort"
	"strings"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.query() {
		if usr.Username == username && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrUsernameExists
		}
		if usr.Email == email && !isExcluded(usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	usr.ID = repo.db.pk
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(id int) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if (usr.Username == username) || (usr.Email == username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()

	if filter.Search != "" {
		var filtered []user.User
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Username), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && len(filter.Roles) > 0 {
		var filtered []user.User
		for _, u := range users {
			for _, r := range filter.Roles {
				if u.RoleStartsWith(r) {
					filtered = append(filtered, u)
					break
				}
			}
		}
		users = filtered
	}
	if users != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, u := range users {
			if u.IsActive == *filter.IsActive {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedFrom.UTC()
		for _, u := range users {
			if u.CreatedAt.Equal(timeUTC) || u.CreatedAt.After(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedTo.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedTo.UTC()
		for _, u := range users {
			if u.CreatedAt.Before(timeUTC) || u.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	origUsr.UpdatedAt = usr.UpdatedAt

	repo.db.users[usr.ID] = origUsr
	return *origUsr, nil
}

func (repo *userRepository) SetLastLogin(id int, t time.Time) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.LastLogin = t
	return *usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}

// Profiles

func (repo *userRepository) GetStudentProfile(userID int) (user.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.studentProfiles {
		if p.UserID == userID {
			return *p, nil
		}
	}
	return user.StudentProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) GetStudentProfileByID(id int) (user.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.studentProfiles[id]; ok {
		return *p, nil
	}
	return user.StudentProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) GetStudentProfileByRegNo(regNo string) (user.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.studentProfiles {
		if p.RegNo == regNo {
			return *p, nil
		}
	}
	return user.StudentProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) UpsertStudentProfile(p user.StudentProfile) (user.StudentProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.studentProfiles {
		if existing.UserID == p.UserID {
			p.ID = existing.ID
			repo.db.studentProfiles[p.ID] = &p
			return p, nil
		}
	}
	repo.db.pk++
	p.ID = repo.db.pk
	repo.db.studentProfiles[p.ID] = &p
	return p, nil
}

func (repo *userRepository) GetStaffProfile(userID int) (user.StaffProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.staffProfiles {
		if p.UserID == userID {
			return *p, nil
		}
	}
	return user.StaffProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) GetStaffProfileByID(id int) (user.StaffProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.staffProfiles[id]; ok {
		return *p, nil
	}
	return user.StaffProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) QueryAllStaffProfiles() ([]user.StaffProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]user.StaffProfile, 0, len(repo.db.staffProfiles))
	for _, p := range repo.db.staffProfiles {
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (repo *userRepository) UpsertStaffProfile(p user.StaffProfile) (user.StaffProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.staffProfiles {
		if existing.UserID == p.UserID {
			p.ID = existing.ID
			repo.db.staffProfiles[p.ID] = &p
			return p, nil
		}
	}
	repo.db.pk++
	p.ID = repo.db.pk
	repo.db.staffProfiles[p.ID] = &p
	return p, nil
}

func (repo *userRepository) GetIndustryProfile(userID int) (user.IndustryProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.industryProfs {
		if p.UserID == userID {
			return *p, nil
		}
	}
	return user.IndustryProfile{}, user.ErrProfileNotFound
}

func (repo *userRepository) UpsertIndustryProfile(p user.IndustryProfile) (user.IndustryProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.industryProfs {
		if existing.UserID == p.UserID {
			p.ID = existing.ID
			repo.db.industryProfs[p.ID] = &p
			return p, nil
		}
	}
	repo.db.pk++
	p.ID = repo.db.pk
	repo.db.industryProfs[p.ID] = &p
	return p, nil
}

func isExcluded(usr user.User, excludedUsers []user.User, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excludedUsers[i].ID >= usr.ID })
	if idx >= n {
		return false
	}
	return excludedUsers[idx].ID == usr.ID
}
