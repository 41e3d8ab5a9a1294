package testutil

import (
	"testing"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student user with its profile.
func CreateStudent(t *testing.T, repo user.Repository, name, uname, regNo string) (user.User, user.StudentProfile) {
	t.Helper()

	usr := CreateUser(t, repo, name, uname, uname+"@test.vu.ac.ug", "", []string{user.RoleStudent}, true)
	profile, err := repo.UpsertStudentProfile(user.StudentProfile{UserID: usr.ID, RegNo: regNo})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return usr, profile
}

// CreateStaff creates an active staff user (coordinator or university
// supervisor) with its profile.
func CreateStaff(t *testing.T, repo user.Repository, name, uname, staffNo string, roles []string) (user.User, user.StaffProfile) {
	t.Helper()

	usr := CreateUser(t, repo, name, uname, uname+"@test.vu.ac.ug", "", roles, true)
	profile, err := repo.UpsertStaffProfile(user.StaffProfile{UserID: usr.ID, StaffNo: staffNo})
	if err != nil {
		t.Fatalf("createStaff() failed: %v", err)
	}
	return usr, profile
}

// CreateIndustrySupervisor creates an active industry supervisor user bound to
// the given company.
func CreateIndustrySupervisor(t *testing.T, repo user.Repository, name, uname string, companyID int) (user.User, user.IndustryProfile) {
	t.Helper()

	usr := CreateUser(t, repo, name, uname, uname+"@test.vu.ac.ug", "", []string{user.RoleIndustrySupervisor}, true)
	profile, err := repo.UpsertIndustryProfile(user.IndustryProfile{UserID: usr.ID, CompanyID: companyID})
	if err != nil {
		t.Fatalf("createIndustrySupervisor() failed: %v", err)
	}
	return usr, profile
}

func CreateCompany(t *testing.T, repo company.Repository, name, status string) company.Company {
	t.Helper()

	c, err := repo.CreateCompany(company.Company{
		Name:      name,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createCompany() failed: %v", err)
	}
	return c
}

// CreateActivePeriod creates an internship period spanning [start, end] and
// activates it.
func CreateActivePeriod(t *testing.T, repo internship.Repository, name string, start, end time.Time) internship.Period {
	t.Helper()

	p, err := repo.CreatePeriod(internship.Period{Name: name, StartDate: start, EndDate: end})
	if err != nil {
		t.Fatalf("createActivePeriod() failed: %v", err)
	}
	p, err = repo.SetActivePeriod(p.ID)
	if err != nil {
		t.Fatalf("createActivePeriod() failed: %v", err)
	}
	return p
}
