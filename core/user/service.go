package user

import (
	"errors"
	"net/mail"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrProfileNotFound = errors.New("profile not found")
	ErrRegNoExists     = errors.New("a student with this registration number already exists")
	ErrStaffNoExists   = errors.New("a staff member with this staff number already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id int) (User, error)
		GetUserByUsername(username string) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(user User, isActive *bool) (User, error)
		SetLastLogin(id int, t time.Time) (User, error)
		DeleteUsersByID(ids ...int) error

		GetStudentProfile(userID int) (StudentProfile, error)
		GetStudentProfileByID(id int) (StudentProfile, error)
		GetStudentProfileByRegNo(regNo string) (StudentProfile, error)
		UpsertStudentProfile(p StudentProfile) (StudentProfile, error)
		GetStaffProfile(userID int) (StaffProfile, error)
		GetStaffProfileByID(id int) (StaffProfile, error)
		QueryAllStaffProfiles() ([]StaffProfile, error)
		UpsertStaffProfile(p StaffProfile) (StaffProfile, error)
		GetIndustryProfile(userID int) (IndustryProfile, error)
		UpsertIndustryProfile(p IndustryProfile) (IndustryProfile, error)
	}

	Service struct {
		repo Repository
		mail core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mail: mailSvc}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}

	if usr.Email != "" {
		svc.mail.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Welcome",
			TemplateName: "welcome",
			TemplateData: struct{ Username string }{usr.Username},
		})
	}
	return usr, nil
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		Roles:     uu.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	return svc.repo.SetLastLogin(usr.ID, time.Now().UTC())
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteUsersByID(ids...)
}

// RequestPasswordReset emails a signed, time-limited reset token to the user.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	token, err := MakeToken(usr)
	if err != nil {
		return err
	}
	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Username string
			UID      string
			Token    string
		}{usr.Username, EncodeUID(usr), token},
	})
	return nil
}

// ResetPassword verifies a reset token and sets the new password.
func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(usr, nil)
	return err
}

// Profiles

func (svc *Service) GetStudentProfile(userID int) (StudentProfile, error) {
	return svc.repo.GetStudentProfile(userID)
}

func (svc *Service) GetStudentProfileByID(id int) (StudentProfile, error) {
	return svc.repo.GetStudentProfileByID(id)
}

func (svc *Service) GetStudentProfileByRegNo(regNo string) (StudentProfile, error) {
	return svc.repo.GetStudentProfileByRegNo(core.CleanString(regNo, true /* lower */))
}

func (svc *Service) SetStudentProfile(p StudentProfile) (StudentProfile, error) {
	p.RegNo = core.CleanString(p.RegNo, true /* lower */)
	if p.RegNo == "" {
		return StudentProfile{}, core.NewValidationError(nil, core.FieldError{Field: "reg_no", Error: "this field is required"})
	}
	if existing, err := svc.repo.GetStudentProfileByRegNo(p.RegNo); err == nil && existing.UserID != p.UserID {
		return StudentProfile{}, core.NewValidationError(ErrRegNoExists, core.FieldError{Field: "reg_no", Error: ErrRegNoExists.Error()})
	}
	return svc.repo.UpsertStudentProfile(p)
}

func (svc *Service) GetStaffProfile(userID int) (StaffProfile, error) {
	return svc.repo.GetStaffProfile(userID)
}

func (svc *Service) GetStaffProfileByID(id int) (StaffProfile, error) {
	return svc.repo.GetStaffProfileByID(id)
}

func (svc *Service) QueryAllStaffProfiles() ([]StaffProfile, error) {
	return svc.repo.QueryAllStaffProfiles()
}

func (svc *Service) SetStaffProfile(p StaffProfile) (StaffProfile, error) {
	p.StaffNo = core.CleanString(p.StaffNo, true /* lower */)
	if p.StaffNo == "" {
		return StaffProfile{}, core.NewValidationError(nil, core.FieldError{Field: "staff_no", Error: "this field is required"})
	}
	return svc.repo.UpsertStaffProfile(p)
}

func (svc *Service) GetIndustryProfile(userID int) (IndustryProfile, error) {
	return svc.repo.GetIndustryProfile(userID)
}

func (svc *Service) SetIndustryProfile(p IndustryProfile) (IndustryProfile, error) {
	if p.CompanyID == 0 {
		return IndustryProfile{}, core.NewValidationError(nil, core.FieldError{Field: "company_id", Error: "this field is required"})
	}
	return svc.repo.UpsertIndustryProfile(p)
}
