package company

import (
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// Company verification statuses
const (
	StatusPendingVerification = "pending_verification"
	StatusApproved            = "approved"
	StatusRejected            = "rejected"
	StatusInactive            = "inactive"
)

var AllStatuses = []string{StatusPendingVerification, StatusApproved, StatusRejected, StatusInactive}

type (
	Company struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		Industry  string    `json:"industry"`
		District  string    `json:"district"`
		Address   string    `json:"address"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Contact is a named person at a Company. Rows are owned by the
	// company and removed with it.
	Contact struct {
		ID        int    `json:"id"`
		CompanyID int    `json:"company_id"`
		Name      string `json:"name"`
		Title     string `json:"title"`
		Phone     string `json:"phone"`
		Email     string `json:"email"`
	}

	NewCompany struct {
		Name     string `json:"name" validate:"required,max=200"`
		Industry string `json:"industry" validate:"max=120"`
		District string `json:"district" validate:"max=120"`
		Address  string `json:"address" validate:"max=255"`
		Status   string `json:"status" validate:"omitempty,companystatus"`
	}

	UpdateCompany struct {
		Name     string `json:"name" validate:"omitempty,max=200"`
		Industry string `json:"industry" validate:"max=120"`
		District string `json:"district" validate:"max=120"`
		Address  string `json:"address" validate:"max=255"`
		Status   string `json:"status" validate:"omitempty,companystatus"`
	}

	NewContact struct {
		Name  string `json:"name" validate:"required,max=120"`
		Title string `json:"title" validate:"max=120"`
		Phone string `json:"phone" validate:"max=40"`
		Email string `json:"email" validate:"omitempty,email"`
	}
)

func (nc *NewCompany) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Industry = core.CleanString(nc.Industry)
	nc.District = core.CleanString(nc.District)
	nc.Address = core.CleanString(nc.Address)
	if err := core.Validate.Struct(nc); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (uc *UpdateCompany) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	uc.Industry = core.CleanString(uc.Industry)
	uc.District = core.CleanString(uc.District)
	uc.Address = core.CleanString(uc.Address)
	if err := core.Validate.Struct(uc); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (nc *NewContact) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Title = core.CleanString(nc.Title)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	if err := core.Validate.Struct(nc); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
