package company

import (
	"errors"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

var (
	// errors
	ErrNotFound   = errors.New("company not found")
	ErrNameExists = errors.New("a company with this name already exists")
)

type (
	Repository interface {
		CreateCompany(c Company) (Company, error)
		// GetOrCreateCompanyByName returns the company with the given name,
		// creating it first if none exists. Backed by the name uniqueness
		// constraint: a concurrent duplicate insert loses and re-fetches.
		GetOrCreateCompanyByName(c Company) (Company, error)
		GetCompanyByID(id int) (Company, error)
		GetCompanyByName(name string) (Company, error)
		QueryAllCompanies() ([]Company, error)
		QueryCompaniesByStatus(status string) ([]Company, error)
		UpdateCompany(c Company) (Company, error)
		DeleteCompaniesByID(ids ...int) error

		CreateContact(ct Contact) (Contact, error)
		QueryContactsByCompany(companyID int) ([]Contact, error)
		GetContactByID(id int) (Contact, error)
		DeleteContactsByID(ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(nc NewCompany) (Company, error) {
	status := nc.Status
	if status == "" {
		status = StatusPendingVerification
	}
	c := Company{
		Name:      nc.Name,
		Industry:  nc.Industry,
		District:  nc.District,
		Address:   nc.Address,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := svc.repo.GetCompanyByName(c.Name); err == nil {
		return Company{}, core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return svc.repo.CreateCompany(c)
}

// GetOrCreateByName binds a previously unregistered company, used when a
// recommendation is issued against a student-proposed company. The caller
// decides the status policy for the created record.
func (svc *Service) GetOrCreateByName(name, district, address, status string) (Company, error) {
	name = core.CleanString(name)
	if name == "" {
		return Company{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	return svc.repo.GetOrCreateCompanyByName(Company{
		Name:      name,
		District:  core.CleanString(district),
		Address:   core.CleanString(address),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetByID(id int) (Company, error) {
	return svc.repo.GetCompanyByID(id)
}

func (svc *Service) QueryAll() ([]Company, error) {
	return svc.repo.QueryAllCompanies()
}

// QueryApproved lists the companies students may pick from.
func (svc *Service) QueryApproved() ([]Company, error) {
	return svc.repo.QueryCompaniesByStatus(StatusApproved)
}

func (svc *Service) Update(id int, uc UpdateCompany) (Company, error) {
	c, err := svc.repo.GetCompanyByID(id)
	if err != nil {
		return Company{}, err
	}
	if uc.Name != "" && uc.Name != c.Name {
		if existing, err := svc.repo.GetCompanyByName(uc.Name); err == nil && existing.ID != id {
			return Company{}, core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
		}
		c.Name = uc.Name
	}
	if uc.Industry != "" {
		c.Industry = uc.Industry
	}
	if uc.District != "" {
		c.District = uc.District
	}
	if uc.Address != "" {
		c.Address = uc.Address
	}
	if uc.Status != "" {
		c.Status = uc.Status
	}
	return svc.repo.UpdateCompany(c)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteCompaniesByID(ids...)
}

func (svc *Service) AddContact(companyID int, nc NewContact) (Contact, error) {
	if _, err := svc.repo.GetCompanyByID(companyID); err != nil {
		return Contact{}, err
	}
	return svc.repo.CreateContact(Contact{
		CompanyID: companyID,
		Name:      nc.Name,
		Title:     nc.Title,
		Phone:     nc.Phone,
		Email:     nc.Email,
	})
}

func (svc *Service) QueryContacts(companyID int) ([]Contact, error) {
	return svc.repo.QueryContactsByCompany(companyID)
}

func (svc *Service) DeleteContacts(ids ...int) error {
	return svc.repo.DeleteContactsByID(ids...)
}
