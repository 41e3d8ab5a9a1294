package dummydb

import (
	"github.com/ghabbala/VU-Interniship-System/core/company"
)

type companyRepository struct {
	db *companyTable
}

var _ company.Repository = (*companyRepository)(nil) // interface compliance check

func NewCompanyRepository(db *DB) company.Repository {
	return &companyRepository{db: db.company}
}

func (repo *companyRepository) CreateCompany(c company.Company) (company.Company, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	c.ID = repo.db.pk
	repo.db.companies[c.ID] = &c
	return c, nil
}

func (repo *companyRepository) GetOrCreateCompanyByName(c company.Company) (company.Company, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.companies {
		if existing.Name == c.Name {
			return *existing, nil
		}
	}
	repo.db.pk++
	c.ID = repo.db.pk
	repo.db.companies[c.ID] = &c
	return c, nil
}

func (repo *companyRepository) GetCompanyByID(id int) (company.Company, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.companies[id]; ok {
		return *c, nil
	}
	return company.Company{}, company.ErrNotFound
}

func (repo *companyRepository) GetCompanyByName(name string) (company.Company, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.companies {
		if c.Name == name {
			return *c, nil
		}
	}
	return company.Company{}, company.ErrNotFound
}

func (repo *companyRepository) QueryAllCompanies() ([]company.Company, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	companies := make([]company.Company, 0, len(repo.db.companies))
	for _, c := range repo.db.companies {
		companies = append(companies, *c)
	}
	return companies, nil
}

func (repo *companyRepository) QueryCompaniesByStatus(status string) ([]company.Company, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var companies []company.Company
	for _, c := range repo.db.companies {
		if c.Status == status {
			companies = append(companies, *c)
		}
	}
	return companies, nil
}

func (repo *companyRepository) UpdateCompany(c company.Company) (company.Company, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.companies[c.ID]; !ok {
		return company.Company{}, company.ErrNotFound
	}
	repo.db.companies[c.ID] = &c
	return c, nil
}

func (repo *companyRepository) DeleteCompaniesByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.companies, id)
		// contacts are owned by the company
		for cid, ct := range repo.db.contacts {
			if ct.CompanyID == id {
				delete(repo.db.contacts, cid)
			}
		}
	}
	return nil
}

func (repo *companyRepository) CreateContact(ct company.Contact) (company.Contact, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	ct.ID = repo.db.pk
	repo.db.contacts[ct.ID] = &ct
	return ct, nil
}

func (repo *companyRepository) QueryContactsByCompany(companyID int) ([]company.Contact, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var contacts []company.Contact
	for _, ct := range repo.db.contacts {
		if ct.CompanyID == companyID {
			contacts = append(contacts, *ct)
		}
	}
	return contacts, nil
}

func (repo *companyRepository) GetContactByID(id int) (company.Contact, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ct, ok := repo.db.contacts[id]; ok {
		return *ct, nil
	}
	return company.Contact{}, company.ErrNotFound
}

func (repo *companyRepository) DeleteContactsByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.contacts, id)
	}
	return nil
}
