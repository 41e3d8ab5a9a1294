package sqlxrepos

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/company"
)

type companyRepository struct {
	db *sqlx.DB
}

var _ company.Repository = (*companyRepository)(nil) // interface compliance check

func NewCompanyRepository(db *sqlx.DB) *companyRepository {
	return &companyRepository{db: db}
}

func (repo *companyRepository) CreateCompany(c company.Company) (company.Company, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO company (name, industry, district, address, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.Name, c.Industry, c.District, c.Address, c.Status, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return company.Company{}, company.ErrNameExists
		}
		return company.Company{}, errors.Wrap(err, "creating company")
	}
	return c, nil
}

func (repo *companyRepository) GetOrCreateCompanyByName(c company.Company) (company.Company, error) {
	existing, err := repo.GetCompanyByName(c.Name)
	if err == nil {
		return existing, nil
	}
	if err != company.ErrNotFound {
		return company.Company{}, err
	}

	created, err := repo.CreateCompany(c)
	if err == company.ErrNameExists {
		// concurrent insert won; re-fetch
		return repo.GetCompanyByName(c.Name)
	}
	return created, err
}

func (repo *companyRepository) GetCompanyByID(id int) (company.Company, error) {
	return repo.getCompany(`SELECT * FROM company WHERE id = $1`, id)
}

func (repo *companyRepository) GetCompanyByName(name string) (company.Company, error) {
	return repo.getCompany(`SELECT * FROM company WHERE name = $1`, name)
}

func (repo *companyRepository) getCompany(query string, arg interface{}) (company.Company, error) {
	var c company.Company
	if err := repo.db.QueryRowx(query, arg).
		Scan(&c.ID, &c.Name, &c.Industry, &c.District, &c.Address, &c.Status, &c.CreatedAt); err != nil {
		if isNoRows(err) {
			return company.Company{}, company.ErrNotFound
		}
		return company.Company{}, errors.Wrap(err, "getting company")
	}
	return c, nil
}

func (repo *companyRepository) QueryAllCompanies() ([]company.Company, error) {
	return repo.queryCompanies(`SELECT * FROM company ORDER BY name`)
}

func (repo *companyRepository) QueryCompaniesByStatus(status string) ([]company.Company, error) {
	return repo.queryCompanies(`SELECT * FROM company WHERE status = $1 ORDER BY name`, status)
}

func (repo *companyRepository) queryCompanies(query string, args ...interface{}) ([]company.Company, error) {
	rows, err := repo.db.Queryx(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying companies")
	}
	defer func() { _ = rows.Close() }()

	var companies []company.Company
	for rows.Next() {
		var c company.Company
		if err = rows.Scan(&c.ID, &c.Name, &c.Industry, &c.District, &c.Address, &c.Status, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning company")
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (repo *companyRepository) UpdateCompany(c company.Company) (company.Company, error) {
	res, err := repo.db.Exec(
		`UPDATE company SET name = $1, industry = $2, district = $3, address = $4, status = $5 WHERE id = $6`,
		c.Name, c.Industry, c.District, c.Address, c.Status, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return company.Company{}, company.ErrNameExists
		}
		return company.Company{}, errors.Wrap(err, "updating company")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return company.Company{}, company.ErrNotFound
	}
	return c, nil
}

func (repo *companyRepository) DeleteCompaniesByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM company WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting companies")
	}
	return nil
}

func (repo *companyRepository) CreateContact(ct company.Contact) (company.Contact, error) {
	err := repo.db.QueryRowx(
		`INSERT INTO company_contact (company_id, name, title, phone, email)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ct.CompanyID, ct.Name, ct.Title, ct.Phone, ct.Email,
	).Scan(&ct.ID)
	if err != nil {
		return company.Contact{}, errors.Wrap(err, "creating contact")
	}
	return ct, nil
}

func (repo *companyRepository) QueryContactsByCompany(companyID int) ([]company.Contact, error) {
	rows, err := repo.db.Queryx(`SELECT * FROM company_contact WHERE company_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying contacts")
	}
	defer func() { _ = rows.Close() }()

	var contacts []company.Contact
	for rows.Next() {
		var ct company.Contact
		if err = rows.Scan(&ct.ID, &ct.CompanyID, &ct.Name, &ct.Title, &ct.Phone, &ct.Email); err != nil {
			return nil, errors.Wrap(err, "scanning contact")
		}
		contacts = append(contacts, ct)
	}
	return contacts, rows.Err()
}

func (repo *companyRepository) GetContactByID(id int) (company.Contact, error) {
	var ct company.Contact
	if err := repo.db.QueryRowx(`SELECT * FROM company_contact WHERE id = $1`, id).
		Scan(&ct.ID, &ct.CompanyID, &ct.Name, &ct.Title, &ct.Phone, &ct.Email); err != nil {
		if isNoRows(err) {
			return company.Contact{}, company.ErrNotFound
		}
		return company.Contact{}, errors.Wrap(err, "getting contact")
	}
	return ct, nil
}

func (repo *companyRepository) DeleteContactsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM company_contact WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting contacts")
	}
	return nil
}
