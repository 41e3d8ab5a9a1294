package dummydb

import (
	"sort"

	"github.com/ghabbala/VU-Interniship-System/core/internship"
)

type internshipRepository struct {
	db *internshipTable
}

var _ internship.Repository = (*internshipRepository)(nil) // interface compliance check

func NewInternshipRepository(db *DB) internship.Repository {
	return &internshipRepository{db: db.internship}
}

// Periods

func (repo *internshipRepository) CreatePeriod(p internship.Period) (internship.Period, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	p.ID = repo.db.pk
	repo.db.periods[p.ID] = &p
	return p, nil
}

func (repo *internshipRepository) GetPeriodByID(id int) (internship.Period, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.periods[id]; ok {
		return *p, nil
	}
	return internship.Period{}, internship.ErrPeriodNotFound
}

func (repo *internshipRepository) GetActivePeriod() (internship.Period, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.periods {
		if p.IsActive {
			return *p, nil
		}
	}
	return internship.Period{}, internship.ErrPeriodNotFound
}

func (repo *internshipRepository) QueryAllPeriods() ([]internship.Period, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	periods := make([]internship.Period, 0, len(repo.db.periods))
	for _, p := range repo.db.periods {
		periods = append(periods, *p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].StartDate.After(periods[j].StartDate) })
	return periods, nil
}

func (repo *internshipRepository) SetActivePeriod(id int) (internship.Period, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	target, ok := repo.db.periods[id]
	if !ok {
		return internship.Period{}, internship.ErrPeriodNotFound
	}
	for _, p := range repo.db.periods {
		p.IsActive = p.ID == id
	}
	return *target, nil
}

// Requests

func (repo *internshipRepository) GetOrCreateRequest(r internship.Request) (internship.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.requests {
		if existing.StudentID == r.StudentID && existing.PeriodID == r.PeriodID {
			return *existing, nil
		}
	}
	repo.db.pk++
	r.ID = repo.db.pk
	repo.db.requests[r.ID] = &r
	return r, nil
}

func (repo *internshipRepository) GetRequestByID(id int) (internship.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.requests[id]; ok {
		return *r, nil
	}
	return internship.Request{}, internship.ErrNotFound
}

func (repo *internshipRepository) GetRequestForPeriod(studentID, periodID int) (internship.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.requests {
		if r.StudentID == studentID && r.PeriodID == periodID {
			return *r, nil
		}
	}
	return internship.Request{}, internship.ErrNotFound
}

func (repo *internshipRepository) QueryRequestsByStatus(statuses ...string) ([]internship.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var requests []internship.Request
	for _, r := range repo.db.requests {
		for _, s := range statuses {
			if r.Status == s {
				requests = append(requests, *r)
				break
			}
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].SubmittedAt.After(requests[j].SubmittedAt) })
	return requests, nil
}

func (repo *internshipRepository) QueryRequestsAwaitingAcceptance() ([]internship.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var requests []internship.Request
	for _, r := range repo.db.requests {
		if (r.Status == internship.StatusRecommended || r.Status == internship.StatusReturnedForAcceptance) &&
			r.AcceptanceLetter == "" {
			requests = append(requests, *r)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].RecommendationIssuedAt.After(requests[j].RecommendationIssuedAt)
	})
	return requests, nil
}

func (repo *internshipRepository) UpdateRequest(r internship.Request) (internship.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.requests[r.ID]; !ok {
		return internship.Request{}, internship.ErrNotFound
	}
	repo.db.requests[r.ID] = &r
	return r, nil
}

func (repo *internshipRepository) SaveRequestWithPlacement(r internship.Request, p internship.Placement) (internship.Request, internship.Placement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.requests[r.ID]; !ok {
		return internship.Request{}, internship.Placement{}, internship.ErrNotFound
	}

	// placement get-or-create keyed by the 1:1 request relation
	for _, existing := range repo.db.placements {
		if existing.RequestID == r.ID {
			existing.CompanyID = p.CompanyID
			if p.UniversitySupervisorID != 0 {
				existing.UniversitySupervisorID = p.UniversitySupervisorID
			}
			existing.Status = p.Status
			repo.db.requests[r.ID] = &r
			return r, *existing, nil
		}
	}

	repo.db.pk++
	p.ID = repo.db.pk
	repo.db.placements[p.ID] = &p
	repo.db.requests[r.ID] = &r
	return r, p, nil
}

// Placements

func (repo *internshipRepository) GetPlacementByID(id int) (internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.placements[id]; ok {
		return *p, nil
	}
	return internship.Placement{}, internship.ErrPlacementNotFound
}

func (repo *internshipRepository) GetPlacementByRequest(requestID int) (internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.placements {
		if p.RequestID == requestID {
			return *p, nil
		}
	}
	return internship.Placement{}, internship.ErrPlacementNotFound
}

func (repo *internshipRepository) GetCurrentPlacementForStudent(studentID int) (internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *internship.Placement
	for _, p := range repo.db.placements {
		if p.StudentID != studentID || p.IsTerminal() {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return internship.Placement{}, internship.ErrPlacementNotFound
	}
	return *latest, nil
}

func (repo *internshipRepository) QueryPlacementsBySupervisor(staffID int) ([]internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var placements []internship.Placement
	for _, p := range repo.db.placements {
		if p.UniversitySupervisorID == staffID && !p.IsTerminal() {
			placements = append(placements, *p)
		}
	}
	return placements, nil
}

func (repo *internshipRepository) QueryPlacementsByCompany(companyID int) ([]internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var placements []internship.Placement
	for _, p := range repo.db.placements {
		if p.CompanyID == companyID && !p.IsTerminal() {
			placements = append(placements, *p)
		}
	}
	return placements, nil
}

func (repo *internshipRepository) QueryNonTerminalPlacements() ([]internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var placements []internship.Placement
	for _, p := range repo.db.placements {
		if !p.IsTerminal() {
			placements = append(placements, *p)
		}
	}
	return placements, nil
}

func (repo *internshipRepository) QueryAllPlacements() ([]internship.Placement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	placements := make([]internship.Placement, 0, len(repo.db.placements))
	for _, p := range repo.db.placements {
		placements = append(placements, *p)
	}
	return placements, nil
}

func (repo *internshipRepository) UpdatePlacement(p internship.Placement) (internship.Placement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.placements[p.ID]; !ok {
		return internship.Placement{}, internship.ErrPlacementNotFound
	}
	repo.db.placements[p.ID] = &p
	return p, nil
}
