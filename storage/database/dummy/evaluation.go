package dummydb

import (
	"sort"

	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
)

type evaluationRepository struct {
	db *evaluationTable
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db.evaluation}
}

// Industry

func (repo *evaluationRepository) GetOrCreateIndustryEval(e evaluation.IndustryEvaluation) (evaluation.IndustryEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.industryEvals {
		if existing.PlacementID == e.PlacementID {
			return *existing, nil
		}
	}
	repo.db.pk++
	e.ID = repo.db.pk
	repo.db.industryEvals[e.ID] = &e
	return e, nil
}

func (repo *evaluationRepository) GetIndustryEvalByPlacement(placementID int) (evaluation.IndustryEvaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.industryEvals {
		if e.PlacementID == placementID {
			return *e, nil
		}
	}
	return evaluation.IndustryEvaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QuerySubmittedIndustryEvals(placementIDs []int) ([]evaluation.IndustryEvaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(placementIDs))
	for _, id := range placementIDs {
		wanted[id] = true
	}

	var evals []evaluation.IndustryEvaluation
	for _, e := range repo.db.industryEvals {
		if wanted[e.PlacementID] && e.Status == evaluation.StatusSubmitted {
			evals = append(evals, *e)
		}
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateIndustryEval(e evaluation.IndustryEvaluation) (evaluation.IndustryEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.industryEvals[e.ID]; !ok {
		return evaluation.IndustryEvaluation{}, evaluation.ErrNotFound
	}
	repo.db.industryEvals[e.ID] = &e
	return e, nil
}

// Academic

func (repo *evaluationRepository) GetOrCreateAcademicEval(e evaluation.AcademicEvaluation) (evaluation.AcademicEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.academicEvals {
		if existing.PlacementID == e.PlacementID {
			return *existing, nil
		}
	}
	repo.db.pk++
	e.ID = repo.db.pk
	repo.db.academicEvals[e.ID] = &e
	return e, nil
}

func (repo *evaluationRepository) GetAcademicEvalByPlacement(placementID int) (evaluation.AcademicEvaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.academicEvals {
		if e.PlacementID == placementID {
			return *e, nil
		}
	}
	return evaluation.AcademicEvaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QuerySubmittedAcademicEvals(placementIDs []int, supervisorUserID int) ([]evaluation.AcademicEvaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(placementIDs))
	for _, id := range placementIDs {
		wanted[id] = true
	}

	var evals []evaluation.AcademicEvaluation
	for _, e := range repo.db.academicEvals {
		if !wanted[e.PlacementID] || e.Status != evaluation.StatusSubmitted {
			continue
		}
		if supervisorUserID != 0 && e.SupervisorUser != supervisorUserID {
			continue
		}
		evals = append(evals, *e)
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateAcademicEval(e evaluation.AcademicEvaluation) (evaluation.AcademicEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.academicEvals[e.ID]; !ok {
		return evaluation.AcademicEvaluation{}, evaluation.ErrNotFound
	}
	repo.db.academicEvals[e.ID] = &e
	return e, nil
}

// Student self-evaluation

func (repo *evaluationRepository) GetOrCreateStudentEval(e evaluation.StudentEvaluation) (evaluation.StudentEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.studentEvals {
		if existing.PlacementID == e.PlacementID {
			return *existing, nil
		}
	}
	repo.db.pk++
	e.ID = repo.db.pk
	repo.db.studentEvals[e.ID] = &e
	return e, nil
}

func (repo *evaluationRepository) GetStudentEvalByPlacement(placementID int) (evaluation.StudentEvaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.studentEvals {
		if e.PlacementID == placementID {
			return *e, nil
		}
	}
	return evaluation.StudentEvaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) UpdateStudentEval(e evaluation.StudentEvaluation) (evaluation.StudentEvaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.studentEvals[e.ID]; !ok {
		return evaluation.StudentEvaluation{}, evaluation.ErrNotFound
	}
	repo.db.studentEvals[e.ID] = &e
	return e, nil
}

// Reports

func (repo *evaluationRepository) CreateReport(r evaluation.ResultsReport) (evaluation.ResultsReport, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	r.ID = repo.db.pk
	repo.db.reports[r.ID] = &r
	return r, nil
}

func (repo *evaluationRepository) GetReportByID(id int) (evaluation.ResultsReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.reports[id]; ok {
		return *r, nil
	}
	return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
}

func (repo *evaluationRepository) GetLatestReportForSupervisor(userID int) (evaluation.ResultsReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reports []evaluation.ResultsReport
	for _, r := range repo.db.reports {
		if r.SupervisorUser == userID {
			reports = append(reports, *r)
		}
	}
	if len(reports) == 0 {
		return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
	}
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].SubmittedAt.Equal(reports[j].SubmittedAt) {
			return reports[i].SubmittedAt.After(reports[j].SubmittedAt)
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports[0], nil
}

func (repo *evaluationRepository) GetOpenReportForSupervisor(userID int) (evaluation.ResultsReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *evaluation.ResultsReport
	for _, r := range repo.db.reports {
		if r.SupervisorUser != userID || r.Status != evaluation.ReportDraft {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
	}
	return *latest, nil
}

func (repo *evaluationRepository) QueryReportsByStatus(statuses ...string) ([]evaluation.ResultsReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var reports []evaluation.ResultsReport
	for _, r := range repo.db.reports {
		for _, s := range statuses {
			if r.Status == s {
				reports = append(reports, *r)
				break
			}
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].SubmittedAt.After(reports[j].SubmittedAt) })
	return reports, nil
}

func (repo *evaluationRepository) UpdateReport(r evaluation.ResultsReport) (evaluation.ResultsReport, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reports[r.ID]; !ok {
		return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
	}
	repo.db.reports[r.ID] = &r
	return r, nil
}
