package evaluation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("evaluation not found")
	ErrReportNotFound = errors.New("results report not found")
)

type (
	Repository interface {
		// GetOrCreate* rely on the 1:1 placement uniqueness constraint; a
		// concurrent duplicate insert loses and re-fetches.
		GetOrCreateIndustryEval(e IndustryEvaluation) (IndustryEvaluation, error)
		GetIndustryEvalByPlacement(placementID int) (IndustryEvaluation, error)
		QuerySubmittedIndustryEvals(placementIDs []int) ([]IndustryEvaluation, error)
		UpdateIndustryEval(e IndustryEvaluation) (IndustryEvaluation, error)

		GetOrCreateAcademicEval(e AcademicEvaluation) (AcademicEvaluation, error)
		GetAcademicEvalByPlacement(placementID int) (AcademicEvaluation, error)
		// QuerySubmittedAcademicEvals filters by supervisor user when
		// supervisorUserID is non-zero.
		QuerySubmittedAcademicEvals(placementIDs []int, supervisorUserID int) ([]AcademicEvaluation, error)
		UpdateAcademicEval(e AcademicEvaluation) (AcademicEvaluation, error)

		GetOrCreateStudentEval(e StudentEvaluation) (StudentEvaluation, error)
		GetStudentEvalByPlacement(placementID int) (StudentEvaluation, error)
		UpdateStudentEval(e StudentEvaluation) (StudentEvaluation, error)

		CreateReport(r ResultsReport) (ResultsReport, error)
		GetReportByID(id int) (ResultsReport, error)
		// GetLatestReportForSupervisor orders by submitted_at then created_at.
		GetLatestReportForSupervisor(userID int) (ResultsReport, error)
		// GetOpenReportForSupervisor returns the latest draft report.
		GetOpenReportForSupervisor(userID int) (ResultsReport, error)
		QueryReportsByStatus(statuses ...string) ([]ResultsReport, error)
		UpdateReport(r ResultsReport) (ResultsReport, error)
	}

	Service struct {
		repo       Repository
		placements *internship.Service
		users      *user.Service
		companies  *company.Service
	}

	// SupervisorDashboard backs the university supervisor landing page.
	SupervisorDashboard struct {
		AssignedCount          int            `json:"assigned_count"`
		IndustrySubmittedCount int            `json:"industry_submitted_count"`
		AcademicSubmittedCount int            `json:"academic_submitted_count"`
		ReadyForAverageCount   int            `json:"ready_for_average_count"`
		LatestReport           *ResultsReport `json:"latest_report"`
	}

	// CoordinatorDashboard aggregates program-wide evaluation counters.
	CoordinatorDashboard struct {
		IndustrySubmittedCount int `json:"industry_submitted_count"`
		AcademicSubmittedCount int `json:"academic_submitted_count"`
		SubmittedReportCount   int `json:"submitted_report_count"`
		ReceivedReportCount    int `json:"received_report_count"`
	}
)

func NewService(repo Repository, placementSvc *internship.Service, userSvc *user.Service, companySvc *company.Service) *Service {
	return &Service{repo: repo, placements: placementSvc, users: userSvc, companies: companySvc}
}

// withinWindow gates evaluation entry: open only once the placement end is at
// most windowDays away.
func withinWindow(endDate time.Time, windowDays int) bool {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(endDate.Sub(today).Hours() / 24)
	return days <= windowDays
}

// Industry evaluation

func (svc *Service) GetOrCreateIndustry(actor user.User, profile user.IndustryProfile, placementID int) (IndustryEvaluation, error) {
	placement, err := svc.industryScopedPlacement(actor, profile, placementID)
	if err != nil {
		return IndustryEvaluation{}, err
	}
	if !withinWindow(placement.EndDate, core.Conf.Internship.IndustryEvalWindowDays) {
		return IndustryEvaluation{}, core.NewPreconditionError("evaluation window not yet open")
	}
	now := time.Now().UTC()
	return svc.repo.GetOrCreateIndustryEval(IndustryEvaluation{
		PlacementID: placement.ID,
		CompanyID:   placement.CompanyID,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) SaveIndustry(actor user.User, profile user.IndustryProfile, placementID int, form IndustryEvalForm) (IndustryEvaluation, error) {
	if err := form.Validate(); err != nil {
		return IndustryEvaluation{}, err
	}
	eval, err := svc.GetOrCreateIndustry(actor, profile, placementID)
	if err != nil {
		return IndustryEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return IndustryEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}

	eval.BasicWorkExpectations = form.BasicWorkExpectations
	eval.KnowledgeAndLearning = form.KnowledgeAndLearning
	eval.EthicalAwareness = form.EthicalAwareness
	eval.InterpersonalRelations = form.InterpersonalRelations
	eval.CommunicationSkills = form.CommunicationSkills
	eval.Attendance = form.Attendance
	eval.Punctuality = form.Punctuality
	eval.Flexibility = form.Flexibility
	eval.Dependability = form.Dependability
	eval.CultureFit = form.CultureFit
	eval.DressCode = form.DressCode
	eval.Behaviour = form.Behaviour
	eval.WorkProductivity = form.WorkProductivity

	eval.BasicWorkExpectationsComment = form.BasicWorkExpectationsComment
	eval.KnowledgeAndLearningComment = form.KnowledgeAndLearningComment
	eval.EthicalAwarenessComment = form.EthicalAwarenessComment
	eval.InterpersonalRelationsComment = form.InterpersonalRelationsComment
	eval.CommunicationSkillsComment = form.CommunicationSkillsComment
	eval.AttendanceComment = form.AttendanceComment
	eval.PunctualityComment = form.PunctualityComment
	eval.FlexibilityComment = form.FlexibilityComment
	eval.DependabilityComment = form.DependabilityComment
	eval.CultureFitComment = form.CultureFitComment
	eval.DressCodeComment = form.DressCodeComment
	eval.BehaviourComment = form.BehaviourComment
	eval.WorkProductivityComment = form.WorkProductivityComment

	eval.RecommendEmployment = form.RecommendEmployment
	eval.RecommendComment = form.RecommendComment
	eval.OtherComments = form.OtherComments
	eval.SupervisorName = form.SupervisorName
	eval.SupervisorSignature = form.SupervisorSignature
	eval.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateIndustryEval(eval)
}

func (svc *Service) SubmitIndustry(actor user.User, profile user.IndustryProfile, placementID int) (IndustryEvaluation, error) {
	eval, err := svc.GetOrCreateIndustry(actor, profile, placementID)
	if err != nil {
		return IndustryEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return IndustryEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}
	now := time.Now().UTC()
	eval.Status = StatusSubmitted
	eval.SubmittedAt = now
	eval.SupervisorUser = actor.ID
	eval.UpdatedAt = now
	return svc.repo.UpdateIndustryEval(eval)
}

// Academic evaluation

func (svc *Service) GetOrCreateAcademic(actor user.User, staff user.StaffProfile, placementID int) (AcademicEvaluation, error) {
	placement, err := svc.academicScopedPlacement(actor, staff, placementID)
	if err != nil {
		return AcademicEvaluation{}, err
	}
	if !withinWindow(placement.EndDate, core.Conf.Internship.AcademicEvalWindowDays) {
		return AcademicEvaluation{}, core.NewPreconditionError("evaluation window not yet open")
	}
	now := time.Now().UTC()
	return svc.repo.GetOrCreateAcademicEval(AcademicEvaluation{
		PlacementID: placement.ID,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) SaveAcademic(actor user.User, staff user.StaffProfile, placementID int, form AcademicEvalForm) (AcademicEvaluation, error) {
	if err := form.Validate(); err != nil {
		return AcademicEvaluation{}, err
	}
	eval, err := svc.GetOrCreateAcademic(actor, staff, placementID)
	if err != nil {
		return AcademicEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return AcademicEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}

	eval.UnderstandingOfInternship = form.UnderstandingOfInternship
	eval.SupportFramework = form.SupportFramework
	eval.CultureFit = form.CultureFit
	eval.WorkOutput = form.WorkOutput
	eval.GeneralPresentation = form.GeneralPresentation

	eval.UnderstandingOfInternshipComment = form.UnderstandingOfInternshipComment
	eval.SupportFrameworkComment = form.SupportFrameworkComment
	eval.CultureFitComment = form.CultureFitComment
	eval.WorkOutputComment = form.WorkOutputComment
	eval.GeneralPresentationComment = form.GeneralPresentationComment

	eval.Recommendation = form.Recommendation
	eval.SupervisorName = form.SupervisorName
	eval.SupervisorSignature = form.SupervisorSignature
	eval.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAcademicEval(eval)
}

func (svc *Service) SubmitAcademic(actor user.User, staff user.StaffProfile, placementID int) (AcademicEvaluation, error) {
	eval, err := svc.GetOrCreateAcademic(actor, staff, placementID)
	if err != nil {
		return AcademicEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return AcademicEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}
	now := time.Now().UTC()
	eval.Status = StatusSubmitted
	eval.SubmittedAt = now
	eval.SupervisorUser = actor.ID
	eval.UpdatedAt = now
	return svc.repo.UpdateAcademicEval(eval)
}

// Student self-evaluation

func (svc *Service) GetOrCreateStudentEval(actor user.User, student user.StudentProfile) (StudentEvaluation, error) {
	placement, err := svc.placements.CurrentPlacementForStudent(student.ID)
	if err != nil {
		return StudentEvaluation{}, core.NewPreconditionError("no active placement")
	}
	now := time.Now().UTC()
	return svc.repo.GetOrCreateStudentEval(StudentEvaluation{
		PlacementID: placement.ID,
		StudentUser: actor.ID,
		EvalDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) SaveStudentEval(actor user.User, student user.StudentProfile, form StudentEvalForm) (StudentEvaluation, error) {
	if err := form.Validate(); err != nil {
		return StudentEvaluation{}, err
	}
	eval, err := svc.GetOrCreateStudentEval(actor, student)
	if err != nil {
		return StudentEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return StudentEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}

	eval.Program = form.Program
	eval.InternshipSite = form.InternshipSite
	if !form.EvalDate.IsZero() {
		eval.EvalDate = form.EvalDate
	}
	eval.Q1, eval.Q2, eval.Q3, eval.Q4, eval.Q5 = form.Q1, form.Q2, form.Q3, form.Q4, form.Q5
	eval.Q6, eval.Q7, eval.Q8, eval.Q9, eval.Q10 = form.Q6, form.Q7, form.Q8, form.Q9, form.Q10
	eval.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudentEval(eval)
}

func (svc *Service) SubmitStudentEval(actor user.User, student user.StudentProfile) (StudentEvaluation, error) {
	eval, err := svc.GetOrCreateStudentEval(actor, student)
	if err != nil {
		return StudentEvaluation{}, err
	}
	if eval.Status == StatusSubmitted {
		return StudentEvaluation{}, core.NewPreconditionError("evaluation already submitted")
	}
	now := time.Now().UTC()
	eval.Status = StatusSubmitted
	eval.SubmittedAt = now
	eval.UpdatedAt = now
	return svc.repo.UpdateStudentEval(eval)
}

// Results aggregation

// BuildReportRows computes one row per non-terminal placement assigned to the
// supervisor, ordered by reg_no. The academic side only counts the requesting
// supervisor's own submitted evaluation.
func (svc *Service) BuildReportRows(actor user.User, staff user.StaffProfile) ([]ReportRow, error) {
	if !actor.IsUniversitySupervisor() {
		return nil, core.NewPermissionError("university supervisors only")
	}
	placements, err := svc.placements.QueryPlacementsBySupervisor(staff.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.ID)
	}

	indEvals, err := svc.repo.QuerySubmittedIndustryEvals(ids)
	if err != nil {
		return nil, err
	}
	acEvals, err := svc.repo.QuerySubmittedAcademicEvals(ids, actor.ID)
	if err != nil {
		return nil, err
	}
	indByPlacement := make(map[int]IndustryEvaluation, len(indEvals))
	for _, e := range indEvals {
		indByPlacement[e.PlacementID] = e
	}
	acByPlacement := make(map[int]AcademicEvaluation, len(acEvals))
	for _, e := range acEvals {
		acByPlacement[e.PlacementID] = e
	}

	rows := make([]ReportRow, 0, len(placements))
	for _, p := range placements {
		row := ReportRow{PlacementID: p.ID}

		if profile, err := svc.users.GetStudentProfileByID(p.StudentID); err == nil {
			row.RegNo = profile.RegNo
			if usr, err := svc.users.GetByID(profile.UserID); err == nil {
				row.Name = usr.Name
			}
		}
		if c, err := svc.companies.GetByID(p.CompanyID); err == nil {
			row.Company = c.Name
		}

		if e, ok := indByPlacement[p.ID]; ok {
			s := e.ScoreOutOf100()
			row.Industry100 = &s
		}
		if e, ok := acByPlacement[p.ID]; ok {
			s := e.ScoreOutOf100()
			row.Academic100 = &s
		}
		if row.Industry100 != nil && row.Academic100 != nil {
			avg := (*row.Industry100 + *row.Academic100) / 2
			row.Average100 = &avg
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RegNo < rows[j].RegNo })
	return rows, nil
}

// SubmitReport snapshots the current rows into the supervisor's open draft
// report, or a fresh one, and marks it submitted. Submission never leaves an
// orphan draft behind.
func (svc *Service) SubmitReport(actor user.User, staff user.StaffProfile) (ResultsReport, error) {
	rows, err := svc.BuildReportRows(actor, staff)
	if err != nil {
		return ResultsReport{}, err
	}

	now := time.Now().UTC()
	report, err := svc.repo.GetOpenReportForSupervisor(actor.ID)
	switch err {
	case nil:
	case ErrReportNotFound:
		report, err = svc.repo.CreateReport(ResultsReport{
			SupervisorUser: actor.ID,
			Status:         ReportDraft,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return ResultsReport{}, err
		}
	default:
		return ResultsReport{}, err
	}
	report.Rows = rows
	report.Status = ReportSubmitted
	report.SubmittedAt = now
	report.UpdatedAt = now
	return svc.repo.UpdateReport(report)
}

func (svc *Service) LatestReport(actor user.User) (ResultsReport, error) {
	return svc.repo.GetLatestReportForSupervisor(actor.ID)
}

func (svc *Service) GetReport(actor user.User, id int) (ResultsReport, error) {
	report, err := svc.repo.GetReportByID(id)
	if err != nil {
		return ResultsReport{}, err
	}
	if report.SupervisorUser != actor.ID && !actor.IsCoordinator() {
		return ResultsReport{}, core.NewPermissionError("not your report")
	}
	return report, nil
}

// QueryReports lists submitted and received reports for the coordinator.
func (svc *Service) QueryReports(actor user.User) ([]ResultsReport, error) {
	if !actor.IsCoordinator() {
		return nil, core.NewPermissionError("coordinators only")
	}
	return svc.repo.QueryReportsByStatus(ReportSubmitted, ReportReceived)
}

// MarkReceived acknowledges a submitted report; the transition is never reversed.
func (svc *Service) MarkReceived(actor user.User, reportID int) (ResultsReport, error) {
	if !actor.IsCoordinator() {
		return ResultsReport{}, core.NewPermissionError("coordinators only")
	}
	report, err := svc.repo.GetReportByID(reportID)
	if err != nil {
		return ResultsReport{}, err
	}
	if report.Status != ReportSubmitted {
		return ResultsReport{}, core.NewPreconditionError(fmt.Sprintf("cannot receive a %s report", report.Status))
	}
	report.Status = ReportReceived
	report.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateReport(report)
}

// Read-side helpers

func (svc *Service) GetIndustryByPlacement(placementID int) (IndustryEvaluation, error) {
	return svc.repo.GetIndustryEvalByPlacement(placementID)
}

func (svc *Service) GetAcademicByPlacement(placementID int) (AcademicEvaluation, error) {
	return svc.repo.GetAcademicEvalByPlacement(placementID)
}

func (svc *Service) GetStudentEvalByPlacement(placementID int) (StudentEvaluation, error) {
	return svc.repo.GetStudentEvalByPlacement(placementID)
}

// PlacementAverage returns the combined score for a placement, nil unless
// both evaluations are submitted.
func (svc *Service) PlacementAverage(placementID int) *float64 {
	var ind *IndustryEvaluation
	var ac *AcademicEvaluation
	if e, err := svc.repo.GetIndustryEvalByPlacement(placementID); err == nil {
		ind = &e
	}
	if e, err := svc.repo.GetAcademicEvalByPlacement(placementID); err == nil {
		ac = &e
	}
	return Average100(ind, ac)
}

// Dashboards

func (svc *Service) SupervisorStats(actor user.User, staff user.StaffProfile) (SupervisorDashboard, error) {
	if !actor.IsUniversitySupervisor() {
		return SupervisorDashboard{}, core.NewPermissionError("university supervisors only")
	}
	placements, err := svc.placements.QueryPlacementsBySupervisor(staff.ID)
	if err != nil {
		return SupervisorDashboard{}, err
	}
	ids := make([]int, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.ID)
	}

	indEvals, err := svc.repo.QuerySubmittedIndustryEvals(ids)
	if err != nil {
		return SupervisorDashboard{}, err
	}
	acEvals, err := svc.repo.QuerySubmittedAcademicEvals(ids, 0)
	if err != nil {
		return SupervisorDashboard{}, err
	}

	acPlacements := make(map[int]bool, len(acEvals))
	for _, e := range acEvals {
		acPlacements[e.PlacementID] = true
	}
	ready := 0
	for _, e := range indEvals {
		if acPlacements[e.PlacementID] {
			ready++
		}
	}

	dash := SupervisorDashboard{
		AssignedCount:          len(placements),
		IndustrySubmittedCount: len(indEvals),
		AcademicSubmittedCount: len(acEvals),
		ReadyForAverageCount:   ready,
	}
	if report, err := svc.repo.GetLatestReportForSupervisor(actor.ID); err == nil {
		dash.LatestReport = &report
	}
	return dash, nil
}

func (svc *Service) CoordinatorStats(actor user.User) (CoordinatorDashboard, error) {
	if !actor.IsCoordinator() {
		return CoordinatorDashboard{}, core.NewPermissionError("coordinators only")
	}
	placements, err := svc.placements.QueryNonTerminalPlacements()
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	ids := make([]int, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.ID)
	}
	indEvals, err := svc.repo.QuerySubmittedIndustryEvals(ids)
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	acEvals, err := svc.repo.QuerySubmittedAcademicEvals(ids, 0)
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	submitted, err := svc.repo.QueryReportsByStatus(ReportSubmitted)
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	received, err := svc.repo.QueryReportsByStatus(ReportReceived)
	if err != nil {
		return CoordinatorDashboard{}, err
	}
	return CoordinatorDashboard{
		IndustrySubmittedCount: len(indEvals),
		AcademicSubmittedCount: len(acEvals),
		SubmittedReportCount:   len(submitted),
		ReceivedReportCount:    len(received),
	}, nil
}

// scoping helpers

func (svc *Service) industryScopedPlacement(actor user.User, profile user.IndustryProfile, placementID int) (internship.Placement, error) {
	if !actor.IsIndustrySupervisor() {
		return internship.Placement{}, core.NewPermissionError("industry supervisors only")
	}
	placement, err := svc.placements.GetPlacement(placementID)
	if err != nil {
		return internship.Placement{}, err
	}
	if placement.CompanyID != profile.CompanyID {
		return internship.Placement{}, core.NewPermissionError("placement belongs to another company")
	}
	return placement, nil
}

func (svc *Service) academicScopedPlacement(actor user.User, staff user.StaffProfile, placementID int) (internship.Placement, error) {
	if !actor.IsUniversitySupervisor() {
		return internship.Placement{}, core.NewPermissionError("university supervisors only")
	}
	placement, err := svc.placements.GetPlacement(placementID)
	if err != nil {
		return internship.Placement{}, err
	}
	if placement.UniversitySupervisorID != staff.ID {
		return internship.Placement{}, core.NewPermissionError("not your placement")
	}
	return placement, nil
}
