package evaluation_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	emailsvc "github.com/ghabbala/VU-Interniship-System/services/email"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	dummydb "github.com/ghabbala/VU-Interniship-System/storage/database/dummy"
	testutil "github.com/ghabbala/VU-Interniship-System/tests"
)

type testEnv struct {
	svc           *evaluation.Service
	internshipSvc *internship.Service
	userSvc       *user.Service
	companySvc    *company.Service
	evalRepo      evaluation.Repository
	userRepo      user.Repository
	companyRepo   company.Repository

	coordinator user.User
	student     user.User
	profile     user.StudentProfile
	supUser     user.User
	staff       user.StaffProfile
	indUser     user.User
	indProfile  user.IndustryProfile
	company     company.Company
	placement   internship.Placement
}

// newTestEnv stands up an active placement ending placementMonths from now,
// which controls whether the evaluation windows are open.
func newTestEnv(t *testing.T, placementMonths int) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	env := &testEnv{
		userRepo:    dummydb.NewUserRepository(db),
		companyRepo: dummydb.NewCompanyRepository(db),
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	env.userSvc = user.NewService(env.userRepo, mailSvc)
	env.companySvc = company.NewService(env.companyRepo)
	internshipRepo := dummydb.NewInternshipRepository(db)
	env.internshipSvc = internship.NewService(internshipRepo, env.companySvc, filestore.NewMemoryStorage())
	env.evalRepo = dummydb.NewEvaluationRepository(db)
	env.svc = evaluation.NewService(env.evalRepo, env.internshipSvc, env.userSvc, env.companySvc)

	env.coordinator = testutil.CreateUser(
		t, env.userRepo, "Coordinator", "coord", "coord@test.vu.ac.ug", "", []string{user.RoleCoordinator}, true)
	env.student, env.profile = testutil.CreateStudent(t, env.userRepo, "Jane Student", "jane", "VU-BIT-0042")
	env.supUser, env.staff = testutil.CreateStaff(
		t, env.userRepo, "Dr. Staff", "drstaff", "STF-001", []string{user.RoleUniversitySupervisor})
	env.company = testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	env.indUser, env.indProfile = testutil.CreateIndustrySupervisor(t, env.userRepo, "Site Boss", "boss", env.company.ID)

	now := time.Now().UTC()
	testutil.CreateActivePeriod(t, internshipRepo, "May 2026 Intake", now, now.AddDate(0, placementMonths, 0))

	env.placement = env.activePlacement(t, env.profile)
	return env
}

// activePlacement walks a student's request through to an active placement
// supervised by env.staff at env.company.
func (env *testEnv) activePlacement(t *testing.T, profile user.StudentProfile) internship.Placement {
	t.Helper()

	if _, err := env.internshipSvc.SaveDraft(profile, internship.RequestDraft{PreferredCompanyID: env.company.ID}); err != nil {
		t.Fatalf("SaveDraft() failed: %v", err)
	}
	req, err := env.internshipSvc.Submit(profile)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if req, err = env.internshipSvc.IssueRecommendation(env.coordinator, req.ID, "rec.pdf", strings.NewReader("rec"), 3); err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}
	if req, err = env.internshipSvc.UploadAcceptance(profile, "acceptance.pdf", strings.NewReader("ok"), 2); err != nil {
		t.Fatalf("UploadAcceptance() failed: %v", err)
	}
	_, placement, err := env.internshipSvc.VerifyAndAssign(env.coordinator, req.ID, env.staff.ID)
	if err != nil {
		t.Fatalf("VerifyAndAssign() failed: %v", err)
	}
	return placement
}

func industryForm(rating int) evaluation.IndustryEvalForm {
	return evaluation.IndustryEvalForm{
		BasicWorkExpectations:  rating,
		KnowledgeAndLearning:   rating,
		EthicalAwareness:       rating,
		InterpersonalRelations: rating,
		CommunicationSkills:    rating,
		Attendance:             rating,
		Punctuality:            rating,
		Flexibility:            rating,
		Dependability:          rating,
		CultureFit:             rating,
		DressCode:              rating,
		Behaviour:              rating,
		WorkProductivity:       rating,
		SupervisorName:         "Site Boss",
	}
}

func academicForm(rating int) evaluation.AcademicEvalForm {
	return evaluation.AcademicEvalForm{
		UnderstandingOfInternship: rating,
		SupportFramework:          rating,
		CultureFit:                rating,
		WorkOutput:                rating,
		GeneralPresentation:       rating,
		SupervisorName:            "Dr. Staff",
	}
}

func (env *testEnv) submitBothEvals(t *testing.T, placementID, indRating, acRating int) {
	t.Helper()

	if _, err := env.svc.SaveIndustry(env.indUser, env.indProfile, placementID, industryForm(indRating)); err != nil {
		t.Fatalf("SaveIndustry() failed: %v", err)
	}
	if _, err := env.svc.SubmitIndustry(env.indUser, env.indProfile, placementID); err != nil {
		t.Fatalf("SubmitIndustry() failed: %v", err)
	}
	if _, err := env.svc.SaveAcademic(env.supUser, env.staff, placementID, academicForm(acRating)); err != nil {
		t.Fatalf("SaveAcademic() failed: %v", err)
	}
	if _, err := env.svc.SubmitAcademic(env.supUser, env.staff, placementID); err != nil {
		t.Fatalf("SubmitAcademic() failed: %v", err)
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoring(t *testing.T) {
	ind := evaluation.IndustryEvaluation{}
	form := industryForm(4)
	ind.BasicWorkExpectations = form.BasicWorkExpectations
	ind.KnowledgeAndLearning = form.KnowledgeAndLearning
	ind.EthicalAwareness = form.EthicalAwareness
	ind.InterpersonalRelations = form.InterpersonalRelations
	ind.CommunicationSkills = form.CommunicationSkills
	ind.Attendance = form.Attendance
	ind.Punctuality = form.Punctuality
	ind.Flexibility = form.Flexibility
	ind.Dependability = form.Dependability
	ind.CultureFit = form.CultureFit
	ind.DressCode = form.DressCode
	ind.Behaviour = form.Behaviour
	ind.WorkProductivity = form.WorkProductivity

	if got, want := ind.TotalMarks(), 52; got != want {
		t.Errorf("TotalMarks() = %d; want %d", got, want)
	}
	if got, want := ind.MaxMarks(), 65; got != want {
		t.Errorf("MaxMarks() = %d; want %d", got, want)
	}
	if got := ind.ScoreOutOf100(); !almostEqual(got, 80) {
		t.Errorf("ScoreOutOf100() = %v; want 80", got)
	}
	if got := ind.ScoreOutOf10(); !almostEqual(got, 8) {
		t.Errorf("ScoreOutOf10() = %v; want 8", got)
	}

	ac := evaluation.AcademicEvaluation{
		UnderstandingOfInternship: 5,
		SupportFramework:          5,
		CultureFit:                5,
		WorkOutput:                5,
		GeneralPresentation:       5,
	}
	if got, want := ac.MaxMarks(), 25; got != want {
		t.Errorf("academic MaxMarks() = %d; want %d", got, want)
	}
	if got := ac.ScoreOutOf100(); !almostEqual(got, 100) {
		t.Errorf("academic ScoreOutOf100() = %v; want 100", got)
	}

	// the average requires both sides submitted
	if avg := evaluation.Average100(&ind, &ac); avg != nil {
		t.Errorf("Average100() on drafts = %v; want nil", *avg)
	}
	ind.Status = evaluation.StatusSubmitted
	ac.Status = evaluation.StatusSubmitted
	avg := evaluation.Average100(&ind, &ac)
	if avg == nil || !almostEqual(*avg, 90) {
		t.Errorf("Average100() = %v; want 90", avg)
	}
	if got := evaluation.Average100(&ind, nil); got != nil {
		t.Errorf("Average100() with missing academic = %v; want nil", *got)
	}
}

func TestService_IndustryLifecycle(t *testing.T) {
	env := newTestEnv(t, 3)

	eval, err := env.svc.SaveIndustry(env.indUser, env.indProfile, env.placement.ID, industryForm(4))
	if err != nil {
		t.Fatalf("SaveIndustry() failed: %v", err)
	}
	if eval.Status != evaluation.StatusDraft {
		t.Errorf("status = %s; want %s", eval.Status, evaluation.StatusDraft)
	}
	if eval.CompanyID != env.company.ID {
		t.Errorf("company = %d; want %d", eval.CompanyID, env.company.ID)
	}

	// GetOrCreate is idempotent per placement
	again, err := env.svc.GetOrCreateIndustry(env.indUser, env.indProfile, env.placement.ID)
	if err != nil {
		t.Fatalf("GetOrCreateIndustry() failed: %v", err)
	}
	if again.ID != eval.ID {
		t.Errorf("GetOrCreateIndustry() id = %d; want %d", again.ID, eval.ID)
	}

	eval, err = env.svc.SubmitIndustry(env.indUser, env.indProfile, env.placement.ID)
	if err != nil {
		t.Fatalf("SubmitIndustry() failed: %v", err)
	}
	if eval.Status != evaluation.StatusSubmitted || eval.SubmittedAt.IsZero() {
		t.Errorf("submit left status=%s submitted_at=%v", eval.Status, eval.SubmittedAt)
	}
	if eval.SupervisorUser != env.indUser.ID {
		t.Errorf("supervisor user = %d; want %d", eval.SupervisorUser, env.indUser.ID)
	}

	// a submitted evaluation is frozen
	if _, err = env.svc.SaveIndustry(env.indUser, env.indProfile, env.placement.ID, industryForm(5)); !core.IsPreconditionFailed(err) {
		t.Fatalf("SaveIndustry() after submit error = %v; want precondition error", err)
	}
	if _, err = env.svc.SubmitIndustry(env.indUser, env.indProfile, env.placement.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("second SubmitIndustry() error = %v; want precondition error", err)
	}
}

func TestService_IndustryValidationAndScoping(t *testing.T) {
	env := newTestEnv(t, 3)

	form := industryForm(4)
	form.Attendance = 6
	if _, err := env.svc.SaveIndustry(env.indUser, env.indProfile, env.placement.ID, form); !core.IsValidationError(err) {
		t.Fatalf("SaveIndustry() with rating 6 error = %v; want validation error", err)
	}

	other := testutil.CreateCompany(t, env.companyRepo, "Other Ltd", company.StatusApproved)
	otherUser, otherProfile := testutil.CreateIndustrySupervisor(t, env.userRepo, "Other Boss", "otherboss", other.ID)
	if _, err := env.svc.GetOrCreateIndustry(otherUser, otherProfile, env.placement.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("GetOrCreateIndustry() by other company error = %v; want permission error", err)
	}
	if _, err := env.svc.GetOrCreateIndustry(env.student, env.indProfile, env.placement.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("GetOrCreateIndustry() by student error = %v; want permission error", err)
	}
}

func TestService_AcademicLifecycle(t *testing.T) {
	env := newTestEnv(t, 3)

	eval, err := env.svc.SaveAcademic(env.supUser, env.staff, env.placement.ID, academicForm(4))
	if err != nil {
		t.Fatalf("SaveAcademic() failed: %v", err)
	}
	if eval.Status != evaluation.StatusDraft {
		t.Errorf("status = %s; want %s", eval.Status, evaluation.StatusDraft)
	}

	eval, err = env.svc.SubmitAcademic(env.supUser, env.staff, env.placement.ID)
	if err != nil {
		t.Fatalf("SubmitAcademic() failed: %v", err)
	}
	if eval.SupervisorUser != env.supUser.ID {
		t.Errorf("supervisor user = %d; want %d", eval.SupervisorUser, env.supUser.ID)
	}
	if _, err = env.svc.SubmitAcademic(env.supUser, env.staff, env.placement.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("second SubmitAcademic() error = %v; want precondition error", err)
	}

	// other university supervisors have no access to this placement
	otherUser, otherStaff := testutil.CreateStaff(
		t, env.userRepo, "Dr. Other", "drother", "STF-002", []string{user.RoleUniversitySupervisor})
	if _, err = env.svc.GetOrCreateAcademic(otherUser, otherStaff, env.placement.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("GetOrCreateAcademic() by other supervisor error = %v; want permission error", err)
	}
}

func TestService_windowGating(t *testing.T) {
	// placement ends more than a year out; neither window is open yet
	env := newTestEnv(t, 14)

	if _, err := env.svc.GetOrCreateIndustry(env.indUser, env.indProfile, env.placement.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("GetOrCreateIndustry() error = %v; want precondition error", err)
	}
	if _, err := env.svc.GetOrCreateAcademic(env.supUser, env.staff, env.placement.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("GetOrCreateAcademic() error = %v; want precondition error", err)
	}
}

func TestService_StudentEval(t *testing.T) {
	env := newTestEnv(t, 3)

	eval, err := env.svc.SaveStudentEval(env.student, env.profile, evaluation.StudentEvalForm{
		Program:        "BIT",
		InternshipSite: "Umeme Ltd",
		Q1:             "Applied networking basics",
	})
	if err != nil {
		t.Fatalf("SaveStudentEval() failed: %v", err)
	}
	if eval.Program != "BIT" || eval.Q1 != "Applied networking basics" {
		t.Errorf("form fields not saved: %+v", eval)
	}
	if eval.StudentUser != env.student.ID {
		t.Errorf("student user = %d; want %d", eval.StudentUser, env.student.ID)
	}

	if _, err = env.svc.SubmitStudentEval(env.student, env.profile); err != nil {
		t.Fatalf("SubmitStudentEval() failed: %v", err)
	}
	if _, err = env.svc.SubmitStudentEval(env.student, env.profile); !core.IsPreconditionFailed(err) {
		t.Fatalf("second SubmitStudentEval() error = %v; want precondition error", err)
	}

	// students without a placement cannot self-evaluate
	other, otherProfile := testutil.CreateStudent(t, env.userRepo, "No Placement", "nobody", "VU-BIT-0099")
	if _, err = env.svc.GetOrCreateStudentEval(other, otherProfile); !core.IsPreconditionFailed(err) {
		t.Fatalf("GetOrCreateStudentEval() without placement error = %v; want precondition error", err)
	}
}

func TestService_PlacementAverage(t *testing.T) {
	env := newTestEnv(t, 3)

	if avg := env.svc.PlacementAverage(env.placement.ID); avg != nil {
		t.Fatalf("PlacementAverage() with no evals = %v; want nil", *avg)
	}

	if _, err := env.svc.SaveIndustry(env.indUser, env.indProfile, env.placement.ID, industryForm(4)); err != nil {
		t.Fatalf("SaveIndustry() failed: %v", err)
	}
	if _, err := env.svc.SubmitIndustry(env.indUser, env.indProfile, env.placement.ID); err != nil {
		t.Fatalf("SubmitIndustry() failed: %v", err)
	}
	if avg := env.svc.PlacementAverage(env.placement.ID); avg != nil {
		t.Fatalf("PlacementAverage() with one side = %v; want nil", *avg)
	}

	if _, err := env.svc.SaveAcademic(env.supUser, env.staff, env.placement.ID, academicForm(5)); err != nil {
		t.Fatalf("SaveAcademic() failed: %v", err)
	}
	if _, err := env.svc.SubmitAcademic(env.supUser, env.staff, env.placement.ID); err != nil {
		t.Fatalf("SubmitAcademic() failed: %v", err)
	}
	avg := env.svc.PlacementAverage(env.placement.ID)
	if avg == nil || !almostEqual(*avg, 90) {
		t.Fatalf("PlacementAverage() = %v; want 90", avg)
	}
}

func TestService_BuildReportRows(t *testing.T) {
	env := newTestEnv(t, 3)

	// second assigned student, evaluated; sorts before Jane by reg_no
	_, profile2 := testutil.CreateStudent(t, env.userRepo, "Abel Student", "abel", "VU-BIT-0001")
	placement2 := env.activePlacement(t, profile2)
	env.submitBothEvals(t, placement2.ID, 4, 5)

	rows, err := env.svc.BuildReportRows(env.supUser, env.staff)
	if err != nil {
		t.Fatalf("BuildReportRows() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want 2", len(rows))
	}
	if rows[0].RegNo != "VU-BIT-0001" || rows[1].RegNo != "VU-BIT-0042" {
		t.Fatalf("rows not sorted by reg_no: %s, %s", rows[0].RegNo, rows[1].RegNo)
	}

	evaluated := rows[0]
	if evaluated.Name != "Abel Student" || evaluated.Company != "Umeme Ltd" {
		t.Errorf("row identity = %s / %s", evaluated.Name, evaluated.Company)
	}
	if evaluated.Industry100 == nil || !almostEqual(*evaluated.Industry100, 80) {
		t.Errorf("industry score = %v; want 80", evaluated.Industry100)
	}
	if evaluated.Academic100 == nil || !almostEqual(*evaluated.Academic100, 100) {
		t.Errorf("academic score = %v; want 100", evaluated.Academic100)
	}
	if evaluated.Average100 == nil || !almostEqual(*evaluated.Average100, 90) {
		t.Errorf("average = %v; want 90", evaluated.Average100)
	}

	pending := rows[1]
	if pending.Industry100 != nil || pending.Academic100 != nil || pending.Average100 != nil {
		t.Errorf("unevaluated row has scores: %+v", pending)
	}

	if _, err = env.svc.BuildReportRows(env.student, env.staff); !core.IsPermissionDenied(err) {
		t.Fatalf("BuildReportRows() by student error = %v; want permission error", err)
	}
}

func TestService_ReportLifecycle(t *testing.T) {
	env := newTestEnv(t, 3)
	env.submitBothEvals(t, env.placement.ID, 4, 5)

	report, err := env.svc.SubmitReport(env.supUser, env.staff)
	if err != nil {
		t.Fatalf("SubmitReport() failed: %v", err)
	}
	if report.Status != evaluation.ReportSubmitted || report.SubmittedAt.IsZero() {
		t.Fatalf("report status = %s submitted_at = %v", report.Status, report.SubmittedAt)
	}
	if len(report.Rows) != 1 || report.Rows[0].Average100 == nil {
		t.Fatalf("report rows = %+v; want one scored row", report.Rows)
	}

	latest, err := env.svc.LatestReport(env.supUser)
	if err != nil {
		t.Fatalf("LatestReport() failed: %v", err)
	}
	if latest.ID != report.ID {
		t.Errorf("LatestReport() id = %d; want %d", latest.ID, report.ID)
	}

	// coordinators see submitted reports and acknowledge them once
	reports, err := env.svc.QueryReports(env.coordinator)
	if err != nil {
		t.Fatalf("QueryReports() failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("QueryReports() = %d reports; want 1", len(reports))
	}
	if _, err = env.svc.MarkReceived(env.supUser, report.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("MarkReceived() by supervisor error = %v; want permission error", err)
	}
	report, err = env.svc.MarkReceived(env.coordinator, report.ID)
	if err != nil {
		t.Fatalf("MarkReceived() failed: %v", err)
	}
	if report.Status != evaluation.ReportReceived {
		t.Errorf("status = %s; want %s", report.Status, evaluation.ReportReceived)
	}
	if _, err = env.svc.MarkReceived(env.coordinator, report.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("second MarkReceived() error = %v; want precondition error", err)
	}

	// a fresh submission opens a new report rather than reviving the old one
	second, err := env.svc.SubmitReport(env.supUser, env.staff)
	if err != nil {
		t.Fatalf("second SubmitReport() failed: %v", err)
	}
	if second.ID == report.ID {
		t.Error("second SubmitReport() reused the received report")
	}
}

// flakyReportRepo simulates a transient storage failure on the open-draft
// lookup.
type flakyReportRepo struct {
	evaluation.Repository
	err error
}

func (r flakyReportRepo) GetOpenReportForSupervisor(userID int) (evaluation.ResultsReport, error) {
	return evaluation.ResultsReport{}, r.err
}

func TestService_SubmitReport_lookupFailurePropagates(t *testing.T) {
	env := newTestEnv(t, 3)
	env.submitBothEvals(t, env.placement.ID, 4, 4)

	lookupErr := errors.New("connection reset by peer")
	svc := evaluation.NewService(
		flakyReportRepo{Repository: env.evalRepo, err: lookupErr},
		env.internshipSvc, env.userSvc, env.companySvc)

	if _, err := svc.SubmitReport(env.supUser, env.staff); err != lookupErr {
		t.Fatalf("SubmitReport() error = %v; want the lookup error", err)
	}
	// the failure must not have forked a report
	if _, err := env.svc.LatestReport(env.supUser); err != evaluation.ErrReportNotFound {
		t.Errorf("LatestReport() error = %v; want ErrReportNotFound", err)
	}
}

func TestService_GetReport_scoping(t *testing.T) {
	env := newTestEnv(t, 3)
	env.submitBothEvals(t, env.placement.ID, 4, 4)

	report, err := env.svc.SubmitReport(env.supUser, env.staff)
	if err != nil {
		t.Fatalf("SubmitReport() failed: %v", err)
	}

	if _, err = env.svc.GetReport(env.supUser, report.ID); err != nil {
		t.Errorf("GetReport() by owner failed: %v", err)
	}
	if _, err = env.svc.GetReport(env.coordinator, report.ID); err != nil {
		t.Errorf("GetReport() by coordinator failed: %v", err)
	}
	if _, err = env.svc.GetReport(env.indUser, report.ID); !core.IsPermissionDenied(err) {
		t.Errorf("GetReport() by outsider error = %v; want permission error", err)
	}
}

func TestService_Dashboards(t *testing.T) {
	env := newTestEnv(t, 3)
	env.submitBothEvals(t, env.placement.ID, 4, 5)
	if _, err := env.svc.SubmitReport(env.supUser, env.staff); err != nil {
		t.Fatalf("SubmitReport() failed: %v", err)
	}

	dash, err := env.svc.SupervisorStats(env.supUser, env.staff)
	if err != nil {
		t.Fatalf("SupervisorStats() failed: %v", err)
	}
	if dash.AssignedCount != 1 || dash.IndustrySubmittedCount != 1 || dash.AcademicSubmittedCount != 1 || dash.ReadyForAverageCount != 1 {
		t.Errorf("SupervisorStats() = %+v", dash)
	}
	if dash.LatestReport == nil {
		t.Error("SupervisorStats() missing latest report")
	}

	cdash, err := env.svc.CoordinatorStats(env.coordinator)
	if err != nil {
		t.Fatalf("CoordinatorStats() failed: %v", err)
	}
	if cdash.IndustrySubmittedCount != 1 || cdash.AcademicSubmittedCount != 1 || cdash.SubmittedReportCount != 1 || cdash.ReceivedReportCount != 0 {
		t.Errorf("CoordinatorStats() = %+v", cdash)
	}

	if _, err = env.svc.CoordinatorStats(env.supUser); !core.IsPermissionDenied(err) {
		t.Fatalf("CoordinatorStats() by supervisor error = %v; want permission error", err)
	}
}
