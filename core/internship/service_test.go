package internship_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	dummydb "github.com/ghabbala/VU-Interniship-System/storage/database/dummy"
	testutil "github.com/ghabbala/VU-Interniship-System/tests"
)

type testEnv struct {
	userRepo user.Repository
	repo     internship.Repository
	svc      *internship.Service
	store    core.FileStorage

	companySvc  *company.Service
	companyRepo company.Repository

	coordinator user.User
	student     user.User
	profile     user.StudentProfile
	supervisor  user.StaffProfile
	period      internship.Period
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	env := &testEnv{
		userRepo: dummydb.NewUserRepository(db),
		repo:     dummydb.NewInternshipRepository(db),
		store:    filestore.NewMemoryStorage(),
	}
	env.companyRepo = dummydb.NewCompanyRepository(db)
	env.companySvc = company.NewService(env.companyRepo)
	env.svc = internship.NewService(env.repo, env.companySvc, env.store)

	env.coordinator = testutil.CreateUser(
		t, env.userRepo, "Coordinator", "coord", "coord@test.vu.ac.ug", "", []string{user.RoleCoordinator}, true)
	env.student, env.profile = testutil.CreateStudent(t, env.userRepo, "Jane Student", "jane", "VU-BIT-0042")
	_, env.supervisor = testutil.CreateStaff(
		t, env.userRepo, "Dr. Staff", "drstaff", "STF-001", []string{user.RoleUniversitySupervisor})

	now := time.Now().UTC()
	env.period = testutil.CreateActivePeriod(t, env.repo, "May 2026 Intake", now, now.AddDate(0, 3, 0))
	return env
}

func (env *testEnv) submitWithCompany(t *testing.T, c company.Company) internship.Request {
	t.Helper()

	if _, err := env.svc.SaveDraft(env.profile, internship.RequestDraft{PreferredCompanyID: c.ID}); err != nil {
		t.Fatalf("SaveDraft() failed: %v", err)
	}
	req, err := env.svc.Submit(env.profile)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return req
}

func TestService_Submit_companyRule(t *testing.T) {
	tests := []struct {
		name     string
		draft    internship.RequestDraft
		wantErr  bool
		wantSrc  string
	}{
		{name: "neither company refused", draft: internship.RequestDraft{}, wantErr: true},
		{name: "preferred company ok", draft: internship.RequestDraft{PreferredCompanyID: -1}, wantSrc: internship.SourceStudentSelected},
		{name: "proposed company ok", draft: internship.RequestDraft{ProposedCompanyName: "Acme Ltd"}, wantSrc: internship.SourceStudentProposed},
		{
			name: "both refused",
			draft: internship.RequestDraft{
				PreferredCompanyID:  -1,
				ProposedCompanyName: "Acme Ltd",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			if tt.draft.PreferredCompanyID != 0 {
				c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
				tt.draft.PreferredCompanyID = c.ID
			}
			if _, err := env.svc.SaveDraft(env.profile, tt.draft); err != nil {
				t.Fatalf("SaveDraft() failed: %v", err)
			}

			req, err := env.svc.Submit(env.profile)
			if tt.wantErr {
				if !core.IsValidationError(err) {
					t.Fatalf("Submit() error = %v; want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() failed: %v", err)
			}
			if req.Status != internship.StatusSubmitted {
				t.Errorf("Submit() status = %s; want %s", req.Status, internship.StatusSubmitted)
			}
			if req.SubmittedAt.IsZero() {
				t.Error("Submit() did not stamp SubmittedAt")
			}
			if req.Source != tt.wantSrc {
				t.Errorf("Submit() source = %s; want %s", req.Source, tt.wantSrc)
			}
		})
	}
}

func TestService_Submit_doubleSubmitRefused(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	env.submitWithCompany(t, c)

	if _, err := env.svc.Submit(env.profile); !core.IsPreconditionFailed(err) {
		t.Fatalf("second Submit() error = %v; want precondition error", err)
	}
}

func TestService_IssueRecommendation_registersProposedCompany(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.SaveDraft(env.profile, internship.RequestDraft{
		ProposedCompanyName:     "Acme Ltd",
		ProposedCompanyDistrict: "Kampala",
	}); err != nil {
		t.Fatalf("SaveDraft() failed: %v", err)
	}
	if _, err := env.svc.Submit(env.profile); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	req, err := env.svc.GetOrCreateForPeriod(env.profile)
	if err != nil {
		t.Fatalf("GetOrCreateForPeriod() failed: %v", err)
	}

	req, err = env.svc.IssueRecommendation(env.coordinator, req.ID, "letter.pdf", strings.NewReader("letter"), 6)
	if err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}
	if req.Status != internship.StatusRecommended {
		t.Errorf("status = %s; want %s", req.Status, internship.StatusRecommended)
	}
	if req.RecommendationLetter == "" || !env.store.Exists(req.RecommendationLetter) {
		t.Error("recommendation letter was not stored")
	}
	if req.PreferredCompanyID == 0 {
		t.Fatal("proposed company was not bound to the request")
	}

	c, err := env.companySvc.GetByID(req.PreferredCompanyID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if c.Name != "Acme Ltd" || c.Status != company.StatusApproved {
		t.Errorf("company = %s (%s); want Acme Ltd (%s)", c.Name, c.Status, company.StatusApproved)
	}
}

func TestService_UploadAcceptance_replacesOldFile(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	req, err := env.svc.IssueRecommendation(env.coordinator, req.ID, "rec.pdf", strings.NewReader("rec"), 3)
	if err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}

	req, err = env.svc.UploadAcceptance(env.profile, "acceptance.pdf", strings.NewReader("v1"), 2)
	if err != nil {
		t.Fatalf("UploadAcceptance() failed: %v", err)
	}
	first := req.AcceptanceLetter
	if first == "" || !env.store.Exists(first) {
		t.Fatal("acceptance letter was not stored")
	}
	if req.Status != internship.StatusAcceptanceUploaded {
		t.Errorf("status = %s; want %s", req.Status, internship.StatusAcceptanceUploaded)
	}

	// re-upload replaces the file and resets verification
	req, err = env.svc.UploadAcceptance(env.profile, "acceptance-v2.pdf", strings.NewReader("v2"), 2)
	if err != nil {
		t.Fatalf("second UploadAcceptance() failed: %v", err)
	}
	if req.AcceptanceLetter == first {
		t.Error("re-upload kept the old stored name")
	}
	if env.store.Exists(first) {
		t.Error("old acceptance letter was not deleted")
	}
	if !env.store.Exists(req.AcceptanceLetter) {
		t.Error("new acceptance letter was not stored")
	}
	if req.AcceptanceVerified || !req.AcceptanceVerifiedAt.IsZero() {
		t.Error("re-upload did not reset verification")
	}
}

func TestService_ReturnForAcceptance(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	req, err := env.svc.IssueRecommendation(env.coordinator, req.ID, "rec.pdf", strings.NewReader("rec"), 3)
	if err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}

	if _, err = env.svc.ReturnForAcceptance(env.coordinator, req.ID, ""); !core.IsValidationError(err) {
		t.Fatalf("ReturnForAcceptance() without comment error = %v; want validation error", err)
	}

	req, err = env.svc.ReturnForAcceptance(env.coordinator, req.ID, "Follow up with the company")
	if err != nil {
		t.Fatalf("ReturnForAcceptance() failed: %v", err)
	}
	if req.Status != internship.StatusReturnedForAcceptance {
		t.Errorf("status = %s; want %s", req.Status, internship.StatusReturnedForAcceptance)
	}

	// once a letter exists the request can no longer be returned
	if _, err = env.svc.UploadAcceptance(env.profile, "acceptance.pdf", strings.NewReader("v1"), 2); err != nil {
		t.Fatalf("UploadAcceptance() failed: %v", err)
	}
	if _, err = env.svc.ReturnForAcceptance(env.coordinator, req.ID, "again"); !core.IsPreconditionFailed(err) {
		t.Fatalf("ReturnForAcceptance() after upload error = %v; want precondition error", err)
	}
}

func TestService_VerifyAndAssign(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	// cannot verify before the acceptance letter is in
	if _, _, err := env.svc.VerifyAndAssign(env.coordinator, req.ID, env.supervisor.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("VerifyAndAssign() on submitted request error = %v; want precondition error", err)
	}

	req, err := env.svc.IssueRecommendation(env.coordinator, req.ID, "rec.pdf", strings.NewReader("rec"), 3)
	if err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}
	if _, err = env.svc.UploadAcceptance(env.profile, "acceptance.pdf", strings.NewReader("ok"), 2); err != nil {
		t.Fatalf("UploadAcceptance() failed: %v", err)
	}

	req, p, err := env.svc.VerifyAndAssign(env.coordinator, req.ID, env.supervisor.ID)
	if err != nil {
		t.Fatalf("VerifyAndAssign() failed: %v", err)
	}
	if req.Status != internship.StatusAcceptanceVerified || !req.AcceptanceVerified {
		t.Errorf("request = %s (verified=%t); want %s verified", req.Status, req.AcceptanceVerified, internship.StatusAcceptanceVerified)
	}
	if p.Status != internship.PlacementActive {
		t.Errorf("placement status = %s; want %s", p.Status, internship.PlacementActive)
	}
	if p.UniversitySupervisorID != env.supervisor.ID {
		t.Errorf("placement supervisor = %d; want %d", p.UniversitySupervisorID, env.supervisor.ID)
	}
	if p.CompanyID != c.ID {
		t.Errorf("placement company = %d; want %d", p.CompanyID, c.ID)
	}
	if !p.StartDate.Equal(env.period.StartDate) || !p.EndDate.Equal(env.period.EndDate) {
		t.Error("placement dates do not match the period")
	}
}

func TestService_ApproveAndPlace_thenAcknowledge(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	req, p, err := env.svc.ApproveAndPlace(env.coordinator, req.ID)
	if err != nil {
		t.Fatalf("ApproveAndPlace() failed: %v", err)
	}
	if req.Status != internship.StatusApproved {
		t.Errorf("request status = %s; want %s", req.Status, internship.StatusApproved)
	}
	if p.Status != internship.PlacementPendingStudentAck {
		t.Errorf("placement status = %s; want %s", p.Status, internship.PlacementPendingStudentAck)
	}

	// approved is terminal
	if _, _, err = env.svc.ApproveAndPlace(env.coordinator, req.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("second ApproveAndPlace() error = %v; want precondition error", err)
	}

	// wrong student cannot acknowledge
	_, other := testutil.CreateStudent(t, env.userRepo, "Other", "other", "VU-BIT-0099")
	if _, err = env.svc.Acknowledge(other, p.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("Acknowledge() by wrong student error = %v; want permission error", err)
	}

	p, err = env.svc.Acknowledge(env.profile, p.ID)
	if err != nil {
		t.Fatalf("Acknowledge() failed: %v", err)
	}
	if p.Status != internship.PlacementActive {
		t.Errorf("placement status = %s; want %s", p.Status, internship.PlacementActive)
	}
}

func TestService_Reject_allowsResubmit(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	if _, err := env.svc.Reject(env.coordinator, req.ID, ""); !core.IsValidationError(err) {
		t.Fatalf("Reject() without notes error = %v; want validation error", err)
	}

	req, err := env.svc.Reject(env.coordinator, req.ID, "CV missing")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if req.Status != internship.StatusRejected || req.ReviewNotes != "CV missing" {
		t.Errorf("request = %s (%q); want %s with notes", req.Status, req.ReviewNotes, internship.StatusRejected)
	}

	req, err = env.svc.Submit(env.profile)
	if err != nil {
		t.Fatalf("re-Submit() after rejection failed: %v", err)
	}
	if req.Status != internship.StatusSubmitted {
		t.Errorf("status = %s; want %s", req.Status, internship.StatusSubmitted)
	}
}

func TestService_attachmentSizeLimit(t *testing.T) {
	env := newTestEnv(t)

	max := core.Conf.Internship.MaxAttachmentSize
	_, err := env.svc.UploadCV(env.profile, "cv.pdf", strings.NewReader("x"), max+1)
	if !core.IsValidationError(err) {
		t.Fatalf("UploadCV() oversize error = %v; want validation error", err)
	}

	req, err := env.svc.UploadCV(env.profile, "cv.pdf", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatalf("UploadCV() failed: %v", err)
	}
	if req.CV == "" || !strings.HasSuffix(req.CV, ".pdf") {
		t.Errorf("stored CV name = %q; want a .pdf under a fresh name", req.CV)
	}
}

func TestService_nonCoordinatorRefused(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	req := env.submitWithCompany(t, c)

	if _, err := env.svc.MarkUnderReview(env.student, req.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("MarkUnderReview() by student error = %v; want permission error", err)
	}
	if _, err := env.svc.Reject(env.student, req.ID, "nope"); !core.IsPermissionDenied(err) {
		t.Fatalf("Reject() by student error = %v; want permission error", err)
	}
}
