package tracking_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	emailsvc "github.com/ghabbala/VU-Interniship-System/services/email"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	logsvc "github.com/ghabbala/VU-Interniship-System/services/logger"
	dummydb "github.com/ghabbala/VU-Interniship-System/storage/database/dummy"
	testutil "github.com/ghabbala/VU-Interniship-System/tests"
)

type testEnv struct {
	svc   *tracking.Service
	repo  tracking.Repository
	store core.FileStorage

	userRepo      user.Repository
	companyRepo   company.Repository
	internshipSvc *internship.Service

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

// newTestEnv walks a request through the full coordination flow so every test
// starts from an active placement.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	env := &testEnv{
		repo:        dummydb.NewTrackingRepository(db),
		store:       filestore.NewMemoryStorage(),
		userRepo:    dummydb.NewUserRepository(db),
		companyRepo: dummydb.NewCompanyRepository(db),
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	userSvc := user.NewService(env.userRepo, mailSvc)
	companySvc := company.NewService(env.companyRepo)
	internshipRepo := dummydb.NewInternshipRepository(db)
	env.internshipSvc = internship.NewService(internshipRepo, companySvc, env.store)
	env.svc = tracking.NewService(env.repo, env.internshipSvc, userSvc, mailSvc, env.store, logsvc.NewNopLogger())

	env.coordinator = testutil.CreateUser(
		t, env.userRepo, "Coordinator", "coord", "coord@test.vu.ac.ug", "", []string{user.RoleCoordinator}, true)
	env.student, env.profile = testutil.CreateStudent(t, env.userRepo, "Jane Student", "jane", "VU-BIT-0042")
	env.supUser, env.staff = testutil.CreateStaff(
		t, env.userRepo, "Dr. Staff", "drstaff", "STF-001", []string{user.RoleUniversitySupervisor})
	env.company = testutil.CreateCompany(t, env.companyRepo, "Umeme Ltd", company.StatusApproved)
	env.indUser, env.indProfile = testutil.CreateIndustrySupervisor(t, env.userRepo, "Site Boss", "boss", env.company.ID)

	now := time.Now().UTC()
	testutil.CreateActivePeriod(t, internshipRepo, "May 2026 Intake", now, now.AddDate(0, 3, 0))

	if _, err := env.internshipSvc.SaveDraft(env.profile, internship.RequestDraft{PreferredCompanyID: env.company.ID}); err != nil {
		t.Fatalf("SaveDraft() failed: %v", err)
	}
	req, err := env.internshipSvc.Submit(env.profile)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if req, err = env.internshipSvc.IssueRecommendation(env.coordinator, req.ID, "rec.pdf", strings.NewReader("rec"), 3); err != nil {
		t.Fatalf("IssueRecommendation() failed: %v", err)
	}
	if req, err = env.internshipSvc.UploadAcceptance(env.profile, "acceptance.pdf", strings.NewReader("ok"), 2); err != nil {
		t.Fatalf("UploadAcceptance() failed: %v", err)
	}
	_, env.placement, err = env.internshipSvc.VerifyAndAssign(env.coordinator, req.ID, env.staff.ID)
	if err != nil {
		t.Fatalf("VerifyAndAssign() failed: %v", err)
	}
	if env.placement.Status != internship.PlacementActive {
		t.Fatalf("placement status = %s; want %s", env.placement.Status, internship.PlacementActive)
	}
	return env
}

func (env *testEnv) createLog(t *testing.T) tracking.WeeklyLog {
	t.Helper()

	log, err := env.svc.CreateLog(env.profile)
	if err != nil {
		t.Fatalf("CreateLog() failed: %v", err)
	}
	return log
}

func (env *testEnv) submitLog(t *testing.T, logID int) tracking.WeeklyLog {
	t.Helper()

	log, err := env.svc.SubmitLog(env.profile, logID)
	if err != nil {
		t.Fatalf("SubmitLog() failed: %v", err)
	}
	return log
}

func TestService_CreateLog_weekSequencing(t *testing.T) {
	env := newTestEnv(t)

	log1 := env.createLog(t)
	if log1.WeekNo != 1 {
		t.Errorf("first log week_no = %d; want 1", log1.WeekNo)
	}
	if log1.Status != tracking.StatusDraft {
		t.Errorf("status = %s; want %s", log1.Status, tracking.StatusDraft)
	}
	if got := log1.ToDate.Sub(log1.FromDate); got != 4*24*time.Hour {
		t.Errorf("log span = %v; want 4 days", got)
	}

	entries, err := env.svc.GetLogEntries(log1.ID)
	if err != nil {
		t.Fatalf("GetLogEntries() failed: %v", err)
	}
	if len(entries) != len(tracking.Days) {
		t.Fatalf("entries = %d; want %d", len(entries), len(tracking.Days))
	}
	for i, e := range entries {
		if e.Day != tracking.Days[i] {
			t.Errorf("entry %d day = %s; want %s", i, e.Day, tracking.Days[i])
		}
	}

	log2 := env.createLog(t)
	if log2.WeekNo != 2 {
		t.Errorf("second log week_no = %d; want 2", log2.WeekNo)
	}
}

func TestService_CreateLog_requiresActivePlacement(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.internshipSvc.SetPlacementStatus(env.coordinator, env.placement.ID, internship.PlacementCompleted); err != nil {
		t.Fatalf("SetPlacementStatus() failed: %v", err)
	}
	if _, err := env.svc.CreateLog(env.profile); !core.IsPreconditionFailed(err) {
		t.Fatalf("CreateLog() error = %v; want precondition error", err)
	}
}

func TestService_SaveLog_buildsSummary(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	log, err := env.svc.SaveLog(env.profile, log.ID, tracking.LogEdit{
		Challenges: "Power outages",
		Lessons:    "Always keep backups",
		Entries: []tracking.EntryEdit{
			{Day: "mon", WorkAssignment: "Cable layout", ActivitiesSteps: "Measured and cut runs"},
			{Day: "wed", WorkAssignment: "Panel wiring"},
		},
	})
	if err != nil {
		t.Fatalf("SaveLog() failed: %v", err)
	}
	want := "Monday: Cable layout | Measured and cut runs\nWednesday: Panel wiring | "
	if log.Activities != want {
		t.Errorf("activities = %q; want %q", log.Activities, want)
	}
	if log.Challenges != "Power outages" || log.Lessons != "Always keep backups" {
		t.Errorf("free-text fields not saved: %q / %q", log.Challenges, log.Lessons)
	}
	if log.Status != tracking.StatusDraft {
		t.Errorf("status = %s; want %s", log.Status, tracking.StatusDraft)
	}
}

func TestService_SaveLog_rejectsUnknownDay(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	_, err := env.svc.SaveLog(env.profile, log.ID, tracking.LogEdit{
		Entries: []tracking.EntryEdit{{Day: "sat", WorkAssignment: "Overtime"}},
	})
	if !core.IsValidationError(err) {
		t.Fatalf("SaveLog() error = %v; want validation error", err)
	}
}

func TestService_SubmitLog_andCompanyReview(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	if _, err := env.svc.SaveLog(env.profile, log.ID, tracking.LogEdit{
		Entries: []tracking.EntryEdit{{Day: "mon", WorkAssignment: "Cable layout"}},
	}); err != nil {
		t.Fatalf("SaveLog() failed: %v", err)
	}
	log = env.submitLog(t, log.ID)
	if log.Status != tracking.StatusSubmitted {
		t.Errorf("status = %s; want %s", log.Status, tracking.StatusSubmitted)
	}
	if log.SubmittedAt.IsZero() {
		t.Error("SubmitLog() did not stamp SubmittedAt")
	}

	pending, err := env.svc.CompanyPendingLogs(env.indUser, env.indProfile)
	if err != nil {
		t.Fatalf("CompanyPendingLogs() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != log.ID {
		t.Fatalf("pending logs = %v; want the submitted log", pending)
	}

	log, err = env.svc.ApproveLog(env.indUser, env.indProfile, log.ID)
	if err != nil {
		t.Fatalf("ApproveLog() failed: %v", err)
	}
	if log.Status != tracking.StatusApprovedByCompany {
		t.Errorf("status = %s; want %s", log.Status, tracking.StatusApprovedByCompany)
	}
	if log.CompanyActionBy != env.indUser.ID || log.CompanyActionAt.IsZero() {
		t.Error("ApproveLog() did not record the acting supervisor")
	}

	// approved logs are frozen for the student
	if _, err = env.svc.SaveLog(env.profile, log.ID, tracking.LogEdit{}); !core.IsPreconditionFailed(err) {
		t.Fatalf("SaveLog() on approved log error = %v; want precondition error", err)
	}
	if err = env.svc.DeleteLog(env.profile, log.ID); !core.IsPreconditionFailed(err) {
		t.Fatalf("DeleteLog() on approved log error = %v; want precondition error", err)
	}
}

func TestService_ReturnLog(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)
	log = env.submitLog(t, log.ID)

	log, err := env.svc.ReturnLog(env.indUser, env.indProfile, log.ID, "  ")
	if err != nil {
		t.Fatalf("ReturnLog() failed: %v", err)
	}
	if log.Status != tracking.StatusReturnedForEdit {
		t.Errorf("status = %s; want %s", log.Status, tracking.StatusReturnedForEdit)
	}
	if log.ReturnReason != tracking.DefaultReturnReason {
		t.Errorf("reason = %q; want default %q", log.ReturnReason, tracking.DefaultReturnReason)
	}

	// edits keep the returned status until the student resubmits
	log, err = env.svc.SaveLog(env.profile, log.ID, tracking.LogEdit{
		Entries: []tracking.EntryEdit{{Day: "tue", WorkAssignment: "Rework"}},
	})
	if err != nil {
		t.Fatalf("SaveLog() failed: %v", err)
	}
	if log.Status != tracking.StatusReturnedForEdit {
		t.Errorf("status after edit = %s; want %s", log.Status, tracking.StatusReturnedForEdit)
	}

	log = env.submitLog(t, log.ID)
	log, err = env.svc.ApproveLog(env.indUser, env.indProfile, log.ID)
	if err != nil {
		t.Fatalf("ApproveLog() failed: %v", err)
	}
	if log.ReturnReason != "" {
		t.Errorf("ApproveLog() kept return reason %q", log.ReturnReason)
	}
}

func TestService_companyScoping(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)
	env.submitLog(t, log.ID)

	other := testutil.CreateCompany(t, env.companyRepo, "Other Ltd", company.StatusApproved)
	otherUser, otherProfile := testutil.CreateIndustrySupervisor(t, env.userRepo, "Other Boss", "otherboss", other.ID)

	if _, err := env.svc.ApproveLog(otherUser, otherProfile, log.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("ApproveLog() by other company error = %v; want permission error", err)
	}
	if _, err := env.svc.CompanyPendingLogs(env.student, env.indProfile); !core.IsPermissionDenied(err) {
		t.Fatalf("CompanyPendingLogs() by student error = %v; want permission error", err)
	}
}

func TestService_UploadAttachment_replacesOldFile(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	log, err := env.svc.UploadAttachment(env.profile, log.ID, "photo.jpg", strings.NewReader("v1"), 2)
	if err != nil {
		t.Fatalf("UploadAttachment() failed: %v", err)
	}
	first := log.Attachment
	if first == "" || !env.store.Exists(first) {
		t.Fatal("attachment was not stored")
	}
	if !strings.HasPrefix(first, "tracking/weekly_logs/") || !strings.HasSuffix(first, ".jpg") {
		t.Errorf("stored name = %q", first)
	}

	log, err = env.svc.UploadAttachment(env.profile, log.ID, "photo2.jpg", strings.NewReader("v2"), 2)
	if err != nil {
		t.Fatalf("second UploadAttachment() failed: %v", err)
	}
	if env.store.Exists(first) {
		t.Error("old attachment was not deleted")
	}
	if !env.store.Exists(log.Attachment) {
		t.Error("new attachment was not stored")
	}

	tooBig := core.Conf.Internship.MaxAttachmentSize + 1
	if _, err = env.svc.UploadAttachment(env.profile, log.ID, "big.jpg", strings.NewReader("x"), tooBig); !core.IsValidationError(err) {
		t.Fatalf("oversized UploadAttachment() error = %v; want validation error", err)
	}
}

func TestService_DeleteLog_removesAttachment(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	log, err := env.svc.UploadAttachment(env.profile, log.ID, "photo.jpg", strings.NewReader("v1"), 2)
	if err != nil {
		t.Fatalf("UploadAttachment() failed: %v", err)
	}
	if err := env.svc.DeleteLog(env.profile, log.ID); err != nil {
		t.Fatalf("DeleteLog() failed: %v", err)
	}
	if env.store.Exists(log.Attachment) {
		t.Error("attachment survived log deletion")
	}
	if _, err := env.svc.GetLog(log.ID); err != tracking.ErrNotFound {
		t.Errorf("GetLog() after delete error = %v; want ErrNotFound", err)
	}
}

func TestService_ownership(t *testing.T) {
	env := newTestEnv(t)
	log := env.createLog(t)

	_, intruder := testutil.CreateStudent(t, env.userRepo, "Someone Else", "intruder", "VU-BIT-0099")
	if _, err := env.svc.SaveLog(intruder, log.ID, tracking.LogEdit{}); !core.IsPermissionDenied(err) {
		t.Fatalf("SaveLog() by other student error = %v; want permission error", err)
	}
	if err := env.svc.DeleteLog(intruder, log.ID); !core.IsPermissionDenied(err) {
		t.Fatalf("DeleteLog() by other student error = %v; want permission error", err)
	}
}

func TestService_RecordSiteVisit(t *testing.T) {
	env := newTestEnv(t)

	visit, err := env.svc.RecordSiteVisit(env.supUser, env.staff, tracking.NewSiteVisit{
		PlacementID: env.placement.ID,
		VisitDate:   time.Now().UTC(),
		Findings:    "Student well integrated",
	})
	if err != nil {
		t.Fatalf("RecordSiteVisit() failed: %v", err)
	}
	if visit.SupervisorID != env.staff.ID {
		t.Errorf("visit supervisor = %d; want %d", visit.SupervisorID, env.staff.ID)
	}

	visits, err := env.svc.QuerySiteVisits(env.placement.ID)
	if err != nil {
		t.Fatalf("QuerySiteVisits() failed: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("visits = %d; want 1", len(visits))
	}

	// findings are required
	if _, err = env.svc.RecordSiteVisit(env.supUser, env.staff, tracking.NewSiteVisit{
		PlacementID: env.placement.ID,
		VisitDate:   time.Now().UTC(),
	}); !core.IsValidationError(err) {
		t.Fatalf("RecordSiteVisit() without findings error = %v; want validation error", err)
	}

	// another supervisor cannot record for this placement
	otherUser, otherStaff := testutil.CreateStaff(
		t, env.userRepo, "Dr. Other", "drother", "STF-002", []string{user.RoleUniversitySupervisor})
	if _, err = env.svc.RecordSiteVisit(otherUser, otherStaff, tracking.NewSiteVisit{
		PlacementID: env.placement.ID,
		VisitDate:   time.Now().UTC(),
		Findings:    "Visit",
	}); !core.IsPermissionDenied(err) {
		t.Fatalf("RecordSiteVisit() by other supervisor error = %v; want permission error", err)
	}
}

func TestService_MissingLogPlacements(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	missing, err := env.svc.MissingLogPlacements(now)
	if err != nil {
		t.Fatalf("MissingLogPlacements() failed: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != env.placement.ID {
		t.Fatalf("missing = %v; want the active placement", missing)
	}

	// a draft log does not count
	log := env.createLog(t)
	if missing, err = env.svc.MissingLogPlacements(now); err != nil || len(missing) != 1 {
		t.Fatalf("MissingLogPlacements() with draft = %v, %v; want still missing", missing, err)
	}

	env.submitLog(t, log.ID)
	if missing, err = env.svc.MissingLogPlacements(now); err != nil {
		t.Fatalf("MissingLogPlacements() failed: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing after submit = %v; want none", missing)
	}
}

func TestService_SendMissingLogReminders(t *testing.T) {
	env := newTestEnv(t)
	before := len(emailsvc.SentMessages)

	sent, err := env.svc.SendMissingLogReminders()
	if err != nil {
		t.Fatalf("SendMissingLogReminders() failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d; want 1", sent)
	}
	msgs := emailsvc.SentMessages[before:]
	if len(msgs) != 1 {
		t.Fatalf("captured messages = %d; want 1", len(msgs))
	}
	msg := msgs[len(msgs)-1]
	if len(msg.To) != 1 || msg.To[0].Address != env.student.Email {
		t.Errorf("reminder recipient = %v; want %s", msg.To, env.student.Email)
	}
	if !strings.Contains(msg.Subject, "Weekly internship log missing") {
		t.Errorf("subject = %q", msg.Subject)
	}

	// no reminder once this week's log is in
	log := env.createLog(t)
	env.submitLog(t, log.ID)
	if sent, err = env.svc.SendMissingLogReminders(); err != nil || sent != 0 {
		t.Fatalf("SendMissingLogReminders() after submit = %d, %v; want 0", sent, err)
	}
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		name      string
		in        time.Time
		wantStart string
		wantEnd   string
	}{
		{name: "wednesday", in: time.Date(2026, 5, 13, 15, 4, 0, 0, time.UTC), wantStart: "2026-05-11", wantEnd: "2026-05-17"},
		{name: "monday", in: time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), wantStart: "2026-05-11", wantEnd: "2026-05-17"},
		{name: "sunday", in: time.Date(2026, 5, 17, 23, 59, 0, 0, time.UTC), wantStart: "2026-05-11", wantEnd: "2026-05-17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tracking.WeekBounds(tt.in)
			if got := start.Format("2006-01-02"); got != tt.wantStart {
				t.Errorf("start = %s; want %s", got, tt.wantStart)
			}
			if got := end.Format("2006-01-02"); got != tt.wantEnd {
				t.Errorf("end = %s; want %s", got, tt.wantEnd)
			}
		})
	}
}
