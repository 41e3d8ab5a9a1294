package tracking

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("weekly log not found")
	ErrVisitNotFound = errors.New("site visit not found")
)

type (
	Repository interface {
		// CreateLog persists the log and its seeded entries together. Relies
		// on the (placement, week_no) uniqueness constraint.
		CreateLog(log WeeklyLog, entries []WeeklyLogEntry) (WeeklyLog, error)
		GetLogByID(id int) (WeeklyLog, error)
		// MaxWeekNo returns 0 when the placement has no logs yet.
		MaxWeekNo(placementID int) (int, error)
		QueryLogsByPlacement(placementID int) ([]WeeklyLog, error)
		QueryLogsByPlacements(placementIDs []int, statuses ...string) ([]WeeklyLog, error)
		// HasLogInRange reports whether any log with one of the given statuses
		// overlaps [start, end] (from_date <= end AND to_date >= start).
		HasLogInRange(placementID int, start, end time.Time, statuses ...string) (bool, error)
		UpdateLog(log WeeklyLog) (WeeklyLog, error)
		DeleteLog(id int) error

		GetLogEntries(logID int) ([]WeeklyLogEntry, error)
		UpdateLogEntry(e WeeklyLogEntry) (WeeklyLogEntry, error)

		CreateSiteVisit(v SiteVisit) (SiteVisit, error)
		QuerySiteVisitsByPlacement(placementID int) ([]SiteVisit, error)
	}

	Service struct {
		repo       Repository
		placements *internship.Service
		users      *user.Service
		mailSvc    core.EmailService
		store      core.FileStorage
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	placementSvc *internship.Service,
	userSvc *user.Service,
	mailSvc core.EmailService,
	store core.FileStorage,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		placements: placementSvc,
		users:      userSvc,
		mailSvc:    mailSvc,
		store:      store,
		logger:     logger,
	}
}

// Student side

// CreateLog starts the next week's log for the student's current placement,
// with the week number following the highest existing one and one blank entry
// per weekday.
func (svc *Service) CreateLog(student user.StudentProfile) (WeeklyLog, error) {
	placement, err := svc.placements.CurrentPlacementForStudent(student.ID)
	if err != nil {
		return WeeklyLog{}, core.NewPreconditionError("no active placement")
	}
	if placement.Status != internship.PlacementActive {
		return WeeklyLog{}, core.NewPreconditionError("no active placement")
	}

	last, err := svc.repo.MaxWeekNo(placement.ID)
	if err != nil {
		return WeeklyLog{}, err
	}
	weekNo := last + 1
	if weekNo < 1 {
		weekNo = 1
	}
	if max := core.Conf.Internship.MaxLogWeeks; weekNo > max {
		return WeeklyLog{}, core.NewPreconditionError(fmt.Sprintf("placement already has %d weekly logs", max))
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	entries := make([]WeeklyLogEntry, 0, len(Days))
	for _, d := range Days {
		entries = append(entries, WeeklyLogEntry{Day: d})
	}
	return svc.repo.CreateLog(WeeklyLog{
		PlacementID: placement.ID,
		WeekNo:      weekNo,
		FromDate:    today,
		ToDate:      today.AddDate(0, 0, 4),
		Status:      StatusDraft,
		CreatedAt:   now,
	}, entries)
}

// SaveLog applies student edits and rebuilds the derived summary. A returned
// log keeps its returned status until resubmission; anything else editable
// goes back to draft.
func (svc *Service) SaveLog(student user.StudentProfile, logID int, edit LogEdit) (WeeklyLog, error) {
	if err := edit.Validate(); err != nil {
		return WeeklyLog{}, err
	}
	log, err := svc.ownedEditableLog(student, logID)
	if err != nil {
		return WeeklyLog{}, err
	}

	entries, err := svc.applyEntryEdits(log.ID, edit.Entries)
	if err != nil {
		return WeeklyLog{}, err
	}

	log.Challenges = edit.Challenges
	log.Lessons = edit.Lessons
	log.Activities = BuildSummary(entries)
	if log.Status != StatusReturnedForEdit {
		log.Status = StatusDraft
	}
	return svc.repo.UpdateLog(log)
}

// SubmitLog rebuilds the summary from the stored entries and hands the log to
// the company for review.
func (svc *Service) SubmitLog(student user.StudentProfile, logID int) (WeeklyLog, error) {
	log, err := svc.ownedEditableLog(student, logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	entries, err := svc.repo.GetLogEntries(log.ID)
	if err != nil {
		return WeeklyLog{}, err
	}
	log.Activities = BuildSummary(entries)
	log.Status = StatusSubmitted
	log.SubmittedAt = time.Now().UTC()
	return svc.repo.UpdateLog(log)
}

// UploadAttachment stores a supporting document on the log.
func (svc *Service) UploadAttachment(student user.StudentProfile, logID int, filename string, content io.Reader, size int64) (WeeklyLog, error) {
	if max := core.Conf.Internship.MaxAttachmentSize; size > max {
		return WeeklyLog{}, core.NewValidationError(nil, core.FieldError{
			Field: "attachment",
			Error: fmt.Sprintf("file too large (max %d bytes)", max),
		})
	}
	log, err := svc.ownedEditableLog(student, logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	name := "tracking/weekly_logs/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	name, err = svc.store.Save(name, content)
	if err != nil {
		return WeeklyLog{}, err
	}
	old := log.Attachment
	log.Attachment = name
	log, err = svc.repo.UpdateLog(log)
	if err != nil {
		return WeeklyLog{}, err
	}
	if old != "" && old != name && svc.store.Exists(old) {
		_ = svc.store.Delete(old)
	}
	return log, nil
}

// DeleteLog removes a draft log; the attachment file goes after the record.
func (svc *Service) DeleteLog(student user.StudentProfile, logID int) error {
	log, err := svc.ownedLog(student, logID)
	if err != nil {
		return err
	}
	if log.Status != StatusDraft {
		return core.NewPreconditionError("only draft logs can be deleted")
	}
	attachment := log.Attachment
	if err := svc.repo.DeleteLog(log.ID); err != nil {
		return err
	}
	if attachment != "" && svc.store.Exists(attachment) {
		_ = svc.store.Delete(attachment)
	}
	return nil
}

func (svc *Service) StudentLogs(student user.StudentProfile) ([]WeeklyLog, error) {
	placement, err := svc.placements.CurrentPlacementForStudent(student.ID)
	if err != nil {
		return nil, core.NewPreconditionError("no active placement")
	}
	return svc.repo.QueryLogsByPlacement(placement.ID)
}

func (svc *Service) GetLog(id int) (WeeklyLog, error) {
	return svc.repo.GetLogByID(id)
}

func (svc *Service) GetLogEntries(logID int) ([]WeeklyLogEntry, error) {
	return svc.repo.GetLogEntries(logID)
}

// Company side

// CompanyPendingLogs lists submitted logs for the supervisor's company.
func (svc *Service) CompanyPendingLogs(actor user.User, profile user.IndustryProfile) ([]WeeklyLog, error) {
	return svc.companyLogs(actor, profile, StatusSubmitted)
}

// CompanyApprovedLogs lists approved logs for the supervisor's company.
func (svc *Service) CompanyApprovedLogs(actor user.User, profile user.IndustryProfile) ([]WeeklyLog, error) {
	return svc.companyLogs(actor, profile, StatusApprovedByCompany)
}

func (svc *Service) companyLogs(actor user.User, profile user.IndustryProfile, statuses ...string) ([]WeeklyLog, error) {
	if !actor.IsIndustrySupervisor() {
		return nil, core.NewPermissionError("industry supervisors only")
	}
	placements, err := svc.placements.QueryPlacementsByCompany(profile.CompanyID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(placements))
	for _, p := range placements {
		ids = append(ids, p.ID)
	}
	return svc.repo.QueryLogsByPlacements(ids, statuses...)
}

// ApproveLog marks the log approved by the acting supervisor's company and
// clears any prior return reason.
func (svc *Service) ApproveLog(actor user.User, profile user.IndustryProfile, logID int) (WeeklyLog, error) {
	log, err := svc.companyScopedLog(actor, profile, logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	log.Status = StatusApprovedByCompany
	log.CompanyActionBy = actor.ID
	log.CompanyActionAt = time.Now().UTC()
	log.ReturnReason = ""
	return svc.repo.UpdateLog(log)
}

// ReturnLog sends the log back for editing without touching week_no or the
// entries. An empty reason falls back to the stock message.
func (svc *Service) ReturnLog(actor user.User, profile user.IndustryProfile, logID int, reason string) (WeeklyLog, error) {
	log, err := svc.companyScopedLog(actor, profile, logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	reason = core.CleanString(reason)
	if reason == "" {
		reason = DefaultReturnReason
	}
	log.Status = StatusReturnedForEdit
	log.CompanyActionBy = actor.ID
	log.CompanyActionAt = time.Now().UTC()
	log.ReturnReason = reason
	return svc.repo.UpdateLog(log)
}

// University supervisor side

// SupervisorApprovedLogs lists company-approved logs across the supervisor's
// assigned placements.
func (svc *Service) SupervisorApprovedLogs(actor user.User, staff user.StaffProfile) ([]WeeklyLog, error) {
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
	return svc.repo.QueryLogsByPlacements(ids, StatusApprovedByCompany)
}

// RecordSiteVisit appends a visit record for one of the supervisor's placements.
func (svc *Service) RecordSiteVisit(actor user.User, staff user.StaffProfile, nv NewSiteVisit) (SiteVisit, error) {
	if !actor.IsUniversitySupervisor() {
		return SiteVisit{}, core.NewPermissionError("university supervisors only")
	}
	if err := nv.Validate(); err != nil {
		return SiteVisit{}, err
	}
	placement, err := svc.placements.GetPlacement(nv.PlacementID)
	if err != nil {
		return SiteVisit{}, err
	}
	if placement.UniversitySupervisorID != staff.ID {
		return SiteVisit{}, core.NewPermissionError("not your placement")
	}
	return svc.repo.CreateSiteVisit(SiteVisit{
		PlacementID:     placement.ID,
		SupervisorID:    staff.ID,
		VisitDate:       nv.VisitDate,
		Findings:        nv.Findings,
		Recommendations: nv.Recommendations,
		CreatedAt:       time.Now().UTC(),
	})
}

func (svc *Service) QuerySiteVisits(placementID int) ([]SiteVisit, error) {
	return svc.repo.QuerySiteVisitsByPlacement(placementID)
}

// Missing-log detection

// MissingLogPlacements returns the non-terminal placements with no submitted
// or approved log overlapping the week containing t. Shared by the
// coordinator view and the reminder scan.
func (svc *Service) MissingLogPlacements(t time.Time) ([]internship.Placement, error) {
	weekStart, weekEnd := WeekBounds(t)
	placements, err := svc.placements.QueryNonTerminalPlacements()
	if err != nil {
		return nil, err
	}
	var missing []internship.Placement
	for _, p := range placements {
		has, err := svc.repo.HasLogInRange(p.ID, weekStart, weekEnd, StatusSubmitted, StatusApprovedByCompany)
		if err != nil {
			return nil, err
		}
		if !has {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// SendMissingLogReminders emails every student whose placement is missing this
// week's log. Read-only and idempotent; delivery is best-effort. Returns the
// number of reminders sent.
func (svc *Service) SendMissingLogReminders() (int, error) {
	now := time.Now().UTC()
	weekStart, weekEnd := WeekBounds(now)
	missing, err := svc.MissingLogPlacements(now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range missing {
		usr, err := svc.studentUser(p.StudentID)
		if err != nil || usr.Email == "" {
			continue
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: fmt.Sprintf("Reminder: Weekly internship log missing (%s to %s)", weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")),
			BodyStr: fmt.Sprintf(
				"Hello %s,\n\nOur records show you have not submitted your weekly internship log for the week %s to %s.\n\nPlease log in and submit your weekly log.\nThank you.",
				usr.Name, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"),
			),
		})
		sent++
	}
	svc.logger.Info(fmt.Sprintf("weekly log reminders sent: %d", sent))
	return sent, nil
}

// helpers

func (svc *Service) studentUser(studentProfileID int) (user.User, error) {
	profile, err := svc.users.GetStudentProfileByID(studentProfileID)
	if err != nil {
		return user.User{}, err
	}
	return svc.users.GetByID(profile.UserID)
}

func (svc *Service) ownedLog(student user.StudentProfile, logID int) (WeeklyLog, error) {
	log, err := svc.repo.GetLogByID(logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	placement, err := svc.placements.GetPlacement(log.PlacementID)
	if err != nil {
		return WeeklyLog{}, err
	}
	if placement.StudentID != student.ID {
		return WeeklyLog{}, core.NewPermissionError("not your log")
	}
	return log, nil
}

func (svc *Service) ownedEditableLog(student user.StudentProfile, logID int) (WeeklyLog, error) {
	log, err := svc.ownedLog(student, logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	if !log.Editable() {
		return WeeklyLog{}, core.NewPreconditionError("this log is already approved")
	}
	return log, nil
}

func (svc *Service) companyScopedLog(actor user.User, profile user.IndustryProfile, logID int) (WeeklyLog, error) {
	if !actor.IsIndustrySupervisor() {
		return WeeklyLog{}, core.NewPermissionError("industry supervisors only")
	}
	log, err := svc.repo.GetLogByID(logID)
	if err != nil {
		return WeeklyLog{}, err
	}
	placement, err := svc.placements.GetPlacement(log.PlacementID)
	if err != nil {
		return WeeklyLog{}, err
	}
	if placement.CompanyID != profile.CompanyID {
		return WeeklyLog{}, core.NewPermissionError("log belongs to another company")
	}
	return log, nil
}

func (svc *Service) applyEntryEdits(logID int, edits []EntryEdit) ([]WeeklyLogEntry, error) {
	entries, err := svc.repo.GetLogEntries(logID)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]*WeeklyLogEntry, len(entries))
	for i := range entries {
		byDay[entries[i].Day] = &entries[i]
	}
	for _, edit := range edits {
		e, ok := byDay[edit.Day]
		if !ok {
			continue
		}
		e.WorkAssignment = edit.WorkAssignment
		e.ActivitiesSteps = edit.ActivitiesSteps
		if _, err := svc.repo.UpdateLogEntry(*e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
