package internship

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("request not found")
	ErrPlacementNotFound = errors.New("placement not found")
	ErrPeriodNotFound    = errors.New("period not found")
)

type (
	Repository interface {
		CreatePeriod(p Period) (Period, error)
		GetPeriodByID(id int) (Period, error)
		// GetActivePeriod returns the single period currently open for requests.
		GetActivePeriod() (Period, error)
		QueryAllPeriods() ([]Period, error)
		// SetActivePeriod activates the given period and deactivates all others.
		SetActivePeriod(id int) (Period, error)

		// GetOrCreateRequest relies on the (student, period) uniqueness
		// constraint: a concurrent duplicate insert loses and re-fetches.
		GetOrCreateRequest(r Request) (Request, error)
		GetRequestByID(id int) (Request, error)
		GetRequestForPeriod(studentID, periodID int) (Request, error)
		QueryRequestsByStatus(statuses ...string) ([]Request, error)
		// QueryRequestsAwaitingAcceptance returns recommended or returned
		// requests that have no acceptance letter yet.
		QueryRequestsAwaitingAcceptance() ([]Request, error)
		UpdateRequest(r Request) (Request, error)

		// SaveRequestWithPlacement persists the request and upserts its 1:1
		// placement in one transaction; either both commit or neither does.
		SaveRequestWithPlacement(r Request, p Placement) (Request, Placement, error)

		GetPlacementByID(id int) (Placement, error)
		GetPlacementByRequest(requestID int) (Placement, error)
		// GetCurrentPlacementForStudent returns the latest non-terminal placement.
		GetCurrentPlacementForStudent(studentID int) (Placement, error)
		QueryPlacementsBySupervisor(staffID int) ([]Placement, error)
		QueryPlacementsByCompany(companyID int) ([]Placement, error)
		QueryNonTerminalPlacements() ([]Placement, error)
		QueryAllPlacements() ([]Placement, error)
		UpdatePlacement(p Placement) (Placement, error)
	}

	Service struct {
		repo      Repository
		companies *company.Service
		store     core.FileStorage
	}
)

func NewService(repo Repository, companySvc *company.Service, store core.FileStorage) *Service {
	return &Service{repo: repo, companies: companySvc, store: store}
}

// Periods

func (svc *Service) CreatePeriod(actor user.User, np NewPeriod) (Period, error) {
	if !actor.IsCoordinator() {
		return Period{}, core.NewPermissionError("coordinators only")
	}
	if err := np.Validate(); err != nil {
		return Period{}, err
	}
	p, err := svc.repo.CreatePeriod(Period{
		Name:      np.Name,
		StartDate: np.StartDate,
		EndDate:   np.EndDate,
	})
	if err != nil {
		return Period{}, err
	}
	if np.IsActive {
		return svc.repo.SetActivePeriod(p.ID)
	}
	return p, nil
}

func (svc *Service) ActivatePeriod(actor user.User, id int) (Period, error) {
	if !actor.IsCoordinator() {
		return Period{}, core.NewPermissionError("coordinators only")
	}
	return svc.repo.SetActivePeriod(id)
}

func (svc *Service) QueryAllPeriods() ([]Period, error) {
	return svc.repo.QueryAllPeriods()
}

func (svc *Service) GetActivePeriod() (Period, error) {
	return svc.repo.GetActivePeriod()
}

// Requests

// GetOrCreateForPeriod returns the student's request for the active period,
// creating a draft on first access.
func (svc *Service) GetOrCreateForPeriod(student user.StudentProfile) (Request, error) {
	period, err := svc.repo.GetActivePeriod()
	if err != nil {
		return Request{}, core.NewPreconditionError("no active internship period")
	}
	return svc.repo.GetOrCreateRequest(Request{
		StudentID: student.ID,
		PeriodID:  period.ID,
		Source:    SourceStudentSelected,
		Status:    StatusDraft,
		CreatedAt: time.Now().UTC(),
	})
}

// requestEditable reports whether the student may still change the request body.
func requestEditable(status string) bool {
	switch status {
	case StatusDraft, StatusRejected, StatusReturnedForAcceptance:
		return true
	}
	return false
}

// SaveDraft applies student edits to the request body and recomputes the
// source: selecting an approved company makes it student_selected, otherwise
// student_proposed.
func (svc *Service) SaveDraft(student user.StudentProfile, draft RequestDraft) (Request, error) {
	if err := draft.Validate(); err != nil {
		return Request{}, err
	}
	req, err := svc.GetOrCreateForPeriod(student)
	if err != nil {
		return Request{}, err
	}
	if !requestEditable(req.Status) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("request can no longer be edited (status: %s)", req.Status))
	}
	if draft.PreferredCompanyID != 0 {
		if _, err := svc.companies.GetByID(draft.PreferredCompanyID); err != nil {
			return Request{}, core.NewValidationError(err, core.FieldError{Field: "preferred_company_id", Error: "unknown company"})
		}
	}
	req.PreferredCompanyID = draft.PreferredCompanyID
	req.ProposedCompanyName = draft.ProposedCompanyName
	req.ProposedCompanyDistrict = draft.ProposedCompanyDistrict
	req.ProposedCompanyAddress = draft.ProposedCompanyAddress
	req.ProposedCompanyContact = draft.ProposedCompanyContact
	req.PreferredField = draft.PreferredField
	req.Notes = draft.Notes
	if req.PreferredCompanyID != 0 {
		req.Source = SourceStudentSelected
	} else {
		req.Source = SourceStudentProposed
	}
	return svc.repo.UpdateRequest(req)
}

// UploadCV attaches the student's CV to the request.
func (svc *Service) UploadCV(student user.StudentProfile, filename string, content io.Reader, size int64) (Request, error) {
	return svc.uploadRequestFile(student, "requests/cv", filename, content, size, func(req *Request, name string) {
		req.CV = name
	})
}

// UploadRequestLetter attaches the university request letter.
func (svc *Service) UploadRequestLetter(student user.StudentProfile, filename string, content io.Reader, size int64) (Request, error) {
	return svc.uploadRequestFile(student, "requests/letters", filename, content, size, func(req *Request, name string) {
		req.RequestLetter = name
	})
}

func (svc *Service) uploadRequestFile(
	student user.StudentProfile, prefix, filename string, content io.Reader, size int64, set func(*Request, string),
) (Request, error) {
	if err := checkAttachmentSize(size); err != nil {
		return Request{}, err
	}
	req, err := svc.GetOrCreateForPeriod(student)
	if err != nil {
		return Request{}, err
	}
	if !requestEditable(req.Status) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("request can no longer be edited (status: %s)", req.Status))
	}
	name, err := svc.saveFile(prefix, filename, content)
	if err != nil {
		return Request{}, err
	}
	set(&req, name)
	return svc.repo.UpdateRequest(req)
}

// Submit moves the request from an editable state to submitted. Exactly one
// of preferred company or proposed company name must be set.
func (svc *Service) Submit(student user.StudentProfile) (Request, error) {
	req, err := svc.GetOrCreateForPeriod(student)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusSubmitted) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("request already %s", req.Status))
	}

	hasPreferred := req.PreferredCompanyID != 0
	hasProposed := strings.TrimSpace(req.ProposedCompanyName) != ""
	if hasPreferred == hasProposed {
		return Request{}, core.NewValidationError(nil, core.FieldError{
			Field: "preferred_company_id",
			Error: "select an approved company or propose a company (not both, not neither)",
		})
	}

	req.Status = StatusSubmitted
	req.SubmittedAt = time.Now().UTC()
	return svc.repo.UpdateRequest(req)
}

func (svc *Service) GetRequest(id int) (Request, error) {
	return svc.repo.GetRequestByID(id)
}

// MarkUnderReview records the coordinator as reviewer and pins the request in
// the review queue.
func (svc *Service) MarkUnderReview(actor user.User, reqID int) (Request, error) {
	if !actor.IsCoordinator() {
		return Request{}, core.NewPermissionError("coordinators only")
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusUnderReview) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("cannot review a %s request", req.Status))
	}
	req.Status = StatusUnderReview
	req.ReviewedBy = actor.ID
	req.ReviewedAt = time.Now().UTC()
	return svc.repo.UpdateRequest(req)
}

// Reject refuses the request. Review notes are mandatory so the student knows
// what to fix before resubmitting.
func (svc *Service) Reject(actor user.User, reqID int, notes string) (Request, error) {
	if !actor.IsCoordinator() {
		return Request{}, core.NewPermissionError("coordinators only")
	}
	notes = core.CleanString(notes)
	if notes == "" {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "review_notes", Error: "this field is required"})
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusRejected) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("cannot reject a %s request", req.Status))
	}
	req.Status = StatusRejected
	req.ReviewNotes = notes
	req.ReviewedBy = actor.ID
	req.ReviewedAt = time.Now().UTC()
	return svc.repo.UpdateRequest(req)
}

// IssueRecommendation stores the coordinator's recommendation letter. A
// student-proposed company is registered (approved by policy) and bound to
// the request as its preferred company.
func (svc *Service) IssueRecommendation(actor user.User, reqID int, filename string, letter io.Reader, size int64) (Request, error) {
	if !actor.IsCoordinator() {
		return Request{}, core.NewPermissionError("coordinators only")
	}
	if err := checkAttachmentSize(size); err != nil {
		return Request{}, err
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusRecommended) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("cannot recommend a %s request", req.Status))
	}

	if req.PreferredCompanyID == 0 {
		c, err := svc.companies.GetOrCreateByName(
			req.ProposedCompanyName, req.ProposedCompanyDistrict, req.ProposedCompanyAddress, company.StatusApproved,
		)
		if err != nil {
			return Request{}, err
		}
		req.PreferredCompanyID = c.ID
	}

	name, err := svc.saveFile("requests/recommendation_letters", filename, letter)
	if err != nil {
		return Request{}, err
	}

	now := time.Now().UTC()
	req.RecommendationLetter = name
	req.RecommendationIssuedAt = now
	req.Status = StatusRecommended
	req.ReviewedBy = actor.ID
	req.ReviewedAt = now
	return svc.repo.UpdateRequest(req)
}

// UploadAcceptance stores the company acceptance letter. Re-upload replaces
// the stored file only after the new one is durably saved; the old file is
// removed last, and only if its name differs.
func (svc *Service) UploadAcceptance(student user.StudentProfile, filename string, content io.Reader, size int64) (Request, error) {
	if err := checkAttachmentSize(size); err != nil {
		return Request{}, err
	}
	period, err := svc.repo.GetActivePeriod()
	if err != nil {
		return Request{}, core.NewPreconditionError("no active internship period")
	}
	req, err := svc.repo.GetRequestForPeriod(student.ID, period.ID)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusAcceptanceUploaded) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("acceptance upload not allowed on a %s request", req.Status))
	}

	oldName := req.AcceptanceLetter
	newName, err := svc.saveFile("requests/acceptance_letters", filename, content)
	if err != nil {
		return Request{}, err
	}

	req.AcceptanceLetter = newName
	req.AcceptanceUploadedAt = time.Now().UTC()
	req.AcceptanceVerified = false
	req.AcceptanceVerifiedAt = time.Time{}
	req.Status = StatusAcceptanceUploaded
	req, err = svc.repo.UpdateRequest(req)
	if err != nil {
		return Request{}, err
	}

	if oldName != "" && oldName != newName && svc.store.Exists(oldName) {
		_ = svc.store.Delete(oldName)
	}
	return req, nil
}

// ReturnForAcceptance sends the request back to the student with a mandatory
// comment. Pointless (and blocked) once an acceptance letter exists.
func (svc *Service) ReturnForAcceptance(actor user.User, reqID int, comment string) (Request, error) {
	if !actor.IsCoordinator() {
		return Request{}, core.NewPermissionError("coordinators only")
	}
	comment = core.CleanString(comment)
	if comment == "" {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "coordinator_comment", Error: "this field is required"})
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusReturnedForAcceptance) {
		return Request{}, core.NewPreconditionError(fmt.Sprintf("cannot return a %s request", req.Status))
	}
	if req.AcceptanceLetter != "" {
		return Request{}, core.NewPreconditionError("acceptance letter already uploaded")
	}
	req.CoordinatorComment = comment
	req.CoordinatorCommentedAt = time.Now().UTC()
	req.Status = StatusReturnedForAcceptance
	return svc.repo.UpdateRequest(req)
}

// VerifyAndAssign verifies the uploaded acceptance letter and assigns the
// university supervisor. The request status change and the placement
// get-or-create commit atomically: a request is never left verified with no
// placement.
func (svc *Service) VerifyAndAssign(actor user.User, reqID, supervisorStaffID int) (Request, Placement, error) {
	if !actor.IsCoordinator() {
		return Request{}, Placement{}, core.NewPermissionError("coordinators only")
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, Placement{}, err
	}
	if req.Status != StatusAcceptanceUploaded || req.AcceptanceLetter == "" {
		return Request{}, Placement{}, core.NewPreconditionError(fmt.Sprintf("cannot verify a %s request", req.Status))
	}
	if req.PreferredCompanyID == 0 {
		return Request{}, Placement{}, core.NewPreconditionError("no company attached to this request")
	}
	period, err := svc.repo.GetPeriodByID(req.PeriodID)
	if err != nil {
		return Request{}, Placement{}, err
	}

	now := time.Now().UTC()
	req.AcceptanceVerified = true
	req.AcceptanceVerifiedAt = now
	req.Status = StatusAcceptanceVerified
	req.ReviewedBy = actor.ID
	req.ReviewedAt = now

	return svc.repo.SaveRequestWithPlacement(req, Placement{
		RequestID:              req.ID,
		StudentID:              req.StudentID,
		CompanyID:              req.PreferredCompanyID,
		UniversitySupervisorID: supervisorStaffID,
		StartDate:              period.StartDate,
		EndDate:                period.EndDate,
		Status:                 PlacementActive,
		CreatedAt:              now,
	})
}

// ApproveAndPlace is the coordinator's direct-approval path: the request is
// approved without the recommendation/acceptance round-trip and a placement
// is created awaiting the student's acknowledgement.
func (svc *Service) ApproveAndPlace(actor user.User, reqID int) (Request, Placement, error) {
	if !actor.IsCoordinator() {
		return Request{}, Placement{}, core.NewPermissionError("coordinators only")
	}
	req, err := svc.repo.GetRequestByID(reqID)
	if err != nil {
		return Request{}, Placement{}, err
	}
	if !canTransition(requestTransitions, req.Status, StatusApproved) {
		return Request{}, Placement{}, core.NewPreconditionError(fmt.Sprintf("cannot approve a %s request", req.Status))
	}

	if req.PreferredCompanyID == 0 {
		c, err := svc.companies.GetOrCreateByName(
			req.ProposedCompanyName, req.ProposedCompanyDistrict, req.ProposedCompanyAddress, company.StatusApproved,
		)
		if err != nil {
			return Request{}, Placement{}, err
		}
		req.PreferredCompanyID = c.ID
	}
	period, err := svc.repo.GetPeriodByID(req.PeriodID)
	if err != nil {
		return Request{}, Placement{}, err
	}

	now := time.Now().UTC()
	req.Status = StatusApproved
	req.ReviewedBy = actor.ID
	req.ReviewedAt = now

	return svc.repo.SaveRequestWithPlacement(req, Placement{
		RequestID: req.ID,
		StudentID: req.StudentID,
		CompanyID: req.PreferredCompanyID,
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
		Status:    PlacementPendingStudentAck,
		CreatedAt: now,
	})
}

// Coordinator queues

func (svc *Service) ReviewQueue(actor user.User) ([]Request, error) {
	if !actor.IsCoordinator() {
		return nil, core.NewPermissionError("coordinators only")
	}
	return svc.repo.QueryRequestsByStatus(StatusSubmitted, StatusUnderReview)
}

func (svc *Service) AcceptanceQueue(actor user.User) ([]Request, error) {
	if !actor.IsCoordinator() {
		return nil, core.NewPermissionError("coordinators only")
	}
	return svc.repo.QueryRequestsByStatus(StatusAcceptanceUploaded)
}

func (svc *Service) WaitingAcceptanceQueue(actor user.User) ([]Request, error) {
	if !actor.IsCoordinator() {
		return nil, core.NewPermissionError("coordinators only")
	}
	return svc.repo.QueryRequestsAwaitingAcceptance()
}

// Placements

func (svc *Service) GetPlacement(id int) (Placement, error) {
	return svc.repo.GetPlacementByID(id)
}

// CurrentPlacementForStudent returns the student's latest non-terminal placement.
func (svc *Service) CurrentPlacementForStudent(studentID int) (Placement, error) {
	return svc.repo.GetCurrentPlacementForStudent(studentID)
}

func (svc *Service) QueryPlacementsBySupervisor(staffID int) ([]Placement, error) {
	return svc.repo.QueryPlacementsBySupervisor(staffID)
}

func (svc *Service) QueryPlacementsByCompany(companyID int) ([]Placement, error) {
	return svc.repo.QueryPlacementsByCompany(companyID)
}

func (svc *Service) QueryNonTerminalPlacements() ([]Placement, error) {
	return svc.repo.QueryNonTerminalPlacements()
}

// Acknowledge moves the student's pending placement to active.
func (svc *Service) Acknowledge(student user.StudentProfile, placementID int) (Placement, error) {
	p, err := svc.repo.GetPlacementByID(placementID)
	if err != nil {
		return Placement{}, err
	}
	if p.StudentID != student.ID {
		return Placement{}, core.NewPermissionError("not your placement")
	}
	return svc.setPlacementStatus(p, PlacementActive)
}

// SetPlacementStatus applies a coordinator-driven lifecycle change.
func (svc *Service) SetPlacementStatus(actor user.User, placementID int, status string) (Placement, error) {
	if !actor.IsCoordinator() {
		return Placement{}, core.NewPermissionError("coordinators only")
	}
	p, err := svc.repo.GetPlacementByID(placementID)
	if err != nil {
		return Placement{}, err
	}
	return svc.setPlacementStatus(p, status)
}

func (svc *Service) setPlacementStatus(p Placement, status string) (Placement, error) {
	if !canTransition(placementTransitions, p.Status, status) {
		return Placement{}, core.NewPreconditionError(fmt.Sprintf("placement cannot go from %s to %s", p.Status, status))
	}
	p.Status = status
	return svc.repo.UpdatePlacement(p)
}

// AssignIndustrySupervisor binds a company contact as the placement's
// industry-side supervisor.
func (svc *Service) AssignIndustrySupervisor(actor user.User, placementID, contactID int) (Placement, error) {
	if !actor.IsCoordinator() {
		return Placement{}, core.NewPermissionError("coordinators only")
	}
	p, err := svc.repo.GetPlacementByID(placementID)
	if err != nil {
		return Placement{}, err
	}
	p.IndustrySupervisorID = contactID
	return svc.repo.UpdatePlacement(p)
}

// helpers

func checkAttachmentSize(size int64) error {
	if max := core.Conf.Internship.MaxAttachmentSize; size > max {
		return core.NewValidationError(nil, core.FieldError{
			Field: "attachment",
			Error: fmt.Sprintf("file too large (max %d bytes)", max),
		})
	}
	return nil
}

// saveFile stores content under a fresh collision-free name keeping the
// original extension.
func (svc *Service) saveFile(prefix, filename string, content io.Reader) (string, error) {
	name := prefix + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	return svc.store.Save(name, content)
}
