package internship

import (
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// Request sources
const (
	SourceStudentSelected    = "student_selected"
	SourceStudentProposed    = "student_proposed"
	SourceUniversityAssigned = "university_assigned"
)

// Request statuses
const (
	StatusDraft                 = "draft"
	StatusSubmitted             = "submitted"
	StatusUnderReview           = "under_review"
	StatusRecommended           = "recommended"
	StatusAcceptanceUploaded    = "acceptance_uploaded"
	StatusAcceptanceVerified    = "acceptance_verified"
	StatusApproved              = "approved"
	StatusRejected              = "rejected"
	StatusReturnedForAcceptance = "returned_for_acceptance"
)

// Placement statuses
const (
	PlacementPendingStudentAck = "pending_student_ack"
	PlacementActive            = "active"
	PlacementOnHold            = "on_hold"
	PlacementCompleted         = "completed"
	PlacementTerminated        = "terminated"
)

// PlacementTerminalStatuses are the statuses a placement never leaves.
var PlacementTerminalStatuses = []string{PlacementCompleted, PlacementTerminated}

// requestTransitions is the single source of truth for legal request status
// changes. Every mutating operation goes through canTransition; guards beyond
// status (ownership, XOR company rule, letter presence) live in the service.
var requestTransitions = map[string][]string{
	StatusDraft:                 {StatusSubmitted},
	StatusSubmitted:             {StatusUnderReview, StatusRejected, StatusRecommended, StatusApproved},
	StatusUnderReview:           {StatusUnderReview, StatusRejected, StatusRecommended, StatusApproved},
	StatusRecommended:           {StatusAcceptanceUploaded, StatusReturnedForAcceptance},
	StatusReturnedForAcceptance: {StatusAcceptanceUploaded, StatusReturnedForAcceptance},
	StatusAcceptanceUploaded:    {StatusAcceptanceUploaded, StatusAcceptanceVerified},
	StatusAcceptanceVerified:    {},
	StatusApproved:              {},
	StatusRejected:              {StatusSubmitted},
}

// placementTransitions mirrors requestTransitions for the placement lifecycle.
var placementTransitions = map[string][]string{
	PlacementPendingStudentAck: {PlacementActive},
	PlacementActive:            {PlacementOnHold, PlacementCompleted, PlacementTerminated},
	PlacementOnHold:            {PlacementActive, PlacementCompleted, PlacementTerminated},
	PlacementCompleted:         {},
	PlacementTerminated:        {},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

type (
	// Period is an administrative internship term requests are filed against.
	Period struct {
		ID        int       `json:"id"`
		Name      string    `json:"name"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
		IsActive  bool      `json:"is_active"`
	}

	// Request tracks a student's internship request through the state machine.
	// One per (student, period); created on first student access, never deleted.
	Request struct {
		ID        int    `json:"id"`
		StudentID int    `json:"student_id"` // StudentProfile ID
		PeriodID  int    `json:"period_id"`
		Source    string `json:"request_source"`

		PreferredCompanyID int `json:"preferred_company_id"`

		ProposedCompanyName     string `json:"proposed_company_name"`
		ProposedCompanyDistrict string `json:"proposed_company_district"`
		ProposedCompanyAddress  string `json:"proposed_company_address"`
		ProposedCompanyContact  string `json:"proposed_company_contact"`

		PreferredField string `json:"preferred_field"`
		Notes          string `json:"notes"`

		// stored attachment names
		CV                   string `json:"cv"`
		RequestLetter        string `json:"request_letter"`
		RecommendationLetter string `json:"recommendation_letter"`
		AcceptanceLetter     string `json:"acceptance_letter"`

		Status      string    `json:"status"`
		SubmittedAt time.Time `json:"submitted_at"`

		ReviewedBy  int       `json:"reviewed_by"` // User ID
		ReviewedAt  time.Time `json:"reviewed_at"`
		ReviewNotes string    `json:"review_notes"`

		CoordinatorComment     string    `json:"coordinator_comment"`
		CoordinatorCommentedAt time.Time `json:"coordinator_commented_at"`

		RecommendationIssuedAt time.Time `json:"recommendation_issued_at"`
		AcceptanceUploadedAt   time.Time `json:"acceptance_uploaded_at"`
		AcceptanceVerified     bool      `json:"acceptance_verified"`
		AcceptanceVerifiedAt   time.Time `json:"acceptance_verified_at"`

		CreatedAt time.Time `json:"created_at"`
	}

	// Placement is the realized internship assignment, 1:1 with its request.
	Placement struct {
		ID        int `json:"id"`
		RequestID int `json:"request_id"`
		StudentID int `json:"student_id"` // denormalized from the request
		CompanyID int `json:"company_id"`

		IndustrySupervisorID   int `json:"industry_supervisor_id"`   // company Contact ID
		UniversitySupervisorID int `json:"university_supervisor_id"` // StaffProfile ID

		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`

		PlacementLetter string `json:"placement_letter"`

		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	NewPeriod struct {
		Name      string    `json:"name" validate:"required,max=120"`
		StartDate time.Time `json:"start_date" validate:"required"`
		EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
		IsActive  bool      `json:"is_active"`
	}

	// RequestDraft holds the student-editable request fields.
	RequestDraft struct {
		PreferredCompanyID      int    `json:"preferred_company_id"`
		ProposedCompanyName     string `json:"proposed_company_name" validate:"max=200"`
		ProposedCompanyDistrict string `json:"proposed_company_district" validate:"max=120"`
		ProposedCompanyAddress  string `json:"proposed_company_address" validate:"max=255"`
		ProposedCompanyContact  string `json:"proposed_company_contact" validate:"max=200"`
		PreferredField          string `json:"preferred_field" validate:"max=120"`
		Notes                   string `json:"notes"`
	}
)

// IsTerminal reports whether the placement can no longer change status.
func (p Placement) IsTerminal() bool {
	return p.Status == PlacementCompleted || p.Status == PlacementTerminated
}

func (np *NewPeriod) Validate() error {
	np.Name = core.CleanString(np.Name)
	if err := core.Validate.Struct(np); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (rd *RequestDraft) Validate() error {
	rd.ProposedCompanyName = core.CleanString(rd.ProposedCompanyName)
	rd.ProposedCompanyDistrict = core.CleanString(rd.ProposedCompanyDistrict)
	rd.ProposedCompanyAddress = core.CleanString(rd.ProposedCompanyAddress)
	rd.ProposedCompanyContact = core.CleanString(rd.ProposedCompanyContact)
	rd.PreferredField = core.CleanString(rd.PreferredField)
	rd.Notes = core.CleanString(rd.Notes)
	if err := core.Validate.Struct(rd); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
