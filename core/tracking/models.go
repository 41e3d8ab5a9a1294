package tracking

import (
	"strings"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// Weekly log statuses
const (
	StatusDraft             = "draft"
	StatusSubmitted         = "submitted"
	StatusReturnedForEdit   = "returned_for_edit"
	StatusApprovedByCompany = "approved_by_company"
)

// DefaultReturnReason is used when the industry supervisor returns a log
// without an explanation.
const DefaultReturnReason = "Please revise and resubmit."

// Weekdays, in entry order. One entry per day per log.
var Days = []string{"mon", "tue", "wed", "thu", "fri"}

var dayNames = map[string]string{
	"mon": "Monday",
	"tue": "Tuesday",
	"wed": "Wednesday",
	"thu": "Thursday",
	"fri": "Friday",
}

// DayName returns the display name for a weekday key.
func DayName(day string) string { return dayNames[day] }

type (
	// WeeklyLog is a student's per-week activity record for a placement,
	// unique per (placement, week_no).
	WeeklyLog struct {
		ID          int    `json:"id"`
		PlacementID int    `json:"placement_id"`
		WeekNo      int    `json:"week_no"`

		FromDate time.Time `json:"from_date"`
		ToDate   time.Time `json:"to_date"`

		// Activities is rebuilt from the per-day entries on every save.
		Activities string `json:"activities"`
		Challenges string `json:"challenges"`
		Lessons    string `json:"lessons"`

		Attachment string `json:"attachment"`

		Status      string    `json:"status"`
		SubmittedAt time.Time `json:"submitted_at"`

		CompanyActionBy int       `json:"company_action_by"` // User ID
		CompanyActionAt time.Time `json:"company_action_at"`
		ReturnReason    string    `json:"return_reason"`

		CreatedAt time.Time `json:"created_at"`
	}

	// WeeklyLogEntry holds one weekday's two text fields, unique per (log, day).
	WeeklyLogEntry struct {
		ID              int    `json:"id"`
		WeeklyLogID     int    `json:"weekly_log_id"`
		Day             string `json:"day"`
		WorkAssignment  string `json:"work_assignment"`
		ActivitiesSteps string `json:"activities_steps"`
	}

	// SiteVisit is an append-only record of a university supervisor's visit.
	SiteVisit struct {
		ID              int       `json:"id"`
		PlacementID     int       `json:"placement_id"`
		SupervisorID    int       `json:"supervisor_id"` // StaffProfile ID
		VisitDate       time.Time `json:"visit_date"`
		Findings        string    `json:"findings"`
		Recommendations string    `json:"recommendations"`
		Attachment      string    `json:"attachment"`
		CreatedAt       time.Time `json:"created_at"`
	}

	// LogEdit carries the student-editable weekly log fields.
	LogEdit struct {
		Challenges string      `json:"challenges"`
		Lessons    string      `json:"lessons"`
		Entries    []EntryEdit `json:"entries" validate:"dive"`
	}

	EntryEdit struct {
		Day             string `json:"day" validate:"required,logday"`
		WorkAssignment  string `json:"work_assignment"`
		ActivitiesSteps string `json:"activities_steps"`
	}

	NewSiteVisit struct {
		PlacementID     int       `json:"placement_id" validate:"required"`
		VisitDate       time.Time `json:"visit_date" validate:"required"`
		Findings        string    `json:"findings" validate:"required"`
		Recommendations string    `json:"recommendations"`
	}
)

// Editable reports whether the student may still change the log.
func (l WeeklyLog) Editable() bool { return l.Status != StatusApprovedByCompany }

// BuildSummary derives the legacy activities text from the per-day entries:
// one "<Day>: <work> | <steps>" line per day that has content.
func BuildSummary(entries []WeeklyLogEntry) string {
	var lines []string
	for _, e := range entries {
		wa := strings.TrimSpace(e.WorkAssignment)
		st := strings.TrimSpace(e.ActivitiesSteps)
		if wa != "" || st != "" {
			lines = append(lines, DayName(e.Day)+": "+wa+" | "+st)
		}
	}
	return strings.Join(lines, "\n")
}

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (start, end time.Time) {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	start = t.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

func (le *LogEdit) Validate() error {
	le.Challenges = core.CleanString(le.Challenges)
	le.Lessons = core.CleanString(le.Lessons)
	if err := core.Validate.Struct(le); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (nv *NewSiteVisit) Validate() error {
	nv.Findings = core.CleanString(nv.Findings)
	nv.Recommendations = core.CleanString(nv.Recommendations)
	if err := core.Validate.Struct(nv); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
