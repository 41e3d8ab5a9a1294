package evaluation

import (
	"time"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// Evaluation statuses
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Results report statuses
const (
	ReportDraft     = "draft"
	ReportSubmitted = "submitted"
	ReportReceived  = "received"
)

const ratingMax = 5

type (
	// IndustryEvaluation is the company-side assessment, 1:1 with a placement.
	// Thirteen 1–5 ratings with optional per-item comments; unset ratings
	// count as zero.
	IndustryEvaluation struct {
		ID             int `json:"id"`
		PlacementID    int `json:"placement_id"`
		CompanyID      int `json:"company_id"`
		SupervisorUser int `json:"supervisor_user"` // User ID, recorded at submit

		BasicWorkExpectations  int `json:"basic_work_expectations"`
		KnowledgeAndLearning   int `json:"knowledge_and_learning"`
		EthicalAwareness       int `json:"ethical_awareness"`
		InterpersonalRelations int `json:"interpersonal_relations"`
		CommunicationSkills    int `json:"communication_skills"`
		Attendance             int `json:"attendance"`
		Punctuality            int `json:"punctuality"`
		Flexibility            int `json:"flexibility"`
		Dependability          int `json:"dependability"`
		CultureFit             int `json:"culture_fit"`
		DressCode              int `json:"dress_code"`
		Behaviour              int `json:"behaviour"`
		WorkProductivity       int `json:"work_productivity"`

		BasicWorkExpectationsComment  string `json:"basic_work_expectations_comment"`
		KnowledgeAndLearningComment   string `json:"knowledge_and_learning_comment"`
		EthicalAwarenessComment       string `json:"ethical_awareness_comment"`
		InterpersonalRelationsComment string `json:"interpersonal_relations_comment"`
		CommunicationSkillsComment    string `json:"communication_skills_comment"`
		AttendanceComment             string `json:"attendance_comment"`
		PunctualityComment            string `json:"punctuality_comment"`
		FlexibilityComment            string `json:"flexibility_comment"`
		DependabilityComment          string `json:"dependability_comment"`
		CultureFitComment             string `json:"culture_fit_comment"`
		DressCodeComment              string `json:"dress_code_comment"`
		BehaviourComment              string `json:"behaviour_comment"`
		WorkProductivityComment       string `json:"work_productivity_comment"`

		RecommendEmployment *bool  `json:"recommend_employment"`
		RecommendComment    string `json:"recommend_comment"`
		OtherComments       string `json:"other_comments"`

		SupervisorName      string `json:"supervisor_name"`
		SupervisorSignature string `json:"supervisor_signature"`

		Status      string    `json:"status"`
		SubmittedAt time.Time `json:"submitted_at"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// AcademicEvaluation is the university-side assessment, 1:1 with a
	// placement. Five 1–5 ratings.
	AcademicEvaluation struct {
		ID             int `json:"id"`
		PlacementID    int `json:"placement_id"`
		SupervisorUser int `json:"supervisor_user"` // User ID

		UnderstandingOfInternship int `json:"understanding_of_internship"`
		SupportFramework          int `json:"support_framework"`
		CultureFit                int `json:"culture_fit"`
		WorkOutput                int `json:"work_output"`
		GeneralPresentation       int `json:"general_presentation"`

		UnderstandingOfInternshipComment string `json:"understanding_of_internship_comment"`
		SupportFrameworkComment          string `json:"support_framework_comment"`
		CultureFitComment                string `json:"culture_fit_comment"`
		WorkOutputComment                string `json:"work_output_comment"`
		GeneralPresentationComment       string `json:"general_presentation_comment"`

		Recommendation string `json:"recommendation"`

		SupervisorName      string `json:"supervisor_name"`
		SupervisorSignature string `json:"supervisor_signature"`

		Status      string    `json:"status"`
		SubmittedAt time.Time `json:"submitted_at"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// StudentEvaluation is the student's free-text self-reflection.
	StudentEvaluation struct {
		ID          int `json:"id"`
		PlacementID int `json:"placement_id"`
		StudentUser int `json:"student_user"` // User ID

		Program        string    `json:"program"`
		InternshipSite string    `json:"internship_site"`
		EvalDate       time.Time `json:"eval_date"`

		Q1  string `json:"q1"`
		Q2  string `json:"q2"`
		Q3  string `json:"q3"`
		Q4  string `json:"q4"`
		Q5  string `json:"q5"`
		Q6  string `json:"q6"`
		Q7  string `json:"q7"`
		Q8  string `json:"q8"`
		Q9  string `json:"q9"`
		Q10 string `json:"q10"`

		Status      string    `json:"status"`
		SubmittedAt time.Time `json:"submitted_at"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// ReportRow is one student line of a results report snapshot. Score
	// pointers are nil when the corresponding evaluation is not submitted.
	ReportRow struct {
		PlacementID int      `json:"placement_id"`
		RegNo       string   `json:"reg_no"`
		Name        string   `json:"name"`
		Company     string   `json:"company"`
		Industry100 *float64 `json:"industry_100"`
		Academic100 *float64 `json:"academic_100"`
		Average100  *float64 `json:"average_100"`
	}

	// ResultsReport is a university supervisor's point-in-time snapshot of
	// combined scores, submitted for coordinator acknowledgement.
	ResultsReport struct {
		ID             int         `json:"id"`
		SupervisorUser int         `json:"supervisor_user"` // User ID
		Rows           []ReportRow `json:"rows"`
		Status         string      `json:"status"`
		SubmittedAt    time.Time   `json:"submitted_at"`
		CreatedAt      time.Time   `json:"created_at"`
		UpdatedAt      time.Time   `json:"updated_at"`
	}
)

func (e IndustryEvaluation) ratings() []int {
	return []int{
		e.BasicWorkExpectations,
		e.KnowledgeAndLearning,
		e.EthicalAwareness,
		e.InterpersonalRelations,
		e.CommunicationSkills,
		e.Attendance,
		e.Punctuality,
		e.Flexibility,
		e.Dependability,
		e.CultureFit,
		e.DressCode,
		e.Behaviour,
		e.WorkProductivity,
	}
}

func (e AcademicEvaluation) ratings() []int {
	return []int{
		e.UnderstandingOfInternship,
		e.SupportFramework,
		e.CultureFit,
		e.WorkOutput,
		e.GeneralPresentation,
	}
}

// Derived scores are computed on read, never stored.

func (e IndustryEvaluation) TotalMarks() int          { return sumRatings(e.ratings()) }
func (e IndustryEvaluation) MaxMarks() int            { return len(e.ratings()) * ratingMax }
func (e IndustryEvaluation) ScoreOutOf100() float64   { return scoreOutOf(e.ratings(), 100) }
func (e IndustryEvaluation) ScoreOutOf10() float64    { return scoreOutOf(e.ratings(), 10) }
func (e AcademicEvaluation) TotalMarks() int          { return sumRatings(e.ratings()) }
func (e AcademicEvaluation) MaxMarks() int            { return len(e.ratings()) * ratingMax }
func (e AcademicEvaluation) ScoreOutOf100() float64   { return scoreOutOf(e.ratings(), 100) }
func (e AcademicEvaluation) ScoreOutOf10() float64    { return scoreOutOf(e.ratings(), 10) }

func sumRatings(ratings []int) int {
	total := 0
	for _, r := range ratings {
		total += r
	}
	return total
}

func scoreOutOf(ratings []int, scale float64) float64 {
	max := len(ratings) * ratingMax
	if max == 0 {
		return 0
	}
	return float64(sumRatings(ratings)) / float64(max) * scale
}

// Average100 combines submitted industry and academic scores; nil unless both
// evaluations are submitted.
func Average100(ind *IndustryEvaluation, ac *AcademicEvaluation) *float64 {
	if ind == nil || ac == nil || ind.Status != StatusSubmitted || ac.Status != StatusSubmitted {
		return nil
	}
	avg := (ind.ScoreOutOf100() + ac.ScoreOutOf100()) / 2
	return &avg
}

// Forms

type (
	IndustryEvalForm struct {
		BasicWorkExpectations  int `json:"basic_work_expectations" validate:"omitempty,min=1,max=5"`
		KnowledgeAndLearning   int `json:"knowledge_and_learning" validate:"omitempty,min=1,max=5"`
		EthicalAwareness       int `json:"ethical_awareness" validate:"omitempty,min=1,max=5"`
		InterpersonalRelations int `json:"interpersonal_relations" validate:"omitempty,min=1,max=5"`
		CommunicationSkills    int `json:"communication_skills" validate:"omitempty,min=1,max=5"`
		Attendance             int `json:"attendance" validate:"omitempty,min=1,max=5"`
		Punctuality            int `json:"punctuality" validate:"omitempty,min=1,max=5"`
		Flexibility            int `json:"flexibility" validate:"omitempty,min=1,max=5"`
		Dependability          int `json:"dependability" validate:"omitempty,min=1,max=5"`
		CultureFit             int `json:"culture_fit" validate:"omitempty,min=1,max=5"`
		DressCode              int `json:"dress_code" validate:"omitempty,min=1,max=5"`
		Behaviour              int `json:"behaviour" validate:"omitempty,min=1,max=5"`
		WorkProductivity       int `json:"work_productivity" validate:"omitempty,min=1,max=5"`

		BasicWorkExpectationsComment  string `json:"basic_work_expectations_comment"`
		KnowledgeAndLearningComment   string `json:"knowledge_and_learning_comment"`
		EthicalAwarenessComment       string `json:"ethical_awareness_comment"`
		InterpersonalRelationsComment string `json:"interpersonal_relations_comment"`
		CommunicationSkillsComment    string `json:"communication_skills_comment"`
		AttendanceComment             string `json:"attendance_comment"`
		PunctualityComment            string `json:"punctuality_comment"`
		FlexibilityComment            string `json:"flexibility_comment"`
		DependabilityComment          string `json:"dependability_comment"`
		CultureFitComment             string `json:"culture_fit_comment"`
		DressCodeComment              string `json:"dress_code_comment"`
		BehaviourComment              string `json:"behaviour_comment"`
		WorkProductivityComment       string `json:"work_productivity_comment"`

		RecommendEmployment *bool  `json:"recommend_employment"`
		RecommendComment    string `json:"recommend_comment"`
		OtherComments       string `json:"other_comments"`

		SupervisorName      string `json:"supervisor_name" validate:"max=120"`
		SupervisorSignature string `json:"supervisor_signature" validate:"max=120"`
	}

	AcademicEvalForm struct {
		UnderstandingOfInternship int `json:"understanding_of_internship" validate:"omitempty,min=1,max=5"`
		SupportFramework          int `json:"support_framework" validate:"omitempty,min=1,max=5"`
		CultureFit                int `json:"culture_fit" validate:"omitempty,min=1,max=5"`
		WorkOutput                int `json:"work_output" validate:"omitempty,min=1,max=5"`
		GeneralPresentation       int `json:"general_presentation" validate:"omitempty,min=1,max=5"`

		UnderstandingOfInternshipComment string `json:"understanding_of_internship_comment"`
		SupportFrameworkComment          string `json:"support_framework_comment"`
		CultureFitComment                string `json:"culture_fit_comment"`
		WorkOutputComment                string `json:"work_output_comment"`
		GeneralPresentationComment       string `json:"general_presentation_comment"`

		Recommendation string `json:"recommendation"`

		SupervisorName      string `json:"supervisor_name" validate:"max=255"`
		SupervisorSignature string `json:"supervisor_signature" validate:"max=255"`
	}

	StudentEvalForm struct {
		Program        string    `json:"program" validate:"max=200"`
		InternshipSite string    `json:"internship_site" validate:"max=200"`
		EvalDate       time.Time `json:"eval_date"`

		Q1  string `json:"q1"`
		Q2  string `json:"q2"`
		Q3  string `json:"q3"`
		Q4  string `json:"q4"`
		Q5  string `json:"q5"`
		Q6  string `json:"q6"`
		Q7  string `json:"q7"`
		Q8  string `json:"q8"`
		Q9  string `json:"q9"`
		Q10 string `json:"q10"`
	}
)

func (f *IndustryEvalForm) Validate() error {
	if err := core.Validate.Struct(f); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (f *AcademicEvalForm) Validate() error {
	if err := core.Validate.Struct(f); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (f *StudentEvalForm) Validate() error {
	f.Program = core.CleanString(f.Program)
	f.InternshipSite = core.CleanString(f.InternshipSite)
	if err := core.Validate.Struct(f); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
