package sqlxrepos

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
)

type (
	industryEvalRow struct {
		ID             int      `db:"id"`
		PlacementID    int      `db:"placement_id"`
		CompanyID      int      `db:"company_id"`
		SupervisorUser null.Int `db:"supervisor_user"`

		BasicWorkExpectations  int `db:"basic_work_expectations"`
		KnowledgeAndLearning   int `db:"knowledge_and_learning"`
		EthicalAwareness       int `db:"ethical_awareness"`
		InterpersonalRelations int `db:"interpersonal_relations"`
		CommunicationSkills    int `db:"communication_skills"`
		Attendance             int `db:"attendance"`
		Punctuality            int `db:"punctuality"`
		Flexibility            int `db:"flexibility"`
		Dependability          int `db:"dependability"`
		CultureFit             int `db:"culture_fit"`
		DressCode              int `db:"dress_code"`
		Behaviour              int `db:"behaviour"`
		WorkProductivity       int `db:"work_productivity"`

		BasicWorkExpectationsComment  string `db:"basic_work_expectations_comment"`
		KnowledgeAndLearningComment   string `db:"knowledge_and_learning_comment"`
		EthicalAwarenessComment       string `db:"ethical_awareness_comment"`
		InterpersonalRelationsComment string `db:"interpersonal_relations_comment"`
		CommunicationSkillsComment    string `db:"communication_skills_comment"`
		AttendanceComment             string `db:"attendance_comment"`
		PunctualityComment            string `db:"punctuality_comment"`
		FlexibilityComment            string `db:"flexibility_comment"`
		DependabilityComment          string `db:"dependability_comment"`
		CultureFitComment             string `db:"culture_fit_comment"`
		DressCodeComment              string `db:"dress_code_comment"`
		BehaviourComment              string `db:"behaviour_comment"`
		WorkProductivityComment       string `db:"work_productivity_comment"`

		RecommendEmployment null.Bool `db:"recommend_employment"`
		RecommendComment    string    `db:"recommend_comment"`
		OtherComments       string    `db:"other_comments"`

		SupervisorName      string `db:"supervisor_name"`
		SupervisorSignature string `db:"supervisor_signature"`

		Status      string    `db:"status"`
		SubmittedAt null.Time `db:"submitted_at"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	academicEvalRow struct {
		ID             int      `db:"id"`
		PlacementID    int      `db:"placement_id"`
		SupervisorUser null.Int `db:"supervisor_user"`

		UnderstandingOfInternship int `db:"understanding_of_internship"`
		SupportFramework          int `db:"support_framework"`
		CultureFit                int `db:"culture_fit"`
		WorkOutput                int `db:"work_output"`
		GeneralPresentation       int `db:"general_presentation"`

		UnderstandingOfInternshipComment string `db:"understanding_of_internship_comment"`
		SupportFrameworkComment          string `db:"support_framework_comment"`
		CultureFitComment                string `db:"culture_fit_comment"`
		WorkOutputComment                string `db:"work_output_comment"`
		GeneralPresentationComment       string `db:"general_presentation_comment"`

		Recommendation string `db:"recommendation"`

		SupervisorName      string `db:"supervisor_name"`
		SupervisorSignature string `db:"supervisor_signature"`

		Status      string    `db:"status"`
		SubmittedAt null.Time `db:"submitted_at"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	studentEvalRow struct {
		ID          int      `db:"id"`
		PlacementID int      `db:"placement_id"`
		StudentUser null.Int `db:"student_user"`

		Program        string    `db:"program"`
		InternshipSite string    `db:"internship_site"`
		EvalDate       null.Time `db:"eval_date"`

		Q1  string `db:"q1"`
		Q2  string `db:"q2"`
		Q3  string `db:"q3"`
		Q4  string `db:"q4"`
		Q5  string `db:"q5"`
		Q6  string `db:"q6"`
		Q7  string `db:"q7"`
		Q8  string `db:"q8"`
		Q9  string `db:"q9"`
		Q10 string `db:"q10"`

		Status      string    `db:"status"`
		SubmittedAt null.Time `db:"submitted_at"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	reportRow struct {
		ID             int       `db:"id"`
		SupervisorUser int       `db:"supervisor_user"`
		Rows           []byte    `db:"rows"`
		Status         string    `db:"status"`
		SubmittedAt    null.Time `db:"submitted_at"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}
)

func (r industryEvalRow) model() evaluation.IndustryEvaluation {
	return evaluation.IndustryEvaluation{
		ID:             r.ID,
		PlacementID:    r.PlacementID,
		CompanyID:      r.CompanyID,
		SupervisorUser: int(r.SupervisorUser.Int),

		BasicWorkExpectations:  r.BasicWorkExpectations,
		KnowledgeAndLearning:   r.KnowledgeAndLearning,
		EthicalAwareness:       r.EthicalAwareness,
		InterpersonalRelations: r.InterpersonalRelations,
		CommunicationSkills:    r.CommunicationSkills,
		Attendance:             r.Attendance,
		Punctuality:            r.Punctuality,
		Flexibility:            r.Flexibility,
		Dependability:          r.Dependability,
		CultureFit:             r.CultureFit,
		DressCode:              r.DressCode,
		Behaviour:              r.Behaviour,
		WorkProductivity:       r.WorkProductivity,

		BasicWorkExpectationsComment:  r.BasicWorkExpectationsComment,
		KnowledgeAndLearningComment:   r.KnowledgeAndLearningComment,
		EthicalAwarenessComment:       r.EthicalAwarenessComment,
		InterpersonalRelationsComment: r.InterpersonalRelationsComment,
		CommunicationSkillsComment:    r.CommunicationSkillsComment,
		AttendanceComment:             r.AttendanceComment,
		PunctualityComment:            r.PunctualityComment,
		FlexibilityComment:            r.FlexibilityComment,
		DependabilityComment:          r.DependabilityComment,
		CultureFitComment:             r.CultureFitComment,
		DressCodeComment:              r.DressCodeComment,
		BehaviourComment:              r.BehaviourComment,
		WorkProductivityComment:       r.WorkProductivityComment,

		RecommendEmployment: r.RecommendEmployment.Ptr(),
		RecommendComment:    r.RecommendComment,
		OtherComments:       r.OtherComments,

		SupervisorName:      r.SupervisorName,
		SupervisorSignature: r.SupervisorSignature,

		Status:      r.Status,
		SubmittedAt: r.SubmittedAt.Time,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r academicEvalRow) model() evaluation.AcademicEvaluation {
	return evaluation.AcademicEvaluation{
		ID:             r.ID,
		PlacementID:    r.PlacementID,
		SupervisorUser: int(r.SupervisorUser.Int),

		UnderstandingOfInternship: r.UnderstandingOfInternship,
		SupportFramework:          r.SupportFramework,
		CultureFit:                r.CultureFit,
		WorkOutput:                r.WorkOutput,
		GeneralPresentation:       r.GeneralPresentation,

		UnderstandingOfInternshipComment: r.UnderstandingOfInternshipComment,
		SupportFrameworkComment:          r.SupportFrameworkComment,
		CultureFitComment:                r.CultureFitComment,
		WorkOutputComment:                r.WorkOutputComment,
		GeneralPresentationComment:       r.GeneralPresentationComment,

		Recommendation: r.Recommendation,

		SupervisorName:      r.SupervisorName,
		SupervisorSignature: r.SupervisorSignature,

		Status:      r.Status,
		SubmittedAt: r.SubmittedAt.Time,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r studentEvalRow) model() evaluation.StudentEvaluation {
	return evaluation.StudentEvaluation{
		ID:          r.ID,
		PlacementID: r.PlacementID,
		StudentUser: int(r.StudentUser.Int),

		Program:        r.Program,
		InternshipSite: r.InternshipSite,
		EvalDate:       r.EvalDate.Time,

		Q1: r.Q1, Q2: r.Q2, Q3: r.Q3, Q4: r.Q4, Q5: r.Q5,
		Q6: r.Q6, Q7: r.Q7, Q8: r.Q8, Q9: r.Q9, Q10: r.Q10,

		Status:      r.Status,
		SubmittedAt: r.SubmittedAt.Time,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r reportRow) model() (evaluation.ResultsReport, error) {
	report := evaluation.ResultsReport{
		ID:             r.ID,
		SupervisorUser: r.SupervisorUser,
		Status:         r.Status,
		SubmittedAt:    r.SubmittedAt.Time,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Rows, &report.Rows); err != nil {
		return evaluation.ResultsReport{}, errors.Wrap(err, "decoding report rows")
	}
	return report, nil
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

// Industry evaluations

func (repo *evaluationRepository) GetOrCreateIndustryEval(e evaluation.IndustryEvaluation) (evaluation.IndustryEvaluation, error) {
	existing, err := repo.GetIndustryEvalByPlacement(e.PlacementID)
	if err == nil {
		return existing, nil
	}
	if err != evaluation.ErrNotFound {
		return evaluation.IndustryEvaluation{}, err
	}

	insErr := repo.db.QueryRowx(
		`INSERT INTO industry_evaluation (placement_id, company_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.PlacementID, e.CompanyID, e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if insErr != nil {
		if isUniqueViolation(insErr) {
			return repo.GetIndustryEvalByPlacement(e.PlacementID)
		}
		return evaluation.IndustryEvaluation{}, errors.Wrap(insErr, "creating industry evaluation")
	}
	return e, nil
}

func (repo *evaluationRepository) GetIndustryEvalByPlacement(placementID int) (evaluation.IndustryEvaluation, error) {
	var row industryEvalRow
	if err := repo.db.Get(&row, `SELECT * FROM industry_evaluation WHERE placement_id = $1`, placementID); err != nil {
		if isNoRows(err) {
			return evaluation.IndustryEvaluation{}, evaluation.ErrNotFound
		}
		return evaluation.IndustryEvaluation{}, errors.Wrap(err, "getting industry evaluation")
	}
	return row.model(), nil
}

func (repo *evaluationRepository) QuerySubmittedIndustryEvals(placementIDs []int) ([]evaluation.IndustryEvaluation, error) {
	if len(placementIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		`SELECT * FROM industry_evaluation WHERE placement_id IN (?) AND status = ?`,
		placementIDs, evaluation.StatusSubmitted,
	)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []industryEvalRow
	if err = repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying industry evaluations")
	}
	evals := make([]evaluation.IndustryEvaluation, 0, len(rows))
	for _, r := range rows {
		evals = append(evals, r.model())
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateIndustryEval(e evaluation.IndustryEvaluation) (evaluation.IndustryEvaluation, error) {
	res, err := repo.db.Exec(
		`UPDATE industry_evaluation SET
		   supervisor_user = $1,
		   basic_work_expectations = $2, knowledge_and_learning = $3, ethical_awareness = $4,
		   interpersonal_relations = $5, communication_skills = $6, attendance = $7, punctuality = $8,
		   flexibility = $9, dependability = $10, culture_fit = $11, dress_code = $12, behaviour = $13,
		   work_productivity = $14,
		   basic_work_expectations_comment = $15, knowledge_and_learning_comment = $16,
		   ethical_awareness_comment = $17, interpersonal_relations_comment = $18,
		   communication_skills_comment = $19, attendance_comment = $20, punctuality_comment = $21,
		   flexibility_comment = $22, dependability_comment = $23, culture_fit_comment = $24,
		   dress_code_comment = $25, behaviour_comment = $26, work_productivity_comment = $27,
		   recommend_employment = $28, recommend_comment = $29, other_comments = $30,
		   supervisor_name = $31, supervisor_signature = $32,
		   status = $33, submitted_at = $34, updated_at = $35
		 WHERE id = $36`,
		nullInt(e.SupervisorUser),
		e.BasicWorkExpectations, e.KnowledgeAndLearning, e.EthicalAwareness,
		e.InterpersonalRelations, e.CommunicationSkills, e.Attendance, e.Punctuality,
		e.Flexibility, e.Dependability, e.CultureFit, e.DressCode, e.Behaviour,
		e.WorkProductivity,
		e.BasicWorkExpectationsComment, e.KnowledgeAndLearningComment,
		e.EthicalAwarenessComment, e.InterpersonalRelationsComment,
		e.CommunicationSkillsComment, e.AttendanceComment, e.PunctualityComment,
		e.FlexibilityComment, e.DependabilityComment, e.CultureFitComment,
		e.DressCodeComment, e.BehaviourComment, e.WorkProductivityComment,
		nullBool(e.RecommendEmployment), e.RecommendComment, e.OtherComments,
		e.SupervisorName, e.SupervisorSignature,
		e.Status, nullTime(e.SubmittedAt), e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return evaluation.IndustryEvaluation{}, errors.Wrap(err, "updating industry evaluation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.IndustryEvaluation{}, evaluation.ErrNotFound
	}
	return e, nil
}

// Academic evaluations

func (repo *evaluationRepository) GetOrCreateAcademicEval(e evaluation.AcademicEvaluation) (evaluation.AcademicEvaluation, error) {
	existing, err := repo.GetAcademicEvalByPlacement(e.PlacementID)
	if err == nil {
		return existing, nil
	}
	if err != evaluation.ErrNotFound {
		return evaluation.AcademicEvaluation{}, err
	}

	insErr := repo.db.QueryRowx(
		`INSERT INTO academic_evaluation (placement_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.PlacementID, e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if insErr != nil {
		if isUniqueViolation(insErr) {
			return repo.GetAcademicEvalByPlacement(e.PlacementID)
		}
		return evaluation.AcademicEvaluation{}, errors.Wrap(insErr, "creating academic evaluation")
	}
	return e, nil
}

func (repo *evaluationRepository) GetAcademicEvalByPlacement(placementID int) (evaluation.AcademicEvaluation, error) {
	var row academicEvalRow
	if err := repo.db.Get(&row, `SELECT * FROM academic_evaluation WHERE placement_id = $1`, placementID); err != nil {
		if isNoRows(err) {
			return evaluation.AcademicEvaluation{}, evaluation.ErrNotFound
		}
		return evaluation.AcademicEvaluation{}, errors.Wrap(err, "getting academic evaluation")
	}
	return row.model(), nil
}

func (repo *evaluationRepository) QuerySubmittedAcademicEvals(placementIDs []int, supervisorUserID int) ([]evaluation.AcademicEvaluation, error) {
	if len(placementIDs) == 0 {
		return nil, nil
	}
	query := `SELECT * FROM academic_evaluation WHERE placement_id IN (?) AND status = ?`
	args := []interface{}{placementIDs, evaluation.StatusSubmitted}
	if supervisorUserID != 0 {
		query += ` AND supervisor_user = ?`
		args = append(args, supervisorUserID)
	}

	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []academicEvalRow
	if err = repo.db.Select(&rows, repo.db.Rebind(q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying academic evaluations")
	}
	evals := make([]evaluation.AcademicEvaluation, 0, len(rows))
	for _, r := range rows {
		evals = append(evals, r.model())
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateAcademicEval(e evaluation.AcademicEvaluation) (evaluation.AcademicEvaluation, error) {
	res, err := repo.db.Exec(
		`UPDATE academic_evaluation SET
		   supervisor_user = $1,
		   understanding_of_internship = $2, support_framework = $3, culture_fit = $4,
		   work_output = $5, general_presentation = $6,
		   understanding_of_internship_comment = $7, support_framework_comment = $8,
		   culture_fit_comment = $9, work_output_comment = $10, general_presentation_comment = $11,
		   recommendation = $12, supervisor_name = $13, supervisor_signature = $14,
		   status = $15, submitted_at = $16, updated_at = $17
		 WHERE id = $18`,
		nullInt(e.SupervisorUser),
		e.UnderstandingOfInternship, e.SupportFramework, e.CultureFit,
		e.WorkOutput, e.GeneralPresentation,
		e.UnderstandingOfInternshipComment, e.SupportFrameworkComment,
		e.CultureFitComment, e.WorkOutputComment, e.GeneralPresentationComment,
		e.Recommendation, e.SupervisorName, e.SupervisorSignature,
		e.Status, nullTime(e.SubmittedAt), e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return evaluation.AcademicEvaluation{}, errors.Wrap(err, "updating academic evaluation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.AcademicEvaluation{}, evaluation.ErrNotFound
	}
	return e, nil
}

// Student evaluations

func (repo *evaluationRepository) GetOrCreateStudentEval(e evaluation.StudentEvaluation) (evaluation.StudentEvaluation, error) {
	existing, err := repo.GetStudentEvalByPlacement(e.PlacementID)
	if err == nil {
		return existing, nil
	}
	if err != evaluation.ErrNotFound {
		return evaluation.StudentEvaluation{}, err
	}

	insErr := repo.db.QueryRowx(
		`INSERT INTO student_evaluation (placement_id, student_user, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.PlacementID, nullInt(e.StudentUser), e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if insErr != nil {
		if isUniqueViolation(insErr) {
			return repo.GetStudentEvalByPlacement(e.PlacementID)
		}
		return evaluation.StudentEvaluation{}, errors.Wrap(insErr, "creating student evaluation")
	}
	return e, nil
}

func (repo *evaluationRepository) GetStudentEvalByPlacement(placementID int) (evaluation.StudentEvaluation, error) {
	var row studentEvalRow
	if err := repo.db.Get(&row, `SELECT * FROM student_evaluation WHERE placement_id = $1`, placementID); err != nil {
		if isNoRows(err) {
			return evaluation.StudentEvaluation{}, evaluation.ErrNotFound
		}
		return evaluation.StudentEvaluation{}, errors.Wrap(err, "getting student evaluation")
	}
	return row.model(), nil
}

func (repo *evaluationRepository) UpdateStudentEval(e evaluation.StudentEvaluation) (evaluation.StudentEvaluation, error) {
	res, err := repo.db.Exec(
		`UPDATE student_evaluation SET
		   student_user = $1, program = $2, internship_site = $3, eval_date = $4,
		   q1 = $5, q2 = $6, q3 = $7, q4 = $8, q5 = $9, q6 = $10, q7 = $11, q8 = $12, q9 = $13, q10 = $14,
		   status = $15, submitted_at = $16, updated_at = $17
		 WHERE id = $18`,
		nullInt(e.StudentUser), e.Program, e.InternshipSite, nullTime(e.EvalDate),
		e.Q1, e.Q2, e.Q3, e.Q4, e.Q5, e.Q6, e.Q7, e.Q8, e.Q9, e.Q10,
		e.Status, nullTime(e.SubmittedAt), e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return evaluation.StudentEvaluation{}, errors.Wrap(err, "updating student evaluation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.StudentEvaluation{}, evaluation.ErrNotFound
	}
	return e, nil
}

// Results reports

func (repo *evaluationRepository) CreateReport(r evaluation.ResultsReport) (evaluation.ResultsReport, error) {
	rows, err := json.Marshal(r.Rows)
	if err != nil {
		return evaluation.ResultsReport{}, errors.Wrap(err, "encoding report rows")
	}
	err = repo.db.QueryRowx(
		`INSERT INTO results_report (supervisor_user, rows, status, submitted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.SupervisorUser, rows, r.Status, nullTime(r.SubmittedAt), r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return evaluation.ResultsReport{}, errors.Wrap(err, "creating results report")
	}
	return r, nil
}

func (repo *evaluationRepository) GetReportByID(id int) (evaluation.ResultsReport, error) {
	return repo.getReport(`SELECT * FROM results_report WHERE id = $1`, id)
}

func (repo *evaluationRepository) GetLatestReportForSupervisor(userID int) (evaluation.ResultsReport, error) {
	return repo.getReport(
		`SELECT * FROM results_report WHERE supervisor_user = $1
		 ORDER BY submitted_at DESC NULLS LAST, created_at DESC LIMIT 1`, userID)
}

func (repo *evaluationRepository) GetOpenReportForSupervisor(userID int) (evaluation.ResultsReport, error) {
	return repo.getReport(
		`SELECT * FROM results_report WHERE supervisor_user = $1 AND status = $2
		 ORDER BY created_at DESC LIMIT 1`, userID, evaluation.ReportDraft)
}

func (repo *evaluationRepository) getReport(query string, args ...interface{}) (evaluation.ResultsReport, error) {
	var row reportRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if isNoRows(err) {
			return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
		}
		return evaluation.ResultsReport{}, errors.Wrap(err, "getting results report")
	}
	return row.model()
}

func (repo *evaluationRepository) QueryReportsByStatus(statuses ...string) ([]evaluation.ResultsReport, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		`SELECT * FROM results_report WHERE status IN (?)
		 ORDER BY submitted_at DESC NULLS LAST, created_at DESC`, statuses)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []reportRow
	if err = repo.db.Select(&rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying results reports")
	}
	reports := make([]evaluation.ResultsReport, 0, len(rows))
	for _, r := range rows {
		report, err := r.model()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (repo *evaluationRepository) UpdateReport(r evaluation.ResultsReport) (evaluation.ResultsReport, error) {
	rows, err := json.Marshal(r.Rows)
	if err != nil {
		return evaluation.ResultsReport{}, errors.Wrap(err, "encoding report rows")
	}
	res, err := repo.db.Exec(
		`UPDATE results_report SET rows = $1, status = $2, submitted_at = $3, updated_at = $4 WHERE id = $5`,
		rows, r.Status, nullTime(r.SubmittedAt), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return evaluation.ResultsReport{}, errors.Wrap(err, "updating results report")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return evaluation.ResultsReport{}, evaluation.ErrReportNotFound
	}
	return r, nil
}
