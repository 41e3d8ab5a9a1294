package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	exportsvc "github.com/ghabbala/VU-Interniship-System/services/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type evaluationApi struct {
	svc     *evaluation.Service
	userSvc *user.Service
}

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *evaluation.Service, userSvc *user.Service) {
	api := evaluationApi{svc: svc, userSvc: userSvc}

	eg := g.Group("/evaluations", jwt)

	// industry evaluation
	ig := eg.Group("/industry", industrySupervisorMiddleware())
	ig.GET("/:id", api.getIndustry)
	ig.PUT("/:id", api.saveIndustry)
	ig.POST("/:id/submit", api.submitIndustry)

	// academic evaluation
	ag := eg.Group("/academic", universitySupervisorMiddleware())
	ag.GET("/:id", api.getAcademic)
	ag.PUT("/:id", api.saveAcademic)
	ag.POST("/:id/submit", api.submitAcademic)

	// student self-evaluation
	sg := eg.Group("/self", studentMiddleware())
	sg.GET("", api.getStudentEval)
	sg.PUT("", api.saveStudentEval)
	sg.POST("/submit", api.submitStudentEval)

	// results reports
	rg := eg.Group("/reports")
	rg.GET("/rows", api.reportRows, universitySupervisorMiddleware())
	rg.GET("/rows/export", api.exportReportRows, universitySupervisorMiddleware())
	rg.POST("", api.submitReport, universitySupervisorMiddleware())
	rg.GET("/latest", api.latestReport, universitySupervisorMiddleware())
	rg.GET("", api.queryReports, coordinatorMiddleware())
	rg.GET("/:id", api.retrieveReport)
	rg.POST("/:id/receive", api.markReceived, coordinatorMiddleware())

	// dashboards
	eg.GET("/dashboard/supervisor", api.supervisorDashboard, universitySupervisorMiddleware())
	eg.GET("/dashboard/coordinator", api.coordinatorDashboard, coordinatorMiddleware())
}

// Industry

func (api *evaluationApi) getIndustry(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	eval, err := api.svc.GetOrCreateIndustry(usr, profile, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) saveIndustry(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data evaluation.IndustryEvalForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IndustryEvalForm")
	}
	eval, err := api.svc.SaveIndustry(usr, profile, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) submitIndustry(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	eval, err := api.svc.SubmitIndustry(usr, profile, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

// Academic

func (api *evaluationApi) getAcademic(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	eval, err := api.svc.GetOrCreateAcademic(usr, staff, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) saveAcademic(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data evaluation.AcademicEvalForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AcademicEvalForm")
	}
	eval, err := api.svc.SaveAcademic(usr, staff, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) submitAcademic(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	eval, err := api.svc.SubmitAcademic(usr, staff, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

// Student self-evaluation

func (api *evaluationApi) getStudentEval(ctx echo.Context) error {
	usr, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	eval, err := api.svc.GetOrCreateStudentEval(usr, profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) saveStudentEval(ctx echo.Context) error {
	usr, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	var data evaluation.StudentEvalForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentEvalForm")
	}
	eval, err := api.svc.SaveStudentEval(usr, profile, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *evaluationApi) submitStudentEval(ctx echo.Context) error {
	usr, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	eval, err := api.svc.SubmitStudentEval(usr, profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, eval)
}

// Reports

func (api *evaluationApi) reportRows(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	rows, err := api.svc.BuildReportRows(usr, staff)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []evaluation.ReportRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *evaluationApi) exportReportRows(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	rows, err := api.svc.BuildReportRows(usr, staff)
	if err != nil {
		return err
	}
	buf, filename, err := exportsvc.ResultsXLSX(usr.Name, rows)
	if err != nil {
		return errors.Wrap(err, "rendering results spreadsheet")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *evaluationApi) submitReport(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	report, err := api.svc.SubmitReport(usr, staff)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, report)
}

func (api *evaluationApi) latestReport(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	report, err := api.svc.LatestReport(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *evaluationApi) queryReports(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reports, err := api.svc.QueryReports(usr)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []evaluation.ResultsReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

func (api *evaluationApi) retrieveReport(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.GetReport(usr, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *evaluationApi) markReceived(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.MarkReceived(usr, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

// Dashboards

func (api *evaluationApi) supervisorDashboard(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	dash, err := api.svc.SupervisorStats(usr, staff)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *evaluationApi) coordinatorDashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	dash, err := api.svc.CoordinatorStats(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}
