package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type trackingApi struct {
	svc     *tracking.Service
	userSvc *user.Service
}

func registerTrackingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *tracking.Service, userSvc *user.Service) {
	api := trackingApi{svc: svc, userSvc: userSvc}

	tg := g.Group("/tracking", jwt)

	// student weekly logs
	lg := tg.Group("/logs", studentMiddleware())
	lg.GET("", api.myLogs)
	lg.POST("", api.createLog)
	lg.PUT("/:id", api.saveLog)
	lg.POST("/:id/submit", api.submitLog)
	lg.POST("/:id/attachment", api.uploadAttachment)
	lg.DELETE("/:id", api.deleteLog)

	// company review
	cg := tg.Group("/company", industrySupervisorMiddleware())
	cg.GET("/logs/pending", api.companyPendingLogs)
	cg.GET("/logs/approved", api.companyApprovedLogs)
	cg.POST("/logs/:id/approve", api.approveLog)
	cg.POST("/logs/:id/return", api.returnLog)

	// university supervision
	sg := tg.Group("/supervisor", universitySupervisorMiddleware())
	sg.GET("/logs/approved", api.supervisorApprovedLogs)
	sg.POST("/site-visits", api.recordSiteVisit)
	sg.GET("/placements/:id/site-visits", api.querySiteVisits)

	// coordination
	tg.GET("/missing-logs", api.missingLogs, coordinatorMiddleware())
	tg.POST("/missing-logs/remind", api.sendReminders, coordinatorMiddleware())
}

// Student side

func (api *trackingApi) myLogs(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	logs, err := api.svc.StudentLogs(profile)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []tracking.WeeklyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *trackingApi) createLog(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	log, err := api.svc.CreateLog(profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, log)
}

func (api *trackingApi) saveLog(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data tracking.LogEdit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LogEdit")
	}
	log, err := api.svc.SaveLog(profile, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

func (api *trackingApi) submitLog(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	log, err := api.svc.SubmitLog(profile, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

func (api *trackingApi) uploadAttachment(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	fh, f, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	log, err := api.svc.UploadAttachment(profile, id, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

func (api *trackingApi) deleteLog(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLog(profile, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Company side

func (api *trackingApi) companyPendingLogs(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	logs, err := api.svc.CompanyPendingLogs(usr, profile)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []tracking.WeeklyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *trackingApi) companyApprovedLogs(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	logs, err := api.svc.CompanyApprovedLogs(usr, profile)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []tracking.WeeklyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *trackingApi) approveLog(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	log, err := api.svc.ApproveLog(usr, profile, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

func (api *trackingApi) returnLog(ctx echo.Context) error {
	usr, profile, err := contextIndustryProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data ReturnLogRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReturnLogRequest")
	}
	log, err := api.svc.ReturnLog(usr, profile, id, data.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, log)
}

// University side

func (api *trackingApi) supervisorApprovedLogs(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	logs, err := api.svc.SupervisorApprovedLogs(usr, staff)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []tracking.WeeklyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *trackingApi) recordSiteVisit(ctx echo.Context) error {
	usr, staff, err := contextStaffProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	var data tracking.NewSiteVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSiteVisit")
	}
	visit, err := api.svc.RecordSiteVisit(usr, staff, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, visit)
}

func (api *trackingApi) querySiteVisits(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	visits, err := api.svc.QuerySiteVisits(id)
	if err != nil {
		return err
	}
	if visits == nil {
		visits = []tracking.SiteVisit{}
	}
	return ctx.JSON(http.StatusOK, visits)
}

// Coordination side

func (api *trackingApi) missingLogs(ctx echo.Context) error {
	placements, err := api.svc.MissingLogPlacements(time.Now().UTC())
	if err != nil {
		return err
	}
	if placements == nil {
		placements = []internship.Placement{}
	}
	return ctx.JSON(http.StatusOK, placements)
}

func (api *trackingApi) sendReminders(ctx echo.Context) error {
	sent, err := api.svc.SendMissingLogReminders()
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"sent": sent})
}

type ReturnLogRequest struct {
	Reason string `json:"reason"`
}
