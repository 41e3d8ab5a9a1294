package echoapi

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type internshipApi struct {
	svc     *internship.Service
	userSvc *user.Service
}

func registerInternshipAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *internship.Service, userSvc *user.Service) {
	api := internshipApi{svc: svc, userSvc: userSvc}

	ig := g.Group("/internships", jwt)

	// periods
	pg := ig.Group("/periods")
	pg.GET("", api.queryPeriods)
	pg.POST("", api.createPeriod, coordinatorMiddleware())
	pg.POST("/:id/activate", api.activatePeriod, coordinatorMiddleware())

	// student request lifecycle
	mg := ig.Group("/requests/mine", studentMiddleware())
	mg.GET("", api.myRequest)
	mg.PUT("", api.saveDraft)
	mg.POST("/submit", api.submit)
	mg.POST("/cv", api.uploadCV)
	mg.POST("/request-letter", api.uploadRequestLetter)
	mg.POST("/acceptance", api.uploadAcceptance)

	// coordination queues and decisions
	rg := ig.Group("/requests", coordinatorMiddleware())
	rg.GET("/review-queue", api.reviewQueue)
	rg.GET("/acceptance-queue", api.acceptanceQueue)
	rg.GET("/waiting-acceptance", api.waitingAcceptanceQueue)
	rg.GET("/:id", api.retrieveRequest)
	rg.POST("/:id/under-review", api.markUnderReview)
	rg.POST("/:id/recommend", api.recommend)
	rg.POST("/:id/return-acceptance", api.returnForAcceptance)
	rg.POST("/:id/reject", api.reject)
	rg.POST("/:id/verify", api.verifyAndAssign)
	rg.POST("/:id/approve", api.approveAndPlace)

	// placements
	plg := ig.Group("/placements")
	plg.GET("/mine", api.myPlacement, studentMiddleware())
	plg.POST("/:id/acknowledge", api.acknowledge, studentMiddleware())
	plg.GET("/:id", api.retrievePlacement, coordinatorMiddleware())
	plg.POST("/:id/status", api.setPlacementStatus, coordinatorMiddleware())
	plg.POST("/:id/industry-supervisor", api.assignIndustrySupervisor, coordinatorMiddleware())
}

// Periods

func (api *internshipApi) queryPeriods(ctx echo.Context) error {
	periods, err := api.svc.QueryAllPeriods()
	if err != nil {
		return errors.Wrap(err, "querying periods")
	}
	if periods == nil {
		periods = []internship.Period{}
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *internshipApi) createPeriod(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data internship.NewPeriod
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPeriod")
	}
	period, err := api.svc.CreatePeriod(usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, period)
}

func (api *internshipApi) activatePeriod(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	period, err := api.svc.ActivatePeriod(usr, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, period)
}

// Student side

func (api *internshipApi) myRequest(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	req, err := api.svc.GetOrCreateForPeriod(profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) saveDraft(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	var data internship.RequestDraft
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RequestDraft")
	}
	req, err := api.svc.SaveDraft(profile, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) submit(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	req, err := api.svc.Submit(profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) uploadCV(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	fh, f, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := api.svc.UploadCV(profile, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) uploadRequestLetter(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	fh, f, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := api.svc.UploadRequestLetter(profile, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) uploadAcceptance(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	fh, f, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := api.svc.UploadAcceptance(profile, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

// Coordination side

func (api *internshipApi) reviewQueue(ctx echo.Context) error {
	return api.queue(ctx, api.svc.ReviewQueue)
}

func (api *internshipApi) acceptanceQueue(ctx echo.Context) error {
	return api.queue(ctx, api.svc.AcceptanceQueue)
}

func (api *internshipApi) waitingAcceptanceQueue(ctx echo.Context) error {
	return api.queue(ctx, api.svc.WaitingAcceptanceQueue)
}

func (api *internshipApi) queue(ctx echo.Context, fetch func(user.User) ([]internship.Request, error)) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqs, err := fetch(usr)
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []internship.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *internshipApi) retrieveRequest(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	req, err := api.svc.GetRequest(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) markUnderReview(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	req, err := api.svc.MarkUnderReview(usr, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) recommend(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	fh, f, err := formFile(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := api.svc.IssueRecommendation(usr, id, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) returnForAcceptance(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	var data CommentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CommentRequest")
	}
	req, err := api.svc.ReturnForAcceptance(usr, id, data.Comment)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) reject(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	var data NotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotesRequest")
	}
	req, err := api.svc.Reject(usr, id, data.Notes)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *internshipApi) verifyAndAssign(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	var data AssignSupervisorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignSupervisorRequest")
	}
	req, placement, err := api.svc.VerifyAndAssign(usr, id, data.SupervisorStaffID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"request": req, "placement": placement})
}

func (api *internshipApi) approveAndPlace(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	req, placement, err := api.svc.ApproveAndPlace(usr, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"request": req, "placement": placement})
}

// Placements

func (api *internshipApi) myPlacement(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	placement, err := api.svc.CurrentPlacementForStudent(profile.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placement)
}

func (api *internshipApi) acknowledge(ctx echo.Context) error {
	_, profile, err := contextStudentProfile(ctx, api.userSvc)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	placement, err := api.svc.Acknowledge(profile, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placement)
}

func (api *internshipApi) retrievePlacement(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	placement, err := api.svc.GetPlacement(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placement)
}

func (api *internshipApi) setPlacementStatus(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	var data StatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusRequest")
	}
	placement, err := api.svc.SetPlacementStatus(usr, id, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placement)
}

func (api *internshipApi) assignIndustrySupervisor(ctx echo.Context) error {
	usr, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}
	var data AssignContactRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignContactRequest")
	}
	placement, err := api.svc.AssignIndustrySupervisor(usr, id, data.ContactID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, placement)
}

func (api *internshipApi) actorAndID(ctx echo.Context) (user.User, int, error) {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return user.User{}, 0, errors.Wrap(err, "getting context user")
	}
	id, err := pathID(ctx)
	if err != nil {
		return user.User{}, 0, err
	}
	return usr, id, nil
}

// formFile extracts the uploaded "file" form field.
func formFile(ctx echo.Context) (*multipart.FileHeader, multipart.File, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening uploaded file")
	}
	return fh, f, nil
}

type (
	CommentRequest struct {
		Comment string `json:"comment"`
	}

	NotesRequest struct {
		Notes string `json:"notes"`
	}

	StatusRequest struct {
		Status string `json:"status"`
	}

	AssignSupervisorRequest struct {
		SupervisorStaffID int `json:"supervisor_staff_id"`
	}

	AssignContactRequest struct {
		ContactID int `json:"contact_id"`
	}
)
