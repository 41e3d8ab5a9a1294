package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type companyApi struct {
	svc     *company.Service
	userSvc *user.Service
}

func registerCompanyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *company.Service, userSvc *user.Service) {
	api := companyApi{svc: svc, userSvc: userSvc}

	cg := g.Group("/companies", jwt)

	// any authenticated user may browse approved companies
	cg.GET("/approved", api.queryApproved)

	// coordination endpoints
	cg.GET("", api.query, coordinatorMiddleware())
	cg.POST("", api.create, coordinatorMiddleware())
	cg.GET("/:id", api.retrieve, coordinatorMiddleware())
	cg.PUT("/:id", api.update, coordinatorMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())

	cg.GET("/:id/contacts", api.queryContacts, coordinatorMiddleware())
	cg.POST("/:id/contacts", api.addContact, coordinatorMiddleware())
}

func (api *companyApi) create(ctx echo.Context) error {
	var data company.NewCompany
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompany")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	c, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *companyApi) query(ctx echo.Context) error {
	companies, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying companies")
	}
	if companies == nil {
		companies = []company.Company{}
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *companyApi) queryApproved(ctx echo.Context) error {
	companies, err := api.svc.QueryApproved()
	if err != nil {
		return errors.Wrap(err, "querying approved companies")
	}
	if companies == nil {
		companies = []company.Company{}
	}
	return ctx.JSON(http.StatusOK, companies)
}

func (api *companyApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *companyApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data company.UpdateCompany
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCompany")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	c, err := api.svc.Update(id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *companyApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *companyApi) queryContacts(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	contacts, err := api.svc.QueryContacts(id)
	if err != nil {
		return err
	}
	if contacts == nil {
		contacts = []company.Contact{}
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *companyApi) addContact(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data company.NewContact
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContact")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	contact, err := api.svc.AddContact(id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, contact)
}

// pathID parses the ":id" route param.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
