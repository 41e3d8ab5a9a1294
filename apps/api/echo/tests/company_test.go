package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	testutil "github.com/ghabbala/VU-Interniship-System/tests"
)

func Test_companyApi(t *testing.T) {
	admin, _ := testutil.CreateStaff(t, usrRepo, "Co Admin", "coadmin", "ST-9101", []string{user.RoleAdmin})
	coordinator, _ := testutil.CreateStaff(t, usrRepo, "Co Coord", "cocoord", "ST-9102", []string{user.RoleCoordinator})
	student, _ := testutil.CreateStudent(t, usrRepo, "Co Student", "costudent", "VU-BIT-9101")

	coordToken := getToken(t, coordinator)
	studentToken := getToken(t, student)

	var created company.Company

	t.Run("create requires coordinator", func(t *testing.T) {
		body := []byte(`{"name": "Nile Breweries"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/companies", studentToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(
			t,
			httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			rec,
		)
	})

	t.Run("coordinator can create", func(t *testing.T) {
		body := []byte(`{"name": "Nile Breweries", "industry": "Manufacturing", "district": "Jinja", "status": "approved"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/companies", coordToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed: code = %v, body = %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("decoding company: %v", err)
		}
		if created.ID == 0 || created.Status != company.StatusApproved {
			t.Errorf("created = %+v; want approved company with an ID", created)
		}
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		body := []byte(`{"name": "Nile Breweries"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/companies", coordToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400", rec.Code)
		}
	})

	t.Run("students may browse approved companies", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/companies/approved", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var companies []company.Company
		if err := json.Unmarshal(rec.Body.Bytes(), &companies); err != nil {
			t.Fatalf("decoding company list: %v", err)
		}
		found := false
		for _, c := range companies {
			if c.ID == created.ID {
				found = true
			}
			if c.Status != company.StatusApproved {
				t.Errorf("approved list contains %+v", c)
			}
		}
		if !found {
			t.Errorf("approved list %v does not contain the new company", companies)
		}
	})

	t.Run("students may not browse the full directory", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/companies", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(
			t,
			httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			rec,
		)
	})

	t.Run("retrieve and update", func(t *testing.T) {
		path := fmt.Sprintf("/v1/companies/%d", created.ID)

		req, rec := newAuthRequest(http.MethodGet, path, coordToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, created)}, rec)

		body := []byte(`{"address": "Plot 12, Jinja Rd"}`)
		req, rec = newAuthRequest(http.MethodPut, path, coordToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update failed: code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var updated company.Company
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("decoding company: %v", err)
		}
		if updated.Address != "Plot 12, Jinja Rd" {
			t.Errorf("Address = %q; want %q", updated.Address, "Plot 12, Jinja Rd")
		}
		if updated.Name != created.Name {
			t.Errorf("update cleared Name: %+v", updated)
		}
	})

	t.Run("unknown company is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/companies/987654", coordToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404", rec.Code)
		}
	})

	t.Run("contacts", func(t *testing.T) {
		path := fmt.Sprintf("/v1/companies/%d/contacts", created.ID)

		body := []byte(`{"name": "Okello James", "title": "HR Officer", "email": "okello@nilebreweries.ug"}`)
		req, rec := newAuthRequest(http.MethodPost, path, coordToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add contact failed: code = %v, body = %s", rec.Code, rec.Body.String())
		}
		var contact company.Contact
		if err := json.Unmarshal(rec.Body.Bytes(), &contact); err != nil {
			t.Fatalf("decoding contact: %v", err)
		}
		if contact.CompanyID != created.ID {
			t.Errorf("CompanyID = %d; want %d", contact.CompanyID, created.ID)
		}

		req, rec = newAuthRequest(http.MethodGet, path, coordToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []company.Contact{contact})}, rec)
	})

	t.Run("delete requires admin", func(t *testing.T) {
		path := fmt.Sprintf("/v1/companies/%d", created.ID)

		req, rec := newAuthRequest(http.MethodDelete, path, coordToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(
			t,
			httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
			rec,
		)

		req, rec = newAuthRequest(http.MethodDelete, path, getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete failed: code = %v, body = %s", rec.Code, rec.Body.String())
		}
		if _, err := companyRepo.GetCompanyByID(created.ID); err != company.ErrNotFound {
			t.Errorf("GetCompanyByID() after delete = %v; want ErrNotFound", err)
		}
	})
}
