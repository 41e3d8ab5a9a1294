package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/ghabbala/VU-Interniship-System/apps/api/echo"
	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	emailsvc "github.com/ghabbala/VU-Interniship-System/services/email"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	logsvc "github.com/ghabbala/VU-Interniship-System/services/logger"
	dummydb "github.com/ghabbala/VU-Interniship-System/storage/database/dummy"
)

var (
	app         Server
	usrRepo     user.Repository
	companyRepo company.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	// tests run with debug off, like the original stack's TEST_DEBUG="0"
	core.Conf.Debug = false

	db, err := dummydb.Open()
	if err != nil {
		os.Exit(1)
	}
	usrRepo = dummydb.NewUserRepository(db)
	companyRepo = dummydb.NewCompanyRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	store := filestore.NewMemoryStorage()
	logger := logsvc.NewNopLogger()

	usrSvc := user.NewService(usrRepo, mailSvc)
	companySvc := company.NewService(companyRepo)
	internshipSvc := internship.NewService(dummydb.NewInternshipRepository(db), companySvc, store)
	trackingSvc := tracking.NewService(
		dummydb.NewTrackingRepository(db), internshipSvc, usrSvc, mailSvc, store, logger)
	evalSvc := evaluation.NewService(dummydb.NewEvaluationRepository(db), internshipSvc, usrSvc, companySvc)

	app = NewServer(
		&Options{
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			CompanySvc:     companySvc,
			InternshipSvc:  internshipSvc,
			TrackingSvc:    trackingSvc,
			EvaluationSvc:  evalSvc,
			Logger:         logger,
		},
	)

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
