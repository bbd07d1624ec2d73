package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4/middleware"

	. "github.com/mahmoud01140/onlineEdu/apps/api/echo"
	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/auth"
	"github.com/mahmoud01140/onlineEdu/core/user"
	"github.com/mahmoud01140/onlineEdu/services/spreadsheet"
	"github.com/mahmoud01140/onlineEdu/tests"
)

type httpErr struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Reason  string            `json:"reason,omitempty"`
	Errors  []core.FieldError `json:"errors,omitempty"`
}

var errNotLoggedIn = httpErr{Status: "fail", Message: auth.ErrUnauthenticated.Message}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	cookie   string
	wantCode int
	wantData []byte
}

func newApp(s *testutil.Stack, rateStore ...middleware.RateLimiterStore) Server {
	deps := &Deps{
		Conf:          s.Conf,
		Logger:        core.NopLogger{},
		Translator:    s.Translator,
		Renderer:      spreadsheet.Renderer{},
		AuthSvc:       s.AuthSvc,
		UserSvc:       s.UserSvc,
		ExamSvc:       s.ExamSvc,
		AttendanceSvc: s.AttendanceSvc,
		GroupSvc:      s.GroupSvc,
		LessonSvc:     s.LessonSvc,
		LiveExamSvc:   s.LiveExamSvc,
		CourseSvc:     s.CourseSvc,
		ExportSvc:     s.ExportSvc,
	}
	if len(rateStore) > 0 {
		deps.RateStore = rateStore[0]
	}
	return NewServer("" /* addr */, nil /* shutdown */, deps)
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

// serve runs tt against app and returns the recorder.
func serve(app Server, tt httpTest) *httptest.ResponseRecorder {
	if tt.method == "" {
		tt.method = http.MethodGet
	}
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	if tt.cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.cookie})
	}
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, s *testutil.Stack, usr user.User) string {
	sess, err := s.AuthSvc.IssueSession(usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return sess.Token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
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

func runTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(app, tt))
		})
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
