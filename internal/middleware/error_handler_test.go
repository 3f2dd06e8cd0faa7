package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"account-service/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type ErrorHandlerTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *ErrorHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.HTTPErrorHandler = CustomHTTPErrorHandler
	s.echo.Use(RequestID())
	s.echo.GET("/accounts/:account_id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int64{"account_id": 1})
	})
}

func TestErrorHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorHandlerTestSuite))
}

type envelope struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
		TraceID string   `json:"trace_id"`
	} `json:"error"`
}

func (s *ErrorHandlerTestSuite) serve(method, path string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(TraceIDHeader, "3f2b8c1e-acct-trace")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var body envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func (s *ErrorHandlerTestSuite) TestUnknownRoute_IsNotAnAccountError() {
	rec, body := s.serve(http.MethodGet, "/nope")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("SYSTEM_004", body.Error.Code)
	s.NotEqual("ACCOUNT_001", body.Error.Code)
	s.Equal("3f2b8c1e-acct-trace", body.Error.TraceID)
}

func (s *ErrorHandlerTestSuite) TestWrongMethodOnAccountRoute() {
	rec, body := s.serve(http.MethodPost, "/accounts/1")

	s.Equal(http.StatusMethodNotAllowed, rec.Code)
	s.Equal("VALIDATION_001", body.Error.Code)
}

func (s *ErrorHandlerTestSuite) TestUnexpectedHandlerError_HidesCause() {
	s.echo.GET("/accounts/:account_id/statement", func(c echo.Context) error {
		return errors.New("pq: relation \"accounts\" does not exist")
	})

	rec, body := s.serve(http.MethodGet, "/accounts/7/statement")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("SYSTEM_001", body.Error.Code)
	s.NotContains(rec.Body.String(), "relation")
	s.Contains(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func (s *ErrorHandlerTestSuite) TestMissingTraceID_ReportedAsUnknown() {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodDelete, "/accounts/3", nil), rec)

	CustomHTTPErrorHandler(errors.New("boom"), c)

	var body envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("unknown", body.Error.TraceID)
}

func (s *ErrorHandlerTestSuite) TestCommittedResponse_LeftAlone() {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodGet, "/accounts/3", nil), rec)
	s.Require().NoError(c.JSON(http.StatusOK, map[string]string{"status": "ACTIVE"}))

	CustomHTTPErrorHandler(errors.New("late failure"), c)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ACTIVE")
}

func (s *ErrorHandlerTestSuite) TestMapHTTPStatusToErrorCode() {
	cases := map[int]string{
		http.StatusBadRequest:            "VALIDATION_001",
		http.StatusNotFound:              "SYSTEM_004",
		http.StatusMethodNotAllowed:      "VALIDATION_001",
		http.StatusRequestEntityTooLarge: "VALIDATION_004",
		http.StatusUnsupportedMediaType:  "VALIDATION_001",
		http.StatusTooManyRequests:       "SYSTEM_006",
		http.StatusServiceUnavailable:    "SYSTEM_003",
		http.StatusBadGateway:            "SYSTEM_001",
	}

	for status, code := range cases {
		s.Equal(code, string(mapHTTPStatusToErrorCode(status)), http.StatusText(status))
	}
}

func (s *ErrorHandlerTestSuite) TestValidatorErrors_BecomeValidationEnvelope() {
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(httptest.NewRequest(http.MethodPost, "/accounts", nil), rec)
	c.Set(TraceIDContextKey, "trace-create")

	input := struct {
		AccountType string `json:"account_type" validate:"required,account_type"`
	}{AccountType: "savings"}
	err := validation.NewValidator().Struct(input)
	s.Require().Error(err)

	CustomHTTPErrorHandler(fmt.Errorf("bind: %w", err), c)

	s.Equal(http.StatusBadRequest, rec.Code)
	var body envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("VALIDATION_001", body.Error.Code)
	s.Equal([]string{"account_type: must be one of SALARY, SAVINGS, CURRENT, NRE"}, body.Error.Details)
}

func (s *ErrorHandlerTestSuite) TestErrorsAreCountedByRoute() {
	s.echo.GET("/accounts/:account_id/limits", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests, "slow down")
	})
	counter := apiErrorsTotal.WithLabelValues("SYSTEM_006", "/accounts/:account_id/limits", "429")
	before := testutil.ToFloat64(counter)

	rec, _ := s.serve(http.MethodGet, "/accounts/1/limits")

	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal(before+1, testutil.ToFloat64(counter))
}
