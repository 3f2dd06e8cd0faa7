package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"account-service/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type PanicRecoveryTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (s *PanicRecoveryTestSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.Use(RequestID(), PanicRecovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestPanicRecoveryTestSuite(t *testing.T) {
	suite.Run(t, new(PanicRecoveryTestSuite))
}

func (s *PanicRecoveryTestSuite) serve(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(TraceIDHeader, "trace-close-12")
	rec := httptest.NewRecorder()
	s.NotPanics(func() { s.echo.ServeHTTP(rec, req) })
	return rec
}

func (s *PanicRecoveryTestSuite) TestPanickingCloseAnswersSystemError() {
	s.echo.DELETE("/accounts/:account_id", func(c echo.Context) error {
		panic("account row vanished mid-close")
	})

	rec := s.serve(http.MethodDelete, "/accounts/12")

	s.Equal(http.StatusInternalServerError, rec.Code)
	var body errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(string(errors.SystemInternalError), body.Error.Code)
	s.Equal("trace-close-12", body.Error.TraceID)
}

func (s *PanicRecoveryTestSuite) TestPanicValuesOfAnyType() {
	values := map[string]interface{}{
		"string": "balance overflow",
		"error":  io.ErrUnexpectedEOF,
		"int":    42,
		"nil":    nil,
	}

	for name, value := range values {
		s.Run(name, func() {
			s.echo.GET("/accounts/:account_id", func(c echo.Context) error {
				panic(value)
			})

			rec := s.serve(http.MethodGet, "/accounts/1")

			s.Equal(http.StatusInternalServerError, rec.Code)
		})
	}
}

func (s *PanicRecoveryTestSuite) TestHealthyHandlerUntouched() {
	s.echo.GET("/accounts/:account_id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ACTIVE"})
	})

	rec := s.serve(http.MethodGet, "/accounts/1")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ACTIVE")
}

func (s *PanicRecoveryTestSuite) TestRecoveredPanicsAreCounted() {
	s.echo.PATCH("/accounts/:account_id", func(c echo.Context) error {
		panic("patch exploded")
	})
	before := testutil.ToFloat64(panicsTotal)

	s.serve(http.MethodPatch, "/accounts/5")

	s.Equal(before+1, testutil.ToFloat64(panicsTotal))
}

func (s *PanicRecoveryTestSuite) TestCommittedResponseIsLeftAlone() {
	s.echo.GET("/accounts", func(c echo.Context) error {
		_ = c.String(http.StatusAccepted, "[")
		panic("list failed half way")
	})

	rec := s.serve(http.MethodGet, "/accounts")

	s.Equal(http.StatusAccepted, rec.Code)
	s.Equal("[", rec.Body.String())
}

func (s *PanicRecoveryTestSuite) TestNoTraceIDFallsBackToUnknown() {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/accounts/1", nil), rec)

	err := PanicRecovery(nil)(func(c echo.Context) error {
		panic("no trace")
	})(c)

	s.NoError(err)
	var body errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("unknown", body.Error.TraceID)
}
