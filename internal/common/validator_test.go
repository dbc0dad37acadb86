package common

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type validatedRequest struct {
	Title string `validate:"required"`
	Frame string `validate:"required"`
}

func TestGenericEchoValidator(t *testing.T) {
	v := &GenericEchoValidator{}

	if err := v.Validate(&validatedRequest{Title: "Site A", Frame: "data:,x"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := v.Validate(&validatedRequest{Title: "Site A"})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", httpErr.Code)
	}
	if msg, _ := httpErr.Message.(string); !strings.Contains(msg, "frame failed 'required'") {
		t.Errorf("Expected message to name the failing field, got %q", msg)
	}
}
