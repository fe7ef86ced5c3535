package validation

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

type sample struct {
	Title string `json:"title" validate:"required,max=10"`
	Skip  string `json:"-" validate:"omitempty"`
}

func TestValidate_OK(t *testing.T) {
	if err := New().Validate(&sample{Title: "PHQ-9"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := New().Validate(&sample{})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
	body := httpErr.Message.(map[string]interface{})
	fields := body["fields"].(map[string]string)
	if fields["title"] != "required" {
		t.Errorf("expected title=required, got %v", fields)
	}
}

func TestValidate_NonStruct(t *testing.T) {
	err := New().Validate("not a struct")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
