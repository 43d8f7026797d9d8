package waypoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"routeboard/internal/models"
)

// stubService returns canned results so handler behavior can be tested in
// isolation from the store.
type stubService struct {
	ServiceInterface
	assigned  *models.Waypoint
	assignErr error
	listed    []models.Waypoint
}

func (s *stubService) Assign(ctx context.Context, routeID string, req models.AssignWaypointRequest) (*models.Waypoint, error) {
	if s.assignErr != nil {
		return nil, s.assignErr
	}
	return s.assigned, nil
}

func (s *stubService) ListRoute(ctx context.Context, routeID string) ([]models.Waypoint, error) {
	return s.listed, nil
}

func performRequest(h echo.HandlerFunc, method, body string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	_ = h(c)
	return rec
}

func TestHandlerAssignReturnsCreated(t *testing.T) {
	h := NewHandler(&stubService{
		assigned: &models.Waypoint{RouteID: "R1", OrderID: "O1", Sequence: 0, Status: models.WaypointPending},
	})

	rec := performRequest(h.Assign, http.MethodPost, `{"order_id":"O1"}`, map[string]string{"routeId": "R1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var wp models.Waypoint
	if err := json.Unmarshal(rec.Body.Bytes(), &wp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if wp.OrderID != "O1" || wp.RouteID != "R1" {
		t.Fatalf("unexpected body: %+v", wp)
	}
}

func TestHandlerAssignValidatesBody(t *testing.T) {
	h := NewHandler(&stubService{})

	rec := performRequest(h.Assign, http.MethodPost, `{}`, map[string]string{"routeId": "R1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerAssignMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrDuplicateMembership, http.StatusConflict},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrIndexOutOfRange, http.StatusBadRequest},
	}
	for _, tc := range cases {
		h := NewHandler(&stubService{assignErr: tc.err})
		rec := performRequest(h.Assign, http.MethodPost, `{"order_id":"O1"}`, map[string]string{"routeId": "R1"})
		if rec.Code != tc.want {
			t.Fatalf("err %v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestHandlerListRoute(t *testing.T) {
	h := NewHandler(&stubService{listed: []models.Waypoint{
		{RouteID: "R1", OrderID: "O1", Sequence: 0},
		{RouteID: "R1", OrderID: "O2", Sequence: 1},
	}})

	rec := performRequest(h.ListRoute, http.MethodGet, "", map[string]string{"routeId": "R1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		RouteID   string            `json:"route_id"`
		Waypoints []models.Waypoint `json:"waypoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.RouteID != "R1" || len(body.Waypoints) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}
