package site

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func TestSiteHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO sites`).
		WithArgs(pgxmock.AnyArg(), "North Depot", "Jl. Industri 1", 106.816, -6.2).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	mock.ExpectQuery(`FROM sites WHERE id`).
		WithArgs("site-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "label", "address", "lat", "lng", "created_at"}).
			AddRow("site-1", "North Depot", "Jl. Industri 1", -6.2, 106.816, createdAt))

	app := fiber.New()
	RegisterRoutes(app.Group("/sites"), NewService(mock), func(c *fiber.Ctx) error { return c.Next() })

	body, _ := json.Marshal(Site{Label: "North Depot", Address: "Jl. Industri 1", Lat: -6.2, Lng: 106.816})
	req := httptest.NewRequest(http.MethodPost, "/sites/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create site status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/sites/site-1", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get site status: %v", err)
	}
	var st Site
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode site: %v", err)
	}
	if st.Label != "North Depot" {
		t.Fatalf("unexpected site: %+v", st)
	}
}

func TestSiteHandlersBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/sites"), NewService(nil), func(c *fiber.Ctx) error { return c.Next() })

	req := httptest.NewRequest(http.MethodPost, "/sites/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
