package routestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"backend-trailforge/internal/route"
	"backend-trailforge/internal/surface"

	"github.com/pashagolub/pgxmock/v3"
)

func testRoute() route.ProcessedRoute {
	return route.ProcessedRoute{
		ID:        "temp-id-1",
		Name:      "Test Ride",
		Color:     "#FF0000",
		IsVisible: true,
		GeoJSON:   route.LineString([][]float64{{106.8, -6.2}, {106.81, -6.21}}),
		Surface:   surface.Default(),
		Status:    route.ProcessingStatus{State: route.StateCompleted, Progress: 100},
	}
}

func TestSaveRoute(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO routes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Test Ride", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("record-1"))

	recordID, err := svc.Save(context.Background(), testRoute(), "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if recordID != "record-1" {
		t.Fatalf("unexpected record id: %s", recordID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveRouteError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO routes`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Test Ride", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(context.DeadlineExceeded)

	svc := NewService(mock)
	if _, err := svc.Save(context.Background(), testRoute(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetRoute(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	doc, _ := json.Marshal(testRoute())
	mock.ExpectQuery(`SELECT id, user_id, name, document, created_at`).
		WithArgs("record-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "document", "created_at"}).
			AddRow("record-1", "user-1", "Test Ride", doc, time.Now()))

	svc := NewService(mock)
	stored, err := svc.Get(context.Background(), "record-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Route.Name != "Test Ride" || stored.UserID != "user-1" {
		t.Fatalf("unexpected stored route: %+v", stored)
	}
}

func TestGetRouteBadDocument(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, name, document, created_at`).
		WithArgs("record-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "document", "created_at"}).
			AddRow("record-1", "user-1", "Test Ride", []byte("not-json"), time.Now()))

	svc := NewService(mock)
	if _, err := svc.Get(context.Background(), "record-1"); err == nil {
		t.Fatalf("expected error for bad document")
	}
}
