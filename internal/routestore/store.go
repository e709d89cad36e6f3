package routestore

import (
	"context"
	"encoding/json"
	"time"

	"backend-trailforge/internal/db"
	"backend-trailforge/internal/route"

	"github.com/google/uuid"
)

// Service persists finished routes for their owning user. It sits at
// the persistence-collaborator boundary: the pipeline hands a
// completed ProcessedRoute over and receives a durable record id; the
// route document itself is stored as JSON.
type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

type StoredRoute struct {
	RecordID  string                `json:"record_id"`
	UserID    string                `json:"user_id"`
	Name      string                `json:"name"`
	Route     route.ProcessedRoute  `json:"route"`
	CreatedAt time.Time             `json:"created_at"`
}

func (s *Service) Save(ctx context.Context, r route.ProcessedRoute, userID string) (string, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	recordID := uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, user_id, name, document, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, recordID, userID, r.Name, doc, time.Now())
	if err := row.Scan(&recordID); err != nil {
		return "", err
	}
	return recordID, nil
}

func (s *Service) Get(ctx context.Context, recordID string) (StoredRoute, error) {
	var stored StoredRoute
	var doc []byte

	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, document, created_at
		FROM routes WHERE id=$1
	`, recordID)
	if err := row.Scan(&stored.RecordID, &stored.UserID, &stored.Name, &doc, &stored.CreatedAt); err != nil {
		return StoredRoute{}, err
	}
	if err := json.Unmarshal(doc, &stored.Route); err != nil {
		return StoredRoute{}, err
	}
	return stored, nil
}
