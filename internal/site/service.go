package site

import (
	"context"

	"backend-fieldtrack/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Site) (Site, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO sites (id, label, address, location)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography)
		RETURNING created_at
	`, input.ID, input.Label, input.Address, input.Lng, input.Lat)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Site{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Site, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, label, COALESCE(address,''), ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM sites WHERE id=$1
	`, id)
	var st Site
	if err := row.Scan(&st.ID, &st.Label, &st.Address, &st.Lat, &st.Lng, &st.CreatedAt); err != nil {
		return Site{}, err
	}
	return st, nil
}

func (s *Service) List(ctx context.Context) ([]Site, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, COALESCE(address,''), ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM sites
		ORDER BY label
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var st Site
		if err := rows.Scan(&st.ID, &st.Label, &st.Address, &st.Lat, &st.Lng, &st.CreatedAt); err != nil {
			return nil, err
		}
		sites = append(sites, st)
	}
	return sites, nil
}

func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Site, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, COALESCE(address,''), ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM sites
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY created_at DESC
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Site
	for rows.Next() {
		var st Site
		if err := rows.Scan(&st.ID, &st.Label, &st.Address, &st.Lat, &st.Lng, &st.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, st)
	}
	return results, nil
}
