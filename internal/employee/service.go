package employee

import (
	"context"

	"backend-fieldtrack/internal/db"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create provisions an employee account. The password is stored as a
// bcrypt hash only.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, err
	}

	emp := Employee{
		ID:       uuid.NewString(),
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	}
	if emp.Role == "" {
		emp.Role = "field"
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO employees (id, full_name, email, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, emp.ID, emp.FullName, emp.Email, string(hash), emp.Role)
	if err := row.Scan(&emp.CreatedAt); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, full_name, email, role, created_at
		FROM employees WHERE id=$1
	`, id)
	var emp Employee
	if err := row.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.Role, &emp.CreatedAt); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Service) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, full_name, email, role, created_at
		FROM employees
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.Role, &emp.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}
