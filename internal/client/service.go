package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
)

// Querier captures the database methods the client service relies on.
type Querier interface {
	GetClient(ctx context.Context, id int64) (db.Client, error)
	InsertClient(ctx context.Context, arg db.InsertClientParams) (db.Client, error)
	UpdateClient(ctx context.Context, arg db.UpdateClientParams) (db.Client, error)
	SearchClients(ctx context.Context, arg db.SearchClientsParams) ([]db.Client, error)
	ListTopClients(ctx context.Context, limit int32) ([]db.TopClientRow, error)
}

// Client is the API-friendly representation of a renter.
type Client struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	TotalOrders int32      `json:"totalOrders"`
	TotalSpent  int64      `json:"totalSpent"`
	LastOrderAt *time.Time `json:"lastOrderAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Input captures payload for creating or updating a client.
type Input struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// TopClient is one row of the top-spenders report.
type TopClient struct {
	ClientID    int64  `json:"clientId"`
	Name        string `json:"name"`
	TotalOrders int32  `json:"totalOrders"`
	TotalSpent  int64  `json:"totalSpent"`
}

// Service orchestrates client records.
type Service struct {
	Q Querier
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	if s == nil || s.Q == nil {
		return Client{}, errors.New("client service not configured")
	}
	row, err := s.Q.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, common.NewAppError("NOT_FOUND", "client not found", http.StatusNotFound, nil)
		}
		return Client{}, err
	}
	return convert(row), nil
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, input Input) (Client, error) {
	if s == nil || s.Q == nil {
		return Client{}, errors.New("client service not configured")
	}
	if err := validate(input); err != nil {
		return Client{}, err
	}
	row, err := s.Q.InsertClient(ctx, db.InsertClientParams{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
	})
	if err != nil {
		return Client{}, err
	}
	return convert(row), nil
}

// Update modifies an existing client.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Client, error) {
	if s == nil || s.Q == nil {
		return Client{}, errors.New("client service not configured")
	}
	if err := validate(input); err != nil {
		return Client{}, err
	}
	row, err := s.Q.UpdateClient(ctx, db.UpdateClientParams{
		ID:        id,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, common.NewAppError("NOT_FOUND", "client not found", http.StatusNotFound, nil)
		}
		return Client{}, err
	}
	return convert(row), nil
}

// Search returns clients matching the free-text query, newest renters first.
func (s *Service) Search(ctx context.Context, query string, limit, offset int32) ([]Client, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("client service not configured")
	}
	rows, err := s.Q.SearchClients(ctx, db.SearchClientsParams{
		Query:  strings.TrimSpace(query),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	clients := make([]Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, convert(row))
	}
	return clients, nil
}

// Top returns the highest-spending clients.
func (s *Service) Top(ctx context.Context, limit int32) ([]TopClient, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("client service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.Q.ListTopClients(ctx, limit)
	if err != nil {
		return nil, err
	}
	top := make([]TopClient, 0, len(rows))
	for _, row := range rows {
		name := row.FirstName
		if row.LastName != "" {
			name += " " + row.LastName
		}
		top = append(top, TopClient{
			ClientID:    row.ClientID,
			Name:        name,
			TotalOrders: row.TotalOrders,
			TotalSpent:  row.TotalSpent,
		})
	}
	return top, nil
}

func validate(input Input) error {
	if strings.TrimSpace(input.FirstName) == "" {
		return common.NewAppError("VALIDATION_ERROR", "firstName is required", http.StatusBadRequest, nil)
	}
	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		return common.NewAppError("VALIDATION_ERROR", "email is invalid", http.StatusBadRequest, nil)
	}
	return nil
}

func convert(row db.Client) Client {
	c := Client{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Phone:       row.Phone,
		Email:       row.Email,
		TotalOrders: row.TotalOrders,
		TotalSpent:  row.TotalSpent,
	}
	if row.LastOrderAt.Valid {
		t := row.LastOrderAt.Time
		c.LastOrderAt = &t
	}
	if row.CreatedAt.Valid {
		c.CreatedAt = row.CreatedAt.Time
	}
	return c
}
