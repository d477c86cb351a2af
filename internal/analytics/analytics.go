// Package analytics records activity events and serves per-entity
// aggregate views backed by a versioned Redis cache.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// EntityType names the kinds of entities events attach to.
type EntityType string

const (
	EntityMember  EntityType = "member"
	EntityTrainer EntityType = "trainer"
	EntityBranch  EntityType = "branch"
)

// ValidEntityType reports whether the type is one of the known enums.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityMember, EntityTrainer, EntityBranch:
		return true
	}
	return false
}

// Event is one recorded activity item.
type Event struct {
	ID         int64           `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RecordedBy int64           `json:"recorded_by"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventForm carries event input.
type EventForm struct {
	EntityType EntityType      `json:"entity_type" validate:"required,oneof=member trainer branch"`
	EntityID   int64           `json:"entity_id" validate:"required,gt=0"`
	EventType  string          `json:"event_type" validate:"required"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ListFilters narrows event listings.
type ListFilters struct {
	EntityType EntityType
	EntityID   int64
	EventType  string
	Page       int
	PerPage    int
}

// MemberSummary is the aggregate view for one member.
type MemberSummary struct {
	MemberID    int64      `json:"member_id"`
	VisitCount  int        `json:"visit_count"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`
	TotalSpend  float64    `json:"total_spend"`
	GoalsActive int        `json:"goals_active"`
}

// TrainerSummary is the aggregate view for one trainer.
type TrainerSummary struct {
	TrainerID     int64 `json:"trainer_id"`
	SessionCount  int   `json:"session_count"`
	ClientCount   int   `json:"client_count"`
	GoalsAchieved int   `json:"goals_achieved"`
}

// BranchSummary is the aggregate view for one branch.
type BranchSummary struct {
	BranchID          int64   `json:"branch_id"`
	MemberCount       int     `json:"member_count"`
	ActiveMemberships int     `json:"active_memberships"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`
}

// Repository provides persistence for events and aggregates.
type Repository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	ListEvents(ctx context.Context, filters ListFilters) ([]Event, int, error)
	MemberSummary(ctx context.Context, memberID int64) (MemberSummary, error)
	TrainerSummary(ctx context.Context, trainerID int64) (TrainerSummary, error)
	BranchSummary(ctx context.Context, branchID int64) (BranchSummary, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event Event) (Event, error) {
	payload := event.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	err := r.db.QueryRow(ctx, `INSERT INTO analytics_events (entity_type, entity_id, event_type, payload, recorded_by, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		event.EntityType, event.EntityID, event.EventType, payload, event.RecordedBy, event.OccurredAt).Scan(&event.ID)
	return event, err
}

func (r *repository) ListEvents(ctx context.Context, filters ListFilters) ([]Event, int, error) {
	query := `SELECT id, entity_type, entity_id, event_type, payload, recorded_by, occurred_at FROM analytics_events WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM analytics_events WHERE 1=1`
	args := []any{}
	countArgs := []any{}
	argCount := 0

	if filters.EntityType != "" {
		argCount++
		cond := ` AND entity_type = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.EntityType)
		countArgs = append(countArgs, filters.EntityType)
	}
	if filters.EntityID > 0 {
		argCount++
		cond := ` AND entity_id = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.EntityID)
		countArgs = append(countArgs, filters.EntityID)
	}
	if filters.EventType != "" {
		argCount++
		cond := ` AND event_type = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.EventType)
		countArgs = append(countArgs, filters.EventType)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY occurred_at DESC, id DESC`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.EventType, &e.Payload, &e.RecordedBy, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) MemberSummary(ctx context.Context, memberID int64) (MemberSummary, error) {
	var s MemberSummary
	err := r.db.QueryRow(ctx, `SELECT member_id, visit_count, last_visit, total_spend, goals_active FROM member_analytics WHERE member_id = $1`, memberID).
		Scan(&s.MemberID, &s.VisitCount, &s.LastVisit, &s.TotalSpend, &s.GoalsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return MemberSummary{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) TrainerSummary(ctx context.Context, trainerID int64) (TrainerSummary, error) {
	var s TrainerSummary
	err := r.db.QueryRow(ctx, `SELECT trainer_id, session_count, client_count, goals_achieved FROM trainer_analytics WHERE trainer_id = $1`, trainerID).
		Scan(&s.TrainerID, &s.SessionCount, &s.ClientCount, &s.GoalsAchieved)
	if errors.Is(err, pgx.ErrNoRows) {
		return TrainerSummary{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) BranchSummary(ctx context.Context, branchID int64) (BranchSummary, error) {
	var s BranchSummary
	err := r.db.QueryRow(ctx, `SELECT branch_id, member_count, active_memberships, monthly_revenue FROM branch_analytics WHERE branch_id = $1`, branchID).
		Scan(&s.BranchID, &s.MemberCount, &s.ActiveMemberships, &s.MonthlyRevenue)
	if errors.Is(err, pgx.ErrNoRows) {
		return BranchSummary{}, shared.ErrNotFound
	}
	return s, err
}

// Service handles event recording and aggregate reads.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService builds a Service instance. Cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Record stores an event and invalidates cached aggregates.
func (s *Service) Record(ctx context.Context, form EventForm, recordedBy int64) (Event, error) {
	occurred := form.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	event, err := s.repo.CreateEvent(ctx, Event{
		EntityType: form.EntityType,
		EntityID:   form.EntityID,
		EventType:  form.EventType,
		Payload:    form.Payload,
		RecordedBy: recordedBy,
		OccurredAt: occurred,
	})
	if err != nil {
		return Event{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return event, fmt.Errorf("bump analytics cache: %w", err)
	}
	return event, nil
}

// List returns events matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Event, int, error) {
	return s.repo.ListEvents(ctx, filters)
}

// EntityAnalytics dispatches to the aggregate table for the entity
// type, going through the versioned cache.
func (s *Service) EntityAnalytics(ctx context.Context, entityType EntityType, entityID int64) (any, error) {
	if !ValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: unknown entity type %q", shared.ErrValidation, entityType)
	}
	if entityID <= 0 {
		return nil, fmt.Errorf("%w: invalid entity ID", shared.ErrValidation)
	}

	key, err := s.cache.BuildKey(ctx, keyEntity(entityType, entityID))
	if err != nil {
		return nil, err
	}

	switch entityType {
	case EntityMember:
		var out MemberSummary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return s.repo.MemberSummary(ctx, entityID)
		})
		return out, err
	case EntityTrainer:
		var out TrainerSummary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return s.repo.TrainerSummary(ctx, entityID)
		})
		return out, err
	default:
		var out BranchSummary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return s.repo.BranchSummary(ctx, entityID)
		})
		return out, err
	}
}
