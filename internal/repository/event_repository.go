// Package repository persists canonical events in PostgreSQL.
//
// Import Path: archive.alpha.io/archive/internal/repository
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/metrics"
	apperrors "archive.alpha.io/archive/internal/pkg/errors"
	"archive.alpha.io/archive/internal/pkg/logger"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// upsertSQL is the whole dedup decision in one statement: the partial unique
// index arbitrates concurrent writers, the DO UPDATE ... WHERE clause skips
// rows whose significant fields are unchanged (no row is returned then),
// and xmax = 0 distinguishes a fresh insert from an update.
const upsertSQL = `
INSERT INTO public_event (
    id, source, source_event_id, title, description, category, start_at, end_at,
    place_name, place_address, place_city, place_district, place_latitude, place_longitude,
    place_phone, place_homepage, price_text, audience, contact, url, image_url,
    status, raw_payload, ingested_at
) VALUES (
    $1::uuid, $2, $3, $4, $5, $6, $7, $8,
    $9, $10, $11, $12, $13, $14,
    $15, $16, $17, $18, $19, $20, $21,
    $22, $23, $24
)
ON CONFLICT (source, source_event_id) WHERE deleted_at IS NULL
DO UPDATE SET
    title           = EXCLUDED.title,
    description     = EXCLUDED.description,
    category        = EXCLUDED.category,
    start_at        = EXCLUDED.start_at,
    end_at          = EXCLUDED.end_at,
    place_name      = EXCLUDED.place_name,
    place_address   = EXCLUDED.place_address,
    place_city      = EXCLUDED.place_city,
    place_district  = EXCLUDED.place_district,
    place_latitude  = EXCLUDED.place_latitude,
    place_longitude = EXCLUDED.place_longitude,
    place_phone     = EXCLUDED.place_phone,
    place_homepage  = EXCLUDED.place_homepage,
    price_text      = EXCLUDED.price_text,
    audience        = EXCLUDED.audience,
    contact         = EXCLUDED.contact,
    url             = EXCLUDED.url,
    image_url       = EXCLUDED.image_url,
    status          = EXCLUDED.status,
    raw_payload     = EXCLUDED.raw_payload,
    ingested_at     = EXCLUDED.ingested_at,
    updated_at      = now()
WHERE public_event.title      IS DISTINCT FROM EXCLUDED.title
   OR public_event.start_at   IS DISTINCT FROM EXCLUDED.start_at
   OR public_event.end_at     IS DISTINCT FROM EXCLUDED.end_at
   OR public_event.place_name IS DISTINCT FROM EXCLUDED.place_name
RETURNING id::text, (xmax = 0) AS inserted`

const selectColumns = `
    id::text, source, source_event_id, title, description, category, start_at, end_at,
    place_name, place_address, place_city, place_district, place_latitude, place_longitude,
    place_phone, place_homepage, price_text, audience, contact, url, image_url,
    status, raw_payload, ingested_at, deleted_at`

// EventRepository is the PostgreSQL event store.
type EventRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewEventRepository creates an EventRepository on a shared pool.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool, now: time.Now}
}

// Upsert writes one event keyed by (source, source_event_id). The existing
// row keeps its id when updated.
func (r *EventRepository) Upsert(ctx context.Context, e *domain.Event) (domain.UpsertOutcome, error) {
	if err := e.Validate(); err != nil {
		metrics.RecordUpsert("failed")
		return domain.UpsertSkipped, apperrors.Wrap(err, apperrors.CodeEventPersistFailed, "invalid event", http.StatusUnprocessableEntity)
	}

	id := e.ID
	if id == "" {
		id = domain.NewEventID()
	}
	status := e.Status
	if status == "" {
		status = domain.EventStatusActive
	}
	ingestedAt := e.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = r.now()
	}

	var (
		storedID string
		inserted bool
	)
	err := r.pool.QueryRow(ctx, upsertSQL,
		id, e.Source, e.SourceEventID, e.Title, e.Description, string(e.Category), e.StartAt, e.EndAt,
		e.Place.Name, e.Place.Address, e.Place.City, e.Place.District, e.Place.Latitude, e.Place.Longitude,
		e.Place.Phone, e.Place.Homepage, e.Meta.PriceText, e.Meta.Audience, e.Meta.Contact, e.Meta.URL, e.Meta.ImageURL,
		string(status), e.RawPayload, ingestedAt,
	).Scan(&storedID, &inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordUpsert(domain.UpsertSkipped.String())
		return domain.UpsertSkipped, nil
	}
	if err != nil {
		metrics.RecordUpsert("failed")
		return domain.UpsertSkipped, apperrors.Wrap(err, apperrors.CodeEventPersistFailed,
			"upsert event "+e.Key().String(), http.StatusInternalServerError)
	}

	e.ID = storedID
	outcome := domain.UpsertUpdated
	if inserted {
		outcome = domain.UpsertInserted
	}
	metrics.RecordUpsert(outcome.String())
	return outcome, nil
}

// UpsertMany writes events one by one and returns how many were inserted or
// updated. A failing event is logged and skipped; it never aborts the batch.
func (r *EventRepository) UpsertMany(ctx context.Context, events []*domain.Event) int {
	saved := 0
	for i, e := range events {
		if ctx.Err() != nil {
			logger.Warn("Upsert batch interrupted",
				zap.Int("remaining", len(events)-i),
				zap.Error(ctx.Err()),
			)
			break
		}
		outcome, err := r.Upsert(ctx, e)
		if err != nil {
			logger.Error("Failed to save public event",
				zap.String("source", e.Source),
				zap.String("source_event_id", e.SourceEventID),
				zap.Error(err),
			)
			continue
		}
		if outcome.Saved() {
			saved++
		}
	}
	return saved
}

// GetByID returns a non-deleted event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrEventNotFound(id)
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM public_event WHERE id = $1::uuid AND deleted_at IS NULL`, id)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrEventNotFound(id)
	}
	return e, err
}

// GetByNaturalKey returns the live event for a natural key.
func (r *EventRepository) GetByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM public_event
         WHERE source = $1 AND source_event_id = $2 AND deleted_at IS NULL`,
		key.Source, key.SourceEventID)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrEventNotFound(key.String())
	}
	return e, err
}

// ListActive returns one page of live ACTIVE events, newest id first.
func (r *EventRepository) ListActive(ctx context.Context, f domain.ListFilter) (*domain.EventPage, error) {
	if f.Cursor != "" {
		if _, err := uuid.Parse(f.Cursor); err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidQuery, "cursor must be an event id")
		}
	}
	size := clampPageSize(f.Size)
	where, args := activeWhere(f, true)
	args = append(args, size+1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM public_event WHERE `+where+
			fmt.Sprintf(` ORDER BY id DESC LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Event, 0, size)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	page := &domain.EventPage{Items: items}
	if len(items) > size {
		page.Items = items[:size]
		page.HasNext = true
		page.NextCursor = page.Items[size-1].ID
	}

	total, err := r.CountActive(ctx, f)
	if err != nil {
		return nil, err
	}
	page.TotalCount = total
	return page, nil
}

// CountActive counts live ACTIVE events matching the filter; the cursor is ignored.
func (r *EventRepository) CountActive(ctx context.Context, f domain.ListFilter) (int64, error) {
	where, args := activeWhere(f, false)
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM public_event WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// ArchiveEnded marks ACTIVE events that ended before the given time as
// ARCHIVED. Rows are never deleted.
func (r *EventRepository) ArchiveEnded(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE public_event
           SET status = $1, updated_at = now()
         WHERE status = $2 AND deleted_at IS NULL AND end_at < $3`,
		string(domain.EventStatusArchived), string(domain.EventStatusActive), before)
	if err != nil {
		return 0, fmt.Errorf("archive ended events: %w", err)
	}
	n := tag.RowsAffected()
	metrics.EventsArchived.Add(float64(n))
	return n, nil
}

// Ping checks database reachability.
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

func activeWhere(f domain.ListFilter, withCursor bool) (string, []interface{}) {
	conds := []string{"deleted_at IS NULL", "status = $1"}
	args := []interface{}{string(domain.EventStatusActive)}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if withCursor && f.Cursor != "" {
		add("id < $%d::uuid", f.Cursor)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		add("(place_city ILIKE $%[1]d OR place_district ILIKE $%[1]d OR place_address ILIKE $%[1]d)", "%"+escapeLike(loc)+"%")
	}
	if title := strings.TrimSpace(f.Title); title != "" {
		add("title ILIKE $%d", "%"+escapeLike(title)+"%")
	}
	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e        domain.Event
		category string
		status   string
	)
	err := row.Scan(
		&e.ID, &e.Source, &e.SourceEventID, &e.Title, &e.Description, &category, &e.StartAt, &e.EndAt,
		&e.Place.Name, &e.Place.Address, &e.Place.City, &e.Place.District, &e.Place.Latitude, &e.Place.Longitude,
		&e.Place.Phone, &e.Place.Homepage, &e.Meta.PriceText, &e.Meta.Audience, &e.Meta.Contact, &e.Meta.URL, &e.Meta.ImageURL,
		&status, &e.RawPayload, &e.IngestedAt, &e.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.Category = domain.Category(category)
	e.Status = domain.EventStatus(status)
	return &e, nil
}
