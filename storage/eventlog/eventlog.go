package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jungle/core/events"
)

// Record is one archived event.
type Record struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Sequence   uint64            `gorm:"index" json:"sequence"`
	Type       string            `gorm:"size:64;index" json:"type"`
	Attributes string            `gorm:"type:text" json:"-"`
	Fields     map[string]string `gorm:"-" json:"attributes"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}

// TableName pins the table name independent of the struct name.
func (Record) TableName() string { return "events" }

// Filter narrows Recent queries. The zero value returns the latest records.
type Filter struct {
	Type  string
	After uint64
	Limit int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Store archives committed events into a SQL database. It implements
// events.Emitter so it can sit in an events.Fanout behind the node.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time
	seq    uint64
}

// Open connects to the configured driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("eventlog: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("eventlog: database required")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("eventlog: migrate: %w", err)
	}
	var last Record
	res := db.Order("sequence desc").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("eventlog: load sequence: %w", res.Error)
	}
	return &Store{
		db:     db,
		logger: slog.Default(),
		nowFn:  time.Now,
		seq:    last.Sequence,
	}, nil
}

// SetLogger configures where write failures are reported.
func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Emit implements events.Emitter. Write failures are logged and dropped; the
// state they describe is already committed.
func (s *Store) Emit(evt events.Event) {
	if err := s.Append(context.Background(), evt); err != nil {
		s.logger.Error("eventlog append failed", "type", evt.EventType(), "error", err)
	}
}

// Append stores a single event.
func (s *Store) Append(ctx context.Context, evt events.Event) error {
	if evt == nil {
		return nil
	}
	attrs := map[string]string{}
	if payload, ok := evt.(events.Payload); ok {
		if raw := payload.Event(); raw != nil && raw.Attributes != nil {
			attrs = raw.Attributes
		}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	// Emit runs under the node's operation lock, so sequence assignment is
	// serialised by the caller.
	s.seq++
	rec := Record{
		ID:         uuid.New(),
		Sequence:   s.seq,
		Type:       evt.EventType(),
		Attributes: string(encoded),
		CreatedAt:  s.nowFn().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.seq--
		return err
	}
	return nil
}

// Recent returns archived events in ascending sequence order. With After set
// it pages forward from that sequence; otherwise it returns the latest records.
func (s *Store) Recent(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if f.After > 0 {
		return s.page(ctx, f.Type, f.After, limit)
	}
	var out []Record
	if err := s.query(ctx, f.Type).Order("sequence desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return decodeFields(out)
}

// page returns up to limit records with a sequence above after.
func (s *Store) page(ctx context.Context, eventType string, after uint64, limit int) ([]Record, error) {
	var out []Record
	q := s.query(ctx, eventType).Where("sequence > ?", after).Order("sequence asc").Limit(limit)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return decodeFields(out)
}

func (s *Store) query(ctx context.Context, eventType string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Record{})
	if eventType != "" {
		q = q.Where("type = ?", eventType)
	}
	return q
}

func decodeFields(records []Record) ([]Record, error) {
	for i := range records {
		if records[i].Attributes == "" {
			continue
		}
		if err := json.Unmarshal([]byte(records[i].Attributes), &records[i].Fields); err != nil {
			return nil, fmt.Errorf("eventlog: decode record %s: %w", records[i].ID, err)
		}
	}
	return records, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
