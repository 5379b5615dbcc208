package models

// GORM models

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrArticleNotFound is returned by stores when no published article has
// the requested id.
var ErrArticleNotFound = errors.New("article not found")

// StringArray for PostgreSQL text[] support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted[i] = `"` + v + `"`
	}
	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		parsed, err := parseTextArray(v)
		if err != nil {
			return err
		}
		*s = parsed
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// parseTextArray decodes a one-dimensional Postgres array literal.
func parseTextArray(v string) (StringArray, error) {
	if len(v) < 2 || v[0] != '{' || v[len(v)-1] != '}' {
		return nil, fmt.Errorf("malformed array literal %q", v)
	}
	body := v[1 : len(v)-1]
	out := StringArray{}
	if body == "" {
		return out, nil
	}

	var (
		cur      strings.Builder
		inQuotes bool
		wasQuote bool
	)
	flush := func() {
		elem := cur.String()
		if !wasQuote {
			elem = strings.TrimSpace(elem)
		}
		out = append(out, elem)
		cur.Reset()
		wasQuote = false
	}
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case ch == '"':
			inQuotes = !inQuotes
			wasQuote = true
		case ch == ',' && !inQuotes:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in array literal %q", v)
	}
	flush()
	return out, nil
}

// HelpArticle is the persisted help article row.
type HelpArticle struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	Seq         int64       `json:"-" gorm:"autoIncrement;not null;index"`
	Title       string      `json:"title" gorm:"not null"`
	Description string      `json:"description"`
	Content     string      `json:"content" gorm:"not null"`
	Category    Category    `json:"category" gorm:"not null;index;check:category IN ('manual','reference','tips')"`
	Tags        StringArray `json:"tags" gorm:"type:text[]"`
	IsPublished bool        `json:"is_published" gorm:"not null;index"`
	ViewCount   int64       `json:"view_count" gorm:"default:0;not null"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HelpAnalyticsEvent is the persisted analytics row.
type HelpAnalyticsEvent struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	ArticleID   string    `json:"article_id" gorm:"index"`
	Action      Action    `json:"action" gorm:"not null;check:action IN ('view','search','share')"`
	Context     *string   `json:"context"`
	SessionHash *string   `json:"session_hash"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
}

// ContentStore is the persistence boundary of the help core.
type ContentStore interface {
	QueryPublishedArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
	GetPublishedArticleByID(ctx context.Context, id string) (Article, error)
	IncrementViewCount(ctx context.Context, id string) error
	InsertAnalyticsEvent(ctx context.Context, event AnalyticsEvent) error
	ListAnalyticsEvents(ctx context.Context) ([]AnalyticsEvent, error)
}

// ArticleWriter is used by the editorial seeding path only.
type ArticleWriter interface {
	UpsertArticle(ctx context.Context, article *HelpArticle) error
}

// TableName methods for custom table names
func (HelpArticle) TableName() string        { return "help_articles" }
func (HelpAnalyticsEvent) TableName() string { return "help_analytics" }

// ToArticle maps the row to the canonical article shape.
func (h HelpArticle) ToArticle() Article {
	tags := make([]string, len(h.Tags))
	copy(tags, h.Tags)
	return Article{
		ID:          h.ID,
		Title:       h.Title,
		Description: h.Description,
		Content:     h.Content,
		Category:    h.Category,
		Tags:        tags,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
		ViewCount:   h.ViewCount,
	}
}

// NewAnalyticsRecord maps an event to its row, assigning a fresh id.
func NewAnalyticsRecord(e AnalyticsEvent) *HelpAnalyticsEvent {
	rec := &HelpAnalyticsEvent{
		ID:        uuid.NewString(),
		ArticleID: e.TopicID,
		Action:    e.Action,
		Timestamp: e.Timestamp.UTC(),
	}
	if e.Context != "" {
		text := e.Context
		rec.Context = &text
	}
	if e.SessionHash != "" {
		hash := e.SessionHash
		rec.SessionHash = &hash
	}
	return rec
}

// ToEvent maps the row back to the event shape.
func (r HelpAnalyticsEvent) ToEvent() AnalyticsEvent {
	e := AnalyticsEvent{
		TopicID:   r.ArticleID,
		Action:    r.Action,
		Timestamp: r.Timestamp,
	}
	if r.Context != nil {
		e.Context = *r.Context
	}
	if r.SessionHash != nil {
		e.SessionHash = *r.SessionHash
	}
	return e
}

// Model validation methods
func (h *HelpArticle) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("article id is required")
	}
	if strings.TrimSpace(h.Title) == "" {
		return fmt.Errorf("article title is required")
	}
	if !h.Category.Valid() {
		return fmt.Errorf("invalid category: %s", h.Category)
	}
	if h.ViewCount < 0 {
		return fmt.Errorf("view count cannot be negative")
	}
	return nil
}

func (r *HelpAnalyticsEvent) Validate() error {
	return r.ToEvent().Validate()
}

// GORM hooks
func (h *HelpArticle) BeforeCreate(tx *gorm.DB) error {
	return h.Validate()
}

func (h *HelpArticle) BeforeUpdate(tx *gorm.DB) error {
	return h.Validate()
}

func (r *HelpAnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r.Validate()
}
