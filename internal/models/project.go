package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

type Project struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Title       string           `gorm:"size:100;not null" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Story       string           `gorm:"type:text" json:"story"`
	Thumbnail   string           `gorm:"size:512" json:"thumbnail"`
	Images      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"images"`
	TechStack   JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tech_stack"`
	Tags        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	GithubURL   string           `gorm:"size:255" json:"github_url,omitempty"`
	LiveURL     string           `gorm:"size:255" json:"live_url,omitempty"`
	FigmaURL    string           `gorm:"size:255" json:"figma_url,omitempty"`
	YoutubeURL  string           `gorm:"size:255" json:"youtube_url,omitempty"`
	AuthorID    string           `gorm:"size:64;not null;index" json:"author_id"`
	Author      *User            `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	IsPublic    bool             `gorm:"not null;default:true" json:"is_public"`
}

// BeforeCreate assigns the primary key client-side so the model works on
// both Postgres and the SQLite test databases.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
