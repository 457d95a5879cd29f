package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnknownRegion absorbs clicks whose origin could not be geolocated.
const UnknownRegion = "Unknown"

// Link is a shortened URL owned by a user.
type Link struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID      string    `gorm:"size:36;index;not null" json:"ownerId"`
	OriginalURL  string    `gorm:"not null" json:"originalUrl"`
	Alias        string    `gorm:"uniqueIndex:idx_links_alias;size:64;not null" json:"alias"`
	CanonicalURL string    `gorm:"not null" json:"shortedUrl"`
	TotalClicks  int64     `gorm:"not null;default:0" json:"totalClicks"`
	Regions      []Region  `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"regions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// SetAlias changes the alias and recomputes the canonical URL for domain.
func (l *Link) SetAlias(alias, domain string) {
	l.Alias = alias
	l.CanonicalURL = CanonicalURL(domain, alias)
}

// CanonicalURL builds the public short URL for an alias.
func CanonicalURL(domain, alias string) string {
	return fmt.Sprintf("https://%s/%s", domain, alias)
}

// Region counts the clicks attributed to one geolocation bucket of a link.
// Names are unique per link.
type Region struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	LinkID string `gorm:"size:36;not null;uniqueIndex:idx_link_regions_link_name" json:"-"`
	Name   string `gorm:"size:64;not null;uniqueIndex:idx_link_regions_link_name" json:"name"`
	Clicks int64  `gorm:"not null;default:0" json:"clicks"`
}

// TableName keeps region rows apart from any future generic "regions" table.
func (Region) TableName() string {
	return "link_regions"
}
