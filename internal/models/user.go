package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is embedded in User.
type Company struct {
	Name              string `gorm:"column:company_name;not null" json:"name"`
	ProfessionalEmail string `gorm:"column:company_professional_email;not null" json:"professionalEmail"`
}

// User owns short links. LinkIDs is the ordered collection of owned link IDs
// and is maintained on link create and delete.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	Company      Company   `gorm:"embedded" json:"company"`
	LinkIDs      []string  `gorm:"column:link_ids;serializer:json" json:"shortedUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
