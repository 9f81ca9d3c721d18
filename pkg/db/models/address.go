package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a read-mostly pickup location owned by the profile layer.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Line1     string    `gorm:"column:line1;not null"`
	Line2     *string   `gorm:"column:line2"`
	City      string    `gorm:"column:city;not null"`
	Zip       string    `gorm:"column:zip;not null"`
	Lat       *float64  `gorm:"column:lat"`
	Lng       *float64  `gorm:"column:lng"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
