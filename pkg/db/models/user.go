package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// User is the slice of the account entity the dispatch core reads and
// updates: role, location, readiness, wallet counter and delivery handles.
// Account lifecycle (registration, OTP, profile) is owned elsewhere.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;index"`
	FirstName string         `gorm:"column:first_name;not null"`
	LastName  string         `gorm:"column:last_name;not null"`
	Email     *string        `gorm:"column:email"`
	Phone     *string        `gorm:"column:phone"`
	CountryID *uuid.UUID     `gorm:"column:country_id;type:uuid"`

	Active          bool `gorm:"column:active;not null;default:true"`
	ReadyForRequest bool `gorm:"column:ready_for_request;not null;default:false"`

	// Last known coordinates. For drivers the Redis live-location cache
	// takes precedence when fresh.
	Lat *float64 `gorm:"column:lat"`
	Lng *float64 `gorm:"column:lng"`

	WalletAmountCents int64 `gorm:"column:wallet_amount_cents;not null;default:0"`

	// A driver who also operates a laundromat under a second account.
	IsLaundromatDriverBoth bool `gorm:"column:is_laundromat_driver_both;not null;default:false"`

	PushToken        *string `gorm:"column:push_token"`
	StripeCustomerID *string `gorm:"column:stripe_customer_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
