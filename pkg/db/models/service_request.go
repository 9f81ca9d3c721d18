package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// ServiceRequest is the central aggregate: one laundry order moving from
// creation through matching, fulfillment and settlement. Rows are never
// deleted; terminal outcomes are expressed through Status.
type ServiceRequest struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;index"`
	DriverID     *uuid.UUID `gorm:"column:driver_id;type:uuid;index"`
	LaundromatID *uuid.UUID `gorm:"column:laundromat_id;type:uuid;index"`
	AddressID    *uuid.UUID `gorm:"column:address_id;type:uuid"`

	// Pickup coordinates are snapshotted at creation so later address edits
	// do not move an order already in flight.
	PickupLat *float64 `gorm:"column:pickup_lat"`
	PickupLng *float64 `gorm:"column:pickup_lng"`

	DeliveryType enums.DeliveryType `gorm:"column:delivery_type;type:text;not null"`
	ServiceType  enums.ServiceType  `gorm:"column:service_type;type:text;not null"`

	WeightKg     float64 `gorm:"column:weight_kg;not null;default:0"`
	BagCount     int     `gorm:"column:bag_count;not null;default:0"`
	Express      bool    `gorm:"column:express;not null;default:false"`
	Fragrance    bool    `gorm:"column:fragrance;not null;default:false"`
	Instructions *string `gorm:"column:instructions"`

	// Monetary fields are minor currency units.
	AmountCents           int64 `gorm:"column:amount_cents;not null;default:0"`
	FeesCents             int64 `gorm:"column:fees_cents;not null;default:0"`
	TaxCents              int64 `gorm:"column:tax_cents;not null;default:0"`
	TipCents              int64 `gorm:"column:tip_cents;not null;default:0"`
	AdditionalAmountCents int64 `gorm:"column:additional_amount_cents;not null;default:0"`

	Status    enums.RequestStatus `gorm:"column:status;type:text;not null;default:'INIT';index"`
	SettledAt *time.Time          `gorm:"column:settled_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCents is the settlement basis: base amount plus accepted amendments.
func (r ServiceRequest) TotalCents() int64 {
	return r.AmountCents + r.AdditionalAmountCents
}
