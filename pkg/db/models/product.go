package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog listing. Prices are in minor currency units.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name          string           `gorm:"column:name;not null"`
	Description   string           `gorm:"column:description;not null;default:''"`
	CategoryID    *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Material      string           `gorm:"column:material;not null;default:'100% Cotton'"`
	GSM           *string          `gorm:"column:gsm"`
	BasePrice     int64            `gorm:"column:base_price;not null"`
	BulkPrice     int64            `gorm:"column:bulk_price;not null"`
	BulkThreshold int              `gorm:"column:bulk_threshold;not null;default:15"`
	IsActive      bool             `gorm:"column:is_active;not null;default:true"`
	Category      *Category        `gorm:"foreignKey:CategoryID"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
