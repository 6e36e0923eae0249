package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

// Zone is a delivery area matched on the leading digits of a pincode.
type Zone struct {
	Prefix           string
	City             string
	BaseCost         int64
	DeliveryDays     int
	CODAvailable     bool
	ExpressAvailable bool
}

// DefaultZones are the metro areas served with zone pricing.
var DefaultZones = []Zone{
	{Prefix: "400", City: "Mumbai", BaseCost: 5000, DeliveryDays: 2, CODAvailable: true, ExpressAvailable: true},
	{Prefix: "560", City: "Bangalore", BaseCost: 7500, DeliveryDays: 3, CODAvailable: true},
	{Prefix: "110", City: "New Delhi", BaseCost: 6000, DeliveryDays: 2, CODAvailable: true, ExpressAvailable: true},
}

var fallbackZone = Zone{BaseCost: 7500, DeliveryDays: 5, CODAvailable: true}

const (
	expressSurcharge = 10000
	includedWeightKg = 1
)

// EstimateInput is a shipping calculator request.
type EstimateInput struct {
	Pincode  string  `json:"pincode" validate:"required,numeric,len=6"`
	WeightKg float64 `json:"weight" validate:"omitempty,gt=0,lte=1000"`
	Express  bool    `json:"is_express"`
}

// Estimate is the calculator result. Costs are minor units.
type Estimate struct {
	Pincode               string  `json:"pincode"`
	WeightKg              float64 `json:"weight"`
	BaseShippingCost      int64   `json:"base_shipping_cost"`
	ExpressCost           int64   `json:"express_cost"`
	TotalShippingCost     int64   `json:"total_shipping_cost"`
	DeliveryDays          int     `json:"delivery_days"`
	CODAvailable          bool    `json:"is_cod_available"`
	ExpressAvailable      bool    `json:"is_express_available"`
	FreeShippingThreshold int64   `json:"free_shipping_threshold"`
}

// Estimator prices standalone delivery quotes. It never feeds order totals.
type Estimator struct {
	zones         []Zone
	perKg         int64
	freeThreshold int64
}

func NewEstimator(zones []Zone, perKgSurcharge, freeThreshold int64) *Estimator {
	if len(zones) == 0 {
		zones = DefaultZones
	}
	return &Estimator{zones: zones, perKg: perKgSurcharge, freeThreshold: freeThreshold}
}

func (e *Estimator) Estimate(input EstimateInput) (*Estimate, error) {
	pincode := strings.TrimSpace(input.Pincode)
	if pincode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode is required")
	}
	weight := input.WeightKg
	if weight <= 0 {
		weight = includedWeightKg
	}

	zone := fallbackZone
	for _, z := range e.zones {
		if strings.HasPrefix(pincode, z.Prefix) {
			zone = z
			break
		}
	}

	base := zone.BaseCost
	if weight > includedWeightKg {
		extra := decimal.NewFromFloat(weight).Sub(decimal.NewFromInt(includedWeightKg))
		base += extra.Mul(decimal.NewFromInt(e.perKg)).Round(0).IntPart()
	}

	days := zone.DeliveryDays
	var express int64
	if input.Express && zone.ExpressAvailable {
		express = expressSurcharge
		days--
		if days < 1 {
			days = 1
		}
	}

	return &Estimate{
		Pincode:               pincode,
		WeightKg:              weight,
		BaseShippingCost:      base,
		ExpressCost:           express,
		TotalShippingCost:     base + express,
		DeliveryDays:          days,
		CODAvailable:          zone.CODAvailable,
		ExpressAvailable:      zone.ExpressAvailable,
		FreeShippingThreshold: e.freeThreshold,
	}, nil
}
