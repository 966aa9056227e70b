package fabriclog

import (
	"time"
)

// DateLayout is the format of the date column written by sinks.
const DateLayout = "2006/01/02"

// FabricRecord describes one purchased fabric item. Every field is optional:
// extraction is best-effort and the operator fills in what the model missed.
type FabricRecord struct {
	Name          string    `json:"name" yaml:"name" mapstructure:"name"`
	Material      string    `json:"material" yaml:"material" mapstructure:"material"`
	Width         string    `json:"width" yaml:"width" mapstructure:"width"`                   // free-form, e.g. "110cm"
	LengthM       float64   `json:"length" yaml:"length" mapstructure:"length"`                // meters
	TotalPrice    int64     `json:"total_price" yaml:"total_price" mapstructure:"total_price"` // currency units
	UnitPricePerM int64     `json:"unit_price_per_m" yaml:"unit_price_per_m" mapstructure:"unit_price_per_m"`
	Color         string    `json:"color" yaml:"color" mapstructure:"color"`
	Shop          string    `json:"shop" yaml:"shop" mapstructure:"shop"`
	CapturedAt    time.Time `json:"captured_at" yaml:"-" mapstructure:"-"`
}

// recordKeys is the key set the instruction template asks the model for.
var recordKeys = []string{"name", "material", "width", "length", "total_price", "color", "shop"}

// RecordKeys returns the JSON keys the model is asked to produce.
func RecordKeys() []string {
	return append([]string(nil), recordKeys...)
}

// Header returns the column titles matching Row.
func Header() []any {
	return []any{"date", "name", "material", "width", "length_m", "total_price", "unit_price_per_m", "color", "shop"}
}

// Row returns the record as one flat spreadsheet row. The date column is the
// capture date when set, otherwise today in the local zone.
func (r FabricRecord) Row() []any {
	date := r.CapturedAt
	if date.IsZero() {
		date = time.Now()
	}
	return []any{
		date.Format(DateLayout),
		r.Name,
		r.Material,
		r.Width,
		r.LengthM,
		r.TotalPrice,
		r.UnitPricePerM,
		r.Color,
		r.Shop,
	}
}

// Clone returns a copy that shares nothing with r.
func (r *FabricRecord) Clone() *FabricRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
