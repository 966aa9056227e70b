package fabriclog

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Edits holds the operator's corrections. A nil field keeps the candidate's value.
type Edits struct {
	Name       *string
	Material   *string
	Width      *string
	LengthM    *float64
	TotalPrice *int64
	Color      *string
	Shop       *string
}

// UnitPrice is floor(totalPrice / lengthM) for a positive length and 0 otherwise.
func UnitPrice(totalPrice int64, lengthM float64) int64 {
	if lengthM <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalPrice).
		Div(decimal.NewFromFloat(lengthM)).
		Floor().
		IntPart()
}

// Reconcile applies edits to candidate and recomputes the unit price from the
// edited length and total. Nothing is validated: an empty name is a valid
// record. Reconciling a reconciled record again returns it unchanged.
func Reconcile(candidate FabricRecord, e Edits) FabricRecord {
	out := candidate
	if e.Name != nil {
		out.Name = strings.TrimSpace(*e.Name)
	}
	if e.Material != nil {
		out.Material = strings.TrimSpace(*e.Material)
	}
	if e.Width != nil {
		out.Width = strings.TrimSpace(*e.Width)
	}
	if e.LengthM != nil {
		out.LengthM = *e.LengthM
	}
	if e.TotalPrice != nil {
		out.TotalPrice = *e.TotalPrice
	}
	if e.Color != nil {
		out.Color = strings.TrimSpace(*e.Color)
	}
	if e.Shop != nil {
		out.Shop = strings.TrimSpace(*e.Shop)
	}
	out.UnitPricePerM = UnitPrice(out.TotalPrice, out.LengthM)
	return out
}

// EditsFromForm reads edits from submitted form fields named like the JSON
// keys. Absent fields are left nil; numbers are read as leniently as model
// output, and an unreadable or blank number counts as 0.
func EditsFromForm(form url.Values) Edits {
	var e Edits
	text := func(key string) *string {
		if _, ok := form[key]; !ok {
			return nil
		}
		v := form.Get(key)
		return &v
	}
	e.Name = text("name")
	e.Material = text("material")
	e.Width = text("width")
	e.Color = text("color")
	e.Shop = text("shop")
	if _, ok := form["length"]; ok {
		f, _ := parseLength(form.Get("length"))
		e.LengthM = &f
	}
	if _, ok := form["total_price"]; ok {
		f, _ := parseNumber(form.Get("total_price"))
		p := decimal.NewFromFloat(f).Round(0).IntPart()
		e.TotalPrice = &p
	}
	return e
}

// EditsFromRecord returns edits that overwrite every editable field with r's values.
func EditsFromRecord(r FabricRecord) Edits {
	return Edits{
		Name:       &r.Name,
		Material:   &r.Material,
		Width:      &r.Width,
		LengthM:    &r.LengthM,
		TotalPrice: &r.TotalPrice,
		Color:      &r.Color,
		Shop:       &r.Shop,
	}
}
