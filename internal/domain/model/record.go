// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
)

// Column names a dataset attribute. Values match the CSV header.
type Column string

const (
	ColCompany   Column = "COMPANY"
	ColAddress   Column = "ADDRESS"
	ColCity      Column = "CITY"
	ColState     Column = "STATE"
	ColZIP       Column = "ZIP"
	ColContact   Column = "CONTACT"
	ColEmployees Column = "EMPLOYEES"
	ColSales     Column = "SALES"
	ColSIC       Column = "SIC"
	ColCredit    Column = "CREDIT"
	ColFleet     Column = "FLEET"
	ColLat       Column = "Lat"
	ColLon       Column = "Lon"
)

// AllColumns lists every attribute in source order.
var AllColumns = []Column{
	ColCompany, ColAddress, ColCity, ColState, ColZIP, ColContact,
	ColEmployees, ColSales, ColSIC, ColCredit, ColFleet, ColLat, ColLon,
}

// FilterableColumns are the columns that get a sidebar control.
// Coordinates and the CITY/STATE display columns are excluded.
var FilterableColumns = []Column{
	ColCompany, ColAddress, ColZIP, ColContact,
	ColEmployees, ColSales, ColSIC, ColCredit, ColFleet,
}

// ExcludedFromFilters are the columns never offered as filters.
var ExcludedFromFilters = []Column{ColLat, ColLon, ColCity, ColState}

// ParseColumn resolves a header or query key to a Column, ignoring case
// and surrounding spaces.
func ParseColumn(s string) (Column, bool) {
	s = strings.TrimSpace(s)
	for _, c := range AllColumns {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Filterable reports whether c gets a filter control.
func (c Column) Filterable() bool {
	for _, f := range FilterableColumns {
		if f == c {
			return true
		}
	}
	return false
}

// Record is one row of the business dataset.
type Record struct {
	// Row is the 0-based data row index in the source file.
	Row int `json:"row"`

	Company   string `json:"company"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZIP       string `json:"zip"`
	Contact   string `json:"contact"`
	Employees string `json:"employees"`
	Sales     string `json:"sales"`
	SIC       string `json:"sic"`
	Credit    string `json:"credit"`
	Fleet     string `json:"fleet"`

	// Latitude and Longitude are nil when the source cell was blank or unusable.
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

// Value returns the textual value of a categorical column. Coordinates are
// not categorical and return "".
func (r Record) Value(c Column) string {
	switch c {
	case ColCompany:
		return r.Company
	case ColAddress:
		return r.Address
	case ColCity:
		return r.City
	case ColState:
		return r.State
	case ColZIP:
		return r.ZIP
	case ColContact:
		return r.Contact
	case ColEmployees:
		return r.Employees
	case ColSales:
		return r.Sales
	case ColSIC:
		return r.SIC
	case ColCredit:
		return r.Credit
	case ColFleet:
		return r.Fleet
	default:
		return ""
	}
}

// Set assigns the textual value of a categorical column.
func (r *Record) Set(c Column, v string) {
	switch c {
	case ColCompany:
		r.Company = v
	case ColAddress:
		r.Address = v
	case ColCity:
		r.City = v
	case ColState:
		r.State = v
	case ColZIP:
		r.ZIP = v
	case ColContact:
		r.Contact = v
	case ColEmployees:
		r.Employees = v
	case ColSales:
		r.Sales = v
	case ColSIC:
		r.SIC = v
	case ColCredit:
		r.Credit = v
	case ColFleet:
		r.Fleet = v
	}
}

// HasCoordinates reports whether both coordinates are present and finite.
func (r Record) HasCoordinates() bool {
	if r.Latitude == nil || r.Longitude == nil {
		return false
	}
	return !math.IsNaN(*r.Latitude) && !math.IsInf(*r.Latitude, 0) &&
		!math.IsNaN(*r.Longitude) && !math.IsInf(*r.Longitude, 0)
}

// Float returns a pointer to v; handy for building records in tests and decoders.
func Float(v float64) *float64 { return &v }
