package liege

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

const dateLayout = "2006-01-02"

// Garage represents an off-street parking garage
type Garage struct {
	Name             string    `json:"name"`
	Capacity         null.Int  `json:"capacity"`
	ChargingStations int       `json:"charging_stations"`
	Address          string    `json:"address"`
	Municipality     string    `json:"municipality"`
	City             string    `json:"city"`
	Provider         string    `json:"provider"`
	Schedule         string    `json:"schedule"`
	URL              string    `json:"url"`
	Longitude        float64   `json:"longitude"`
	Latitude         float64   `json:"latitude"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasChargingStations reports whether the garage offers EV charging
func (g Garage) HasChargingStations() bool {
	return g.ChargingStations > 0
}

// DisabledParking represents a parking spot reserved for disabled people
type DisabledParking struct {
	SpotID       string    `json:"spot_id"`
	Number       int       `json:"number"`
	Address      string    `json:"address"`
	Municipality string    `json:"municipality"`
	City         string    `json:"city"`
	Status       string    `json:"status"`
	Longitude    float64   `json:"longitude"`
	Latitude     float64   `json:"latitude"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the spot is marked active
func (p DisabledParking) IsActive() bool {
	return strings.EqualFold(p.Status, "active")
}

// NewGarage maps a raw garage record to a Garage
func NewGarage(rec Record) (Garage, error) {
	attr, lon, lat, err := recordShape(rec)
	if err != nil {
		return Garage{}, err
	}

	capacity, err := attr.integer("available_spaces")
	if err != nil {
		return Garage{}, err
	}
	charging, err := attr.integer("charging_stations")
	if err != nil {
		return Garage{}, err
	}
	created, updated, err := attr.timestamps()
	if err != nil {
		return Garage{}, err
	}
	address, err := attr.address()
	if err != nil {
		return Garage{}, err
	}

	return Garage{
		Name:             attr.str("title"),
		Capacity:         capacity,
		ChargingStations: int(charging.ValueOrZero()),
		Address:          address,
		Municipality:     attr.str("municipality"),
		City:             attr.str("city"),
		Provider:         attr.str("provider"),
		Schedule:         attr.str("schedule"),
		URL:              attr.str("website"),
		Longitude:        lon,
		Latitude:         lat,
		CreatedAt:        created,
		UpdatedAt:        updated,
	}, nil
}

// NewDisabledParking maps a raw disabled parking record to a DisabledParking
func NewDisabledParking(rec Record) (DisabledParking, error) {
	attr, lon, lat, err := recordShape(rec)
	if err != nil {
		return DisabledParking{}, err
	}

	if rec.RecordID == "" {
		return DisabledParking{}, fieldError("recordid", "missing record identifier", nil)
	}
	number, err := attr.integer("available_spaces")
	if err != nil {
		return DisabledParking{}, err
	}
	created, updated, err := attr.timestamps()
	if err != nil {
		return DisabledParking{}, err
	}
	address, err := attr.address()
	if err != nil {
		return DisabledParking{}, err
	}

	return DisabledParking{
		SpotID:       rec.RecordID,
		Number:       int(number.ValueOrZero()),
		Address:      address,
		Municipality: attr.str("municipality"),
		City:         attr.str("city"),
		Status:       attr.str("status"),
		Longitude:    lon,
		Latitude:     lat,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}, nil
}

// recordShape checks the envelope every dataset shares and extracts the point.
func recordShape(rec Record) (fields, float64, float64, error) {
	if rec.Fields == nil {
		return nil, 0, 0, fieldError("fields", "record has no fields", nil)
	}
	if rec.Geometry == nil {
		return nil, 0, 0, fieldError("geometry", "record has no geometry", nil)
	}
	if len(rec.Geometry.Coordinates) < 2 {
		return nil, 0, 0, fieldError("geometry.coordinates", "expected [longitude, latitude]", nil)
	}
	return fields(rec.Fields), rec.Geometry.Coordinates[0], rec.Geometry.Coordinates[1], nil
}

// fields wraps the loosely typed attribute map of a record
type fields map[string]any

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (f fields) integer(key string) (null.Int, error) {
	switch v := f[key].(type) {
	case nil:
		return null.Int{}, nil
	case float64:
		if v != math.Trunc(v) {
			return null.Int{}, fieldError(key, "expected an integer", fmt.Errorf("got %v", v))
		}
		if v >= math.MaxInt64 || v < math.MinInt64 {
			return null.Int{}, fieldError(key, "integer out of range", fmt.Errorf("got %v", v))
		}
		return null.IntFrom(int64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return null.Int{}, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return null.Int{}, fieldError(key, "expected an integer", err)
		}
		return null.IntFrom(n), nil
	default:
		return null.Int{}, fieldError(key, "expected an integer", fmt.Errorf("got %T", v))
	}
}

func (f fields) date(key string) (time.Time, error) {
	raw, ok := f[key].(string)
	if !ok {
		return time.Time{}, fieldError(key, "missing date", nil)
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fieldError(key, "invalid date", err)
	}
	return t, nil
}

func (f fields) timestamps() (created, updated time.Time, err error) {
	if created, err = f.date("created"); err != nil {
		return
	}
	updated, err = f.date("last_modified")
	return
}

// address renders "{street} {number}, {postal_code}", dropping absent parts.
// A record with none of the parts has no usable address.
func (f fields) address() (string, error) {
	addr := composeAddress(f.str("street_name"), f.str("house_number"), f.str("postal_code"))
	if addr == "" {
		return "", fieldError("street_name", "record has no street name, house number or postal code", nil)
	}
	return addr, nil
}

func composeAddress(street, number, postalCode string) string {
	line := strings.TrimSpace(strings.Join([]string{street, number}, " "))
	switch {
	case line == "":
		return postalCode
	case postalCode == "":
		return line
	default:
		return line + ", " + postalCode
	}
}
