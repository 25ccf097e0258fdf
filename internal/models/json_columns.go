package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func valueJSON(v interface{}) (driver.Value, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// TimeWindows is a JSON column holding venue availability.
type TimeWindows []TimeWindow

// Scan implements sql.Scanner.
func (w *TimeWindows) Scan(src interface{}) error {
	var windows []TimeWindow
	if err := scanJSON(src, &windows); err != nil {
		return fmt.Errorf("scan time windows: %w", err)
	}
	*w = windows
	return nil
}

// Value implements driver.Valuer.
func (w TimeWindows) Value() (driver.Value, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return valueJSON([]TimeWindow(w))
}

// WeeklyAvailability maps a weekday to the windows a lecturer can teach. Missing days are unavailable.
type WeeklyAvailability map[DayOfWeek][]ClockRange

// Scan implements sql.Scanner.
func (a *WeeklyAvailability) Scan(src interface{}) error {
	availability := map[DayOfWeek][]ClockRange{}
	if err := scanJSON(src, &availability); err != nil {
		return fmt.Errorf("scan weekly availability: %w", err)
	}
	*a = availability
	return nil
}

// Value implements driver.Valuer.
func (a WeeklyAvailability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return valueJSON(map[DayOfWeek][]ClockRange(a))
}

// Scan implements sql.Scanner.
func (p *LecturerPreferences) Scan(src interface{}) error {
	var prefs LecturerPreferences
	if err := scanJSON(src, &prefs); err != nil {
		return fmt.Errorf("scan lecturer preferences: %w", err)
	}
	*p = prefs
	return nil
}

// Value implements driver.Valuer.
func (p LecturerPreferences) Value() (driver.Value, error) {
	return valueJSON(p)
}

// Scan implements sql.Scanner.
func (r *ConstraintRule) Scan(src interface{}) error {
	var rule ConstraintRule
	if err := scanJSON(src, &rule); err != nil {
		return fmt.Errorf("scan constraint rule: %w", err)
	}
	*r = rule
	return nil
}

// Value implements driver.Valuer.
func (r ConstraintRule) Value() (driver.Value, error) {
	return valueJSON(r)
}
