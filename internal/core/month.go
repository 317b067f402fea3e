package core

import "time"

const monthKeyLayout = "2006-01"

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// ParseMonthKey validates s and returns it as a MonthKey.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(t.Format(monthKeyLayout)), nil
}

// MonthKeyOf returns the month containing d.
func MonthKeyOf(d Date) MonthKey {
	return MonthKey(d.Format(monthKeyLayout))
}

// MonthKeyFromTime returns the month containing t in t's location.
func MonthKeyFromTime(t time.Time) MonthKey {
	return MonthKeyOf(DateOf(t))
}

func (m MonthKey) String() string { return string(m) }

// Valid reports whether m is a well-formed month key.
func (m MonthKey) Valid() bool {
	_, err := time.Parse(monthKeyLayout, string(m))
	return err == nil
}

// FirstDay returns the first calendar day of the month, or the zero Date for an
// invalid key.
func (m MonthKey) FirstDay() Date {
	t, err := time.Parse(monthKeyLayout, string(m))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// LastDay returns the last calendar day of the month.
func (m MonthKey) LastDay() Date {
	first := m.FirstDay()
	if first.IsZero() {
		return Date{}
	}
	return Date{Time: first.AddDate(0, 1, -1)}
}

// AddMonths shifts the key by n months.
func (m MonthKey) AddMonths(n int) MonthKey {
	first := m.FirstDay()
	if first.IsZero() {
		return m
	}
	return MonthKeyOf(Date{Time: first.AddDate(0, n, 0)})
}

func (m MonthKey) Previous() MonthKey { return m.AddMonths(-1) }
func (m MonthKey) Next() MonthKey     { return m.AddMonths(1) }

// Contains reports whether d falls in the month.
func (m MonthKey) Contains(d Date) bool {
	return MonthKeyOf(d) == m
}

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Label returns the fixed three-letter English month abbreviation.
func (m MonthKey) Label() string {
	first := m.FirstDay()
	if first.IsZero() {
		return ""
	}
	return monthLabels[first.Month()-1]
}
