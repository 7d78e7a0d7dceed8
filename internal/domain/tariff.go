package domain

import "time"

// Rate holds the price per kWh for one connector class.
type Rate struct {
	Day   float64
	Night float64
}

// OffPeakWindow is a daily [StartHour, EndHour) interval that may wrap past midnight.
type OffPeakWindow struct {
	StartHour int
	EndHour   int
}

// Contains reports whether the wall-clock hour of t falls inside the window.
func (w OffPeakWindow) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour == w.EndHour {
		return false
	}
	if w.StartHour < w.EndHour {
		return h >= w.StartHour && h < w.EndHour
	}
	return h >= w.StartHour || h < w.EndHour
}

// NextStart returns the first window start at or after t, in t's location.
func (w OffPeakWindow) NextStart(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), w.StartHour, 0, 0, 0, t.Location())
	if start.Before(t) {
		start = time.Date(t.Year(), t.Month(), t.Day()+1, w.StartHour, 0, 0, 0, t.Location())
	}
	return start
}

// TariffTable is a time-of-use tariff keyed by connector class and day/night period.
// Location is the zone the off-peak hours are expressed in; nil means the
// instant's own location.
type TariffTable struct {
	AC       Rate
	DC       Rate
	OffPeak  OffPeakWindow
	Location *time.Location
}

// DefaultTariff returns the built-in EUR tariff with a 22:00-06:00 off-peak window.
func DefaultTariff(loc *time.Location) TariffTable {
	return TariffTable{
		AC:       Rate{Day: 0.28, Night: 0.18},
		DC:       Rate{Day: 0.45, Night: 0.35},
		OffPeak:  OffPeakWindow{StartHour: 22, EndHour: 6},
		Location: loc,
	}
}

func (t TariffTable) local(at time.Time) time.Time {
	if t.Location == nil {
		return at
	}
	return at.In(t.Location)
}

// PriceAt returns the price per kWh for a class at the given instant.
func (t TariffTable) PriceAt(class ChargerClass, at time.Time) float64 {
	rate := t.AC
	if class == ClassDC {
		rate = t.DC
	}
	if t.OffPeak.Contains(t.local(at)) {
		return rate.Night
	}
	return rate.Day
}

// NextOffPeakStart returns the next off-peak start at or after the instant.
func (t TariffTable) NextOffPeakStart(at time.Time) time.Time {
	return t.OffPeak.NextStart(t.local(at))
}
