package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// Session identifies the phase of the US equity trading day.
type Session int

const (
	SessionClosed Session = iota
	SessionPremarket
	SessionRegular
	SessionAfterHours
)

// -----------------------------------------------------------------------------

// MarketSessions answers session-phase questions for US listings using the
// scmhub calendar for holidays and a fixed ET clock for session windows
// (premarket 04:00-09:30, regular 09:30-16:00, after-hours 16:00-20:00).
type MarketSessions struct {
	Calendar *calendar.Calendar
	Timezone *time.Location
	fallback bool
}

// -----------------------------------------------------------------------------

func NewMarketSessions() *MarketSessions {
	// US listings only; the universe registry excludes foreign suffixes.
	cal := calendar.GetCalendar("xnys")

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}

	if cal == nil {
		// Without a calendar, fall back to Mon-Fri.
		return &MarketSessions{Timezone: loc, fallback: true}
	}
	return &MarketSessions{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsTradingDay reports whether the given date is a US trading day.
func (m *MarketSessions) IsTradingDay(t time.Time) bool {
	t = t.In(m.Timezone)
	if m.fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return m.Calendar.IsBusinessDay(t)
}

// -----------------------------------------------------------------------------

// At returns the session phase at the given instant.
func (m *MarketSessions) At(t time.Time) Session {
	if !m.IsTradingDay(t) {
		return SessionClosed
	}

	t = t.In(m.Timezone)
	mins := t.Hour()*60 + t.Minute()

	switch {
	case mins >= 4*60 && mins < 9*60+30:
		return SessionPremarket
	case mins >= 9*60+30 && mins < 16*60:
		return SessionRegular
	case mins >= 16*60 && mins < 20*60:
		return SessionAfterHours
	default:
		return SessionClosed
	}
}

// -----------------------------------------------------------------------------

func (m *MarketSessions) IsPremarket(t time.Time) bool {
	return m.At(t) == SessionPremarket
}

func (m *MarketSessions) IsRegularHours(t time.Time) bool {
	return m.At(t) == SessionRegular
}
