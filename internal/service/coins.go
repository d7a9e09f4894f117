package service

import (
	"math"
	"regexp"
	"time"
)

// Coin economy constants. Regular missions accrue in fixed steps up to a
// per-student daily cap; emergency missions carry a fixed teacher-reviewed
// reward; the class bonus is a one-time daily credit.
const (
	dailyRegularCap    = 2.0
	regularMissionStep = 0.5
	emergencyReward    = 3.0
	classBonusCoin     = 2.0
)

const dateLayout = "20060102"

var datePattern = regexp.MustCompile(`^\d{8}$`)

// roundCoin rounds to 2 decimals, matching the ledger column scale.
func roundCoin(value float64) float64 {
	return math.Round(value*100) / 100
}

// ensureDate validates an 8-digit YYYYMMDD key, falling back to today.
func ensureDate(date string) string {
	if datePattern.MatchString(date) {
		return date
	}
	return time.Now().Format(dateLayout)
}

// regularDelta computes the submission delta for a regular mission given the
// coins already counted toward today's cap.
func regularDelta(dailySoFar float64) float64 {
	remaining := dailyRegularCap - dailySoFar
	if remaining <= 0 {
		return 0
	}
	return roundCoin(math.Min(regularMissionStep, remaining))
}
