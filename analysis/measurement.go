package analysis

// Measurement is a raw quantity that may be absent upstream.
type Measurement struct {
	Value float64
	Valid bool
}

// Known wraps a present value.
func Known(v float64) Measurement {
	return Measurement{Value: v, Valid: true}
}

// Missing is the zero Measurement.
var Missing = Measurement{}

// perMatch divides total by played, missing when played is zero.
func perMatch(total, played int) Measurement {
	if played <= 0 {
		return Missing
	}
	return Known(float64(total) / float64(played))
}

// InjuryCount is the number of unavailable key players for a team.
type InjuryCount struct {
	Count int
	Known bool
}

// Injuries returns a known injury count. Negative values are treated as zero.
func Injuries(n int) InjuryCount {
	if n < 0 {
		n = 0
	}
	return InjuryCount{Count: n, Known: true}
}

// UnknownInjuries means no injury data was available.
var UnknownInjuries = InjuryCount{}
