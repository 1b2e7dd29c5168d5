package surety

// StatusCode is a flight status as reported by oracles. The numeric values
// are part of the wire contract with oracle operators.
type StatusCode uint32

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

// Valid reports whether c is one of the defined status codes.
func (c StatusCode) Valid() bool {
	switch c {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

// Fault reports whether c obligates the insurer to credit insurees.
func (c StatusCode) Fault() bool {
	return c == StatusLateAirline
}

func (c StatusCode) String() string {
	switch c {
	case StatusUnknown:
		return "unknown"
	case StatusOnTime:
		return "on_time"
	case StatusLateAirline:
		return "late_airline"
	case StatusLateWeather:
		return "late_weather"
	case StatusLateTechnical:
		return "late_technical"
	case StatusLateOther:
		return "late_other"
	}
	return "invalid"
}
