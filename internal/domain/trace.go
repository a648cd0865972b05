package domain

import "time"

// RawTracePoint is one telemetry record as delivered by the telemetry source.
// Fields are left untyped: values may be numbers, strings or time values.
type RawTracePoint struct {
	Latitude  any
	Longitude any
	DateTime  any
	Speed     any
}

// A normalized GPS sample. Timestamp is UTC; speed is in km/h.
type TracePoint struct {
	Lat       float64
	Lon       float64
	Timestamp time.Time
	SpeedKph  float64
}

// Trace is a formatted telemetry batch. Points keep source order;
// Dropped counts raw points that failed validation.
type Trace struct {
	Points  []TracePoint
	Dropped int
}

// TraceSummary aggregates a trace for display.
type TraceSummary struct {
	Points         int
	DistanceMeters float64
	MaxSpeedKph    float64
	MeanSpeedKph   float64
	Start          time.Time
	End            time.Time
}

// RawException is one safety-rule event as delivered by the telemetry source.
type RawException struct {
	DeviceID string
	Rule     string
	Start    any
	End      any
	Duration any
	Details  string
}

// SafetyException is a normalized rule-violation window. Start <= End always holds.
type SafetyException struct {
	Type            string
	Start           time.Time
	End             time.Time
	DurationSeconds float64
	Details         string
}

// Contains reports whether t lies in [Start, End].
func (e SafetyException) Contains(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// NoException marks trace points outside every exception window.
const NoException = "--"

// AnnotatedPoint is a trace point tagged with the highest-priority exception covering it.
type AnnotatedPoint struct {
	TracePoint
	ExceptionType    string
	ExceptionDetails string
}

// Annotation is the safety overlay for one trace.
type Annotation struct {
	Points     []AnnotatedPoint
	Exceptions []SafetyException
	// Discarded counts raw exceptions with unparseable bounds.
	Discarded int
}
