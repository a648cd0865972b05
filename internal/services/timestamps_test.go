package services

import (
	"testing"
	"time"
)

func TestParseTimestampFormats(t *testing.T) {
	want := time.Date(2026, 1, 14, 10, 30, 15, 123456000, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"zulu with nanos", "2026-01-14T10:30:15.123456789Z", want},
		{"zulu micros", "2026-01-14T10:30:15.123456Z", want},
		{"offset after fraction", "2026-01-14T05:30:15.123456-05:00", want},
		{"compact offset", "2026-01-14T05:30:15.123456-0500", want},
		{"hour offset", "2026-01-14T05:30:15.123456-05", want},
		{"naive is utc", "2026-01-14 10:30:15.123456", want},
		{"no seconds", "2026-01-14T10:30Z", time.Date(2026, 1, 14, 10, 30, 0, 0, time.UTC)},
		{"time value", want.In(time.FixedZone("EST", -5*3600)), want},
		{"time pointer", &want, want},
		{"fallback us date", "01/14/2026", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)},
		{"fallback slashed", "2026/01/14 10:30:15", time.Date(2026, 1, 14, 10, 30, 15, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.in, "test")
			if !ok {
				t.Fatalf("ParseTimestamp(%v) ok = false", tc.in)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseTimestamp(%v) = %s, want %s", tc.in, got, tc.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %s, want UTC", got.Location())
			}
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	var nilTime *time.Time
	for _, in := range []any{nil, "", "   ", "not a timestamp", 42, time.Time{}, nilTime} {
		if got, ok := ParseTimestamp(in, "test"); ok {
			t.Errorf("ParseTimestamp(%#v) = %s, want failure", in, got)
		}
	}
}

func TestParseTimestampIdempotent(t *testing.T) {
	instants := []time.Time{
		time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 13, 0, 0, 987654321, time.UTC),
		time.Date(2025, 11, 2, 1, 59, 59, 1000, time.FixedZone("X", 3*3600+1800)),
	}

	for _, in := range instants {
		first, ok := ParseTimestamp(in.Format(time.RFC3339Nano), "idempotent")
		if !ok {
			t.Fatalf("first parse of %s failed", in)
		}
		if want := in.UTC().Truncate(time.Microsecond); !first.Equal(want) {
			t.Errorf("first parse = %s, want %s", first, want)
		}

		second, ok := ParseTimestamp(first.Format(time.RFC3339Nano), "idempotent")
		if !ok || !second.Equal(first) {
			t.Errorf("second parse = %s (ok=%v), want %s", second, ok, first)
		}

		again, _ := ParseTimestamp(first, "idempotent")
		if !again.Equal(first) {
			t.Errorf("native reparse = %s, want %s", again, first)
		}
	}
}
