package preprocess

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/metrics"
)

// enumSuffixes mark field names whose values are enum codes.
var enumSuffixes = []string{"_TYPE", "_STATUS", "_ROLE", "_RESULT", "_ZONE", "_KIND", "_CODE"}

// enumAllowlist covers enum fields whose names do not carry a suffix.
var enumAllowlist = map[string]struct{}{
	"EVENTMSGTYPE":       {},
	"EVENTMSGACTIONTYPE": {},
	"PERSONTYPE":         {},
	"GAME_STATUS_ID":     {},
}

// eventMsgTypes maps NBA-Stats event message type codes to canonical tokens.
var eventMsgTypes = map[int]string{
	1:  "shot",
	2:  "shot",
	3:  "free_throw",
	4:  "rebound",
	5:  "turnover",
	6:  "foul",
	7:  "violation",
	8:  "substitution",
	9:  "timeout",
	10: "jump_ball",
	11: "ejection",
	12: "period_start",
	13: "period_end",
	18: "instant_replay",
}

// defaultEventType is the safe fallback for unknown event message codes.
// Unknowns are counted as schema drift, never dropped.
const defaultEventType = "shot"

// IsEnumField reports whether a field name is treated as an enum column.
func IsEnumField(name string) bool {
	upper := strings.ToUpper(name)
	if _, ok := enumAllowlist[upper]; ok {
		return true
	}
	for _, suffix := range enumSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

// MapEventType converts an event message type code (int or stringified int)
// to the canonical event token. Unknown codes return the safe default and
// record a schema_drift metric.
func MapEventType(v any, m *metrics.Registry) string {
	code, err := ToIntOrNil(v)
	if err == nil && code != nil {
		if token, ok := eventMsgTypes[*code]; ok {
			return token
		}
	}
	// Already-canonical string tokens pass through.
	if s, ok := v.(string); ok {
		lower := strings.ToLower(strings.TrimSpace(s))
		for _, token := range eventMsgTypes {
			if lower == token {
				return token
			}
		}
	}

	if m != nil {
		m.SchemaDrift.WithLabelValues("event_type").Inc()
	}
	log.Warn().
		Str("event", "schema_drift").
		Str("field", "event_type").
		Interface("value", v).
		Str("mapped_to", defaultEventType).
		Msg("unknown event message type code")
	return defaultEventType
}

// Row is a flat field dictionary produced by an extractor.
type Row map[string]any

// Normalize applies enum stringification to every enum-pattern field in the
// row and returns the same row for chaining. EVENTMSGTYPE additionally gets
// its canonical token in EVENT_TYPE. Non-enum fields are left for the typed
// coercion helpers at transform time.
func Normalize(row Row, m *metrics.Registry) Row {
	for field, v := range row {
		upper := strings.ToUpper(field)
		if upper == "EVENTMSGTYPE" {
			row["EVENT_TYPE"] = MapEventType(v, m)
			continue
		}
		if !IsEnumField(field) {
			continue
		}
		s, err := ToStrOrNil(v)
		if err != nil {
			if m != nil {
				m.SchemaDrift.WithLabelValues(field).Inc()
			}
			log.Warn().
				Str("event", "schema_drift").
				Str("field", field).
				Interface("value", v).
				Msg("enum field could not be stringified")
			row[field] = nil
			continue
		}
		if s == nil {
			row[field] = nil
		} else {
			row[field] = *s
		}
	}
	return row
}
