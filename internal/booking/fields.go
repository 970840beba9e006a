package booking

import (
	"fmt"
	"strings"
)

// Field identifies one required booking detail.
type Field int

const (
	FieldCity Field = iota
	FieldDate
	FieldTime
	FieldDuration
	FieldExperience
	FieldMode
	FieldOutcallAddress
)

var fieldOrder = []Field{
	FieldCity,
	FieldDate,
	FieldTime,
	FieldDuration,
	FieldExperience,
	FieldMode,
	FieldOutcallAddress,
}

// Label is the wording used when asking the client for the field.
func (f Field) Label() string {
	switch f {
	case FieldCity:
		return "City"
	case FieldDate:
		return "Date"
	case FieldTime:
		return "Time"
	case FieldDuration:
		return "Duration"
	case FieldExperience:
		return "Experience (GFE/PSE)"
	case FieldMode:
		return "Incall or Outcall"
	case FieldOutcallAddress:
		return "Outcall address"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

func (f Field) String() string {
	return f.Label()
}

// MissingFieldsQuestion words a request for exactly the given fields.
func MissingFieldsQuestion(missing []Field) string {
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		labels = append(labels, f.Label())
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return "I just need your " + labels[0]
	case 2:
		return "I just need your " + labels[0] + " and " + labels[1]
	default:
		return "I still need: " + strings.Join(labels, ", ")
	}
}
