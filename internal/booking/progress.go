package booking

import (
	"strings"
)

const (
	ExperienceGFE = "GFE"
	ExperiencePSE = "PSE"

	ModeIncall  = "Incall"
	ModeOutcall = "Outcall"
)

// Progress is the partial booking collected across messages. Empty strings
// mean the field has not been captured yet.
type Progress struct {
	City           string `json:"city,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Experience     string `json:"experience,omitempty"`
	Mode           string `json:"incall_outcall,omitempty"`
	OutcallAddress string `json:"outcall_address,omitempty"`
}

// IsEmpty reports whether no field has been captured.
func (p Progress) IsEmpty() bool {
	return p == Progress{}
}

// Merge returns p updated with every non-empty field of update. Fields that
// update leaves empty keep their previous value.
func (p Progress) Merge(update Progress) Progress {
	merged := p
	merged.City = prefer(update.City, p.City)
	merged.Date = prefer(update.Date, p.Date)
	merged.Time = prefer(update.Time, p.Time)
	merged.Duration = prefer(update.Duration, p.Duration)
	merged.Experience = prefer(update.Experience, p.Experience)
	merged.Mode = prefer(update.Mode, p.Mode)
	merged.OutcallAddress = prefer(update.OutcallAddress, p.OutcallAddress)
	return merged
}

func prefer(next, prev string) string {
	if strings.TrimSpace(next) != "" {
		return next
	}
	return prev
}

// IsOutcall reports whether the client asked to be visited.
func (p Progress) IsOutcall() bool {
	return p.Mode == ModeOutcall
}

// Missing lists the required fields that are still empty, in question order.
func (p Progress) Missing() []Field {
	var missing []Field
	for _, f := range fieldOrder {
		if f == FieldOutcallAddress && !p.IsOutcall() {
			continue
		}
		if strings.TrimSpace(p.value(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every required field is present.
func (p Progress) Complete() bool {
	return len(p.Missing()) == 0
}

func (p Progress) value(f Field) string {
	switch f {
	case FieldCity:
		return p.City
	case FieldDate:
		return p.Date
	case FieldTime:
		return p.Time
	case FieldDuration:
		return p.Duration
	case FieldExperience:
		return p.Experience
	case FieldMode:
		return p.Mode
	case FieldOutcallAddress:
		return p.OutcallAddress
	}
	return ""
}
