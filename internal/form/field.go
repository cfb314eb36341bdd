// internal/form/field.go
package form

import (
	"math"
	"strings"
)

// FormField is a single editable value. IsValid defaults to true until the
// field has been validated; whenever IsValid is false ErrorMessage is
// non-empty.
type FormField struct {
	Value        string `json:"value"`
	IsRequired   bool   `json:"isRequired"`
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// validate recomputes IsValid and ErrorMessage. A required field with a
// blank value is invalid; everything else passes.
func (f *FormField) validate(label string) {
	if f.IsRequired && strings.TrimSpace(f.Value) == "" {
		f.IsValid = false
		f.ErrorMessage = label + " is required"
		return
	}
	f.IsValid = true
	f.ErrorMessage = ""
}

// clearError resets the field's error state without validating. Used on
// edit: errors clear optimistically and validation re-runs on advance.
func (f *FormField) clearError() {
	f.IsValid = true
	f.ErrorMessage = ""
}

// SectionStatus is the per-section aggregate. IsComplete only becomes true
// by successfully validating every field of the section, and it is sticky:
// nothing resets it except a full template load.
type SectionStatus struct {
	IsComplete   bool   `json:"isComplete"`
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Progress is derived from the status map; it has no independent state.
type Progress struct {
	CurrentSection    Section `json:"currentSection"`
	CompletedSections int     `json:"completedSections"`
	TotalSections     int     `json:"totalSections"`
	PercentComplete   int     `json:"percentComplete"`
}

func computeProgress(current Section, status map[Section]*SectionStatus) Progress {
	completed := 0
	for _, st := range status {
		if st.IsComplete {
			completed++
		}
	}
	return Progress{
		CurrentSection:    current,
		CompletedSections: completed,
		TotalSections:     TotalSections,
		PercentComplete:   int(math.Round(float64(completed) / float64(TotalSections) * 100)),
	}
}
