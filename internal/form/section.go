// internal/form/section.go
package form

// Section is one fixed stage of the multi-step application form.
type Section string

const (
	SectionBasic      Section = "basic"
	SectionObjectives Section = "objectives"
	SectionActivities Section = "activities"
	SectionOutcomes   Section = "outcomes"
	SectionBudget     Section = "budget"
	SectionStudents   Section = "students"
	SectionReferences Section = "references"
)

// sectionOrder is total and fixed; it defines both rendering order and
// gating order.
var sectionOrder = []Section{
	SectionBasic,
	SectionObjectives,
	SectionActivities,
	SectionOutcomes,
	SectionBudget,
	SectionStudents,
	SectionReferences,
}

// Sections returns the fixed section order.
func Sections() []Section {
	out := make([]Section, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// TotalSections is the number of form stages.
const TotalSections = 7

// Index returns the position of s in the fixed order, or -1 when unknown.
func (s Section) Index() int {
	for i, sec := range sectionOrder {
		if sec == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is one of the seven known sections.
func (s Section) IsValid() bool {
	return s.Index() >= 0
}

// IsLast reports whether s is the final section before submission.
func (s Section) IsLast() bool {
	return s == sectionOrder[len(sectionOrder)-1]
}

func (s Section) next() (Section, bool) {
	i := s.Index()
	if i < 0 || i >= len(sectionOrder)-1 {
		return s, false
	}
	return sectionOrder[i+1], true
}

func (s Section) prev() (Section, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return sectionOrder[i-1], true
}

// FieldDef declares one editable field of a section.
type FieldDef struct {
	Name     string
	Label    string
	Required bool
}

// sectionFields declares the fields of every section. The set is fixed:
// sessions materialize their mutable state from these definitions.
var sectionFields = map[Section][]FieldDef{
	SectionBasic: {
		{Name: "projectTitle", Label: "Project Title", Required: true},
		{Name: "piName", Label: "Principal Investigator", Required: true},
		{Name: "email", Label: "Contact Email", Required: true},
		{Name: "startDate", Label: "Start Date", Required: true},
		{Name: "endDate", Label: "End Date", Required: true},
	},
	SectionObjectives: {
		{Name: "mainObjectives", Label: "Main Objectives", Required: true},
		{Name: "literatureReview", Label: "Literature Review", Required: true},
	},
	SectionActivities: {
		{Name: "methodology", Label: "Methodology", Required: true},
		{Name: "timeline", Label: "Timeline", Required: true},
	},
	SectionOutcomes: {
		{Name: "expectedOutcomes", Label: "Expected Outcomes", Required: true},
		{Name: "impact", Label: "Broader Impact", Required: false},
	},
	SectionBudget: {
		{Name: "personnelCosts", Label: "Personnel Costs", Required: true},
		{Name: "equipmentCosts", Label: "Equipment Costs", Required: false},
		{Name: "justification", Label: "Budget Justification", Required: true},
	},
	SectionStudents: {
		{Name: "studentInvolvement", Label: "Student Involvement", Required: true},
		{Name: "numberOfStudents", Label: "Number of Students", Required: false},
	},
	SectionReferences: {
		{Name: "bibliography", Label: "Bibliography", Required: true},
	},
}

// FieldsOf returns the field definitions of a section.
func FieldsOf(s Section) []FieldDef {
	defs := sectionFields[s]
	out := make([]FieldDef, len(defs))
	copy(out, defs)
	return out
}
