package validation

// Constraint is one extracted, not-yet-compiled rule against a single slot.
// A slot with, say, both Required and a Pattern produces two Constraints.
type Constraint struct {
	Kind ConstraintKind
	Slot string

	Pattern          string
	Enum             []string
	MinCardinality   *int
	MaxCardinality   *int
	ExactCardinality *int
	SubpropertyOf    string
	IDPrefixes       []string
}

// ExtractConstraints walks a class's slots and produces one Constraint per
// declared rule, per §4.J step 1.
func ExtractConstraints(class *Class) []Constraint {
	var out []Constraint
	for _, slot := range class.Slots {
		if slot.Required {
			out = append(out, Constraint{Kind: KindRequired, Slot: slot.Name})
		}
		if slot.Recommended {
			out = append(out, Constraint{Kind: KindRecommended, Slot: slot.Name})
		}
		if slot.Pattern != "" {
			out = append(out, Constraint{Kind: KindPattern, Slot: slot.Name, Pattern: slot.Pattern})
		}
		if len(slot.Enum) > 0 {
			out = append(out, Constraint{Kind: KindEnum, Slot: slot.Name, Enum: slot.Enum})
		}
		if slot.Identifier {
			out = append(out, Constraint{Kind: KindIdentifier, Slot: slot.Name})
		}
		if slot.Multivalued {
			out = append(out, Constraint{Kind: KindMultivalued, Slot: slot.Name})
		}
		if slot.MinCardinality != nil || slot.MaxCardinality != nil || slot.ExactCardinality != nil {
			out = append(out, Constraint{
				Kind:             KindCardinality,
				Slot:             slot.Name,
				MinCardinality:   slot.MinCardinality,
				MaxCardinality:   slot.MaxCardinality,
				ExactCardinality: slot.ExactCardinality,
			})
		}
		if slot.SubpropertyOf != "" {
			out = append(out, Constraint{Kind: KindSubpropertyOf, Slot: slot.Name, SubpropertyOf: slot.SubpropertyOf})
		}
		if len(slot.IDPrefixes) > 0 {
			out = append(out, Constraint{Kind: KindIDPrefix, Slot: slot.Name, IDPrefixes: slot.IDPrefixes})
		}
	}
	return out
}
