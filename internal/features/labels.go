package features

import "slices"

// LabelEncoder is a bijection between category labels and dense integer
// codes. Codes follow the lexicographic order of the labels.
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

// NewLabelEncoder builds an encoder over the distinct values of labels.
func NewLabelEncoder(labels []string) *LabelEncoder {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &LabelEncoder{classes: classes, codes: codes}
}

// Encode returns the code of label, or false when label was not seen.
func (e *LabelEncoder) Encode(label string) (int, bool) {
	code, ok := e.codes[label]
	return code, ok
}

// Decode returns the label of code, or false when code is out of range.
func (e *LabelEncoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.classes) {
		return "", false
	}
	return e.classes[code], true
}

// Classes returns a copy of the labels in code order.
func (e *LabelEncoder) Classes() []string { return slices.Clone(e.classes) }

// Len returns the number of classes.
func (e *LabelEncoder) Len() int { return len(e.classes) }
