package types

import "fmt"

// Category is the storage bucket a file belongs to.
// The string value is the identifier used on the wire.
type Category string

const (
	CategoryAssignments  Category = "ASSIGNMENTS"
	CategoryLectureNotes Category = "LECTURE_NOTES"
	CategoryOthers       Category = "OTHERS"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{CategoryAssignments, CategoryLectureNotes, CategoryOthers}
}

// Dir returns the subdirectory name used for the category under the transfer root.
func (c Category) Dir() string {
	switch c {
	case CategoryAssignments:
		return "assignments"
	case CategoryLectureNotes:
		return "lecture_notes"
	case CategoryOthers:
		return "others"
	}
	return ""
}

func (c Category) Valid() bool {
	return c.Dir() != ""
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory maps a wire identifier to a Category. Matching is case-sensitive.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", &TransferError{Kind: KindUnknownCategory, Field: "category", Err: fmt.Errorf("unknown category %q", s)}
	}
	return c, nil
}
