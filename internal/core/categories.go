package core

// Categories is the closed set a cluster theme may be filed under. Theme
// generation coerces anything outside this set to CategoryOther.
var Categories = []string{
	"AI & Machine Learning",
	"Engineering",
	"Product & Design",
	"Business & Markets",
	"Security & Privacy",
	"Science",
	"Society & Culture",
	CategoryOther,
}

// CategoryOther is the fallback category for unrecognized values.
const CategoryOther = "Other"

// NormalizeCategory coerces a raw category value to the fixed set,
// returning CategoryOther for anything it does not recognize.
func NormalizeCategory(raw string) string {
	for _, c := range Categories {
		if c == raw {
			return c
		}
	}
	return CategoryOther
}
