package domain

// Category is the topical bucket a prompt is classified into
type Category string

const (
	CategoryWriting     Category = "writing"
	CategoryCreative    Category = "creative"
	CategoryBusiness    Category = "business"
	CategoryTechnical   Category = "technical"
	CategoryEducational Category = "educational"
	CategoryAnalysis    Category = "analysis"
	CategoryGeneral     Category = "general"
)

// Categories lists every category in declaration order. Classification ties
// resolve to the earliest entry.
var Categories = []Category{
	CategoryWriting,
	CategoryCreative,
	CategoryBusiness,
	CategoryTechnical,
	CategoryEducational,
	CategoryAnalysis,
	CategoryGeneral,
}

func (c Category) String() string {
	return string(c)
}
