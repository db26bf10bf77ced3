package core

// Display fallbacks for an expense whose category cannot be resolved.
const (
	UncategorizedLabel = "Uncategorized"
	UncategorizedColor = "#6b7280"
)

// Categories is the "all records including deleted" view of the category
// collection, in insertion order.
type Categories []Category

// Active returns the categories that are not soft-deleted, preserving order.
func (cs Categories) Active() Categories {
	out := make(Categories, 0, len(cs))
	for _, c := range cs {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the category with the given id, deleted or not.
func (cs Categories) Find(id int64) (Category, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryLabel is what a consumer needs to display an expense's category.
type CategoryLabel struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Color   string       `json:"color"`
	Type    CategoryType `json:"type"`
	Deleted bool         `json:"deleted"`
	Found   bool         `json:"found"`
}

// Resolve never fails. Soft-deleted categories keep their name and colour; a
// missing one yields the Uncategorized fallback typed as variable.
func (cs Categories) Resolve(id int64) CategoryLabel {
	c, ok := cs.Find(id)
	if !ok {
		return CategoryLabel{
			ID:    id,
			Name:  UncategorizedLabel,
			Color: UncategorizedColor,
			Type:  Variable,
		}
	}
	color := c.Color
	if color == "" {
		color = UncategorizedColor
	}
	return CategoryLabel{
		ID:      c.ID,
		Name:    c.Name,
		Color:   color,
		Type:    c.Type,
		Deleted: c.IsDeleted,
		Found:   true,
	}
}

// DefaultCategories are inserted into an empty store on first start.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Rent", Type: Fixed, Color: "#ef4444"},
		{Name: "Utilities", Type: Fixed, Color: "#f97316"},
		{Name: "Internet", Type: Fixed, Color: "#8b5cf6"},
		{Name: "Groceries", Type: Variable, Color: "#22c55e"},
		{Name: "Transport", Type: Variable, Color: "#3b82f6"},
		{Name: "Entertainment", Type: Variable, Color: "#ec4899"},
		{Name: "Health", Type: Variable, Color: "#14b8a6"},
		{Name: "Other", Type: Variable, Color: "#6b7280"},
	}
}
