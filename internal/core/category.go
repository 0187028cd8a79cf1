package core

// Category is an immutable expense category. IDs are used as foreign keys in
// expenses and limits and must never be renumbered without a data migration.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryOther is the fallback category for records whose stored category
// is no longer registered.
const CategoryOther = "other"

// categories is the fixed registry, in display order.
var categories = []Category{
	{ID: "housing", Name: "Housing", Color: "#e74c3c"},
	{ID: "food", Name: "Food & Groceries", Color: "#e67e22"},
	{ID: "transport", Name: "Transport", Color: "#f1c40f"},
	{ID: "utilities", Name: "Utilities", Color: "#2ecc71"},
	{ID: "health", Name: "Health", Color: "#1abc9c"},
	{ID: "entertainment", Name: "Entertainment", Color: "#3498db"},
	{ID: "shopping", Name: "Shopping", Color: "#9b59b6"},
	{ID: "education", Name: "Education", Color: "#34495e"},
	{ID: "personal", Name: "Personal", Color: "#fd79a8"},
	{ID: "other", Name: "Other", Color: "#95a5a6"},
}

// Categories returns the registry in display order. The returned slice is a
// copy; callers may not mutate the registry.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryByID looks up a category by its stable id.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ValidCategory reports whether id names a registered category.
func ValidCategory(id string) bool {
	_, ok := CategoryByID(id)
	return ok
}
