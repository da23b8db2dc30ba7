package domain

import (
	"regexp"
	"time"
)

// DefaultCategoryColor is applied when a category is created without a usable color.
const DefaultCategoryColor = "#3b82f6"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category classifies documents. DocumentsCount is derived on read.
type Category struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	CreatedAt      time.Time `json:"created_at"`
	DocumentsCount int64     `json:"documents_count"`
}

// ValidColor reports whether s has the #RRGGBB shape.
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// DefaultCategories are the categories seeded on an empty installation.
var DefaultCategories = []Category{
	{Name: "General", Description: "General documents", Color: "#6b7280"},
	{Name: "Important", Description: "Important documents", Color: "#ef4444"},
	{Name: "Work", Description: "Work-related documents", Color: "#3b82f6"},
	{Name: "Personal", Description: "Personal documents", Color: "#10b981"},
	{Name: "Archive", Description: "Archived documents", Color: "#f59e0b"},
}
