package taskutil

import (
	"strings"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// Matches reports whether term occurs in the title or description of item,
// ignoring case. An empty term matches everything.
func Matches(item domain.Item, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), term) {
		return true
	}
	return item.Description != nil && strings.Contains(strings.ToLower(*item.Description), term)
}

// Search returns the items matching term, preserving order.
func Search(items []domain.Item, term string) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if Matches(it, term) {
			out = append(out, it)
		}
	}
	return out
}
