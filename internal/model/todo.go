package model

import (
	"encoding/json"
	"math/rand/v2"
)

// Todo is the record exchanged with clients and kept in the store.
//
// Title, Completed and Order are optional: nil means "not supplied", which is
// what lets Merge tell an omitted field from one set to its zero value.
// Defaults are substituted when the record is read or encoded.
type Todo struct {
	ID        int
	Title     *string
	Completed *bool
	Order     *int
	URL       string
}

// wire is the JSON shape of a Todo.
type wire struct {
	ID        int     `json:"id"`
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed"`
	Order     *int    `json:"order"`
	URL       string  `json:"url,omitempty"`
}

// CompletedOrDefault returns Completed, or false when unset.
func (t Todo) CompletedOrDefault() bool {
	if t.Completed == nil {
		return false
	}
	return *t.Completed
}

// OrderOrDefault returns Order, or 0 when unset.
func (t Todo) OrderOrDefault() int {
	if t.Order == nil {
		return 0
	}
	return *t.Order
}

// TitleOrEmpty returns Title, or "" when unset.
func (t Todo) TitleOrEmpty() string {
	if t.Title == nil {
		return ""
	}
	return *t.Title
}

// MarshalJSON always emits completed and order, with defaults filled in.
func (t Todo) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		ID:        t.ID,
		Title:     t.Title,
		Completed: Bool(t.CompletedOrDefault()),
		Order:     Int(t.OrderOrDefault()),
		URL:       t.URL,
	})
}

// UnmarshalJSON leaves absent and null fields unset.
func (t *Todo) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Todo{
		ID:        w.ID,
		Title:     w.Title,
		Completed: w.Completed,
		Order:     w.Order,
		URL:       w.URL,
	}
	return nil
}

// Merge applies patch on top of base. A field set in patch wins, otherwise
// base's value is kept. ID and URL always come from base.
func Merge(base, patch Todo) Todo {
	out := Todo{
		ID:        base.ID,
		Title:     base.Title,
		Completed: base.Completed,
		Order:     base.Order,
		URL:       base.URL,
	}
	if patch.Title != nil {
		out.Title = String(*patch.Title)
	}
	if patch.Completed != nil {
		out.Completed = Bool(*patch.Completed)
	}
	if patch.Order != nil {
		out.Order = Int(*patch.Order)
	}
	return out
}

// SeedTitle is the title of the demo record written at start-up.
const SeedTitle = "Something to do..."

// Seed returns the demo record used to populate an empty store.
func Seed() Todo {
	return Todo{
		ID:        rand.IntN(1<<31-1) + 1,
		Title:     String(SeedTitle),
		Completed: Bool(false),
		Order:     Int(1),
		URL:       "todo/ex",
	}
}

func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }
func Int(n int) *int          { return &n }
