package catalog

import (
	"errors"
	"sync"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrToolHidden      = errors.New("tool is not visible under the active category")
	ErrToolOpen        = errors.New("a tool is already open")
	ErrNotOpen         = errors.New("no tool is open")
)

// View is the navigator's top-level state.
type View string

const (
	ViewBrowsing View = "browsing"
	ViewTool     View = "tool"
)

// NavState is a point-in-time copy of the navigator.
type NavState struct {
	View     View   `json:"view"`
	Category string `json:"category"`
	Tool     string `json:"tool,omitempty"`
	Visible  []Tool `json:"visible"`
}

// Navigator tracks which category is being browsed and which tool, if any,
// is open. Opening a tool keeps the category so that Back restores it.
type Navigator struct {
	mu       sync.Mutex
	category string
	tool     string
}

// NewNavigator returns a navigator browsing AllCategories.
func NewNavigator() *Navigator {
	return &Navigator{category: AllCategories}
}

// SelectCategory replaces the category filter. Only valid while browsing.
func (n *Navigator) SelectCategory(category string) error {
	if !IsCategory(category) {
		return ErrUnknownCategory
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.tool != "" {
		return ErrToolOpen
	}
	n.category = category
	return nil
}

// Open moves from browsing to the tool view for id. The tool must be visible
// under the current filter, the same way only rendered cards can be clicked.
func (n *Navigator) Open(id string) error {
	tool, ok := Lookup(id)
	if !ok {
		return ErrUnknownTool
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.tool != "" {
		return ErrToolOpen
	}
	if n.category != AllCategories && tool.Category != n.category {
		return ErrToolHidden
	}
	n.tool = id
	return nil
}

// Back closes the open tool and returns to the category that was active
// before it was opened.
func (n *Navigator) Back() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.tool == "" {
		return ErrNotOpen
	}
	n.tool = ""
	return nil
}

// State returns a copy of the current state.
func (n *Navigator) State() NavState {
	n.mu.Lock()
	category, tool := n.category, n.tool
	n.mu.Unlock()

	state := NavState{
		View:     ViewBrowsing,
		Category: category,
		Visible:  Filter(category),
	}
	if tool != "" {
		state.View = ViewTool
		state.Tool = tool
	}
	return state
}
