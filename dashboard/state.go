// Package dashboard holds the application state behind the census views
// and the handlers for the user intents that change it.
package dashboard

import (
	"github.com/zalepa/censo/census"
)

// State is everything the views are rendered from.
type State struct {
	Code    string
	Dataset census.Dataset
	Filter  string
	// Err is the outcome of the last load. While set, the previous dataset
	// is retained but not displayed.
	Err error
}

// View is the rendered dashboard.
type View struct {
	Code       string
	Filter     string
	Error      string
	Table      census.Table
	Highlights []census.Highlight
	Cards      []census.Card
}

// Render projects s onto the three views. A failed load replaces the table
// with an error message and leaves highlights and cards empty.
func Render(s State) View {
	v := View{Code: s.Code, Filter: s.Filter}
	if s.Err != nil {
		v.Error = ErrorMessage(s.Err)
		return v
	}
	v.Table = census.RenderTable(s.Dataset, s.Filter)
	v.Highlights = census.RenderHighlights(s.Dataset)
	v.Cards = census.RenderBreakdownCards(s.Dataset)
	return v
}

// RenderTable re-renders only the table, for filter changes.
func RenderTable(s State) View {
	v := View{Code: s.Code, Filter: s.Filter}
	if s.Err != nil {
		v.Error = ErrorMessage(s.Err)
		return v
	}
	v.Table = census.RenderTable(s.Dataset, s.Filter)
	return v
}

// ErrorMessage is the user-facing text for a failed load.
func ErrorMessage(err error) string {
	return "Error al cargar: " + census.EscapeText(err.Error())
}
