// Package domain defines the core model for the companion sync engine.
package domain

import (
	"strings"
	"time"
)

// WidgetCategory groups widgets by the family feature they surface.
type WidgetCategory string

const (
	WidgetCategoryStatus    WidgetCategory = "status"
	WidgetCategoryTasks     WidgetCategory = "tasks"
	WidgetCategoryGoals     WidgetCategory = "goals"
	WidgetCategoryCalendar  WidgetCategory = "calendar"
	WidgetCategoryPenalties WidgetCategory = "penalties"
)

// WidgetTemplate selects one of the fixed glanceable layouts the companion
// surfaces can render.
type WidgetTemplate string

const (
	TemplateShortText   WidgetTemplate = "short_text"
	TemplateLongText    WidgetTemplate = "long_text"
	TemplateRangedValue WidgetTemplate = "ranged_value"
	TemplateIconGrid    WidgetTemplate = "icon_grid"
)

var knownTemplates = map[WidgetTemplate]struct{}{
	TemplateShortText:   {},
	TemplateLongText:    {},
	TemplateRangedValue: {},
	TemplateIconGrid:    {},
}

// KnownTemplate reports whether t is one of the supported layouts.
func KnownTemplate(t WidgetTemplate) bool {
	_, ok := knownTemplates[t]
	return ok
}

// Widget is a glanceable tile or complication owned by the registry.
// Identity is ID; widgets are deactivated rather than deleted.
type Widget struct {
	ID              string
	Title           string
	Content         string
	Category        WidgetCategory
	Template        WidgetTemplate
	Data            map[string]any
	Priority        int
	RefreshInterval time.Duration
	Active          bool
}

// Validate ensures the widget carries the fields the registry requires.
func (w Widget) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return NewValidationError("id", "is required")
	}
	if strings.TrimSpace(w.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if !KnownTemplate(w.Template) {
		return NewValidationError("template", "is not a known layout")
	}
	if w.RefreshInterval <= 0 {
		return NewValidationError("refresh_interval", "must be > 0")
	}
	return nil
}
