// Package permission holds the role permission matrix: the CRUD action
// table, the per-session record store, the matrix view grouped by entity
// type and the role edit session state machine.
package permission

import (
	"strings"

	"github.com/Kyz7/dashboard/internal/apperror"
	"github.com/Kyz7/dashboard/internal/models"
)

type Action int

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdate
	ActionDelete

	actionCount
)

type capability struct {
	name  string
	field string
	flag  func(p *models.Permission) *bool
}

// capabilities is indexed by Action and sized by actionCount; every
// action must have a row.
var capabilities = [actionCount]capability{
	ActionCreate: {"create", "canCreate", func(p *models.Permission) *bool { return &p.CanCreate }},
	ActionRead:   {"read", "canRead", func(p *models.Permission) *bool { return &p.CanRead }},
	ActionUpdate: {"update", "canUpdate", func(p *models.Permission) *bool { return &p.CanUpdate }},
	ActionDelete: {"delete", "canDelete", func(p *models.Permission) *bool { return &p.CanDelete }},
}

func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

func (a Action) Valid() bool {
	return a >= 0 && a < actionCount
}

func (a Action) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return capabilities[a].name
}

// Field is the camelCase name of the boolean column the action maps to.
func (a Action) Field() string {
	if !a.Valid() {
		return ""
	}
	return capabilities[a].field
}

// ParseAction accepts "create", "read", "update" or "delete".
func ParseAction(s string) (Action, error) {
	for a, c := range capabilities {
		if strings.EqualFold(c.name, s) {
			return Action(a), nil
		}
	}
	return 0, apperror.Validation("invalid action %q", s)
}

// ParseField accepts a capability column in camelCase ("canDelete") or
// snake_case ("can_delete").
func ParseField(s string) (Action, error) {
	normalized := strings.ReplaceAll(s, "_", "")
	for a, c := range capabilities {
		if strings.EqualFold(c.field, normalized) {
			return Action(a), nil
		}
	}
	return 0, apperror.Validation("invalid permission field %q", s)
}

// Allows reports whether p grants a. A nil row grants nothing.
func Allows(p *models.Permission, a Action) bool {
	if p == nil || !a.Valid() {
		return false
	}
	return *capabilities[a].flag(p)
}

func set(p *models.Permission, a Action, v bool) {
	*capabilities[a].flag(p) = v
}

func allChecked(p *models.Permission) bool {
	for _, a := range Actions() {
		if !Allows(p, a) {
			return false
		}
	}
	return true
}

func noneChecked(p *models.Permission) bool {
	for _, a := range Actions() {
		if Allows(p, a) {
			return false
		}
	}
	return true
}
