package permission

import (
	"github.com/Kyz7/dashboard/internal/models"
)

type MatrixRow struct {
	models.Permission
	AllChecked  bool `json:"all_checked"`
	NoneChecked bool `json:"none_checked"`
}

type MatrixSection struct {
	EntityType models.EntityType `json:"entity_type"`
	Label      string            `json:"label"`
	Rows       []MatrixRow       `json:"rows"`
}

var sectionLabels = map[models.EntityType]string{
	models.EntityCollection: "Collection types",
	models.EntitySingle:     "Single types",
	models.EntityPlugin:     "Plugins",
	models.EntitySettings:   "Settings",
}

// BuildMatrix groups rows by entity type. All four sections are always
// present, in display order, even when empty. Rows with an unknown type
// are left out.
func BuildMatrix(rows []models.Permission) []MatrixSection {
	sections := make([]MatrixSection, len(models.EntityTypes))
	index := make(map[models.EntityType]int, len(models.EntityTypes))
	for i, t := range models.EntityTypes {
		sections[i] = MatrixSection{EntityType: t, Label: sectionLabels[t], Rows: []MatrixRow{}}
		index[t] = i
	}

	for i := range rows {
		pos, ok := index[rows[i].EntityType]
		if !ok {
			continue
		}
		sections[pos].Rows = append(sections[pos].Rows, MatrixRow{
			Permission:  rows[i],
			AllChecked:  allChecked(&rows[i]),
			NoneChecked: noneChecked(&rows[i]),
		})
	}

	return sections
}

// ToggleEntity switches every capability of a row on, or all of them off
// when they are already all on.
func ToggleEntity(store *Store, id uint) bool {
	row, ok := store.Permission(id)
	if !ok {
		return false
	}

	target := !allChecked(&row)
	for _, a := range Actions() {
		if Allows(&row, a) != target {
			store.TogglePermission(id, a)
		}
	}
	return true
}
