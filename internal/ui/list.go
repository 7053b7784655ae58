package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

const createdAtLayout = "Jan 2, 2006 15:04"

// sortDuties returns a copy ordered by creation time, oldest first.
func sortDuties(duties []model.Duty) []model.Duty {
	sorted := slices.Clone(duties)
	slices.SortStableFunc(sorted, func(a, b model.Duty) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted
}

func renderList(duties []model.Duty, cursor int, active bool, styles Styles) string {
	if len(duties) == 0 {
		return styles.Meta.Render("No duties yet.")
	}

	rows := make([]string, 0, len(duties))
	for i, d := range duties {
		row := fmt.Sprintf("%s\n%s", d.Name, styles.Meta.Render("Created at: "+d.CreatedAt.Local().Format(createdAtLayout)))
		if active && i == cursor {
			rows = append(rows, styles.Selected.Render(row))
		} else {
			rows = append(rows, styles.Item.Render(row))
		}
	}
	return strings.Join(rows, "\n")
}
