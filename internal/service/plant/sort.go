package plant

import (
	"cmp"
	"slices"

	"sampleapps/internal/model"
)

func sortByOverdue(ps []model.PlantWithStatus) {
	slices.SortStableFunc(ps, func(a, b model.PlantWithStatus) int {
		if c := cmp.Compare(b.Status.DaysOverdue, a.Status.DaysOverdue); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
