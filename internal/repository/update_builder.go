package repository

import (
	"fmt"
	"strings"
)

// updateBuilder collects "column = $n" assignments for a partial UPDATE.
type updateBuilder struct {
	sets []string
	args []any
}

// setIfPresent adds column only when v is non-nil, so absent fields keep their stored value.
func setIfPresent[T any](b *updateBuilder, column string, v *T) {
	if v == nil {
		return
	}
	b.set(column, *v)
}

func (b *updateBuilder) set(column string, v any) {
	b.args = append(b.args, v)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *updateBuilder) empty() bool {
	return len(b.sets) == 0
}

// build renders the statement. The row is matched by id and owner and updated_at is always bumped.
func (b *updateBuilder) build(table string, id, userID int, returning string) (string, []any) {
	args := append(append([]any(nil), b.args...), id, userID)
	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = NOW() WHERE id = $%d AND user_id = $%d RETURNING %s",
		table,
		strings.Join(b.sets, ", "),
		len(args)-1,
		len(args),
		returning,
	)
	return query, args
}
