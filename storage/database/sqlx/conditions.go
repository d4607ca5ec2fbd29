package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/academics"
	"github.com/trezcool/onestop/core/user"
)

// conditions accumulates WHERE clauses with postgres positional args.
type conditions struct {
	where []string
	args  []interface{}
}

func (c *conditions) add(clause string, arg interface{}) {
	c.args = append(c.args, arg)
	c.where = append(c.where, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) String() string {
	if len(c.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.where, " AND ")
}

// filterConditions maps Filter onto the given owner, course and status columns (empty to skip).
func filterConditions(f academics.Filter, ownerCol, courseCol, statusCol string) *conditions {
	c := new(conditions)
	if f.UserID > 0 && ownerCol != "" {
		c.add(ownerCol+" = ?", f.UserID)
	}
	if f.Course != "" && courseCol != "" {
		c.add(courseCol+" = ?", f.Course)
	}
	if f.Status != "" && statusCol != "" {
		c.add(statusCol+" = ?", f.Status)
	}
	return c
}

func userConditions(f user.QueryFilter) *conditions {
	c := new(conditions)
	if f.Role != "" {
		c.add("role = ?", f.Role)
	}
	if f.Search != "" {
		c.add("(name ILIKE ? OR email ILIKE ?)", "%"+f.Search+"%")
	}
	return c
}

// orderBy keeps the orderings whose field is in allowed (field -> column), or returns fallback.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(clauses) == 0 {
		return fallback
	}
	return strings.Join(clauses, ", ")
}
