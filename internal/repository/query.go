package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// predicates accumulates AND-ed conditions with positional arguments. Conditions are written
// with a single "?" standing for the argument; it may appear several times when the same value
// is compared against more than one column.
type predicates struct {
	conds []string
	args  []interface{}
}

func (p *predicates) add(cond string, arg interface{}) {
	p.args = append(p.args, arg)
	p.conds = append(p.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(p.args))))
}

func (p *predicates) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

// likePattern lowercases s and escapes LIKE wildcards so it matches as a plain substring.
func likePattern(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + escaped + "%"
}

type page struct {
	number int
	size   int
}

// newPage clamps page parameters: numbering starts at 1 and sizes above maxSize fall back to
// defaultSize.
func newPage(number, size, defaultSize, maxSize int) page {
	if number < 1 {
		number = 1
	}
	if size <= 0 || size > maxSize {
		size = defaultSize
	}
	return page{number: number, size: size}
}

func (p page) clause() string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.size, (p.number-1)*p.size)
}

// orderBy returns an ORDER BY clause restricted to the allowed columns.
func orderBy(column, direction string, allowed map[string]bool, fallback string) string {
	if !allowed[column] {
		column = fallback
	}
	direction = strings.ToUpper(direction)
	if direction != "ASC" {
		direction = "DESC"
	}
	return " ORDER BY " + column + " " + direction
}
