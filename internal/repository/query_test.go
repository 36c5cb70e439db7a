package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesNumberArgumentsInOrder(t *testing.T) {
	var p predicates
	assert.Empty(t, p.where())

	p.add("c.sector = ?", "tech")
	p.add("(LOWER(c.name) LIKE ? OR LOWER(d.name) LIKE ?)", "%a%")

	assert.Equal(t, " WHERE c.sector = $1 AND (LOWER(c.name) LIKE $2 OR LOWER(d.name) LIKE $2)", p.where())
	assert.Equal(t, []interface{}{"tech", "%a%"}, p.args)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_%`, likePattern("50% OFF_"))
}

func TestPageAndOrder(t *testing.T) {
	assert.Equal(t, " LIMIT 20 OFFSET 0", newPage(0, 0, 20, 100).clause())
	assert.Equal(t, " LIMIT 10 OFFSET 20", newPage(3, 10, 20, 100).clause())
	assert.Equal(t, " LIMIT 20 OFFSET 0", newPage(1, 500, 20, 100).clause())

	allowed := map[string]bool{"email": true, "created_at": true}
	assert.Equal(t, " ORDER BY email ASC", orderBy("email", "asc", allowed, "created_at"))
	assert.Equal(t, " ORDER BY created_at DESC", orderBy("password_hash", "", allowed, "created_at"))
}
