package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/value"
)

func TestChecksum_Stable(t *testing.T) {
	assert.Equal(t, Checksum(people()), Checksum(people()))
	assert.Len(t, Checksum(people()), 64)
}

func TestChecksum_ContentSensitive(t *testing.T) {
	assert.NotEqual(t, Checksum(people()), Checksum(addAge()))

	renamed := schema.NewChangeSet("create-people",
		schema.NewTable("persons",
			schema.NewColumn("id", value.Integer).PrimaryKey(),
			schema.NewColumn("name", value.Text),
		),
	)
	assert.NotEqual(t, Checksum(people()), Checksum(renamed))
}

func TestChecksum_IgnoresID(t *testing.T) {
	a := schema.NewChangeSet("a", schema.Drop("t"))
	b := schema.NewChangeSet("b", schema.Drop("t"))
	assert.Equal(t, Checksum(a), Checksum(b))
}

func TestChecksum_NFC(t *testing.T) {
	composed := schema.NewChangeSet("x", schema.Drop("caf\u00e9"))
	decomposed := schema.NewChangeSet("x", schema.Drop("cafe\u0301"))
	assert.Equal(t, Checksum(composed), Checksum(decomposed))
}

func TestChecksum_DomainSeparated(t *testing.T) {
	assert.NotEqual(t, hashWithDomain("a", []byte("bc")), hashWithDomain("ab", []byte("c")))
}
