package compile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBinder_OrdinalsPerRole(t *testing.T) {
	b := newBinder()

	assert.Equal(t, "family0", b.bind("family", "party"))
	assert.Equal(t, "concept0", b.bind("concept", "person"))
	assert.Equal(t, "family1", b.bind("family", "contact"))
	assert.Equal(t, "uid0", b.bindDeferred("uid", "customer"))

	want := []Parameter{
		{Name: "family0", Value: "party"},
		{Name: "concept0", Value: "person"},
		{Name: "family1", Value: "contact"},
		{Name: "uid0", Key: "customer"},
	}
	if diff := cmp.Diff(want, b.params); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, b.params[3].Deferred())
	assert.False(t, b.params[0].Deferred())
}

func TestBinder_RoleNames(t *testing.T) {
	b := newBinder()

	assert.Equal(t, "owner_target0", b.bind("owner.target", 1))
	assert.Equal(t, "p1st0", b.bind("1st", 1))
	assert.Equal(t, "p0", b.bind("", 1))
}

func TestBinder_DigitSuffixedRolesDoNotCollide(t *testing.T) {
	b := newBinder()

	seen := make(map[string]bool)
	for i := 0; i < 11; i++ {
		name := b.bind("uid", i)
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	name := b.bind("uid1", 0)
	assert.Equal(t, "uid1_0", name)
	assert.False(t, seen[name])
}

func TestBinder_RewindReusesNames(t *testing.T) {
	b := newBinder()
	b.bind("family", "party")
	m := b.mark()

	b.bind("family", "contact")
	b.bind("lastName", "Smith")
	b.rewind(m)

	assert.Len(t, b.params, 1)
	assert.Equal(t, "family1", b.bind("family", "lookup"))
	assert.Equal(t, "lastName0", b.bind("lastName", "Jones"))
}
