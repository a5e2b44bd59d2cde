package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	cases := map[string]model.Role{
		"Androxus":  model.RoleFlank,
		"bomb king": model.RoleDamage,
		"MAKOA":     model.RoleTank,
		"Mal'Damba": model.RoleSupport,
		"Io":        model.RoleSupport,
	}
	for champ, want := range cases {
		got, ok := tbl.RoleOf(champ)
		require.True(t, ok, champ)
		assert.Equal(t, want, got, champ)
	}

	_, ok := tbl.RoleOf("Not A Champion")
	assert.False(t, ok)

	r, _ := tbl.RoleOf("grover")
	assert.Equal(t, model.RoleSupport, r)

	name, ok := tbl.Canonical("sha lin")
	require.True(t, ok)
	assert.Equal(t, "Sha Lin", name)

	assert.Len(t, tbl.Champions(model.RoleSupport), 12)
	assert.Equal(t, "Corvus", tbl.Champions(model.RoleSupport)[0])
}

func TestResolveRole(t *testing.T) {
	tbl := Default()

	tests := []struct {
		in   string
		want model.Role
		ok   bool
	}{
		{"dmg", model.RoleDamage, true},
		{"Supp", model.RoleSupport, true},
		{"frontline", model.RoleTank, true},
		{"fl", model.RoleFlank, true},
		{"da", model.RoleDamage, true},
		{"t", model.RoleTank, true},
		{"healer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := tbl.ResolveRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	_, err := Parse([]byte("roles: {}"))
	assert.Error(t, err)

	_, err = Parse([]byte("roles:\n  Healer: [Grover]\n"))
	assert.ErrorContains(t, err, "unknown role")

	_, err = Parse([]byte("roles:\n  Tank: [Ash]\n  Damage: [Ash]\n"))
	assert.ErrorContains(t, err, "listed as")

	_, err = Parse([]byte("roles:\n  Tank: [Ash]\n  Damage: [ash]\n"))
	assert.ErrorContains(t, err, "listed as", "case variants are the same champion")

	_, err = Parse([]byte("roles:\n  Tank: [Ash]\naliases:\n  heals: Healer\n"))
	assert.ErrorContains(t, err, "unknown role")
}

func TestParseMergesCaseVariantsOfOneRole(t *testing.T) {
	tbl, err := Parse([]byte("roles:\n  Tank: [Ash, ASH]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ash"}, tbl.Champions(model.RoleTank))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  Support: [Grover]\n  Tank: [Ash]\naliases:\n  heals: support\n"), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	r, ok := tbl.ResolveRole("heals")
	require.True(t, ok)
	assert.Equal(t, model.RoleSupport, r)
	assert.Equal(t, []string{"Ash"}, tbl.Champions(model.RoleTank))

	def, err := Load("")
	require.NoError(t, err)
	r, ok = def.RoleOf("Pip")
	require.True(t, ok)
	assert.Equal(t, model.RoleSupport, r)
}
