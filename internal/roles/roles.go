// Package roles holds the static champion to role-class table.
package roles

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

//go:embed roles.yaml
var defaultYAML []byte

var knownRoles = []model.Role{model.RoleDamage, model.RoleFlank, model.RoleTank, model.RoleSupport}

type file struct {
	Roles   map[string][]string `yaml:"roles"`
	Aliases map[string]string   `yaml:"aliases"`
}

// Table maps champions to their role class. It is read-only after
// construction and safe to share.
type Table struct {
	role    map[string]model.Role // folded champion -> role
	name    map[string]string     // folded champion -> display name
	aliases map[string]model.Role // folded alias -> role
}

// New builds a table from explicit maps. Keys are matched case-insensitively.
func New(champions map[string]model.Role, aliases map[string]model.Role) *Table {
	t := &Table{
		role:    make(map[string]model.Role, len(champions)),
		name:    make(map[string]string, len(champions)),
		aliases: make(map[string]model.Role, len(aliases)),
	}
	for c, r := range champions {
		k := model.FoldName(c)
		t.role[k] = r
		t.name[k] = strings.TrimSpace(c)
	}
	for a, r := range aliases {
		t.aliases[model.FoldName(a)] = r
	}
	return t
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("roles: embedded table: %v", err))
	}
	return t
}

// Load reads a YAML role table from path. An empty path yields Default().
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML role table.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("decode roles: no roles defined")
	}

	champs := make(map[string]model.Role)
	seen := make(map[string]model.Role) // folded name -> role
	for roleName, list := range f.Roles {
		r, ok := canonicalRole(roleName)
		if !ok {
			return nil, fmt.Errorf("decode roles: unknown role %q", roleName)
		}
		for _, c := range list {
			k := model.FoldName(c)
			if k == "" {
				return nil, fmt.Errorf("decode roles: empty champion name under %s", r)
			}
			if prev, dup := seen[k]; dup {
				if prev != r {
					return nil, fmt.Errorf("decode roles: champion %q listed as %s and %s", c, prev, r)
				}
				continue
			}
			seen[k] = r
			champs[c] = r
		}
	}
	aliases := make(map[string]model.Role, len(f.Aliases))
	for a, roleName := range f.Aliases {
		r, ok := canonicalRole(roleName)
		if !ok {
			return nil, fmt.Errorf("decode roles: alias %q targets unknown role %q", a, roleName)
		}
		aliases[a] = r
	}
	return New(champs, aliases), nil
}

func canonicalRole(s string) (model.Role, bool) {
	for _, r := range knownRoles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// RoleOf returns the role class of champion.
func (t *Table) RoleOf(champion string) (model.Role, bool) {
	r, ok := t.role[model.FoldName(champion)]
	return r, ok
}

// Canonical returns the table's spelling of champion.
func (t *Table) Canonical(champion string) (string, bool) {
	n, ok := t.name[model.FoldName(champion)]
	return n, ok
}

// ResolveRole maps user input to a role: an alias first, then any
// unambiguous prefix of a role name.
func (t *Table) ResolveRole(s string) (model.Role, bool) {
	k := model.FoldName(s)
	if k == "" {
		return "", false
	}
	if r, ok := t.aliases[k]; ok {
		return r, true
	}
	var found model.Role
	n := 0
	for _, r := range knownRoles {
		if strings.HasPrefix(model.FoldName(string(r)), k) {
			found = r
			n++
		}
	}
	return found, n == 1
}

// Champions returns the sorted display names of every champion in role.
func (t *Table) Champions(role model.Role) []string {
	var out []string
	for k, r := range t.role {
		if r == role {
			out = append(out, t.name[k])
		}
	}
	sort.Strings(out)
	return out
}

// Roles returns the role classes in display order.
func (t *Table) Roles() []model.Role {
	return append([]model.Role(nil), knownRoles...)
}
