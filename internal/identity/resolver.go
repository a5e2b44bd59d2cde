// Package identity maps reported in-game names onto stable player identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

var (
	ErrEmptyName     = errors.New("name is empty")
	ErrEmptyHandle   = errors.New("handle is empty")
	ErrUnknownHandle = errors.New("no player is linked to this handle")
	ErrHandleLinked  = errors.New("handle is already linked to a different name")
	ErrNameLinked    = errors.New("name is already linked to a different handle")
	ErrNameTaken     = errors.New("name belongs to another player")
)

// Store is the persistence the resolver needs. Both *storage.DB and
// *storage.Tx satisfy it.
type Store interface {
	PlayerByName(ctx context.Context, name string) (*model.PlayerIdentity, error)
	PlayerByAlias(ctx context.Context, name string) (*model.PlayerIdentity, error)
	PlayerByHandle(ctx context.Context, handle string) (*model.PlayerIdentity, error)
	CreatePlayer(ctx context.Context, name, handle string) (*model.PlayerIdentity, error)
	SetHandle(ctx context.Context, playerID int64, handle string) error
	RenamePlayer(ctx context.Context, playerID int64, name string) error
	InsertAlias(ctx context.Context, playerID int64, alias string) error
	DeleteAlias(ctx context.Context, playerID int64, alias string) (bool, error)
}

// Resolver looks names up against a Store. Lookups are case-insensitive and
// go through the store's folded-name indexes.
type Resolver struct {
	store Store
}

// New returns a resolver over s.
func New(s Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve finds the identity a name belongs to: primary name first, then
// aliases. It returns nil when neither matches and never writes.
func (r *Resolver) Resolve(ctx context.Context, name string) (*model.PlayerIdentity, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrEmptyName
	}
	p, err := r.store.PlayerByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("lookup name %q: %w", name, err)
	}
	if p != nil {
		return p, false, nil
	}
	p, err = r.store.PlayerByAlias(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("lookup alias %q: %w", name, err)
	}
	return p, p != nil, nil
}

// ResolveOrCreate resolves name, creating a fresh identity with it as the
// primary name when nothing matches.
func (r *Resolver) ResolveOrCreate(ctx context.Context, name string) (*model.PlayerIdentity, bool, error) {
	p, _, err := r.Resolve(ctx, name)
	if err != nil || p != nil {
		return p, false, err
	}
	p, err = r.store.CreatePlayer(ctx, name, "")
	if err != nil {
		return nil, false, fmt.Errorf("create player %q: %w", name, err)
	}
	return p, true, nil
}

// Resolution is the staged outcome for one reported name.
type Resolution struct {
	Name     string
	Identity *model.PlayerIdentity // nil until committed when New is set
	ViaAlias bool
	New      bool
}

// Plan holds the staged resolutions of a batch of names. Nothing has been
// written until Commit.
type Plan struct {
	Resolutions []Resolution
}

// NewNames returns the names that will create identities on commit.
func (p *Plan) NewNames() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range p.Resolutions {
		k := model.FoldName(r.Name)
		if r.New && !seen[k] {
			seen[k] = true
			out = append(out, r.Name)
		}
	}
	return out
}

// Stage resolves every name without writing.
func (r *Resolver) Stage(ctx context.Context, names []string) (*Plan, error) {
	plan := &Plan{Resolutions: make([]Resolution, 0, len(names))}
	for _, n := range names {
		p, viaAlias, err := r.Resolve(ctx, n)
		if err != nil {
			return nil, err
		}
		plan.Resolutions = append(plan.Resolutions, Resolution{
			Name:     strings.TrimSpace(n),
			Identity: p,
			ViaAlias: viaAlias,
			New:      p == nil,
		})
	}
	return plan, nil
}

// Commit creates the staged identities and returns the player id for every
// name in input order. Names that fold to the same key share one identity.
func (p *Plan) Commit(ctx context.Context, s Store) ([]int64, error) {
	created := make(map[string]*model.PlayerIdentity)
	ids := make([]int64, len(p.Resolutions))
	for i := range p.Resolutions {
		res := &p.Resolutions[i]
		if !res.New {
			ids[i] = res.Identity.ID
			continue
		}
		k := model.FoldName(res.Name)
		if id, ok := created[k]; ok {
			res.Identity = id
			ids[i] = id.ID
			continue
		}
		np, err := s.CreatePlayer(ctx, res.Name, "")
		if err != nil {
			return nil, fmt.Errorf("create player %q: %w", res.Name, err)
		}
		created[k] = np
		res.Identity = np
		ids[i] = np.ID
	}
	return ids, nil
}

// Link attaches handle to the identity named name, creating the identity if
// needed. A handle held by another identity moves only when force is set; a
// name already linked to a different handle is always refused.
func (r *Resolver) Link(ctx context.Context, name, handle string, force bool) (bool, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return false, ErrEmptyHandle
	}
	target, _, err := r.Resolve(ctx, name)
	if err != nil {
		return false, err
	}
	if target != nil && target.Handle == handle {
		return true, nil
	}
	if target != nil && target.Linked() {
		return false, ErrNameLinked
	}

	owner, err := r.store.PlayerByHandle(ctx, handle)
	if err != nil {
		return false, fmt.Errorf("lookup handle: %w", err)
	}
	if owner != nil {
		if !force {
			return false, fmt.Errorf("%w (%s)", ErrHandleLinked, owner.Name)
		}
		if err := r.store.SetHandle(ctx, owner.ID, ""); err != nil {
			return false, fmt.Errorf("release handle: %w", err)
		}
	}

	if target == nil {
		if _, err := r.store.CreatePlayer(ctx, name, handle); err != nil {
			return false, fmt.Errorf("create player %q: %w", name, err)
		}
		return true, nil
	}
	if err := r.store.SetHandle(ctx, target.ID, handle); err != nil {
		return false, fmt.Errorf("set handle: %w", err)
	}
	return true, nil
}

// Unlink detaches handle from its identity.
func (r *Resolver) Unlink(ctx context.Context, handle string) (bool, error) {
	owner, err := r.owner(ctx, handle)
	if err != nil {
		return false, err
	}
	if err := r.store.SetHandle(ctx, owner.ID, ""); err != nil {
		return false, fmt.Errorf("unlink: %w", err)
	}
	return true, nil
}

// Rename changes the primary name of the identity linked to handle. The old
// primary name is kept as an alias so earlier reports still resolve.
func (r *Resolver) Rename(ctx context.Context, handle, newName string) (bool, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false, ErrEmptyName
	}
	owner, err := r.owner(ctx, handle)
	if err != nil {
		return false, err
	}
	if model.FoldName(owner.Name) == model.FoldName(newName) {
		if owner.Name == newName {
			return false, nil
		}
		if err := r.store.RenamePlayer(ctx, owner.ID, newName); err != nil {
			return false, fmt.Errorf("rename: %w", err)
		}
		return true, nil
	}

	other, viaAlias, err := r.Resolve(ctx, newName)
	if err != nil {
		return false, err
	}
	if other != nil && other.ID != owner.ID {
		return false, ErrNameTaken
	}
	if viaAlias {
		if _, err := r.store.DeleteAlias(ctx, owner.ID, newName); err != nil {
			return false, fmt.Errorf("drop alias: %w", err)
		}
	}
	old := owner.Name
	if err := r.store.RenamePlayer(ctx, owner.ID, newName); err != nil {
		return false, fmt.Errorf("rename: %w", err)
	}
	if err := r.store.InsertAlias(ctx, owner.ID, old); err != nil {
		return false, fmt.Errorf("keep old name as alias: %w", err)
	}
	return true, nil
}

// AddAlias registers alias for the identity linked to handle. It returns
// false when the alias (or primary name) is already that identity's.
func (r *Resolver) AddAlias(ctx context.Context, handle, alias string) (bool, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return false, ErrEmptyName
	}
	owner, err := r.owner(ctx, handle)
	if err != nil {
		return false, err
	}
	holder, _, err := r.Resolve(ctx, alias)
	if err != nil {
		return false, err
	}
	if holder != nil {
		if holder.ID == owner.ID {
			return false, nil
		}
		return false, fmt.Errorf("%w (%s)", ErrNameTaken, holder.Name)
	}
	if err := r.store.InsertAlias(ctx, owner.ID, alias); err != nil {
		return false, fmt.Errorf("add alias: %w", err)
	}
	return true, nil
}

// RemoveAlias drops alias from the identity linked to handle. It returns
// false when the identity had no such alias.
func (r *Resolver) RemoveAlias(ctx context.Context, handle, alias string) (bool, error) {
	owner, err := r.owner(ctx, handle)
	if err != nil {
		return false, err
	}
	ok, err := r.store.DeleteAlias(ctx, owner.ID, alias)
	if err != nil {
		return false, fmt.Errorf("remove alias: %w", err)
	}
	return ok, nil
}

func (r *Resolver) owner(ctx context.Context, handle string) (*model.PlayerIdentity, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, ErrEmptyHandle
	}
	p, err := r.store.PlayerByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("lookup handle: %w", err)
	}
	if p == nil {
		return nil, ErrUnknownHandle
	}
	return p, nil
}
