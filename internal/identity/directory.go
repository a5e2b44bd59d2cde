package identity

import (
	"context"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
	"github.com/Igor-Kaminski/round-table-bot/internal/storage"
)

// Directory runs every identity operation in its own store transaction so
// each check-then-write is atomic.
type Directory struct {
	db *storage.DB
}

// NewDirectory returns a Directory over db.
func NewDirectory(db *storage.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) withResolver(ctx context.Context, fn func(r *Resolver) error) error {
	return d.db.WithTx(ctx, func(tx *storage.Tx) error {
		return fn(New(tx))
	})
}

// Lookup resolves name without creating anything.
func (d *Directory) Lookup(ctx context.Context, name string) (*model.PlayerIdentity, error) {
	p, _, err := New(d.db).Resolve(ctx, name)
	return p, err
}

// ByHandle returns the identity linked to handle, or nil.
func (d *Directory) ByHandle(ctx context.Context, handle string) (*model.PlayerIdentity, error) {
	return d.db.PlayerByHandle(ctx, handle)
}

// ResolveOrCreate returns the player id for name, creating the identity if
// no primary name or alias matches.
func (d *Directory) ResolveOrCreate(ctx context.Context, name string) (int64, error) {
	var id int64
	err := d.withResolver(ctx, func(r *Resolver) error {
		p, _, err := r.ResolveOrCreate(ctx, name)
		if err != nil {
			return err
		}
		id = p.ID
		return nil
	})
	return id, err
}

// Link attaches handle to name; see Resolver.Link.
func (d *Directory) Link(ctx context.Context, name, handle string, force bool) (bool, error) {
	var ok bool
	err := d.withResolver(ctx, func(r *Resolver) (err error) {
		ok, err = r.Link(ctx, name, handle, force)
		return err
	})
	return ok, err
}

// Unlink detaches handle from its identity.
func (d *Directory) Unlink(ctx context.Context, handle string) (bool, error) {
	var ok bool
	err := d.withResolver(ctx, func(r *Resolver) (err error) {
		ok, err = r.Unlink(ctx, handle)
		return err
	})
	return ok, err
}

// Rename changes the primary name of the identity linked to handle.
func (d *Directory) Rename(ctx context.Context, handle, newName string) (bool, error) {
	var ok bool
	err := d.withResolver(ctx, func(r *Resolver) (err error) {
		ok, err = r.Rename(ctx, handle, newName)
		return err
	})
	return ok, err
}

// AddAlias registers alias for the identity linked to handle.
func (d *Directory) AddAlias(ctx context.Context, handle, alias string) (bool, error) {
	var ok bool
	err := d.withResolver(ctx, func(r *Resolver) (err error) {
		ok, err = r.AddAlias(ctx, handle, alias)
		return err
	})
	return ok, err
}

// RemoveAlias drops alias from the identity linked to handle.
func (d *Directory) RemoveAlias(ctx context.Context, handle, alias string) (bool, error) {
	var ok bool
	err := d.withResolver(ctx, func(r *Resolver) (err error) {
		ok, err = r.RemoveAlias(ctx, handle, alias)
		return err
	})
	return ok, err
}
