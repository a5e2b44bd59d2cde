package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Igor-Kaminski/round-table-bot/internal/model"
)

const playerColumns = "player_id, primary_name, COALESCE(external_handle, '')"

func (s queries) playerWhere(ctx context.Context, where string, arg any) (*model.PlayerIdentity, error) {
	var p model.PlayerIdentity
	err := s.q.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE "+where, arg).
		Scan(&p.ID, &p.Name, &p.Handle)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Aliases, err = s.aliasesOf(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlayerByID returns the identity with the given id, or nil.
func (s queries) PlayerByID(ctx context.Context, id int64) (*model.PlayerIdentity, error) {
	return s.playerWhere(ctx, "player_id = ?", id)
}

// PlayerByName returns the identity whose primary name folds to the same key
// as name, or nil.
func (s queries) PlayerByName(ctx context.Context, name string) (*model.PlayerIdentity, error) {
	return s.playerWhere(ctx, "name_key = ?", model.FoldName(name))
}

// PlayerByAlias returns the identity owning an alias that folds to the same
// key as name, or nil.
func (s queries) PlayerByAlias(ctx context.Context, name string) (*model.PlayerIdentity, error) {
	return s.playerWhere(ctx,
		"player_id = (SELECT player_id FROM player_aliases WHERE alias_key = ?)", model.FoldName(name))
}

// PlayerByHandle returns the identity linked to handle, or nil.
func (s queries) PlayerByHandle(ctx context.Context, handle string) (*model.PlayerIdentity, error) {
	return s.playerWhere(ctx, "external_handle = ?", handle)
}

// CreatePlayer inserts a new identity. handle may be empty.
func (s queries) CreatePlayer(ctx context.Context, name, handle string) (*model.PlayerIdentity, error) {
	name = strings.TrimSpace(name)
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO players(primary_name, name_key, external_handle) VALUES (?, ?, ?)",
		name, model.FoldName(name), nullString(handle))
	if err != nil {
		return nil, mapUnique(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.PlayerIdentity{ID: id, Name: name, Handle: handle}, nil
}

// SetHandle links handle to the player; an empty handle unlinks.
func (s queries) SetHandle(ctx context.Context, playerID int64, handle string) error {
	_, err := s.q.ExecContext(ctx, "UPDATE players SET external_handle = ? WHERE player_id = ?",
		nullString(handle), playerID)
	if err != nil {
		return mapUnique(err)
	}
	return nil
}

// RenamePlayer replaces a player's primary name.
func (s queries) RenamePlayer(ctx context.Context, playerID int64, name string) error {
	name = strings.TrimSpace(name)
	_, err := s.q.ExecContext(ctx, "UPDATE players SET primary_name = ?, name_key = ? WHERE player_id = ?",
		name, model.FoldName(name), playerID)
	if err != nil {
		return mapUnique(err)
	}
	return nil
}

// InsertAlias appends an alias to the player's ordered alias list.
func (s queries) InsertAlias(ctx context.Context, playerID int64, alias string) error {
	alias = strings.TrimSpace(alias)
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO player_aliases(player_id, alias, alias_key, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM player_aliases WHERE player_id = ?))`,
		playerID, alias, model.FoldName(alias), playerID)
	if err != nil {
		return mapUnique(err)
	}
	return nil
}

// DeleteAlias removes the player's alias matching alias case-insensitively.
// It reports whether a row was removed.
func (s queries) DeleteAlias(ctx context.Context, playerID int64, alias string) (bool, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM player_aliases WHERE player_id = ? AND alias_key = ?",
		playerID, model.FoldName(alias))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s queries) aliasesOf(ctx context.Context, playerID int64) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT alias FROM player_aliases WHERE player_id = ? ORDER BY position", playerID)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListPlayers returns every identity ordered by primary name, aliases included.
func (s queries) ListPlayers(ctx context.Context) ([]model.PlayerIdentity, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY name_key")
	if err != nil {
		return nil, err
	}
	var out []model.PlayerIdentity
	idx := make(map[int64]int)
	for rows.Next() {
		var p model.PlayerIdentity
		if err := rows.Scan(&p.ID, &p.Name, &p.Handle); err != nil {
			rows.Close()
			return nil, err
		}
		idx[p.ID] = len(out)
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	arows, err := s.q.QueryContext(ctx, "SELECT player_id, alias FROM player_aliases ORDER BY player_id, position")
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var id int64
		var a string
		if err := arows.Scan(&id, &a); err != nil {
			return nil, err
		}
		if i, ok := idx[id]; ok {
			out[i].Aliases = append(out[i].Aliases, a)
		}
	}
	return out, arows.Err()
}
