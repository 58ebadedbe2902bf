package store

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// ChangeType describes the kind of write applied to a table.
type ChangeType int

const (
	// Create indicates rows were inserted.
	Create ChangeType = 1 << iota
	// Update indicates rows were updated.
	Update
	// Delete indicates rows were deleted.
	Delete

	// All matches every change type.
	All = Create | Update | Delete
)

// String returns a "|"-separated list of the set flags.
func (c ChangeType) String() string {
	var parts []string
	if c&Create != 0 {
		parts = append(parts, "create")
	}
	if c&Update != 0 {
		parts = append(parts, "update")
	}
	if c&Delete != 0 {
		parts = append(parts, "delete")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Change describes a write to one table.
type Change struct {
	Table string
	Type  ChangeType
}

// Commit is a published batch of changes. Seq is strictly increasing per DB.
type Commit struct {
	Seq     int64
	Changes []Change
}

// Affects reports the combined change type applied to table, if any.
func (c Commit) Affects(table string) (ChangeType, bool) {
	var t ChangeType
	for _, ch := range c.Changes {
		if ch.Table == table {
			t |= ch.Type
		}
	}
	return t, t != 0
}

// Tables returns the distinct tables touched by the commit, sorted.
func (c Commit) Tables() []string {
	var tables []string
	for _, ch := range c.Changes {
		if !slices.Contains(tables, ch.Table) {
			tables = append(tables, ch.Table)
		}
	}
	slices.Sort(tables)
	return tables
}

// Listener is called on the worker after every commit. ctx runs inline on
// the worker, so the listener may read the database with it and sees exactly
// the committed state.
type Listener func(ctx context.Context, c Commit)

type listenerEntry struct {
	id int
	fn Listener
}

// OnCommit registers l and returns a function that removes it. Listeners run
// in registration order.
func (d *DB) OnCommit(l Listener) (remove func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listenerEntry{id: id, fn: l})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners = slices.DeleteFunc(d.listeners, func(e listenerEntry) bool {
			return e.id == id
		})
	}
}

// publish assigns the next sequence number and runs every listener. It must
// be called on the worker.
func (d *DB) publish(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	d.mu.Lock()
	listeners := slices.Clone(d.listeners)
	d.mu.Unlock()

	c := Commit{Seq: d.seq.Next(), Changes: changes}
	d.metrics.Commit()
	slog.Debug("commit published", "seq", c.Seq, "tables", c.Tables())

	for _, l := range listeners {
		l.fn(ctx, c)
	}
}

// coalesce merges changes per table, keeping first-touch order.
func coalesce(changes []Change) []Change {
	var out []Change
	for _, ch := range changes {
		i := slices.IndexFunc(out, func(o Change) bool { return o.Table == ch.Table })
		if i < 0 {
			out = append(out, ch)
			continue
		}
		out[i].Type |= ch.Type
	}
	return out
}
