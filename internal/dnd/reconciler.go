// Package dnd turns one completed drag gesture into tree mutations on the documents involved.
package dnd

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/complete"
	"kanban-cli/internal/config"
	"kanban-cli/internal/markdown"
	"kanban-cli/internal/model"
	"kanban-cli/internal/store"
	"kanban-cli/internal/tree"

	log "github.com/sirupsen/logrus"
)

// DocumentSource resolves document ids to open documents. *store.Registry implements it.
type DocumentSource interface {
	Get(id string) (*store.Document, bool)
}

// Materializer turns an external payload into entities with fresh ids.
type Materializer func(payload any, newID func(prefix string) string) ([]model.Entity, error)

// Outcome describes what one drop did.
type Outcome struct {
	Topology Topology
	// NoOp is set when nothing was committed.
	NoOp bool
	// Rejected is the contract violation that turned the drop into a no-op.
	Rejected error

	Source string
	Dest   string

	Entity      model.Entity
	Replacement *model.Entity
	// Inserted lists the entities an external drop created.
	Inserted []model.Entity

	From        model.Path
	To          model.Path
	ClearedSort bool
}

func (o *Outcome) applied(res tree.MoveResult) {
	o.NoOp = false
	o.Entity = res.Entity
	o.Replacement = res.Replacement
	o.From = res.From
	o.To = res.To
	o.ClearedSort = res.ClearedSort
}

// Reconciler applies drops. It handles one gesture at a time.
type Reconciler struct {
	Docs         DocumentSource
	Transform    complete.Transform
	Settings     config.Settings
	Materializer Materializer
	NewID        func(prefix string) string
	Log          *log.Logger

	mu sync.Mutex
}

// HandleDrop applies the gesture that dragged drag onto drop. Vanished paths and contract
// violations are reported through the Outcome with a nil error; transform failures and broken
// cross-document moves are returned.
func (r *Reconciler) HandleDrop(drag, drop Handle) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	topo := Classify(drag, drop)
	entry := r.logger().WithFields(log.Fields{
		"topology": topo.String(),
		"drag":     drag.Path().String(),
		"drop":     drop.Path().String(),
		"from":     drag.Scope().String(),
		"to":       drop.Scope().String(),
	})

	dst, ok := r.Docs.Get(drop.Scope().DocumentID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownDocument, drop.Scope().DocumentID)
		entry.WithError(err).Warn("drop on closed document")
		return Outcome{Topology: topo, NoOp: true}, err
	}

	switch topo {
	case External:
		out, err := r.external(dst, drag, drop)
		return r.settle(entry, out, err, dst)
	case CrossDocument:
		src, ok := r.Docs.Get(drag.Scope().DocumentID)
		if !ok {
			err := fmt.Errorf("%w: %s", ErrUnknownDocument, drag.Scope().DocumentID)
			entry.WithError(err).Warn("drag from closed document")
			return Outcome{Topology: topo, NoOp: true}, err
		}
		out, err := r.crossDocument(entry, src, dst, drag, drop)
		return r.settle(entry, out, err, src, dst)
	default:
		out, err := r.sameDocument(dst, drag, drop)
		return r.settle(entry, out, err, dst)
	}
}

func (r *Reconciler) settle(entry *log.Entry, out Outcome, err error, docs ...*store.Document) (Outcome, error) {
	var inv *InvariantError
	switch {
	case err == nil:
		if out.NoOp {
			entry.Debug("drop ignored")
		} else {
			entry.WithFields(log.Fields{"entity": out.Entity.ID, "at": out.To.String()}).Debug("drop applied")
		}
		return out, nil
	case errors.As(err, &inv):
		entry.WithError(err).WithField("copies", inv.Copies).Error("cross-document move left the boards inconsistent")
		record(err, docs...)
		return out, err
	case tree.IsNoOp(err), errors.Is(err, errStale):
		entry.WithError(err).Debug("drop target vanished")
		out.NoOp = true
		return out, nil
	case errors.Is(err, tree.ErrNotAccepted), errors.Is(err, tree.ErrCycle), errors.Is(err, tree.ErrRootImmutable):
		entry.WithError(err).Warn("drop rejected")
		record(err, docs...)
		out.NoOp = true
		out.Rejected = err
		return out, nil
	default:
		entry.WithError(err).Error("drop failed")
		record(err, docs...)
		out.NoOp = true
		return out, err
	}
}

func record(err error, docs ...*store.Document) {
	for _, d := range docs {
		if d != nil {
			d.RecordError(err)
		}
	}
}

func (r *Reconciler) sameDocument(doc *store.Document, drag, drop Handle) (Outcome, error) {
	out := Outcome{Topology: SameDocument, Source: doc.ID, Dest: doc.ID, NoOp: true}
	err := doc.SetState(func(s store.Snapshot) (store.Snapshot, error) {
		from := drag.Path()
		ent, err := dragged(s.Board, drag)
		if err != nil {
			return s, err
		}
		to, err := r.resolveDrop(s.Board, drop.Path(), ent.Type)
		if err != nil {
			return s, err
		}
		if from.SameParent(to) {
			out.Topology = SameList
		}

		if ent.Type == model.EntityLane && len(to) == 1 {
			st, res, err := collapse.MoveLane(s.State(), from.Last(), to.Last())
			if err != nil {
				return s, err
			}
			if !res.Moved {
				return s, tree.NotFoundError{Path: from}
			}
			if res.To.Equal(from) {
				return s, store.ErrUnchanged
			}
			out.applied(res)
			return s.WithState(st), nil
		}

		srcParent, _ := tree.LookupParent(s.Board, from)
		dstParent, ok := tree.Lookup(s.Board, to.Parent())
		if !ok {
			return s, tree.NotFoundError{Path: to}
		}
		done, err := r.completion(srcParent, dstParent, ent)
		if err != nil {
			return s, err
		}
		board, res, err := tree.Move(s.Board, from, to, tree.MoveOpts{
			TransformMoved:       func(model.Entity) (model.Entity, error) { return done.Next, nil },
			TransformReplacement: func(model.Entity) (*model.Entity, error) { return done.Replacement, nil },
		})
		if err != nil {
			return s, err
		}
		if !res.Moved {
			return s, tree.NotFoundError{Path: from}
		}
		if res.To.Equal(from) && res.Replacement == nil && !res.ClearedSort && entityEqual(res.Entity, ent) {
			return s, store.ErrUnchanged
		}
		out.applied(res)
		s.Board = board
		return s, nil
	})
	return out, err
}

// crossDocument stages the destination insert and the source removal against the current
// snapshots, then commits destination first and source second. A source that changed in between
// has the entity removed by id from its newer snapshot.
func (r *Reconciler) crossDocument(entry *log.Entry, src, dst *store.Document, drag, drop Handle) (Outcome, error) {
	out := Outcome{Topology: CrossDocument, Source: src.ID, Dest: dst.ID, NoOp: true}
	srcSnap, dstSnap := src.Load(), dst.Load()

	from := drag.Path()
	ent, err := dragged(srcSnap.Board, drag)
	if err != nil {
		return out, err
	}
	to, err := r.resolveDrop(dstSnap.Board, drop.Path(), ent.Type)
	if err != nil {
		return out, err
	}

	done := complete.Result{Next: ent}
	var flags []bool
	if ent.Type == model.EntityLane {
		if i := from.Last(); len(from) == 1 && i < len(srcSnap.Collapse) {
			flags = []bool{srcSnap.Collapse[i]}
		}
	} else {
		srcParent, _ := tree.LookupParent(srcSnap.Board, from)
		dstParent, ok := tree.Lookup(dstSnap.Board, to.Parent())
		if !ok {
			return out, tree.NotFoundError{Path: to}
		}
		if done, err = r.completion(srcParent, dstParent, ent); err != nil {
			return out, err
		}
	}

	dstNext, cleared, err := stageInsert(dstSnap, to, []model.Entity{done.Next}, flags)
	if err != nil {
		return out, err
	}
	srcNext, err := stageRemove(srcSnap, from, done.Replacement)
	if err != nil {
		return out, err
	}

	if err := dst.SetState(commitAt(dstSnap.Version, dstNext)); err != nil {
		return out, err
	}
	out.applied(tree.MoveResult{
		Moved:       true,
		Entity:      done.Next,
		Replacement: done.Replacement,
		From:        append(model.Path{}, from...),
		To:          to,
		ClearedSort: cleared,
	})

	restaged := false
	err = src.SetState(func(cur store.Snapshot) (store.Snapshot, error) {
		if cur.Version == srcSnap.Version {
			return srcNext, nil
		}
		// The source moved on since staging; remove the entity wherever it is now.
		at, ok := tree.Find(cur.Board, ent.ID)
		if !ok {
			return cur, errStale
		}
		restaged = true
		return stageRemove(cur, at, done.Replacement)
	})
	if err != nil {
		if cerr := conservation(src, dst, ent.ID, err); cerr != nil {
			return out, cerr
		}
		entry.WithError(err).Warn("source changed during cross-document move; entity already gone")
		return out, nil
	}
	if restaged {
		entry.WithField("entity", ent.ID).Debug("source changed during cross-document move; removed entity at its current path")
	}
	return out, nil
}

func (r *Reconciler) external(dst *store.Document, drag, drop Handle) (Outcome, error) {
	out := Outcome{Topology: External, Dest: dst.ID, NoOp: true}
	ents, err := r.materialize(drag.Data())
	if err != nil {
		return out, err
	}
	if len(ents) == 0 {
		return out, nil
	}

	err = dst.SetState(func(s store.Snapshot) (store.Snapshot, error) {
		to, err := r.resolveDrop(s.Board, drop.Path(), ents[0].Type)
		if err != nil {
			return s, err
		}
		parent, ok := tree.Lookup(s.Board, to.Parent())
		if !ok {
			return s, tree.NotFoundError{Path: to}
		}
		foreign := model.Entity{ID: "external", Type: model.EntityLane, Data: model.LaneData{}}
		next := make([]model.Entity, len(ents))
		for i, e := range ents {
			done, err := r.completion(foreign, parent, e)
			if err != nil {
				return s, err
			}
			next[i] = done.Next
		}
		staged, cleared, err := stageInsert(s, to, next, nil)
		if err != nil {
			return s, err
		}
		out.applied(tree.MoveResult{Moved: true, Entity: next[0], To: to, ClearedSort: cleared})
		out.Inserted = next
		return staged, nil
	})
	return out, err
}

// resolveDrop turns the drop handle's path into an insertion point for an entity of type t.
// Dropping onto a container that accepts t lands at its head or tail per insertion policy;
// dropping onto anything else lands before it.
func (r *Reconciler) resolveDrop(root model.Entity, at model.Path, t model.EntityType) (model.Path, error) {
	target, ok := tree.Lookup(root, at)
	if !ok {
		// One past the last child addresses the end of a list.
		if parent, ok := tree.LookupParent(root, at); ok && at.Last() == len(parent.Children) {
			return append(model.Path{}, at...), nil
		}
		return nil, tree.NotFoundError{Path: at}
	}
	if model.Accepts(target.Type, t) {
		p, _ := tree.ExtendDropPath(root, at, r.Settings.PolicyFor(root).DropAt())
		return p, nil
	}
	if len(at) == 0 {
		return nil, tree.ContractError{Op: "drop", Path: at, Parent: target.Type, Child: t}
	}
	return append(model.Path{}, at...), nil
}

// completion runs the transform once for an item leaving src for dst.
func (r *Reconciler) completion(src, dst, ent model.Entity) (complete.Result, error) {
	if ent.Type != model.EntityItem || r.Transform == nil {
		return complete.Result{Next: ent}, nil
	}
	res, err := r.Transform(src, dst, ent)
	if err != nil {
		return complete.Result{}, tree.TransformError{EntityID: ent.ID, Err: err}
	}
	if res.Next.Type == "" {
		res.Next = ent
	}
	return res, nil
}

func (r *Reconciler) materialize(payload any) ([]model.Entity, error) {
	m := r.Materializer
	if m == nil {
		m = MaterializePayload
	}
	newID := r.NewID
	if newID == nil {
		newID = model.NewID
	}
	return m(payload, newID)
}

func (r *Reconciler) logger() *log.Logger {
	if r.Log != nil {
		return r.Log
	}
	return log.StandardLogger()
}

// MaterializePayload is the default Materializer. Text is read as one item per line; entities
// are copied with fresh ids throughout.
func MaterializePayload(payload any, newID func(prefix string) string) ([]model.Entity, error) {
	switch p := payload.(type) {
	case string:
		return markdown.ParseItems(p, newID), nil
	case []string:
		return markdown.ParseItems(strings.Join(p, "\n"), newID), nil
	case model.Entity:
		return []model.Entity{reidentify(p, newID)}, nil
	case []model.Entity:
		out := make([]model.Entity, len(p))
		for i, e := range p {
			out[i] = reidentify(e, newID)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

func reidentify(e model.Entity, newID func(prefix string) string) model.Entity {
	out := e.Clone()
	var walk func(*model.Entity)
	walk = func(x *model.Entity) {
		x.ID = newID(string(x.Type))
		for i := range x.Children {
			walk(&x.Children[i])
		}
	}
	walk(&out)
	return out
}

// dragged resolves the drag handle. A path now holding a different entity than the one the
// gesture started with counts as vanished.
func dragged(root model.Entity, drag Handle) (model.Entity, error) {
	from := drag.Path()
	if len(from) == 0 {
		return model.Entity{}, tree.ErrRootImmutable
	}
	ent, ok := tree.Lookup(root, from)
	if !ok {
		return model.Entity{}, tree.NotFoundError{Path: from}
	}
	if want, ok := drag.Data().(model.Entity); ok && want.ID != "" && want.ID != ent.ID {
		return model.Entity{}, tree.NotFoundError{Path: from}
	}
	return ent, nil
}

func stageInsert(snap store.Snapshot, to model.Path, ents []model.Entity, flags []bool) (store.Snapshot, bool, error) {
	if len(to) == 1 {
		st, err := collapse.InsertLanes(snap.State(), to[0], ents, flags)
		if err != nil {
			return snap, false, err
		}
		return snap.WithState(st), false, nil
	}
	board, err := tree.Insert(snap.Board, to, ents...)
	if err != nil {
		return snap, false, err
	}
	parent, _ := tree.Lookup(board, to.Parent())
	cleared := false
	if ld, ok := parent.Lane(); ok && ld.Sorted {
		board, err = tree.Patch(board, to.Parent(), tree.Delta{Unset: []tree.Field{tree.FieldSorted}})
		if err != nil {
			return snap, false, err
		}
		cleared = true
	}
	snap.Board = board
	return snap, cleared, nil
}

func stageRemove(snap store.Snapshot, from model.Path, replacement *model.Entity) (store.Snapshot, error) {
	if len(from) == 1 && replacement == nil {
		st, _, err := collapse.RemoveLane(snap.State(), from[0])
		if err != nil {
			return snap, err
		}
		return snap.WithState(st), nil
	}
	board, err := tree.Remove(snap.Board, from, replacement)
	if err != nil {
		return snap, err
	}
	snap.Board = board
	return snap, nil
}

// commitAt swaps in next only if the document is still at version.
func commitAt(version uint64, next store.Snapshot) func(store.Snapshot) (store.Snapshot, error) {
	return func(cur store.Snapshot) (store.Snapshot, error) {
		if cur.Version != version {
			return cur, errStale
		}
		return next, nil
	}
}

// conservation checks that the entity lives in exactly one of the two documents after a failed
// source commit.
func conservation(src, dst *store.Document, id string, cause error) error {
	copies := 0
	for _, d := range []*store.Document{src, dst} {
		if model.ContainsID(d.Load().Board, id) {
			copies++
		}
	}
	if copies == 1 {
		return nil
	}
	return &InvariantError{EntityID: id, Source: src.ID, Dest: dst.ID, Copies: copies, Err: cause}
}

func entityEqual(a, b model.Entity) bool {
	ad, aok := a.Item()
	bd, bok := b.Item()
	if aok && bok {
		return a.ID == b.ID && ad == bd
	}
	return a.ID == b.ID && a.Type == b.Type
}
