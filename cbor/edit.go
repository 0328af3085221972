package cbor

import "sort"

// SetMode controls whether [Editor.Set]-family operations require the
// target key to be absent, present, or don't care.
type SetMode int

const (
	SetUpsert SetMode = iota
	SetInsertOnly
	SetReplaceOnly
)

// DeleteMode controls whether a delete requires the target to be present.
type DeleteMode int

const (
	DeleteRequire DeleteMode = iota
	DeleteIfPresent
)

// ArrayPos names a splice position: either a concrete index or "append at
// the end". Build with [At] or use [End].
type ArrayPos struct {
	end bool
	at  int
}

// At builds a splice position at a concrete original index.
func At(i int) ArrayPos { return ArrayPos{at: i} }

// End is the splice position past the last original element.
var End = ArrayPos{end: true}

func cmpArrayPos(a, b ArrayPos) int {
	switch {
	case a.end && b.end:
		return 0
	case a.end:
		return 1
	case b.end:
		return -1
	case a.at < b.at:
		return -1
	case a.at > b.at:
		return 1
	default:
		return 0
	}
}

// EditOptions tunes editor behavior beyond the core patch semantics.
type EditOptions struct {
	// CreateMissingMaps allows Set operations to materialize intermediate
	// maps along a path that doesn't exist in the source document.
	CreateMissingMaps bool
}

// EditValue is a value to splice into an edited document: either raw
// already-canonical bytes (from a ValueRef or a prior encode) or bytes
// freshly produced from an owned Value.
type EditValue struct {
	raw []byte
}

// EditValueFromValue canonically encodes v for use as an edit operand.
func EditValueFromValue(v Value) (EditValue, error) {
	b, err := v.EncodeCanonical()
	if err != nil {
		return EditValue{}, err
	}
	return EditValue{raw: b}, nil
}

// EditValueRaw wraps bytes the caller already knows are exactly one
// canonical CBOR item (e.g. from ValueRef.Raw()).
func EditValueRaw(canonicalBytes []byte) EditValue {
	return EditValue{raw: canonicalBytes}
}

type terminalKind int

const (
	terminalSet terminalKind = iota
	terminalDelete
)

type terminal struct {
	kind    terminalKind
	setMode SetMode
	delMode DeleteMode
	value   EditValue
}

type childKind int

const (
	childNone childKind = iota
	childKeys
	childIndices
)

type keyChild struct {
	key  string
	node *node
}

type indexChild struct {
	idx  int
	node *node
}

type arraySplice struct {
	pos     ArrayPos
	delete  int
	inserts []EditValue
}

// node is one position of the editor's patch trie: the set of edits
// rooted at one path prefix. A node with a terminal has no children and no
// splices; otherwise it may hold key children or index children (never
// both) and, alongside them, array splices.
type node struct {
	terminal *terminal
	kind     childKind
	keys     []keyChild
	indices  []indexChild
	splices  []arraySplice
}

func (n *node) isEmpty() bool {
	return n.terminal == nil && n.kind == childNone && len(n.splices) == 0
}

func (n *node) childMut(elem PathElem) (*node, *Error) {
	if elem.isIndex {
		if n.kind == childKeys {
			return nil, newError(ErrPatchConflict, 0)
		}
		n.kind = childIndices
		i := sort.Search(len(n.indices), func(i int) bool { return n.indices[i].idx >= elem.index })
		if i < len(n.indices) && n.indices[i].idx == elem.index {
			return n.indices[i].node, nil
		}
		nn := &node{}
		n.indices = append(n.indices, indexChild{})
		copy(n.indices[i+1:], n.indices[i:])
		n.indices[i] = indexChild{idx: elem.index, node: nn}
		return nn, nil
	}
	if n.kind == childIndices {
		return nil, newError(ErrPatchConflict, 0)
	}
	n.kind = childKeys
	i := sort.Search(len(n.keys), func(i int) bool { return cmpTextKeys(n.keys[i].key, elem.key) >= 0 })
	if i < len(n.keys) && n.keys[i].key == elem.key {
		return n.keys[i].node, nil
	}
	nn := &node{}
	n.keys = append(n.keys, keyChild{})
	copy(n.keys[i+1:], n.keys[i:])
	n.keys[i] = keyChild{key: elem.key, node: nn}
	return nn, nil
}

// Editor accumulates a set of patch operations against a validated source
// document and applies them in one forward pass, producing new canonical
// bytes without re-walking the parts of the source it didn't touch.
type Editor struct {
	root    ValueRef
	options EditOptions
	ops     *node
}

// NewEditor returns an Editor that will patch root.
func NewEditor(root ValueRef, options EditOptions) *Editor {
	return &Editor{root: root, options: options, ops: &node{}}
}

func (e *Editor) insertTerminal(path []PathElem, t terminal) error {
	n := e.ops
	for _, elem := range path {
		if n.terminal != nil {
			return newError(ErrPatchConflict, 0)
		}
		next, err := n.childMut(elem)
		if err != nil {
			return err
		}
		n = next
	}
	if n.terminal != nil || n.kind != childNone || len(n.splices) > 0 {
		return newError(ErrPatchConflict, 0)
	}
	t2 := t
	n.terminal = &t2
	return nil
}

// Set schedules path to be overwritten (or created, for a new map key)
// with value, subject to mode.
func (e *Editor) Set(path []PathElem, mode SetMode, value EditValue) error {
	return e.insertTerminal(path, terminal{kind: terminalSet, setMode: mode, value: value})
}

// Delete schedules path to be removed, subject to mode.
func (e *Editor) Delete(path []PathElem, mode DeleteMode) error {
	return e.insertTerminal(path, terminal{kind: terminalDelete, delMode: mode})
}

// Splice schedules an array splice at arrayPath: delete elements
// [pos, pos+deleteCount) of the original array (pos must not be [End] if
// deleteCount > 0) and insert inserts at pos.
func (e *Editor) Splice(arrayPath []PathElem, pos ArrayPos, deleteCount int, inserts []EditValue) error {
	if pos.end && deleteCount != 0 {
		return newError(ErrInvalidQuery, 0)
	}
	n := e.ops
	for _, elem := range arrayPath {
		if n.terminal != nil {
			return newError(ErrPatchConflict, 0)
		}
		next, err := n.childMut(elem)
		if err != nil {
			return err
		}
		n = next
	}
	if n.terminal != nil {
		return newError(ErrPatchConflict, 0)
	}
	sp := arraySplice{pos: pos, delete: deleteCount, inserts: append([]EditValue(nil), inserts...)}

	i := sort.Search(len(n.splices), func(i int) bool { return cmpArrayPos(n.splices[i].pos, sp.pos) >= 0 })
	if i > 0 {
		prev := n.splices[i-1]
		if cmpArrayPos(prev.pos, sp.pos) == 0 {
			return newError(ErrPatchConflict, 0)
		}
		if !prev.pos.end && !sp.pos.end {
			prevEnd, err := spliceEnd(prev.pos.at, prev.delete)
			if err != nil {
				return err
			}
			if prevEnd > sp.pos.at {
				return newError(ErrPatchConflict, 0)
			}
		}
	}
	if i < len(n.splices) {
		next := n.splices[i]
		if cmpArrayPos(sp.pos, next.pos) == 0 {
			return newError(ErrPatchConflict, 0)
		}
		if !sp.pos.end && !next.pos.end {
			end, err := spliceEnd(sp.pos.at, sp.delete)
			if err != nil {
				return err
			}
			if end > next.pos.at {
				return newError(ErrPatchConflict, 0)
			}
		}
	}
	n.splices = append(n.splices, arraySplice{})
	copy(n.splices[i+1:], n.splices[i:])
	n.splices[i] = sp
	return nil
}

// Push appends value to the end of the array at arrayPath.
func (e *Editor) Push(arrayPath []PathElem, value EditValue) error {
	return e.Splice(arrayPath, End, 0, []EditValue{value})
}

func spliceEnd(start, deleteCount int) (int, *Error) {
	end := start + deleteCount
	if end < start {
		return 0, newError(ErrLengthOverflow, 0)
	}
	return end, nil
}

// Apply runs every scheduled operation in one forward pass over the source
// bytes and returns the resulting canonical document.
func (e *Editor) Apply() (ValidatedBytes, error) {
	enc := NewEncoder()
	if err := emitValue(enc, e.root, e.ops, e.options); err != nil {
		return ValidatedBytes{}, err
	}
	data, err := enc.IntoCanonical()
	if err != nil {
		return ValidatedBytes{}, err
	}
	return ValidatedBytes{data: data}, nil
}

func writeNewValue(enc *Encoder, v EditValue) *Error {
	return enc.RawCbor(v.raw)
}

// emitNewValue emits a value that exists only in the patch trie, with no
// corresponding source bytes — used for map keys and array elements
// introduced by the edit itself.
func emitNewValue(enc *Encoder, n *node) *Error {
	if n.terminal != nil {
		if n.terminal.kind == terminalDelete {
			return newError(ErrMissingKey, 0)
		}
		return writeNewValue(enc, n.terminal.value)
	}
	switch n.kind {
	case childKeys:
		type out struct {
			key string
			n   *node
		}
		var outs []out
		for _, kc := range n.keys {
			if kc.node.terminal != nil && kc.node.terminal.kind == terminalDelete {
				continue
			}
			outs = append(outs, out{kc.key, kc.node})
		}
		sort.Slice(outs, func(i, j int) bool { return cmpTextKeys(outs[i].key, outs[j].key) < 0 })
		return enc.Map(len(outs), func(me *MapEncoder) *Error {
			for _, o := range outs {
				oc := o
				if err := me.Entry(oc.key, func(e *Encoder) *Error { return emitNewValue(e, oc.n) }); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		var inserts []EditValue
		for _, sp := range n.splices {
			inserts = append(inserts, sp.inserts...)
		}
		return enc.Array(len(inserts), func(ae *ArrayEncoder) *Error {
			for _, ins := range inserts {
				insCopy := ins
				if err := ae.Emit(func(e *Encoder) *Error { return writeNewValue(e, insCopy) }); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

// emitValue emits src as patched by n: verbatim if n carries no edits,
// otherwise dispatching to the map or array patch machinery.
func emitValue(enc *Encoder, src ValueRef, n *node, opts EditOptions) *Error {
	if n == nil || n.isEmpty() {
		return enc.RawCbor(src.Raw())
	}
	if n.terminal != nil {
		if n.terminal.kind == terminalDelete {
			return newError(ErrInvalidQuery, src.start)
		}
		return writeNewValue(enc, n.terminal.value)
	}
	kind, err := src.Kind()
	if err != nil {
		return err
	}
	if n.kind == childKeys {
		if kind != KindMap {
			return newError(ErrExpectedMap, src.start)
		}
		return emitPatchedMap(enc, src, n, opts)
	}
	if kind != KindArray {
		return newError(ErrExpectedArray, src.start)
	}
	return emitPatchedArray(enc, src, n, opts)
}

func emitPatchedMap(enc *Encoder, src ValueRef, n *node, opts EditOptions) *Error {
	m, err := src.Map()
	if err != nil {
		return err
	}
	type origEntry struct {
		key string
		val ValueRef
	}
	orig := make([]origEntry, 0, m.Len())
	if iterErr := m.Iter(func(key string, v ValueRef) *Error {
		orig = append(orig, origEntry{key, v})
		return nil
	}); iterErr != nil {
		return iterErr
	}

	childByKey := make(map[string]*node, len(n.keys))
	for _, kc := range n.keys {
		childByKey[kc.key] = kc.node
	}

	type outEntry struct {
		key  string
		emit func(*Encoder) *Error
	}
	var outs []outEntry
	seen := make(map[string]bool, len(orig))

	for _, oe := range orig {
		oeCopy := oe
		seen[oe.key] = true
		child, has := childByKey[oe.key]
		if !has {
			outs = append(outs, outEntry{oeCopy.key, func(e *Encoder) *Error { return e.RawCbor(oeCopy.val.Raw()) }})
			continue
		}
		if child.terminal != nil {
			if child.terminal.kind == terminalDelete {
				continue
			}
			if child.terminal.setMode == SetInsertOnly {
				return newError(ErrInvalidQuery, 0)
			}
			valCopy := child.terminal.value
			outs = append(outs, outEntry{oeCopy.key, func(e *Encoder) *Error { return writeNewValue(e, valCopy) }})
			continue
		}
		childCopy := child
		outs = append(outs, outEntry{oeCopy.key, func(e *Encoder) *Error { return emitValue(e, oeCopy.val, childCopy, opts) }})
	}

	for _, kc := range n.keys {
		if seen[kc.key] {
			continue
		}
		if kc.node.terminal == nil {
			if !opts.CreateMissingMaps {
				return newError(ErrMissingKey, 0)
			}
			kcCopy := kc
			outs = append(outs, outEntry{kcCopy.key, func(e *Encoder) *Error { return emitNewValue(e, kcCopy.node) }})
			continue
		}
		t := kc.node.terminal
		if t.kind == terminalDelete {
			if t.delMode == DeleteRequire {
				return newError(ErrMissingKey, 0)
			}
			continue
		}
		if t.setMode == SetReplaceOnly {
			return newError(ErrMissingKey, 0)
		}
		valCopy := t.value
		outs = append(outs, outEntry{kc.key, func(e *Encoder) *Error { return writeNewValue(e, valCopy) }})
	}

	sort.Slice(outs, func(i, j int) bool { return cmpTextKeys(outs[i].key, outs[j].key) < 0 })
	for i := 1; i < len(outs); i++ {
		if outs[i-1].key == outs[i].key {
			return newError(ErrDuplicateMapKey, 0)
		}
	}

	return enc.Map(len(outs), func(me *MapEncoder) *Error {
		for _, oe := range outs {
			if err := me.Entry(oe.key, oe.emit); err != nil {
				return err
			}
		}
		return nil
	})
}

func emitPatchedArray(enc *Encoder, src ValueRef, n *node, opts EditOptions) *Error {
	arr, err := src.Array()
	if err != nil {
		return err
	}
	origLen := arr.Len()
	origs := make([]ValueRef, origLen)
	if iterErr := arr.Iter(func(i int, v ValueRef) *Error {
		origs[i] = v
		return nil
	}); iterErr != nil {
		return iterErr
	}

	modByIdx := make(map[int]*node, len(n.indices))
	for _, ic := range n.indices {
		if ic.idx >= origLen {
			return newError(ErrIndexOutOfBounds, src.start)
		}
		modByIdx[ic.idx] = ic.node
	}

	type resolved struct {
		start, delete int
		inserts       []EditValue
	}
	resolvedSplices := make([]resolved, 0, len(n.splices))
	for _, sp := range n.splices {
		start := sp.pos.at
		if sp.pos.end {
			start = origLen
		}
		end, serr := spliceEnd(start, sp.delete)
		if serr != nil {
			return serr
		}
		if end > origLen {
			return newError(ErrIndexOutOfBounds, src.start)
		}
		resolvedSplices = append(resolvedSplices, resolved{start, sp.delete, sp.inserts})
	}
	sort.Slice(resolvedSplices, func(i, j int) bool { return resolvedSplices[i].start < resolvedSplices[j].start })
	for i := 1; i < len(resolvedSplices); i++ {
		if resolvedSplices[i].start < resolvedSplices[i-1].start+resolvedSplices[i-1].delete {
			return newError(ErrPatchConflict, src.start)
		}
	}
	for _, sp := range resolvedSplices {
		for idx := range modByIdx {
			if idx >= sp.start && idx < sp.start+sp.delete {
				return newError(ErrPatchConflict, src.start)
			}
		}
	}

	spliceAt := make(map[int]resolved, len(resolvedSplices))
	for _, sp := range resolvedSplices {
		spliceAt[sp.start] = sp
	}
	deleted := func(i int) bool {
		for _, sp := range resolvedSplices {
			if i >= sp.start && i < sp.start+sp.delete {
				return true
			}
		}
		return false
	}

	var outs []func(*Encoder) *Error
	for i := 0; i <= origLen; i++ {
		if sp, ok := spliceAt[i]; ok {
			for _, ins := range sp.inserts {
				insCopy := ins
				outs = append(outs, func(e *Encoder) *Error { return writeNewValue(e, insCopy) })
			}
		}
		if i == origLen {
			break
		}
		if deleted(i) {
			continue
		}
		if child, has := modByIdx[i]; has {
			srcCopy := origs[i]
			childCopy := child
			outs = append(outs, func(e *Encoder) *Error { return emitValue(e, srcCopy, childCopy, opts) })
		} else {
			srcCopy := origs[i]
			outs = append(outs, func(e *Encoder) *Error { return e.RawCbor(srcCopy.Raw()) })
		}
	}

	return enc.Array(len(outs), func(ae *ArrayEncoder) *Error {
		for _, fn := range outs {
			if err := ae.Emit(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
