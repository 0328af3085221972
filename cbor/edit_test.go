package cbor

import (
	"bytes"
	"testing"
)

func mustValidate(t *testing.T, hex string) ValidatedBytes {
	t.Helper()
	vb, err := Validate(hexBytes(t, hex))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	return vb
}

func TestEditorSetNestedMap(t *testing.T) {
	// S8
	vb := mustValidate(t, "A1 64 75 73 65 72 A1 62 69 64 01")
	ev, err := EditValueFromValue(Int64Value(2))
	if err != nil {
		t.Fatalf("edit value: %v", err)
	}
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Set([]PathElem{Key("user"), Key("id")}, SetUpsert, ev); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := hexBytes(t, "A1 64 75 73 65 72 A1 62 69 64 02")
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}

func TestEditorInsertPreservesCanonicalOrder(t *testing.T) {
	// S9
	vb := mustValidate(t, "A1 61 62 02")
	ev, err := EditValueFromValue(Int64Value(1))
	if err != nil {
		t.Fatalf("edit value: %v", err)
	}
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Set([]PathElem{Key("a")}, SetInsertOnly, ev); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := hexBytes(t, "A2 61 61 01 61 62 02")
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}

func TestEditorOverlappingSplicesConflict(t *testing.T) {
	// S10
	vb := mustValidate(t, "84 01 02 03 04")
	one, _ := EditValueFromValue(Int64Value(9))
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Splice(nil, At(0), 2, []EditValue{one}); err != nil {
		t.Fatalf("first splice: %v", err)
	}
	if err := ed.Splice(nil, At(1), 2, []EditValue{one}); err == nil {
		t.Fatalf("expected PatchConflict for overlapping splice")
	} else if err.(*Error).Code != ErrPatchConflict {
		t.Fatalf("expected ErrPatchConflict, got %v", err)
	}
	// Applying after a rejected second op must still succeed using only the
	// first, since the rejected Splice call never mutated the patch trie.
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := hexBytes(t, "83 09 03 04")
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}

func TestEditorEmptyPatchIsIdentity(t *testing.T) {
	data := hexBytes(t, "A2 61 61 01 61 62 02")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	ed := NewEditor(vb.Root(), EditOptions{})
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("expected byte-identical output, got % X want % X", out.Bytes(), data)
	}
}

func TestEditorDeterministic(t *testing.T) {
	vb := mustValidate(t, "A1 64 75 73 65 72 A1 62 69 64 01")
	build := func() []byte {
		ev, _ := EditValueFromValue(Int64Value(7))
		ed := NewEditor(vb.Root(), EditOptions{})
		if err := ed.Set([]PathElem{Key("user"), Key("id")}, SetUpsert, ev); err != nil {
			t.Fatalf("set: %v", err)
		}
		out, err := ed.Apply()
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		return out.Bytes()
	}
	a, b := build(), build()
	if !bytes.Equal(a, b) {
		t.Fatalf("expected deterministic output, got % X and % X", a, b)
	}
}

func TestEditorSetInsertOnlyOnExistingKeyIsInvalidQuery(t *testing.T) {
	vb := mustValidate(t, "A1 61 61 01")
	ev, _ := EditValueFromValue(Int64Value(2))
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Set([]PathElem{Key("a")}, SetInsertOnly, ev); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err := ed.Apply()
	if err == nil {
		t.Fatalf("expected InvalidQuery for insert-only against an existing key")
	}
	if err.(*Error).Code != ErrInvalidQuery {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestEditorDeleteKey(t *testing.T) {
	vb := mustValidate(t, "A2 61 61 01 61 62 02")
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Delete([]PathElem{Key("a")}, DeleteRequire); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := hexBytes(t, "A1 61 62 02")
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}

func TestEditorPushAppendsToArray(t *testing.T) {
	vb := mustValidate(t, "82 01 02")
	three, _ := EditValueFromValue(Int64Value(3))
	ed := NewEditor(vb.Root(), EditOptions{})
	if err := ed.Push(nil, three); err != nil {
		t.Fatalf("push: %v", err)
	}
	out, err := ed.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := hexBytes(t, "83 01 02 03")
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got % X, want % X", out.Bytes(), want)
	}
}
