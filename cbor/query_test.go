package cbor

import "testing"

func TestValueRefAt(t *testing.T) {
	data := hexBytes(t, "A1 61 61 01") // {"a":1}
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	ref, qerr := vb.Root().At(Key("a"))
	if qerr != nil {
		t.Fatalf("at: %v", qerr)
	}
	v, ierr := ref.Int64()
	if ierr != nil {
		t.Fatalf("int64: %v", ierr)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
}

func TestMapRefGet(t *testing.T) {
	// {"a":1,"b":2,"c":3}
	data := hexBytes(t, "A3 61 61 01 61 62 02 61 63 03")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m, merr := vb.Root().Map()
	if merr != nil {
		t.Fatalf("map: %v", merr)
	}
	if m.Len() != 3 {
		t.Fatalf("expected len 3, got %d", m.Len())
	}

	for _, tt := range []struct {
		key   string
		found bool
		want  int64
	}{
		{"a", true, 1},
		{"b", true, 2},
		{"c", true, 3},
		{"z", false, 0},
	} {
		t.Run(tt.key, func(t *testing.T) {
			v, ok, gerr := m.Get(tt.key)
			if gerr != nil {
				t.Fatalf("get: %v", gerr)
			}
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if !ok {
				return
			}
			got, ierr := v.Int64()
			if ierr != nil {
				t.Fatalf("int64: %v", ierr)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMapRefGetManyPreservesQueryOrder(t *testing.T) {
	// {"a":1,"b":2,"c":3,"d":4}
	data := hexBytes(t, "A4 61 61 01 61 62 02 61 63 03 61 64 04")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m, merr := vb.Root().Map()
	if merr != nil {
		t.Fatalf("map: %v", merr)
	}

	keys := []string{"c", "a", "z", "b"}
	results, found, gerr := m.GetMany(keys)
	if gerr != nil {
		t.Fatalf("get many: %v", gerr)
	}
	want := []int64{3, 1, 0, 2}
	wantFound := []bool{true, true, false, true}
	for i := range keys {
		if found[i] != wantFound[i] {
			t.Fatalf("key %q: expected found=%v, got %v", keys[i], wantFound[i], found[i])
		}
		if !found[i] {
			continue
		}
		got, ierr := results[i].Int64()
		if ierr != nil {
			t.Fatalf("int64: %v", ierr)
		}
		if got != want[i] {
			t.Fatalf("key %q: expected %d, got %d", keys[i], want[i], got)
		}
	}
}

func TestMapRefGetManySortedRejectsUnsorted(t *testing.T) {
	data := hexBytes(t, "A2 61 61 01 61 62 02")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m, merr := vb.Root().Map()
	if merr != nil {
		t.Fatalf("map: %v", merr)
	}
	_, _, gerr := m.GetManySorted([]string{"b", "a"})
	if gerr == nil || gerr.Code != ErrInvalidQuery {
		t.Fatalf("expected ErrInvalidQuery, got %v", gerr)
	}
}

func TestMapRefRequire(t *testing.T) {
	// {"a":1,"b":2,"c":3}
	data := hexBytes(t, "A3 61 61 01 61 62 02 61 63 03")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m, merr := vb.Root().Map()
	if merr != nil {
		t.Fatalf("map: %v", merr)
	}

	v, rerr := m.Require("b")
	if rerr != nil {
		t.Fatalf("require: %v", rerr)
	}
	got, ierr := v.Int64()
	if ierr != nil || got != 2 {
		t.Fatalf("expected 2, got %d (err %v)", got, ierr)
	}

	if _, rerr := m.Require("z"); rerr == nil || rerr.Code != ErrMissingKey {
		t.Fatalf("expected ErrMissingKey, got %v", rerr)
	}
}

func TestMapRefExtrasSorted(t *testing.T) {
	// {"a":1,"b":2,"c":3,"d":4}
	data := hexBytes(t, "A4 61 61 01 61 62 02 61 63 03 61 64 04")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	m, merr := vb.Root().Map()
	if merr != nil {
		t.Fatalf("map: %v", merr)
	}

	keys, values, eerr := m.ExtrasSorted([]string{"b", "d"})
	if eerr != nil {
		t.Fatalf("extras sorted: %v", eerr)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("expected extras [a c], got %v", keys)
	}
	a, ierr := values[0].Int64()
	if ierr != nil || a != 1 {
		t.Fatalf("expected a=1, got %d (err %v)", a, ierr)
	}
	c, ierr := values[1].Int64()
	if ierr != nil || c != 3 {
		t.Fatalf("expected c=3, got %d (err %v)", c, ierr)
	}

	if _, _, eerr := m.ExtrasSorted([]string{"d", "b"}); eerr == nil || eerr.Code != ErrInvalidQuery {
		t.Fatalf("expected ErrInvalidQuery for unsorted usedKeys, got %v", eerr)
	}
}

func TestArrayRefGet(t *testing.T) {
	data := hexBytes(t, "83 01 02 03")
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	arr, aerr := vb.Root().Array()
	if aerr != nil {
		t.Fatalf("array: %v", aerr)
	}
	if arr.Len() != 3 {
		t.Fatalf("expected len 3, got %d", arr.Len())
	}
	v, ok, gerr := arr.Get(1)
	if gerr != nil || !ok {
		t.Fatalf("get(1): ok=%v err=%v", ok, gerr)
	}
	got, ierr := v.Int64()
	if ierr != nil || got != 2 {
		t.Fatalf("expected 2, got %d (err %v)", got, ierr)
	}
	if _, ok, _ := arr.Get(5); ok {
		t.Fatalf("expected out-of-bounds get to report not found")
	}
}

func TestValueRefTypeMismatch(t *testing.T) {
	data := hexBytes(t, "01") // integer 1
	vb, err := Validate(data)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, merr := vb.Root().Map(); merr == nil || merr.Code != ErrExpectedMap {
		t.Fatalf("expected ErrExpectedMap, got %v", merr)
	}
	if _, merr := vb.Root().Text(); merr == nil || merr.Code != ErrExpectedText {
		t.Fatalf("expected ErrExpectedText, got %v", merr)
	}
}
