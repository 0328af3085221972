// sacpcbor - SACP-CBOR/1 command-line tool
//
// Usage:
//
//	sacpcbor validate [file]              Validate canonical CBOR, print diagnostics on failure
//	sacpcbor canon [file]                 Validate and re-emit the canonical bytes (identity if already canonical)
//	sacpcbor query <path> [file]          Print the value at a slash-separated path (e.g. "user/id" or "items/0")
//	sacpcbor patch <patchfile> [file]     Apply a JSON patch spec to validated CBOR, writing canonical bytes to stdout
//	sacpcbor hash [file]                  Print the SHA-256 of the validated canonical bytes
//	sacpcbor frame <kind> <sid> <seq> [file]  Wrap validated bytes in a binary frame, written to stdout
//	sacpcbor version                      Print version info
//
// If no file is given, reads from stdin.
//
// A patch spec is a JSON array of operations:
//
//	[
//	  {"op": "set", "path": ["user", "id"], "mode": "upsert", "value": 2},
//	  {"op": "delete", "path": ["user", "note"], "mode": "ifpresent"},
//	  {"op": "splice", "path": ["items"], "pos": "end", "delete": 0, "insert": [9]},
//	  {"op": "push", "path": ["items"], "value": 9}
//	]
//
// path segments that parse as integers address array indices; set's mode is
// one of "upsert"/"insert"/"replace" (default "upsert"), delete's mode is
// "require"/"ifpresent" (default "require"), and splice's pos is "end" or a
// numeric string (default "end").
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Synext-Solution/sacp-cbor/cbor"
	"github.com/Synext-Solution/sacp-cbor/frame"
)

const (
	libVersion  = "0.1.0"
	profileName = "SACP-CBOR/1"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "validate":
		cmdValidate(openArg(os.Args[2:]))
	case "canon":
		cmdCanon(openArg(os.Args[2:]))
	case "query":
		if len(os.Args) < 3 {
			fatal("query: missing path argument")
		}
		cmdQuery(os.Args[2], openArg(os.Args[3:]))
	case "patch":
		if len(os.Args) < 3 {
			fatal("patch: missing patch spec argument")
		}
		cmdPatch(os.Args[2], openArg(os.Args[3:]))
	case "hash":
		cmdHash(openArg(os.Args[2:]))
	case "frame":
		cmdFrame(os.Args[2:])
	case "version":
		fmt.Printf("sacpcbor %s (%s)\n", libVersion, profileName)
	default:
		fmt.Fprintf(os.Stderr, "sacpcbor: unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: sacpcbor <validate|canon|query|patch|hash|frame|version> [args] [file]")
}

func openArg(args []string) io.Reader {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin
	}
	f, err := os.Open(args[0])
	if err != nil {
		fatal("open file: %v", err)
	}
	return f
}

func readAll(r io.Reader) []byte {
	data, err := io.ReadAll(r)
	if err != nil {
		fatal("read input: %v", err)
	}
	return data
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sacpcbor: "+format+"\n", args...)
	os.Exit(1)
}

func cmdValidate(r io.Reader) {
	data := readAll(r)
	if _, err := cbor.Validate(data); err != nil {
		cerr, ok := err.(*cbor.Error)
		if ok {
			fatal("invalid: %s at offset %d", cerr.Code, cerr.Offset)
		}
		fatal("invalid: %v", err)
	}
	fmt.Println("ok")
}

func cmdCanon(r io.Reader) {
	data := readAll(r)
	vb, err := cbor.Validate(data)
	if err != nil {
		fatal("invalid: %v", err)
	}
	os.Stdout.Write(vb.Bytes())
}

func cmdHash(r io.Reader) {
	data := readAll(r)
	vb, err := cbor.Validate(data)
	if err != nil {
		fatal("invalid: %v", err)
	}
	h := frame.StateHash(vb.Bytes())
	fmt.Println(frame.HashToHex(h))
}

func cmdQuery(path string, r io.Reader) {
	data := readAll(r)
	vb, err := cbor.Validate(data)
	if err != nil {
		fatal("invalid: %v", err)
	}

	elems := pathElems(path)
	v, qerr := vb.Root().At(elems...)
	if qerr != nil {
		fatal("query: %s at offset %d", qerr.Code, qerr.Offset)
	}
	printValueRef(v)
}

// pathElems splits a slash-separated path into PathElems, treating any
// segment that parses as an integer as an array index and everything else
// as a map key.
func pathElems(path string) []cbor.PathElem {
	var elems []cbor.PathElem
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		if n, err := strconv.Atoi(seg); err == nil {
			elems = append(elems, cbor.Index(n))
		} else {
			elems = append(elems, cbor.Key(seg))
		}
	}
	return elems
}

// patchOp is one entry of a patch spec file: a single editor operation.
type patchOp struct {
	Op     string            `json:"op"`
	Path   []string          `json:"path"`
	Mode   string            `json:"mode"`
	Value  json.RawMessage   `json:"value"`
	Pos    string            `json:"pos"`
	Delete int               `json:"delete"`
	Insert []json.RawMessage `json:"insert"`
}

func cmdPatch(patchFile string, r io.Reader) {
	specBytes, err := os.ReadFile(patchFile)
	if err != nil {
		fatal("patch: read spec: %v", err)
	}
	var ops []patchOp
	if err := json.Unmarshal(specBytes, &ops); err != nil {
		fatal("patch: parse spec: %v", err)
	}

	data := readAll(r)
	vb, verr := cbor.Validate(data)
	if verr != nil {
		fatal("invalid: %v", verr)
	}

	ed := cbor.NewEditor(vb.Root(), cbor.EditOptions{CreateMissingMaps: true})
	for i, op := range ops {
		if err := applyPatchOp(ed, op); err != nil {
			fatal("patch: op %d (%s): %v", i, op.Op, err)
		}
	}

	out, aerr := ed.Apply()
	if aerr != nil {
		fatal("patch: apply: %v", aerr)
	}
	os.Stdout.Write(out.Bytes())
}

func applyPatchOp(ed *cbor.Editor, op patchOp) error {
	path := make([]cbor.PathElem, len(op.Path))
	for i, seg := range op.Path {
		if n, err := strconv.Atoi(seg); err == nil {
			path[i] = cbor.Index(n)
		} else {
			path[i] = cbor.Key(seg)
		}
	}

	switch op.Op {
	case "set":
		ev, err := editValueFromJSON(op.Value)
		if err != nil {
			return err
		}
		return ed.Set(path, parseSetMode(op.Mode), ev)
	case "delete":
		return ed.Delete(path, parseDeleteMode(op.Mode))
	case "splice":
		pos := cbor.End
		if op.Pos != "" && op.Pos != "end" {
			n, err := strconv.Atoi(op.Pos)
			if err != nil {
				return fmt.Errorf("bad splice pos %q: %w", op.Pos, err)
			}
			pos = cbor.At(n)
		}
		inserts := make([]cbor.EditValue, len(op.Insert))
		for i, raw := range op.Insert {
			ev, err := editValueFromJSON(raw)
			if err != nil {
				return err
			}
			inserts[i] = ev
		}
		return ed.Splice(path, pos, op.Delete, inserts)
	case "push":
		ev, err := editValueFromJSON(op.Value)
		if err != nil {
			return err
		}
		return ed.Push(path, ev)
	default:
		return fmt.Errorf("unknown patch op %q", op.Op)
	}
}

func parseSetMode(mode string) cbor.SetMode {
	switch mode {
	case "insert":
		return cbor.SetInsertOnly
	case "replace":
		return cbor.SetReplaceOnly
	default:
		return cbor.SetUpsert
	}
}

func parseDeleteMode(mode string) cbor.DeleteMode {
	if mode == "ifpresent" {
		return cbor.DeleteIfPresent
	}
	return cbor.DeleteRequire
}

// editValueFromJSON decodes a JSON scalar/array/object into an EditValue,
// via the owned Value tree and its canonical encoder.
func editValueFromJSON(raw json.RawMessage) (cbor.EditValue, error) {
	if len(raw) == 0 {
		return cbor.EditValue{}, fmt.Errorf("missing value")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return cbor.EditValue{}, err
	}
	cv, err := jsonToValue(v)
	if err != nil {
		return cbor.EditValue{}, err
	}
	return cbor.EditValueFromValue(cv)
}

func jsonToValue(v any) (cbor.Value, error) {
	switch x := v.(type) {
	case nil:
		return cbor.NullValue(), nil
	case bool:
		return cbor.BoolValue(x), nil
	case string:
		return cbor.TextValue(x), nil
	case float64:
		if x == float64(int64(x)) {
			return cbor.Int64Value(int64(x)), nil
		}
		f, err := cbor.NewF64(x)
		if err != nil {
			return cbor.Value{}, err
		}
		return cbor.FloatValue(f), nil
	case []any:
		items := make([]cbor.Value, len(x))
		for i, e := range x {
			cv, err := jsonToValue(e)
			if err != nil {
				return cbor.Value{}, err
			}
			items[i] = cv
		}
		return cbor.ArrayValue(items), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		values := make([]cbor.Value, len(keys))
		for i, k := range keys {
			cv, err := jsonToValue(x[k])
			if err != nil {
				return cbor.Value{}, err
			}
			values[i] = cv
		}
		m, err := cbor.NewMap(keys, values)
		if err != nil {
			return cbor.Value{}, err
		}
		return cbor.MapValue(m), nil
	default:
		return cbor.Value{}, fmt.Errorf("unsupported JSON value %T", v)
	}
}

func printValueRef(v cbor.ValueRef) {
	kind, err := v.Kind()
	if err != nil {
		fatal("query: %v", err)
	}
	switch kind {
	case cbor.KindNull:
		fmt.Println("null")
	case cbor.KindBool:
		b, _ := v.Bool()
		fmt.Println(b)
	case cbor.KindInt:
		i, _ := v.Int64()
		fmt.Println(i)
	case cbor.KindBignum:
		neg, mag, _ := v.Bignum()
		sign := ""
		if neg {
			sign = "-"
		}
		fmt.Printf("%s0x%s\n", sign, hex.EncodeToString(mag))
	case cbor.KindFloat:
		f, _ := v.Float64()
		fmt.Println(f)
	case cbor.KindText:
		s, _ := v.Text()
		fmt.Println(s)
	case cbor.KindBytes:
		b, _ := v.Bytes()
		fmt.Println(hex.EncodeToString(b))
	case cbor.KindArray, cbor.KindMap:
		fmt.Println(hex.EncodeToString(v.Raw()))
	}
}

func cmdFrame(args []string) {
	if len(args) < 3 {
		fatal("frame: usage: sacpcbor frame <kind> <sid> <seq> [file]")
	}
	kind, ok := frame.ParseKind(args[0])
	if !ok {
		fatal("frame: unknown kind %q", args[0])
	}
	sid, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fatal("frame: bad sid: %v", err)
	}
	seq, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		fatal("frame: bad seq: %v", err)
	}

	data := readAll(openArg(args[3:]))
	vb, verr := cbor.Validate(data)
	if verr != nil {
		fatal("invalid: %v", verr)
	}

	w := frame.NewWriterWithCRC(os.Stdout)
	if err := w.WriteFrame(&frame.Frame{SID: sid, Seq: seq, Kind: kind, Payload: vb.Bytes()}); err != nil {
		fatal("frame: write: %v", err)
	}
}
