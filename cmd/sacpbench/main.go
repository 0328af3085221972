// sacpbench - SACP-CBOR/1 validator timing harness
//
// Generates representative payloads (flat maps, nested documents, wide
// arrays) and times the full validating walker against them, reporting
// throughput in MB/s. It is a small in-repo stand-in for a criterion-style
// benchmark crate, not a replacement for one.
//
// Output: a markdown table on stdout.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Synext-Solution/sacp-cbor/cbor"
)

type caseResult struct {
	Name      string
	Bytes     int
	Iters     int
	Elapsed   time.Duration
	MBPerSec  float64
}

func main() {
	cases := []struct {
		name string
		data []byte
	}{
		{"flat-map-64", buildFlatMap(64)},
		{"flat-map-1024", buildFlatMap(1024)},
		{"nested-doc-depth-32", buildNestedDoc(32)},
		{"wide-array-4096", buildWideArray(4096)},
	}

	var results []caseResult
	for _, c := range cases {
		r, err := runCase(c.name, c.data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sacpbench: %s: %v\n", c.name, err)
			os.Exit(1)
		}
		results = append(results, r)
	}

	fmt.Println("| case | bytes | iterations | elapsed | MB/s |")
	fmt.Println("|---|---|---|---|---|")
	for _, r := range results {
		fmt.Printf("| %s | %d | %d | %s | %.1f |\n", r.Name, r.Bytes, r.Iters, r.Elapsed, r.MBPerSec)
	}
}

func runCase(name string, data []byte) (caseResult, error) {
	const iters = 2000
	limits := cbor.LimitsForMessageBytes(len(data))

	if _, err := cbor.ValidateCanonical(data, limits); err != nil {
		return caseResult{}, err
	}

	start := time.Now()
	for i := 0; i < iters; i++ {
		if _, err := cbor.ValidateCanonical(data, limits); err != nil {
			return caseResult{}, err
		}
	}
	elapsed := time.Since(start)

	mbPerSec := float64(len(data)*iters) / elapsed.Seconds() / (1024 * 1024)
	return caseResult{Name: name, Bytes: len(data), Iters: iters, Elapsed: elapsed, MBPerSec: mbPerSec}, nil
}

func buildFlatMap(n int) []byte {
	enc := cbor.NewEncoder()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("field_%04d", i)
	}
	_ = enc.Map(n, func(me *cbor.MapEncoder) *cbor.Error {
		for _, k := range keys {
			if err := me.EntryValue(k, cbor.Int64Value(int64(len(k)))); err != nil {
				return err
			}
		}
		return nil
	})
	data, _ := enc.IntoCanonical()
	return data
}

func buildNestedDoc(depth int) []byte {
	v := cbor.Int64Value(1)
	for i := 0; i < depth; i++ {
		m, _ := cbor.NewMap([]string{"child"}, []cbor.Value{v})
		v = cbor.MapValue(m)
	}
	b, _ := v.EncodeCanonical()
	return b
}

func buildWideArray(n int) []byte {
	items := make([]cbor.Value, n)
	for i := range items {
		items[i] = cbor.Int64Value(int64(i))
	}
	b, _ := cbor.ArrayValue(items).EncodeCanonical()
	return b
}
