// Command print-zone loads a zone file and prints every record it
// contains, sorted by name. Adapted from the teacher's cmd/print-zone
// to this ecosystem's flat name/value/class/type/ttl record shape and
// longest-suffix matching zone (no ORIGIN/DEFAULT_TTL directives).
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fu-berlin/dnslab/internal/zone"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: print-zone path/to/zonefile\n")
		os.Exit(2)
	}

	path := flag.Arg(0)
	z, err := zone.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load zone: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("RECORDS (%d):\n", z.Len())
	for _, rec := range sortedRecords(z) {
		fmt.Printf("  %s\t%s\t%d\t%s\t%s\n", rec.Name, rec.Class, rec.TTLSecs, rec.Type, rec.Value)
	}
}

func sortedRecords(z *zone.Zone) []zone.Record {
	recs := z.Records()
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs
}
