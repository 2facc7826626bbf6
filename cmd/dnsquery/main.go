// Command dnsquery sends a single JSON-encoded query to an
// authoritative server or the recursive resolver and prints the
// decoded response. Adapted from the teacher's cmd/dnsquery, which
// spoke RFC1035 binary wire format over the same UDP transport; this
// ecosystem's wire format is the JSON attribute bag implemented by
// internal/dnsmsg, so the packet building and printing logic changes
// even though the flag surface and one-shot-over-UDP shape does not.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
)

func main() {
	var (
		server           = flag.String("server", "127.0.0.1:53053", "server HOST:PORT")
		name             = flag.String("name", "fuberlin", "queried name")
		recursionDesired = flag.Bool("recursion-desired", false, "set the recursion-desired flag")
		timeout          = flag.Duration("timeout", 2*time.Second, "timeout")
		quiet            = flag.Bool("quiet", false, "suppress output (exit status indicates success)")
	)
	flag.Parse()

	resp, err := query(*server, *name, *recursionDesired, *timeout)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	ns := "-"
	if resp.NSName() != nil {
		ns = *resp.NSName()
	}
	rcode := 0
	if resp.RCode != nil {
		rcode = *resp.RCode
	}
	authoritative := false
	if resp.Authoritative != nil {
		authoritative = *resp.Authoritative
	}
	fmt.Printf("name=%s rcode=%d authoritative=%v address=%q ns=%s ttl=%d\n",
		*name, rcode, authoritative, resp.Address(), ns, resp.TTL())
}

func query(server, name string, recursionDesired bool, timeout time.Duration) (dnsmsg.Message, error) {
	conn, err := net.Dial("udp", server)
	if err != nil {
		return dnsmsg.Message{}, err
	}
	defer conn.Close()

	req := dnsmsg.NewRequest(nil)
	req.SetReq(name, false, &recursionDesired)

	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write(req.Build()); err != nil {
		return dnsmsg.Message{}, err
	}

	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		return dnsmsg.Message{}, err
	}

	return dnsmsg.Parse(buf[:n])
}
