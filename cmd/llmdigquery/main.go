// Command llmdigquery asks an LLMdig server a question and prints the answer.
//
// The question is given as an encoded domain name, the same way a client
// would type it into dig:
//
//	llmdigquery -server 127.0.0.1:9000 what.is.the.weather.com
//
// With -count > 1 it turns into a small load generator and prints a latency
// summary instead of answers.
//
// It is built on a separate DNS implementation (miekg/dns) on purpose, so it
// doubles as an interoperability check of the server's wire encoding.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

func main() {
	var (
		server     = flag.String("server", "127.0.0.1:9000", "LLMdig server HOST:PORT")
		timeout    = flag.Duration("timeout", 10*time.Second, "Query timeout")
		count      = flag.Int("count", 1, "Number of queries to send")
		concurrent = flag.Int("concurrent", 1, "Concurrent queries (load mode)")
		quiet      = flag.Bool("quiet", false, "Suppress output; exit status indicates success")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: llmdigquery [flags] QUESTION.DOMAIN.TLD")
		os.Exit(2)
	}
	domain := flag.Arg(0)

	if *count > 1 {
		loadTest(*server, domain, *timeout, *count, *concurrent)
		return
	}

	answer, rtt, rcode, err := queryTXT(*server, domain, *timeout)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "llmdigquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		if rcode != dns.RcodeSuccess {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("rcode=%s rtt=%s\n", dns.RcodeToString[rcode], rtt.Round(time.Millisecond))
	if answer != "" {
		fmt.Println(answer)
	}
}

// queryTXT sends one TXT query and returns the concatenated answer text.
func queryTXT(server, domain string, timeout time.Duration) (string, time.Duration, int, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)

	c := &dns.Client{Net: "udp", Timeout: timeout, UDPSize: dns.MinMsgSize}
	in, rtt, err := c.Exchange(m, server)
	if err != nil {
		return "", 0, 0, err
	}

	var b strings.Builder
	for _, rr := range in.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			// Chunks concatenate in order to reconstruct the answer.
			b.WriteString(strings.Join(txt.Txt, ""))
		}
	}
	return b.String(), rtt, in.Rcode, nil
}

// loadTest fires count queries over concurrent workers and prints a summary.
func loadTest(server, domain string, timeout time.Duration, count, concurrent int) {
	if concurrent < 1 {
		concurrent = 1
	}

	var (
		mu        sync.Mutex
		latencies []time.Duration
		failures  int
	)
	jobs := make(chan struct{})
	var wg sync.WaitGroup

	for range concurrent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				_, rtt, rcode, err := queryTXT(server, domain, timeout)
				mu.Lock()
				if err != nil || rcode != dns.RcodeSuccess {
					failures++
				} else {
					latencies = append(latencies, rtt)
				}
				mu.Unlock()
			}
		}()
	}

	start := time.Now()
	for range count {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("sent=%d ok=%d failed=%d elapsed=%s\n",
		count, len(latencies), failures, elapsed.Round(time.Millisecond))
	if len(latencies) == 0 {
		return
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	fmt.Printf("latency min=%s avg=%s p95=%s max=%s\n",
		latencies[0].Round(time.Microsecond),
		(total / time.Duration(len(latencies))).Round(time.Microsecond),
		latencies[len(latencies)*95/100].Round(time.Microsecond),
		latencies[len(latencies)-1].Round(time.Microsecond),
	)
}
