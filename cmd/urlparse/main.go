// Command urlparse parses URLs the way browsers do and prints their
// components as JSON, one object per line.
//
// URLs are taken from the arguments, or from stdin (one per line) if there
// are none.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/IvanBrykalov/workerkit/urlstd"
)

type result struct {
	Input    string     `json:"input"`
	Error    string     `json:"error,omitempty"`
	Href     string     `json:"href,omitempty"`
	Origin   string     `json:"origin,omitempty"`
	Protocol string     `json:"protocol,omitempty"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"password,omitempty"`
	Host     string     `json:"host,omitempty"`
	Hostname string     `json:"hostname,omitempty"`
	Port     string     `json:"port,omitempty"`
	Pathname string     `json:"pathname,omitempty"`
	Search   string     `json:"search,omitempty"`
	Hash     string     `json:"hash,omitempty"`
	Params   [][]string `json:"params,omitempty"`
}

func main() {
	var (
		base   = flag.String("base", "", "base URL to resolve relative inputs against")
		sorted = flag.Bool("sort", false, "sort search params by name")
		strict = flag.Bool("strict", false, "exit non-zero if any input fails to parse")
	)
	flag.Parse()

	if *base != "" && !urlstd.CanParse(*base) {
		log.Fatalf("invalid base URL %q", *base)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	failed := false

	emit := func(input string) {
		r := parse(input, *base, *sorted)
		if r.Error != "" {
			failed = true
		}
		if err := enc.Encode(r); err != nil {
			log.Fatal(err)
		}
	}

	if flag.NArg() > 0 {
		for _, in := range flag.Args() {
			emit(in)
		}
	} else {
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			emit(sc.Text())
		}
		if err := sc.Err(); err != nil {
			log.Fatal(err)
		}
	}

	if *strict && failed {
		os.Exit(1)
	}
}

func parse(input, base string, sorted bool) result {
	var bases []string
	if base != "" {
		bases = append(bases, base)
	}
	u, err := urlstd.New(input, bases...)
	if err != nil {
		return result{Input: input, Error: fmt.Sprint(err)}
	}
	sp := u.SearchParams()
	if sorted {
		sp.Sort()
	}
	r := result{
		Input:    input,
		Href:     u.Href(),
		Origin:   u.Origin(),
		Protocol: u.Protocol(),
		Username: u.Username(),
		Password: u.Password(),
		Host:     u.Host(),
		Hostname: u.Hostname(),
		Port:     u.Port(),
		Pathname: u.Pathname(),
		Search:   u.Search(),
		Hash:     u.Hash(),
	}
	for name, value := range sp.All() {
		r.Params = append(r.Params, []string{name, value})
	}
	return r
}
