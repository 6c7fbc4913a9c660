// Package main generates a self-signed server certificate and key for the
// workspace API, writing them under the "certs" directory. Clients trust the
// server by passing the certificate as their CA file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/teamsync/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}

	certPath := filepath.Join(*dir, "server.crt")
	keyPath := filepath.Join(*dir, "server.key")
	created, err := certgen.EnsureServerCertificate(certPath, keyPath, names)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(out, "Certificates already present in %s\n", *dir)
		return nil
	}
	fmt.Fprintf(out, "Certificates generated into %s (hosts: %s)\n", *dir, strings.Join(names, ", "))
	return nil
}
