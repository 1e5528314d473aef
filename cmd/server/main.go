// Command server runs the GophReddit HTTP API.
//
// Usage:
//
//	server [serve] [flags]             run the API (default)
//	server keygen -k path [-p pass]    generate a sealed signing keystore
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophreddit/internal/filex"
	"github.com/dmitrijs2005/gophreddit/internal/server"
	"github.com/dmitrijs2005/gophreddit/internal/server/config"
	"github.com/dmitrijs2005/gophreddit/internal/server/keystore"
	"golang.org/x/term"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(context.Background())
	case "keygen":
		err = keygen(os.Args[2:], os.Stderr)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	return app.Run(ctx)
}

// readPassphrase reads a passphrase from the terminal without echo.
var readPassphrase = func(prompt string, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, pass the passphrase with -p")
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func keygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(out)

	path := fs.String("k", "keystore.age", "keystore path")
	passphrase := fs.String("p", "", "keystore passphrase (prompted when empty)")
	kind := fs.String("type", string(keystore.Ed25519), "key type: ed25519 or rsa")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *passphrase == "" {
		p, err := readPassphrase("Keystore passphrase: ", out)
		if err != nil {
			return fmt.Errorf("read passphrase: %w", err)
		}
		*passphrase = p
	}

	dir, err := filex.EnsureParentDir(*path)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(*path))

	ks, err := keystore.Generate(keystore.KeyType(*kind))
	if err != nil {
		return err
	}
	if err := keystore.Save(target, *passphrase, ks); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s keystore written to %s\n", ks.Algorithm(), target)
	return nil
}
