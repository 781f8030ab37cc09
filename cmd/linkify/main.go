// Command linkify turns bare domain names in HTML fragments into links.
//
//	linkify [file ...]
//
// With no arguments the fragment is read from stdin.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"pbnadmin/internal/linkify"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "linkify:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errors.New("no input: pass files or pipe markup on stdin")
		}
		return convert(stdin, stdout)
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = convert(f, stdout)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func convert(r io.Reader, w io.Writer) error {
	markup, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, linkify.HTML(string(markup)))
	return err
}
