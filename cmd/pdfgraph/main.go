// pdfgraph is a thin command-line consumer of the Document facade: it
// performs no parsing or xref logic of its own (spec.md §6.4).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pdfgraph/pdfgraph"
	"github.com/pdfgraph/pdfgraph/model"
)

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func readFile(path string) []byte {
	data, err := os.ReadFile(path)
	check(err)
	return data
}

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: pdfgraph <inspect|decode|save> <file.pdf>")
		os.Exit(1)
	}

	cmd, input := flag.Arg(0), flag.Arg(1)
	switch cmd {
	case "inspect":
		inspect(input)
	case "decode":
		decode(input)
	case "save":
		save(input)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", cmd)
		os.Exit(1)
	}
}

func inspect(input string) {
	doc, err := pdfgraph.Load(readFile(input))
	check(err)

	if doc.IsEncrypted() {
		fmt.Println("encrypted: yes (password required for further inspection)")
		return
	}
	inner, err := doc.Model()
	check(err)

	fmt.Println("version:", inner.Version)
	fmt.Println("object count:", len(inner.Objects))
	fmt.Println("xref size:", inner.Xref.Size)
	fmt.Println("trailer:", inner.Trailer)

	pages, err := doc.GetPages()
	check(err)
	fmt.Println("pages:", len(pages))
}

func decode(input string) {
	doc, err := pdfgraph.Load(readFile(input))
	check(err)
	inner, err := doc.Model()
	check(err)

	var before, after int
	for id, obj := range inner.Objects {
		stream, ok := obj.(model.Stream)
		if !ok || stream.IsDeferred() {
			continue
		}
		before += len(stream.Content)
		decoded, err := pdfgraph.DecodeStream(stream)
		if err != nil {
			fmt.Fprintf(os.Stderr, "object %s: %v\n", id, err)
			continue
		}
		after += len(decoded)
	}
	fmt.Printf("decoded every stream: %d bytes -> %d bytes\n", before, after)
}

func save(input string) {
	doc, err := pdfgraph.Load(readFile(input))
	check(err)

	out, err := os.Create(input + ".out.pdf")
	check(err)
	defer out.Close()

	opts := pdfgraph.SaveOptions{UseObjectStreams: true}
	check(doc.Save(out, opts))
	fmt.Println("written", input+".out.pdf")
}
