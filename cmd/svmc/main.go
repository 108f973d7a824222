// Command svmc compiles SVML source into the binary bytecode container
// (or, with -f text, a human-readable disassembly listing).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/svmlang/svmc/internal/assembler"
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/pipeline"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s compile <input%s> [-o output] [-f binary|text]\n", os.Args[0], config.SourceFileExt)
}

func main() {
	if len(os.Args) < 3 || os.Args[1] != "compile" {
		usage()
		os.Exit(3)
	}

	sourcePath := os.Args[2]
	outPath := ""
	format := "binary"

	args := os.Args[3:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				usage()
				os.Exit(3)
			}
			i++
			outPath = args[i]
		case "-f":
			if i+1 >= len(args) {
				usage()
				os.Exit(3)
			}
			i++
			format = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unrecognized argument: %s\n", args[i])
			usage()
			os.Exit(3)
		}
	}

	if format != "binary" && format != "text" {
		fmt.Fprintf(os.Stderr, "unknown output format %q, want binary or text\n", format)
		os.Exit(3)
	}

	if outPath == "" {
		outPath = defaultOutputPath(sourcePath, format)
	}

	opts := compiler.DefaultOptions()
	if projPath := findProjectFile(sourcePath); projPath != "" {
		proj, err := config.LoadProject(projPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(3)
		}
		if proj.Output.Path != "" && !explicitlySetOutput(os.Args[3:]) {
			outPath = proj.Output.Path
		}
		if proj.Output.Format != "" && !explicitlySetFormat(os.Args[3:]) {
			format = proj.Output.Format
		}
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %s\n", sourcePath, err)
		os.Exit(3)
	}

	program, err := pipeline.CompileSource(string(src), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(pipeline.ExitCodeFor(err))
	}

	if format == "text" {
		text := assembler.DisassembleText(program)
		if outPath == "-" {
			writeText(os.Stdout, text)
			return
		}
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "writing %s: %s\n", outPath, err)
			os.Exit(3)
		}
		defer f.Close()
		writeText(f, text)
		return
	}

	data, err := assembler.Assemble(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(pipeline.ExitCodeFor(err))
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %s\n", outPath, err)
		os.Exit(3)
	}
	fmt.Printf("compiled %s -> %s (%d bytes)\n", sourcePath, outPath, len(data))
}

// writeText writes a disassembly listing, dimming every line except the
// "function ..." headers with ANSI codes when w is a terminal so the
// function headers stand out.
func writeText(w *os.File, text string) {
	if !isatty.IsTerminal(w.Fd()) {
		fmt.Fprint(w, text)
		return
	}
	const dim, reset = "\x1b[2m", "\x1b[0m"
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimLeft(line, " "), "function ") {
			fmt.Fprintln(w, line)
			continue
		}
		fmt.Fprintf(w, "%s%s%s\n", dim, line, reset)
	}
}

func defaultOutputPath(sourcePath, format string) string {
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	if format == "text" {
		return base + ".svma"
	}
	return base + config.BinaryFileExt
}

func findProjectFile(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	candidate := filepath.Join(dir, "svmc.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func explicitlySetOutput(args []string) bool {
	for _, a := range args {
		if a == "-o" {
			return true
		}
	}
	return false
}

func explicitlySetFormat(args []string) bool {
	for _, a := range args {
		if a == "-f" {
			return true
		}
	}
	return false
}
