// Command svmi runs compiled SVML bytecode, or source directly.
package main

import (
	"fmt"
	"os"

	"github.com/svmlang/svmc/internal/assembler"
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/interpreter"
	"github.com/svmlang/svmc/internal/pipeline"
	"github.com/svmlang/svmc/internal/svm"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s interpret <input%s> [-l limits.yaml]\n", os.Args[0], config.BinaryFileExt)
	fmt.Fprintf(os.Stderr, "       %s interpret-source <input%s> [-l limits.yaml]\n", os.Args[0], config.SourceFileExt)
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(3)
	}

	mode := os.Args[1]
	inputPath := os.Args[2]
	limitsPath := ""

	args := os.Args[3:]
	for i := 0; i < len(args); i++ {
		if args[i] == "-l" {
			if i+1 >= len(args) {
				usage()
				os.Exit(3)
			}
			i++
			limitsPath = args[i]
			continue
		}
		fmt.Fprintf(os.Stderr, "unrecognized argument: %s\n", args[i])
		usage()
		os.Exit(3)
	}

	limits := config.DefaultLimits()
	if limitsPath != "" {
		var err error
		limits, err = config.LoadLimits(limitsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(3)
		}
	}

	var program *svm.SVMProgram

	switch mode {
	case "interpret":
		data, err := os.ReadFile(inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %s\n", inputPath, err)
			os.Exit(3)
		}
		program, err = assembler.Disassemble(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(pipeline.ExitCodeFor(err))
		}
	case "interpret-source":
		src, err := os.ReadFile(inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %s\n", inputPath, err)
			os.Exit(3)
		}
		program, err = pipeline.CompileSource(string(src), compiler.DefaultOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(pipeline.ExitCodeFor(err))
		}
	default:
		usage()
		os.Exit(3)
	}

	it := interpreter.New(program, limits)
	result, err := it.Run()
	fmt.Print(result.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(pipeline.ExitCodeFor(err))
	}
	if result.Value.Kind != interpreter.KindUndefined {
		fmt.Println(result.Value.String())
	}
}
