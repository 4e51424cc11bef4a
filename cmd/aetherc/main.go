// cmd/aetherc/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"golang.org/x/crypto/blake2b"

	"aetherc/internal/buildutil"
	"aetherc/internal/codegen"
)

const VERSION = "0.1.0"

// Build variables, set during build with ldflags the way cmd/sentra's are.
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

// commandAliases generalizes cmd/sentra's alias map to aetherc's own,
// smaller command set (§5, §6.3).
var commandAliases = map[string]string{
	"b": "build",
	"c": "check",
	"m": "emit-mir",
	"l": "emit-llvm",
	"v": "version",
	"h": "help",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run implements the whole CLI and returns a process exit code rather than
// calling os.Exit directly, so github.com/rogpeppe/go-internal/testscript's
// RunMain can register it as the "aetherc" command of the test binary
// (see main_test.go).
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 0
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
		return 0
	case "--version", "-v", "version":
		showVersion()
		return 0
	case "build":
		return runCompile(args[1:], stageBuild)
	case "check":
		return runCompile(args[1:], stageCheck)
	case "emit-mir":
		return runCompile(args[1:], stageEmitMIR)
	case "emit-llvm":
		return runCompile(args[1:], stageEmitLLVM)
	default:
		fmt.Fprintf(os.Stderr, "aetherc: unknown command %q\n\n", args[0])
		showUsage()
		return 1
	}
}

// stage names the last phase runCompile should carry a successful build
// through to, ordered the way §5's pipeline stages run.
type stage int

const (
	stageCheck stage = iota
	stageBuild
	stageEmitMIR
	stageEmitLLVM
)

// compileFlags holds the command-line flags of the compile subcommands.
// opt and debug are copied into buildutil.Options (OptLevel, DebugInfo);
// debug also turns on the driver's own build-id, elapsed-time and MIR
// dump output, and noColor is used only by the driver.
type compileFlags struct {
	files   []string
	opt     int
	debug   bool
	noColor bool
}

func parseCompileFlags(args []string) compileFlags {
	f := compileFlags{opt: 1}
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "--debug":
			f.debug = true
		case a == "--no-color":
			f.noColor = true
		case a == "--opt0":
			f.opt = 0
		case strings.HasPrefix(a, "--opt="):
			fmt.Sscanf(strings.TrimPrefix(a, "--opt="), "%d", &f.opt)
		default:
			f.files = append(f.files, a)
		}
	}
	return f
}

// runCompile drives one invocation of the pipeline through args[0:] source
// files, stopping at through and printing whatever that stage produces. It
// returns the process exit code rather than calling os.Exit so run (and in
// turn testscript.RunMain) stays in control of process lifetime.
func runCompile(args []string, through stage) int {
	flags := parseCompileFlags(args)
	if len(flags.files) == 0 {
		fmt.Fprintln(os.Stderr, "aetherc: no input files")
		return 1
	}

	units := make([]buildutil.Unit, 0, len(flags.files))
	var concatenated strings.Builder
	for _, path := range flags.files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "aetherc: %v\n", err)
			return 1
		}
		units = append(units, buildutil.Unit{File: path, Source: string(src)})
		concatenated.Write(src)
	}

	opts := buildutil.DefaultOptions()
	opts.OptLevel = flags.opt
	opts.DebugInfo = flags.debug
	opts.EmitLLVM = through == stageEmitLLVM

	start := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := buildutil.Run(ctx, units, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aetherc: %v\n", err)
		return 1
	}

	printDiagnostics(res, flags.noColor)
	if res.Diags.HasErrors() || res.Program == nil {
		return 1
	}

	if flags.debug {
		fmt.Fprintf(os.Stderr, "build id: %s\n", buildID(concatenated.String()))
		fmt.Fprintf(os.Stderr, "elapsed:  %s\n", time.Since(start))
	}

	switch through {
	case stageCheck:
		fmt.Printf("ok: %d functions, no diagnostics\n", len(res.Program.Functions))
	case stageBuild:
		fmt.Printf("ok: compiled %d functions from %s (%s)\n",
			len(res.Program.Functions), joinedLabel(flags.files), humanize.Bytes(uint64(concatenated.Len())))
		if flags.debug {
			pretty.Fprintf(os.Stderr, "%# v\n", res.Program)
		}
	case stageEmitMIR:
		dumpMIR(res)
	case stageEmitLLVM:
		mod, err := codegen.Generate(res.Program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "aetherc: %v\n", err)
			return 1
		}
		fmt.Print(mod.String())
	}
	return 0
}

// buildID fingerprints a compilation's concatenated source text (§ AMBIENT
// STACK "Build identity") — a stable label for reproducing a --debug
// report, not a cache key; aetherc never caches or incrementally compiles.
func buildID(source string) string {
	sum := blake2b.Sum256([]byte(source))
	return fmt.Sprintf("%x", sum[:8])
}

func joinedLabel(files []string) string {
	if len(files) == 1 {
		return files[0]
	}
	return fmt.Sprintf("%d files", len(files))
}

// printDiagnostics renders every diagnostic in source order (§5
// "Ordering") to stderr, coloring each whole diagnostic line when stderr
// is a real terminal and --no-color wasn't passed.
func printDiagnostics(res *buildutil.Result, noColor bool) {
	color := !noColor && isatty.IsTerminal(os.Stderr.Fd())
	for _, d := range res.Diags.Sorted() {
		if color {
			fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", d.Error())
		} else {
			fmt.Fprintln(os.Stderr, d.Error())
		}
	}
}

func showUsage() {
	fmt.Println("aetherc - AetherScript ahead-of-time compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  aetherc build <file.aether...>      Compile and lower to MIR     (alias: b)")
	fmt.Println("  aetherc check <file.aether...>      Type-check only, no codegen  (alias: c)")
	fmt.Println("  aetherc emit-mir <file.aether...>   Print the lowered MIR        (alias: m)")
	fmt.Println("  aetherc emit-llvm <file.aether...>  Print generated LLVM IR      (alias: l)")
	fmt.Println("  aetherc version                     Print version information   (alias: v)")
	fmt.Println("  aetherc help                        Show this message           (alias: h)")
	fmt.Println()
	fmt.Println("Flags (build/check/emit-mir/emit-llvm):")
	fmt.Println("  --opt=N       Optimizer level (0 disables internal/optimize, default 1)")
	fmt.Println("  --opt0        Shorthand for --opt=0")
	fmt.Println("  --debug       Print build id and elapsed time (build: also a MIR dump)")
	fmt.Println("  --no-color    Disable ANSI coloring of diagnostics")
}

func showVersion() {
	fmt.Printf("aetherc %s\n", VERSION)
	fmt.Printf("build date: %s\n", BuildDate)
	if GitCommit != "unknown" {
		fmt.Printf("git commit: %s\n", GitCommit)
	}
}
