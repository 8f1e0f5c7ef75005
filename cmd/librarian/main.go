// Package main provides the CLI for librarian.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/galeep/plugin-librarian/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if err := runCommand(cmd, args); err != nil {
		fatal("%v", err)
	}
}

func runCommand(cmd string, args []string) error {
	switch cmd {
	case "scan":
		return cmdScan(args)
	case "watch":
		return cmdWatch(args)
	case "where":
		return cmdWhere(args)
	case "compare":
		return cmdCompare(args)
	case "impact":
		return cmdImpact(args)
	case "stats":
		return cmdStats(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	case "version", "-v", "--version":
		return cmdVersion(args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func cmdVersion(args []string) error {
	for _, arg := range args {
		if arg == "--json" {
			fmt.Println(version.JSON())
			return nil
		}
	}
	fmt.Println(version.String())
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// parseFlag extracts a flag value from args (e.g., "--key=value").
func parseFlag(args []string, prefix string) string {
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimPrefix(arg, prefix)
		}
	}
	return ""
}

// hasFlag checks if a flag is present in args.
func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// positional returns the non-flag arguments, in order.
func positional(args []string) []string {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
		}
	}
	return out
}

func printUsage() {
	fmt.Printf(`librarian %s - near-duplicate detection across plugin marketplaces

Usage:
  librarian <command> [arguments]

Commands:
  scan       Scan a corpus and write a report
  watch      Rescan a corpus whenever its files change
  where      Find clusters or unclustered files matching a pattern
  compare    Classify one file set against a reference file set
  impact     Shorthand for compare against an installed set
  stats      Print report summary statistics
  version    Show version information

Examples:
  librarian scan --root=/path/to/marketplaces --out=report.json
  librarian where --report=report.json "SKILL.md"
  librarian compare --report=report.json --target=mB --reference=mA
  librarian impact --report=report.json --target=mB --installed=mA,mC
  librarian stats --report=report.json --top=10
`, version.Short())
}
