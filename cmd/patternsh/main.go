// patternsh is an interactive mini-notation REPL (§4.8/§4.9 debugging
// console): each line is compiled into a Pattern[string] and queried over
// a chosen cycle span, printing the resulting haps one per line.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/patchwerk/engine/internal/pattern"
	"github.com/patchwerk/engine/internal/pattern/fraction"
	"github.com/patchwerk/engine/internal/pattern/hap"
	"github.com/patchwerk/engine/internal/pattern/mini"
	"github.com/patchwerk/engine/internal/pattern/timespan"
)

func main() {
	app := cli.NewApp()
	app.Name = "patternsh"
	app.Usage = "patternsh [options] [pattern text]"
	app.Description = "compile mini-notation and print the haps a span produces"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "span",
			Usage: "query span as \"begin,end\" in cycles",
			Value: "0,1",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "patternsh:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	begin, end, err := parseSpan(c.String("span"))
	if err != nil {
		return err
	}

	if c.NArg() > 0 {
		return evalLine(strings.Join(c.Args(), " "), begin, end)
	}

	fmt.Println("patternsh: one mini-notation line per query, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := evalLine(line, begin, end); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func parseSpan(s string) (fraction.Fraction, fraction.Fraction, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return fraction.Zero, fraction.Zero, fmt.Errorf("span must be \"begin,end\"")
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fraction.Zero, fraction.Zero, fmt.Errorf("span begin: %w", err)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fraction.Zero, fraction.Zero, fmt.Errorf("span end: %w", err)
	}
	return fraction.FromFloat(b), fraction.FromFloat(e), nil
}

func evalLine(line string, begin, end fraction.Fraction) error {
	reg := mini.NewOperatorRegistry[string]()
	mini.RegisterStructuralOperators(reg)

	pat, err := mini.Compile[string](line, decodeDisplay, reg)
	if err != nil {
		return err
	}

	haps := pat.Query(pattern.State{Span: timespan.New(begin, end)})
	if len(haps) == 0 {
		fmt.Println("(no haps)")
		return nil
	}
	for _, h := range haps {
		printHap(h)
	}
	return nil
}

func printHap(h hap.Hap[string]) {
	kind := "discrete"
	whole := "-"
	if h.Whole == nil {
		kind = "continuous"
	} else {
		whole = fmt.Sprintf("[%s,%s)", h.Whole.Begin, h.Whole.End)
	}
	fmt.Printf("%-10s part=[%s,%s) whole=%-16s value=%q\n", kind, h.Part.Begin, h.Part.End, whole, h.Value)
}

// decodeDisplay turns any parsed atom into a human-readable string instead
// of a target-typed value, since this console's job is to show what the
// grammar parsed, not to drive a module.
func decodeDisplay(a mini.AtomValue, _ hap.SourceSpan) (string, error) {
	switch a.Kind {
	case mini.AtomIdentifier:
		return a.Text, nil
	case mini.AtomString:
		return a.Text, nil
	default:
		if v, ok := a.ToF64(); ok {
			return strconv.FormatFloat(v, 'g', -1, 64), nil
		}
		return "", fmt.Errorf("unreadable atom")
	}
}
