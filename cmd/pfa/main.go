// Command pfa runs a PFA document (spec.md §6) against NDJSON records on
// stdin, one engine.Actor per process, begin/action/end driven the way
// the teacher's cmd/funxy drives a script: parse flags, read input line
// by line, execute, report diagnostics to stderr with isatty-aware
// coloring.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/animator/pfa/internal/value"
	"github.com/animator/pfa/pkg/engine"
)

func main() {
	var (
		docPath      string
		yamlFormat   bool
		timeoutMs    int
		beginTimeout int
		endTimeout   int
	)

	flag.StringVar(&docPath, "f", "", "path to the PFA document (JSON or YAML)")
	flag.BoolVar(&yamlFormat, "yaml", false, "parse the document as YAML instead of JSON")
	flag.IntVar(&timeoutMs, "timeout", 0, "per-action timeout in milliseconds (0 = none)")
	flag.IntVar(&beginTimeout, "timeout-begin", 0, "begin-block timeout in milliseconds (0 = none)")
	flag.IntVar(&endTimeout, "timeout-end", 0, "end-block timeout in milliseconds (0 = none)")
	seed := flag.Int64("randseed", 0, "deterministic PRNG seed, overriding the document's own randseed option")
	flag.Parse()

	var randSeed *int64
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "randseed" {
			randSeed = seed
		}
	})

	logger := newStderrLogger()

	if docPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pfa -f document.json [-yaml] [-timeout ms] [-randseed n]")
		os.Exit(2)
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		fatal(logger, "reading document: %v", err)
	}

	format := engine.FormatJSON
	if yamlFormat {
		format = engine.FormatYAML
	}

	prog, err := engine.Load(data, format, nil)
	if err != nil {
		fatal(logger, "loading document: %v", err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	emit := func(v interface{}) error {
		return writeJSONLine(out, prog, v)
	}

	actor, err := prog.NewActor(emit, logger.log, randSeed)
	if err != nil {
		fatal(logger, "creating actor: %v", err)
	}

	ctx := context.Background()

	actionDeadline := msToDuration(timeoutMs)
	if actionDeadline == 0 {
		actionDeadline = prog.DefaultTimeout()
	}
	beginDeadline := msToDuration(beginTimeout)
	if beginDeadline == 0 {
		beginDeadline = prog.DefaultBeginTimeout()
	}
	endDeadline := msToDuration(endTimeout)
	if endDeadline == 0 {
		endDeadline = prog.DefaultEndTimeout()
	}

	if err := actor.Begin(ctx, beginDeadline); err != nil {
		fatal(logger, "begin: %v", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var tree interface{}
		if err := json.Unmarshal([]byte(line), &tree); err != nil {
			logger.log("", []interface{}{fmt.Sprintf("skipping malformed input line: %v", err)})
			continue
		}
		input, err := value.Decode(prog.InputType(), tree)
		if err != nil {
			logger.log("", []interface{}{fmt.Sprintf("skipping input that doesn't match the declared type: %v", err)})
			continue
		}

		result, err := actor.Action(ctx, actionDeadline, input)
		if err != nil {
			fatal(logger, "action: %v", err)
		}
		if prog.Method() == "map" {
			if err := writeJSONLine(out, prog, result); err != nil {
				fatal(logger, "encoding result: %v", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		fatal(logger, "reading input: %v", err)
	}

	if err := actor.End(ctx, endDeadline); err != nil {
		fatal(logger, "end: %v", err)
	}

	if prog.Method() == "fold" {
		if tally, ok := actor.Tally(); ok {
			if err := writeJSONLine(out, prog, tally); err != nil {
				fatal(logger, "encoding tally: %v", err)
			}
		}
	}
}

func msToDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func writeJSONLine(w *bufio.Writer, prog *engine.Program, v interface{}) error {
	tree, err := value.Encode(prog.OutputType(), v)
	if err != nil {
		return err
	}
	line, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

type stderrLogger struct {
	color bool
}

func newStderrLogger() *stderrLogger {
	return &stderrLogger{color: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())}
}

func (l *stderrLogger) log(namespace string, args []interface{}) {
	prefix := "[pfa]"
	if namespace != "" {
		prefix = "[" + namespace + "]"
	}
	if l.color {
		fmt.Fprintf(os.Stderr, "\x1b[2m%s\x1b[0m", prefix)
	} else {
		fmt.Fprint(os.Stderr, prefix)
	}
	for _, a := range args {
		fmt.Fprintf(os.Stderr, " %v", a)
	}
	fmt.Fprintln(os.Stderr)
}

func fatal(l *stderrLogger, format string, args ...interface{}) {
	if l.color {
		fmt.Fprintf(os.Stderr, "\x1b[31mpfa: %s\x1b[0m\n", fmt.Sprintf(format, args...))
	} else {
		fmt.Fprintf(os.Stderr, "pfa: %s\n", fmt.Sprintf(format, args...))
	}
	os.Exit(1)
}
