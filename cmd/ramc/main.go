package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"ramlvm/internal/config"
	"ramlvm/internal/diagnostics"
	"ramlvm/internal/iodirective"
	"ramlvm/internal/lvm/compile"
	"ramlvm/internal/lvm/eval"
	"ramlvm/internal/lvm/record"
	"ramlvm/internal/lvm/relation"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ramc <scenario>")
		fmt.Println("Scenarios:")
		for _, name := range scenarioNames() {
			fmt.Printf("  %s\n", name)
		}
		os.Exit(1)
	}

	name := os.Args[1]
	scenario, ok := scenarios()[name]
	if !ok {
		color.Red("Unknown scenario %q", name)
		os.Exit(1)
	}

	cfg := config.Load()
	cfg.ConfigureLogging()

	prog := scenario.Build()
	directives, err := iodirective.New(prog.Symbols, scenario.Directives)
	if err != nil {
		color.Red("Failed to resolve I/O directives: %s", err)
		os.Exit(1)
	}

	compiled := compile.Compile(prog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := relation.NewManager()
	st := eval.EvaluateWithConfig(ctx, compiled, manager, record.New(), directives, eval.FunctorSet{}, cfg.EffectiveThreads())

	if st.Kind != eval.OK {
		reporter := diagnostics.NewReporter(name, compiled.Code, prog.Symbols)
		fmt.Fprint(os.Stderr, reporter.FormatDiagnostic(diagnostics.FromStatus(st)))
		os.Exit(1)
	}

	color.Green("✅ %s finished", name)
}
