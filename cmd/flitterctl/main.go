package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/flitter-run/flitter/internal/config"
	"github.com/flitter-run/flitter/internal/flog"
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/flitter"
	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/simplify"
	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
)

var description = strings.ReplaceAll(`
flitterctl drives the Flitter engine (pkg/flitter) without requiring a
front-end parser: pass 'config' to print the effective tunables, or the name
of a built-in demo program (arithmetic, loop, short-circuit) to simplify,
compile and run it, printing the resulting pragmas/graph/errors.
`, "\n", " ")

var Flitterctl = cli.New(description).
	WithArg(cli.NewArg("name", "'config', or a demo program name")).
	WithOption(cli.NewOption("config", "Path to a YAML config overlay").WithType(cli.TypeString)).
	WithOption(cli.NewOption("log-format", "console (default) or json").WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Print("ERROR: missing argument, use --help\n")
		return -1
	}

	cfg, err := loadConfig(options)
	if err != nil {
		fmt.Printf("ERROR: unable to load config: %s\n", err)
		return -1
	}

	if args[0] == "config" {
		return printJSON(cfg)
	}

	if options["log-format"] == "json" {
		flog.SetJSON(os.Stderr)
	}

	demo, ok := demos[args[0]]
	if !ok {
		fmt.Printf("ERROR: unknown demo %q, use --help\n", args[0])
		return -1
	}

	budget := simplify.Budget{MaxUnrollIterations: cfg.MaxUnrollIterations, MaxInlineDepth: cfg.MaxInlineDepth}
	res := simplify.Simplify(demo.top, nil, nil, budget)
	for _, refErr := range res.Errors {
		flog.Logger().Warn().Err(refErr).Msg("simplify reported a reference error")
	}

	prog, err := flitter.Compile(res.Expr, demo.builtins)
	if err != nil {
		fmt.Printf("ERROR: unable to compile demo %q: %s\n", args[0], err)
		return -1
	}

	ctx, runErr := prog.Run(state.NewStore(), nil)
	if runErr != nil {
		fmt.Printf("ERROR: run aborted: %s\n", runErr)
		return -1
	}

	return printJSON(summarize(ctx))
}

func loadConfig(options map[string]string) (config.Config, error) {
	path, ok := options["config"]
	if !ok {
		return config.Default(), nil
	}
	return config.Load(path)
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("ERROR: unable to print output: %s\n", err)
		return -1
	}
	return 0
}

type runSummary struct {
	Pragmas map[string][]float64 `json:"pragmas"`
	Errors  []string             `json:"errors"`
	Roots   int                  `json:"graph_roots"`
}

func summarize(ctx *state.Context) runSummary {
	out := runSummary{Pragmas: map[string][]float64{}, Roots: len(ctx.Graph.Children())}
	for name, v := range ctx.Pragmas {
		out.Pragmas[name] = v.Numbers()
	}
	for msg := range ctx.Errors {
		out.Errors = append(out.Errors, msg)
	}
	return out
}

type demoSpec struct {
	top      ast.Top
	builtins host.Builtins
}

var demos = map[string]demoSpec{
	"arithmetic": {
		top: ast.Sequence{Items: []ast.Expr{
			ast.Let{Names: []string{"x"}, Values: []ast.Expr{
				ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: litNum(2), Rhs: litNum(3)},
			}},
			ast.Pragma{Name: "v", Value: ast.MathsBinaryOp{
				Op: ast.OpMul, Lhs: ast.Name{Name: "x"}, Rhs: ast.Name{Name: "x"},
			}},
		}},
	},
	"loop": {
		top: ast.For{
			Names:  []string{"i"},
			Source: ast.Range{Start: litNum(0), Stop: litNum(3), Step: litNum(1)},
			Body: ast.Attributes{
				Target: ast.NodeExpr{Kind: "dot"},
				Names:  []string{"x"},
				Values: []ast.Expr{ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Name{Name: "i"}, Rhs: litNum(2)}},
			},
		},
	},
	"short-circuit": {
		top: ast.Sequence{Items: []ast.Expr{
			ast.Let{Names: []string{"x"}, Values: []ast.Expr{
				ast.Or{
					Lhs: ast.And{Lhs: ast.Literal{Value: value.Null}, Rhs: ast.Call{Callee: ast.Name{Name: "explode"}}},
					Rhs: litNum(1),
				},
			}},
			ast.Pragma{Name: "x", Value: ast.Name{Name: "x"}},
		}},
		builtins: host.Builtins{Static: map[string]host.StaticBuiltin{
			"explode": func(args []value.Vector) (value.Vector, error) {
				return value.Null, fmt.Errorf("explode should never run")
			},
		}},
	},
}

func litNum(n float64) ast.Literal { return ast.Literal{Value: value.NewNumber(n)} }

func main() { os.Exit(Flitterctl.Run(os.Args, os.Stdout)) }
