package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/optimize"
	"github.com/aqlang/aql/parser"
	"github.com/aqlang/aql/patch"
	"github.com/aqlang/aql/schema"
)

var manifests []string

func main() {
	root := &cobra.Command{
		Use:           "aql",
		Short:         "Toolkit for the assistant query/action language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringArrayVar(&manifests, "manifest", nil,
		"device manifest file (repeatable); built-in demo devices when omitted")

	root.AddCommand(fmtCmd(), patchCmd(), sameCmd(), schemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func registry() (*schema.Registry, error) {
	if len(manifests) == 0 {
		return schema.Builtin(), nil
	}
	reg := schema.NewRegistry()
	for _, path := range manifests {
		if err := schema.LoadFile(reg, path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg, nil
}

func fmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <program>",
		Short: "Parse a program and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			prog, err := parser.Parse(args[0], reg)
			if err != nil {
				return err
			}
			var out []string
			for _, stmt := range prog.Stmts {
				es, ok := stmt.(*ast.ExprStmt)
				if !ok {
					out = append(out, ast.StmtString(stmt))
					continue
				}
				c := optimize.Chain(es.Chain)
				if c == nil {
					fmt.Fprintln(os.Stderr, "warning: statement can produce no results, dropped")
					continue
				}
				out = append(out, ast.ExprString(c))
			}
			fmt.Println(strings.Join(out, "; "))
			return nil
		},
	}
}

func patchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patch <old-program> <edit-program>",
		Short: "Merge an edit into a previously-accepted program",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			old, err := parser.Parse(args[0], reg)
			if err != nil {
				return fmt.Errorf("old program: %w", err)
			}
			edit, err := parser.Parse(args[1], reg)
			if err != nil {
				return fmt.Errorf("edit program: %w", err)
			}
			merged, diags := patch.ApplyProgram(old, edit)
			for _, d := range diags {
				fmt.Fprintln(os.Stderr, "warning:", d)
			}
			fmt.Println(merged)
			return nil
		},
	}
}

func sameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "same <pipeline> <pipeline>",
		Short: "Probe whether two pipelines have the same shape",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			c1, err := parser.ParseChain(args[0], reg)
			if err != nil {
				return fmt.Errorf("first pipeline: %w", err)
			}
			c2, err := parser.ParseChain(args[1], reg)
			if err != nil {
				return fmt.Errorf("second pipeline: %w", err)
			}
			fmt.Println(patch.Same(c1, c2))
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the resolved function signatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry()
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, name := range reg.Functions() {
				dot := strings.LastIndex(name, ".")
				s, err := reg.Lookup(name[:dot], name[dot+1:])
				if err != nil {
					return err
				}
				rows = append(rows, signatureRow("@"+name, s))
			}
			for _, name := range reg.Macros() {
				s, err := reg.LookupMacro(name)
				if err != nil {
					return err
				}
				rows = append(rows, signatureRow(name, s))
			}
			printTable([]string{"function", "kind", "required", "optional", "output"}, rows)
			return nil
		},
	}
}

func signatureRow(name string, s *ast.Schema) []string {
	return []string{name, s.Kind.String(), argList(s.InReq), argList(s.InOpt), argList(s.Out)}
}

func argList(args []ast.Arg) string {
	if len(args) == 0 {
		return "-"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + ":" + a.Type
	}
	return strings.Join(parts, ", ")
}

func printTable(columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerParts := make([]string, len(columns))
	for i, col := range columns {
		headerParts[i] = padRight(col, widths[i])
	}
	fmt.Println(strings.Join(headerParts, " | "))

	sepParts := make([]string, len(columns))
	for i := range columns {
		sepParts[i] = strings.Repeat("-", widths[i])
	}
	fmt.Println(strings.Join(sepParts, "-+-"))

	for _, row := range rows {
		parts := make([]string, len(columns))
		for i := range columns {
			parts[i] = padRight(row[i], widths[i])
		}
		fmt.Println(strings.Join(parts, " | "))
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
