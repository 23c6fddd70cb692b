// Command quizctl is the operator CLI: offline conversion and validation of
// quiz documents, plus database-backed import, export, role promotion and
// development tokens.
package main

import (
	"flag"
	"fmt"
	"os"
)

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

func commands() []command {
	return []command{
		{"convert", "convert a quiz document between json, yaml and markdown", runConvert},
		{"validate", "check a quiz document without touching the database", runValidate},
		{"import", "import a quiz document for a user", runImport},
		{"export", "export a stored quiz to a file", runExport},
		{"promote", "grant the quiz-master role to a user", runPromote},
		{"token", "issue a development identity token", runToken},
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, cmd := range commands() {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "quizctl %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	printUsage()
	os.Exit(2)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: quizctl <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands() {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", cmd.name, cmd.summary)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet("quizctl "+name, flag.ContinueOnError)
}
