// Command loxvm is the REPL/file-runner wrapper around the VM core.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"loxvm/driver"
	"loxvm/vm"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	app := &cli.App{
		Name:  "loxvm",
		Usage: "bytecode compiler and VM for a small Lox-family scripting language",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "trace", Usage: "print a per-instruction disassembly trace"},
		},
		Action: func(c *cli.Context) error { return run(c, logger) },
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitCodeFor(err error) int {
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 70
}

func run(c *cli.Context, logger *zap.Logger) error {
	machine := driver.New(os.Stdout)
	driver.Trace(machine, c.Bool("trace"))
	logger.Info("trace flag", zap.Bool("enabled", c.Bool("trace")))

	switch c.NArg() {
	case 0:
		logger.Info("starting repl")
		repl(machine, logger)
		return nil
	case 1:
		return runFile(machine, c.Args().Get(0), logger)
	default:
		return &exitError{code: 64, msg: "Usage: loxvm [path]"}
	}
}

func repl(machine *vm.VM, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		result := driver.Run(machine, scanner.Text())
		logger.Debug("repl line evaluated", zap.Stringer("result", result))
	}
}

func runFile(machine *vm.VM, path string, logger *zap.Logger) error {
	logger.Info("loading file", zap.String("path", path))
	source, err := os.ReadFile(path)
	if err != nil {
		logger.Error("could not read file", zap.String("path", path), zap.Error(err))
		return &exitError{code: 74, msg: fmt.Sprintf("Could not read file \"%s\".", path)}
	}

	result := driver.Run(machine, string(source))
	logger.Info("run finished", zap.String("path", path), zap.Stringer("result", result))

	switch result {
	case vm.InterpretCompileError:
		return &exitError{code: 65, msg: "compile error"}
	case vm.InterpretRuntimeError:
		return &exitError{code: 70, msg: "runtime error"}
	}
	return nil
}
