// Command exahost runs an EXA host: it compiles EXA source files, steps the
// scheduler, and optionally listens for and dials inter-host links.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/andrascorp/exahost/internal/host"
	"github.com/andrascorp/exahost/internal/hostconfig"
	"github.com/andrascorp/exahost/internal/xlog"
)

var (
	hostnameFlag = cli.StringFlag{
		Name:  "hostname",
		Usage: "name this host advertises over links",
		Value: "localhost",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML host configuration file",
	}
	listenFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "address to bind the link listener on",
		Value: "127.0.0.1:7777",
	}
	connectFlag = cli.StringSliceFlag{
		Name:  "connect",
		Usage: "peer address to dial after startup (repeatable)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "exahost"
	app.Usage = "run an EXA distributed execution host"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		runCommand,
		compileCommand,
		consoleCommand,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "start a host, load EXA source files as agents, and step the scheduler",
	ArgsUsage: "<file.exa> [more files...]",
	Flags:     []cli.Flag{hostnameFlag, configFlag, listenFlag, connectFlag},
	Action:    runAction,
}

var compileCommand = cli.Command{
	Name:      "compile",
	Usage:     "compile an EXA source file and report errors without running it",
	ArgsUsage: "<file.exa>",
	Action:    compileAction,
}

var consoleCommand = cli.Command{
	Name:   "console",
	Usage:  "start an interactive host console",
	Flags:  []cli.Flag{hostnameFlag, configFlag, listenFlag},
	Action: consoleAction,
}

func loadConfig(ctx *cli.Context) (hostconfig.Config, error) {
	if path := ctx.String("config"); path != "" {
		return hostconfig.Load(path)
	}
	return hostconfig.Default(ctx.String("hostname")), nil
}

func runAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("run requires at least one EXA source file", 1)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	h, err := host.New(cfg)
	if err != nil {
		return err
	}

	for _, path := range ctx.Args() {
		lines, err := readLines(path)
		if err != nil {
			return err
		}
		packed, errs := h.CompileExa(agentName(path), lines)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			return cli.NewExitError(fmt.Sprintf("compile failed: %s", path), 1)
		}
		h.AddExa(packed)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if addr := ctx.String("listen"); addr != "" {
		if err := h.Listen(listenCtx, addr); err != nil {
			return err
		}
		xlog.Root.Info("link listener bound", "addr", addr)
	}
	for _, peer := range ctx.StringSlice("connect") {
		if _, err := h.Connect(peer); err != nil {
			xlog.Root.Warn("connect failed", "peer", peer, "err", err)
		}
	}

	for h.Sched.Len() > 0 {
		h.Step()
		time.Sleep(time.Millisecond)
	}
	return nil
}

func compileAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("compile requires exactly one file", 1)
	}
	path := ctx.Args().Get(0)
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	cfg := hostconfig.Default("localhost")
	h, err := host.New(cfg)
	if err != nil {
		return err
	}
	_, errs := h.CompileExa(agentName(path), lines)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return cli.NewExitError("compile failed", 1)
	}
	fmt.Println("ok")
	return nil
}

// consoleAction starts an interactive REPL over the running host: each line
// is either a dot-command (.load, .step, .connect, .quit) or is buffered as
// EXA source until a blank line compiles and admits it as a new agent.
func consoleAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	h, err := host.New(cfg)
	if err != nil {
		return err
	}
	if addr := ctx.String("listen"); addr != "" {
		if err := h.Listen(context.Background(), addr); err != nil {
			return err
		}
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var buf []string
	agentSeq := 0
	for {
		prompt := fmt.Sprintf("%s> ", cfg.Hostname)
		if len(buf) > 0 {
			prompt = "... "
		}
		text, err := line.Prompt(prompt)
		if err != nil {
			break
		}
		line.AppendHistory(text)

		switch {
		case text == ".quit":
			return h.Shutdown()
		case text == ".step":
			h.Step()
			fmt.Printf("live agents: %d\n", h.Sched.Len())
		case strings.HasPrefix(text, ".connect "):
			addr := strings.TrimSpace(strings.TrimPrefix(text, ".connect "))
			id, err := h.Connect(addr)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Printf("linked as %d\n", id)
		case strings.HasPrefix(text, ".load "):
			path := strings.TrimSpace(strings.TrimPrefix(text, ".load "))
			lines, err := readLines(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			admitAgent(h, agentName(path), lines)
		case text == "":
			if len(buf) == 0 {
				continue
			}
			agentSeq++
			admitAgent(h, fmt.Sprintf("console-%d", agentSeq), buf)
			buf = nil
		default:
			buf = append(buf, text)
		}
	}
	return h.Shutdown()
}

func admitAgent(h *host.Host, name string, lines []string) {
	packed, errs := h.CompileExa(name, lines)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return
	}
	h.AddExa(packed)
	fmt.Printf("admitted %s\n", name)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func agentName(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".exa")
}
