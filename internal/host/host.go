// Package host glues the compiler, the scheduler, the VM bridge, and the
// link server into one running EXA host, matching the facade described in
// §6.5 of the design.
package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"

	"github.com/andrascorp/exahost/internal/compiler"
	"github.com/andrascorp/exahost/internal/hostconfig"
	"github.com/andrascorp/exahost/internal/link"
	"github.com/andrascorp/exahost/internal/program"
	"github.com/andrascorp/exahost/internal/scheduler"
	"github.com/andrascorp/exahost/internal/vm"
	"github.com/andrascorp/exahost/internal/xlog"
)

// programCacheSize bounds the number of distinct compiled sources a host
// keeps hot, avoiding a full recompile when the same EXA source is loaded
// repeatedly (a console reload, a respawned agent template).
const programCacheSize = 128

// Host owns every subsystem for one EXA node: the runtime shared by every
// agent, the compiler policy, the scheduler, the migration bridge, and the
// link server.
type Host struct {
	ID       uuid.UUID
	Config   hostconfig.Config
	Compiler *compiler.Compiler
	Runtime  *vm.Runtime
	Sched    *scheduler.Scheduler
	Bridge   *scheduler.Bridge
	Link     *link.Server
	log      *xlog.Logger

	progCache *lru.Cache
}

// New creates a Host from cfg. The returned Host has no listener bound yet;
// call Listen to start accepting link connections.
func New(cfg hostconfig.Config) (*Host, error) {
	cache, err := lru.New(programCacheSize)
	if err != nil {
		return nil, err
	}

	log := xlog.Root.With("host", cfg.Hostname)
	bridge := scheduler.NewBridge(cfg.VMConfig.MaxExas)
	rt := vm.NewRuntime(cfg.Hostname, cfg.VMConfig.MaxFiles, int64(hashSeed(cfg.Hostname)), func(line string) {
		log.Info(line)
	})

	h := &Host{
		ID:        uuid.New(),
		Config:    cfg,
		Compiler:  compiler.New(cfg.CompilerConfig),
		Runtime:   rt,
		Sched:     scheduler.New(bridge, log),
		Bridge:    bridge,
		Link:      link.NewServer(bridge, log),
		log:       log,
		progCache: cache,
	}
	return h, nil
}

// Listen starts the link server's TCP listener on addr.
func (h *Host) Listen(ctx context.Context, addr string) error {
	return h.Link.Listen(ctx, addr)
}

// Connect dials a peer host's link listener, completing the handshake in
// §4.5, and returns the freshly allocated outbound link id.
func (h *Host) Connect(addr string) (int16, error) {
	return h.Link.Connect(addr)
}

// CompileExa compiles source lines under name and, on success, wraps the
// result directly into a PackedExa ready for AddExa — matching the facade
// signature compile_exa(name, lines) -> PackedExa | [Error].
func (h *Host) CompileExa(name string, lines []string) (vm.PackedExa, []*compiler.Error) {
	prog, errs := h.compile(lines)
	if len(errs) > 0 {
		return vm.PackedExa{}, errs
	}
	agent := vm.NewAgent(name, prog, h.Runtime)
	return agent.Pack(), nil
}

// compile runs the Compiler, consulting the program cache first so
// identical source text (a reloaded template, a repeated console command)
// skips the compile pipeline entirely.
func (h *Host) compile(lines []string) (*program.Program, []*compiler.Error) {
	key := hashSource(lines)
	if cached, ok := h.progCache.Get(key); ok {
		return cached.(*program.Program), nil
	}
	prog, errs := h.Compiler.Compile(lines)
	if len(errs) > 0 {
		return nil, errs
	}
	h.progCache.Add(key, prog)
	return prog, nil
}

// AddExa hydrates a packed agent against this host's Runtime and admits it
// into the scheduler's live pool, returning its scheduler key.
func (h *Host) AddExa(packed vm.PackedExa) int {
	return h.Sched.AddAgent(packed.Hydrate(h.Runtime))
}

// Step runs one full tick: the scheduler executes one instruction per live
// agent and applies side effects, then newly arrived migrants are adopted
// and anything queued to leave is handed to the link layer.
func (h *Host) Step() {
	h.Sched.Tick()
	h.Sched.AdoptIncoming(h.Runtime)
	for _, err := range h.Link.DrainOutgoing(h.Bridge) {
		h.log.Debug("migration delivery failed", "err", err)
	}
}

// SaveConfig persists the host's current policy configuration to path.
func (h *Host) SaveConfig(path string) error {
	return h.Config.Save(path)
}

// Shutdown stops the link server and waits for in-flight connections.
func (h *Host) Shutdown() error {
	return h.Link.Shutdown()
}

func hashSource(lines []string) string {
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

func hashSeed(s string) int64 {
	sum := sha256.Sum256([]byte(s))
	var n int64
	for i := 0; i < 8; i++ {
		n = n<<8 | int64(sum[i])
	}
	if n < 0 {
		n = -n
	}
	return n
}
