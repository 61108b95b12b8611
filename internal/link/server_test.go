package link

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrascorp/exahost/internal/compiler"
	"github.com/andrascorp/exahost/internal/scheduler"
	"github.com/andrascorp/exahost/internal/vm"
	"github.com/andrascorp/exahost/internal/xlog"
)

func startServer(t *testing.T, bridge *scheduler.Bridge) *Server {
	t.Helper()
	s := NewServer(bridge, xlog.Root)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		s.Shutdown()
	})
	require.NoError(t, s.Listen(ctx, "127.0.0.1:0"))
	return s
}

func TestConnectHandshake(t *testing.T) {
	bridgeA := scheduler.NewBridge(9)
	bridgeB := scheduler.NewBridge(9)
	a := startServer(t, bridgeA)
	b := startServer(t, bridgeB)

	id, err := a.Connect(fmt.Sprintf("127.0.0.1:%d", b.Port()))
	require.NoError(t, err)
	assert.Equal(t, int16(1), id, "first outbound link id must be 1")
}

// TestSendExaEndToEnd exercises §8 scenario 6: a packed agent placed in one
// host's outgoing map is delivered into the peer's incoming queue via one
// SendExa exchange.
func TestSendExaEndToEnd(t *testing.T) {
	bridgeA := scheduler.NewBridge(9)
	bridgeB := scheduler.NewBridge(9)
	a := startServer(t, bridgeA)
	b := startServer(t, bridgeB)

	linkID, err := a.Connect(fmt.Sprintf("127.0.0.1:%d", b.Port()))
	require.NoError(t, err)

	rt := vm.NewRuntime("host-a", 9, 1, func(string) {})
	prog, errs := compiler.New(compiler.DefaultConfig()).Compile([]string{"noop"})
	require.Empty(t, errs)
	agent := vm.NewAgent("migrant", prog, rt)

	bridgeA.AddOutgoing(42, linkID, agent.Pack())

	require.NoError(t, a.SendExa(bridgeA, 42, linkID))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(bridgeB.CollectIncoming()) > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("agent never arrived in peer's incoming queue")
}
