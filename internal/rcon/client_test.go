package rcon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePacket(t *testing.T) {
	data := append([]byte{0xff, 0xff, 0xff, 0xff}, []byte("print\nhello\n")...)
	respType, body, err := parsePacket(data)
	require.NoError(t, err)
	require.Equal(t, "print", respType)
	require.Equal(t, "hello\n", body)
}

func TestParsePacketMalformed(t *testing.T) {
	_, _, err := parsePacket([]byte("not a valid packet"))
	require.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	body := "\\sv_hostname\\Test Server\\mapname\\ut4_dust2_v2\\g_gametype\\7\n" +
		"20 45 \"Alice\"\n10 90 \"Bob\"\n"
	values, players := parseStatus(body)
	require.Equal(t, "Test Server", values["sv_hostname"])
	require.Equal(t, "ut4_dust2_v2", values["mapname"])
	require.Len(t, players, 2)
	require.Equal(t, StatusPlayer{Frags: 20, Ping: 45, Name: "Alice"}, players[0])
	require.Equal(t, StatusPlayer{Frags: 10, Ping: 90, Name: "Bob"}, players[1])
}

func TestDispatcherDropsWhileNotLive(t *testing.T) {
	d := &Dispatcher{notify: make(chan struct{}, 1)}
	d.Enqueue("say hi")
	require.Empty(t, d.queue)

	d.GoLive()
	d.Enqueue("say hi")
	require.Len(t, d.queue, 1)
}

func TestDispatcherClear(t *testing.T) {
	d := &Dispatcher{notify: make(chan struct{}, 1)}
	d.GoLive()
	d.Enqueue("a")
	d.Enqueue("b")
	d.Clear()
	require.Empty(t, d.queue)
}
