// Package rcon implements the Quake 3 out-of-band console protocol
// and a single-writer dispatcher serialising outbound
// commands over it. Wire framing matches pyquake3.py: every
// datagram carries a four-byte 0xFF prefix, ASCII payload, newline
// terminator.
package rcon

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/spunkybot/urtadmind/internal/boterr"
)

var packetPrefix = []byte{0xff, 0xff, 0xff, 0xff}

var playerLineRe = regexp.MustCompile(`^(\d+) (\d+) "(.*)"$`)

// StatusPlayer is one row of a getstatus player block.
type StatusPlayer struct {
	Frags int
	Ping  int
	Name  string
}

// Client speaks the Quake 3 RCON/getstatus protocol to one fixed UDP
// peer. It is not safe for concurrent use by multiple goroutines. In
// the daemon, Dispatcher sends every queued command through it, and
// Game.SetCurrentMap reads the mapname cvar through it directly.
type Client struct {
	conn         net.Conn
	rconPassword string

	Values  map[string]string
	Players []StatusPlayer
}

// NewClient dials the UDP peer addr ("host:port") without sending
// anything — UDP is connectionless, so Dial only binds the local
// endpoint and records the peer.
func NewClient(addr, rconPassword string) (*Client, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing rcon peer %q: %w", addr, err)
	}
	return &Client{conn: conn, rconPassword: rconPassword}, nil
}

// Close releases the underlying UDP socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send fires a datagram and does not wait for a reply.
func (c *Client) Send(cmd string) error {
	_, err := c.conn.Write(append(append([]byte{}, packetPrefix...), []byte(cmd+"\n")...))
	if err != nil {
		return fmt.Errorf("sending %q: %w", cmd, err)
	}
	return nil
}

// Request sends cmd and waits up to timeout for one reply datagram,
// retrying up to retries times. It returns the parsed response type and
// body, or ErrRconTimeout once retries are exhausted.
func (c *Client) Request(cmd string, timeout time.Duration, retries int) (respType, body string, err error) {
	for attempt := 0; attempt <= retries; attempt++ {
		if err := c.Send(cmd); err != nil {
			return "", "", err
		}
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		buf := make([]byte, 8192)
		n, readErr := c.conn.Read(buf)
		if readErr != nil {
			continue
		}
		respType, body, err = parsePacket(buf[:n])
		if err != nil {
			continue
		}
		return respType, body, nil
	}
	return "", "", boterr.ErrRconTimeout
}

func parsePacket(data []byte) (respType, body string, err error) {
	if len(data) < len(packetPrefix) || string(data[:len(packetPrefix)]) != string(packetPrefix) {
		return "", "", boterr.ErrParseMalformed
	}
	rest := string(data[len(packetPrefix):])
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", "", boterr.ErrParseMalformed
	}
	return rest[:nl], rest[nl+1:], nil
}

// Rcon issues an authenticated rcon subcommand and classifies the
// server's "no password"/"bad password" replies as ErrRconAuth.
func (c *Client) Rcon(cmd string, timeout time.Duration, retries int) (string, error) {
	_, body, err := c.Request(fmt.Sprintf(`rcon "%s" %s`, c.rconPassword, cmd), timeout, retries)
	if err != nil {
		return "", err
	}
	if body == "No rconpassword set on the server.\n" || body == "Bad rconpassword.\n" {
		return "", boterr.ErrRconAuth
	}
	return body, nil
}

// StatusRefresh issues getstatus and overwrites Values/Players with the
// parsed reply, leaving the previous snapshot untouched on failure.
func (c *Client) StatusRefresh(timeout time.Duration, retries int) error {
	_, body, err := c.Request("getstatus", timeout, retries)
	if err != nil {
		return err
	}
	values, players := parseStatus(body)
	c.Values = values
	c.Players = players
	return nil
}

func parseStatus(data string) (map[string]string, []StatusPlayer) {
	if len(data) == 0 {
		return nil, nil
	}
	split := strings.Split(data[1:], `\`)
	values := make(map[string]string, len(split)/2)
	var players []StatusPlayer
	for i := 0; i+1 < len(split); i += 2 {
		key, val := split[i], split[i+1]
		if pos := strings.IndexByte(val, '\n'); pos != -1 {
			values[key] = val[:pos]
			players = parsePlayers(val[pos+1:])
			continue
		}
		values[key] = val
	}
	return values, players
}

func parsePlayers(data string) []StatusPlayer {
	var players []StatusPlayer
	for _, line := range strings.Split(data, "\n") {
		if line == "" {
			continue
		}
		m := playerLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var frags, ping int
		fmt.Sscanf(m[1], "%d", &frags)
		fmt.Sscanf(m[2], "%d", &ping)
		players = append(players, StatusPlayer{Frags: frags, Ping: ping, Name: m[3]})
	}
	return players
}

// Cvar extracts a cvar's current value from the `:"<value>^7` framing
// of a Quake 3 rcon `<name>` reply.
func (c *Client) Cvar(name string, timeout time.Duration, retries int) (string, error) {
	body, err := c.Rcon(name, timeout, retries)
	if err != nil {
		return "", err
	}
	start := strings.Index(body, `:"`)
	if start == -1 {
		return "", boterr.ErrCvarMissing
	}
	start += 2
	end := strings.Index(body[start:], "^7")
	if end == -1 {
		return "", boterr.ErrCvarMissing
	}
	time.Sleep(300 * time.Millisecond) // avoid conflating back-to-back replies.
	return body[start : start+end], nil
}
