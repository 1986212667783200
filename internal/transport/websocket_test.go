// SPDX-License-Identifier: MIT
package transport

import (
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving a free port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestWebSocketTransportBroadcastsToConnectedClient(t *testing.T) {
	addr := freeAddr(t)
	wst := NewWebSocketTransport(addr)
	defer wst.Close()

	// Give the server goroutine a moment to start listening.
	var conn *websocket.Conn
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing websocket server: %v", err)
	}
	defer conn.Close()

	frame := SpectrumFrame{Node: "sine", SampleRate: 48000, FFTSize: 8, Magnitudes: []float64{1, 2, 3}}
	if err := wst.Send(frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got SpectrumFrame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if got.Node != frame.Node || len(got.Magnitudes) != len(frame.Magnitudes) {
		t.Errorf("got %+v, want %+v", got, frame)
	}
}

func TestWebSocketTransportSendDropsWhenChannelFull(t *testing.T) {
	wst := &WebSocketTransport{broadcast: make(chan any, 1)}
	if err := wst.Send(1); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	// Second send should not block even though nothing drains the channel.
	done := make(chan struct{})
	go func() {
		wst.Send(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full broadcast channel")
	}
}
