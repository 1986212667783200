// SPDX-License-Identifier: MIT
package udp

import (
	"net"
	"testing"
	"time"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listening UDP: %v", err)
	}
	return conn
}

func TestUDPSenderSendsToTarget(t *testing.T) {
	listener := listenUDP(t)
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String(), false)
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	defer sender.Close()

	payload := []byte("hello")
	if err := sender.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("reading datagram: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("got %q, want %q", buf[:n], "hello")
	}
}

func TestUDPSenderSendAfterCloseErrors(t *testing.T) {
	listener := listenUDP(t)
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String(), false)
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sender.Send([]byte("x")); err == nil {
		t.Fatal("expected Send after Close to error")
	}
	// A second Close must be a no-op, not an error.
	if err := sender.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
