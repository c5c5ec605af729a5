package connection

import (
	"net"
	"testing"
)

func pipedConn(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		serverSide.Close()
		clientSide.Close()
	})
	return NewConn(serverSide), clientSide
}

func TestNewConnAssignsMonotonicID(t *testing.T) {
	a, _ := pipedConn(t)
	b, _ := pipedConn(t)
	if b.ID() <= a.ID() {
		t.Fatalf("expected monotonically increasing ids, got %d then %d", a.ID(), b.ID())
	}
}

func TestConnWriteReachesPeer(t *testing.T) {
	conn, peer := pipedConn(t)
	go conn.Write([]byte("hello"))

	buf := make([]byte, 16)
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("expected 'hello', got %q", buf[:n])
	}
}

func TestConnWriteEmptyIsNoop(t *testing.T) {
	conn, _ := pipedConn(t)
	if err := conn.Write(nil); err != nil {
		t.Fatalf("expected nil error writing empty payload, got %v", err)
	}
}

func TestConnNameDefaultsEmpty(t *testing.T) {
	conn, _ := pipedConn(t)
	if conn.Name() != "" {
		t.Fatalf("expected empty name by default, got %q", conn.Name())
	}
	conn.SetName("client1")
	if conn.Name() != "client1" {
		t.Fatalf("expected 'client1', got %q", conn.Name())
	}
}

func TestConnSelectDB(t *testing.T) {
	conn, _ := pipedConn(t)
	if conn.GetDBIndex() != 0 {
		t.Fatalf("expected db 0 by default, got %d", conn.GetDBIndex())
	}
	conn.SelectDB(3)
	if conn.GetDBIndex() != 3 {
		t.Fatalf("expected db 3, got %d", conn.GetDBIndex())
	}
}

func TestConnSubscriptionState(t *testing.T) {
	conn, _ := pipedConn(t)
	conn.Subscribe("news")
	conn.SubscribePattern("a.*")
	if conn.SubsCount() != 2 {
		t.Fatalf("expected 2, got %d", conn.SubsCount())
	}
	conn.Unsubscribe("news")
	if conn.SubsCount() != 1 {
		t.Fatalf("expected 1 after unsubscribe, got %d", conn.SubsCount())
	}
	conn.UnsubscribePattern("a.*")
	if conn.SubsCount() != 0 {
		t.Fatalf("expected 0, got %d", conn.SubsCount())
	}
}

func TestConnMonitorFlag(t *testing.T) {
	conn, _ := pipedConn(t)
	if conn.IsMonitor() {
		t.Fatal("expected monitor flag to default to false")
	}
	conn.SetMonitor(true)
	if !conn.IsMonitor() {
		t.Fatal("expected monitor flag to be set")
	}
}

func TestConnLastCmdBumpsActivity(t *testing.T) {
	conn, _ := pipedConn(t)
	before := conn.LastActiveAt()
	conn.SetLastCmd("get")
	if conn.LastCmd() != "get" {
		t.Fatalf("expected 'get', got %q", conn.LastCmd())
	}
	if conn.LastActiveAt() < before {
		t.Fatal("expected LastActiveAt to not move backwards")
	}
}

func TestConnCloseClosesUnderlyingSocket(t *testing.T) {
	conn, peer := pipedConn(t)
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	// writing to the peer after the other side closed should now fail
	if _, err := peer.Write([]byte("x")); err == nil {
		t.Fatal("expected write to fail after Close")
	}
}
