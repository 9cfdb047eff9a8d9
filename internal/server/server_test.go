package server

import (
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/wireproto"
)

type stubHandler struct {
	response wireproto.ClientMessage
	received wireproto.ServerMessage
}

func (h *stubHandler) Handle(msg wireproto.ServerMessage) wireproto.ClientMessage {
	h.received = msg
	return h.response
}

func TestServerRoundTripsOneRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	handler := &stubHandler{response: wireproto.AckResponse{}}
	s := New(ln, handler, zap.NewNop().Sugar())
	go s.Serve()
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer conn.Close()

	var addr chain.Address
	addr[0] = 0x42
	e := codec.NewEncoder()
	wireproto.EncodeServerMessage(e, wireproto.AccountStateRequest{Addr: addr})
	if err := wireproto.WriteFrame(conn, e.Bytes()); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	payload, err := wireproto.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	resp, err := wireproto.DecodeClientMessage(codec.NewDecoder(payload))
	if err != nil {
		t.Fatalf("DecodeClientMessage: %v", err)
	}
	if _, ok := resp.(wireproto.AckResponse); !ok {
		t.Fatalf("expected AckResponse, got %#v", resp)
	}

	req, ok := handler.received.(wireproto.AccountStateRequest)
	if !ok {
		t.Fatalf("expected handler to receive AccountStateRequest, got %T", handler.received)
	}
	if req.Addr != addr {
		t.Fatal("handler received the wrong address")
	}
}

func TestServerDropsMalformedFrame(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	handler := &stubHandler{response: wireproto.AckResponse{}}
	s := New(ln, handler, zap.NewNop().Sugar())
	go s.Serve()
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer conn.Close()

	// A length prefix that promises more bytes than are ever sent; the
	// connection should simply be dropped, not crash the server.
	if _, err := conn.Write([]byte{0xff, 0xff, 0xff, 0x7f}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	conn.Close()

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	s2 := New(ln2, handler, zap.NewNop().Sugar())
	go s2.Serve()
	defer ln2.Close()

	conn2, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer conn2.Close()
	e := codec.NewEncoder()
	wireproto.EncodeServerMessage(e, wireproto.GetChainRequest{})
	if err := wireproto.WriteFrame(conn2, e.Bytes()); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := wireproto.ReadFrame(conn2); err != nil {
		t.Fatalf("expected the server to still be serving new connections: %v", err)
	}
}
