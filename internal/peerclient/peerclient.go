// Package peerclient implements the outbound half of the wire protocol: a
// short-lived TCP connection per request, used both by the node's boot
// sequence (GetChain) and by the miner's best-effort block broadcast.
package peerclient

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/wireproto"
)

// DefaultTimeout bounds connect, read, and write, within the
// specification's 5-30s recommendation for finite socket timeouts.
const DefaultTimeout = 15 * time.Second

// Client issues one request/response exchange per call, as the protocol
// requires: connect, write one frame, read one frame, close.
type Client struct {
	timeout time.Duration
}

// New returns a Client with DefaultTimeout.
func New() *Client {
	return &Client{timeout: DefaultTimeout}
}

// SetTimeout overrides DefaultTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Send dials peerAddr, writes msg as a single frame, and returns the single
// framed ClientMessage the peer replies with.
func (c *Client) Send(peerAddr string, msg wireproto.ServerMessage) (wireproto.ClientMessage, error) {
	conn, err := net.DialTimeout("tcp", peerAddr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("peerclient: dial %s: %w", peerAddr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("peerclient: set deadline: %w", err)
	}

	e := codec.NewEncoder()
	wireproto.EncodeServerMessage(e, msg)
	if err := wireproto.WriteFrame(conn, e.Bytes()); err != nil {
		return nil, fmt.Errorf("peerclient: write request to %s: %w", peerAddr, err)
	}

	payload, err := wireproto.ReadFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("peerclient: read response from %s: %w", peerAddr, err)
	}
	resp, err := wireproto.DecodeClientMessage(codec.NewDecoder(payload))
	if err != nil {
		return nil, fmt.Errorf("peerclient: decode response from %s: %w", peerAddr, err)
	}
	return resp, nil
}

// GetChain requests and returns peerAddr's canonical chain. It implements
// node.ChainFetcher.
func (c *Client) GetChain(peerAddr string) ([]chain.Block, error) {
	resp, err := c.Send(peerAddr, wireproto.GetChainRequest{})
	if err != nil {
		return nil, err
	}
	switch r := resp.(type) {
	case wireproto.ChainResponse:
		return r.Blocks, nil
	case wireproto.ErrorResponse:
		return nil, errors.New(r.Message)
	default:
		return nil, fmt.Errorf("peerclient: unexpected response type %T for GetChain", resp)
	}
}

// Broadcaster sends a mined block to every peer in a static list,
// best-effort. It implements miner.PeerBroadcaster.
type Broadcaster struct {
	client *Client
	peers  []string
	log    *zap.SugaredLogger
}

// NewBroadcaster returns a Broadcaster fanning out over peers using client.
func NewBroadcaster(client *Client, peers []string, log *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{client: client, peers: peers, log: log}
}

// BroadcastBlock sends b to every configured peer. A failure to reach or
// convince one peer is logged and does not stop the remaining sends, nor
// does it propagate to the miner: a broadcast failure must never stop
// mining.
func (b *Broadcaster) BroadcastBlock(block chain.Block) {
	for _, peer := range b.peers {
		resp, err := b.client.Send(peer, wireproto.BroadcastBlockRequest{Block: block})
		if err != nil {
			b.log.Infow("peerclient: broadcast failed", "peer", peer, "err", err)
			continue
		}
		if errResp, ok := resp.(wireproto.ErrorResponse); ok {
			b.log.Infow("peerclient: peer rejected broadcast block", "peer", peer, "hash", block.Hash(), "err", errResp.Message)
		}
	}
}
