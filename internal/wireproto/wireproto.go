// Package wireproto implements the node-to-node wire protocol: two sum
// types, ServerMessage (client to node request) and ClientMessage (node to
// client response), each encoded as a 4-byte little-endian tag in
// declaration order followed by the variant's payload.
package wireproto

import (
	"fmt"

	"github.com/jjantschulev/zenchain/internal/chain"
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// ServerMessage is a request a client (peer or wallet) sends to a node.
// The four concrete types below are its only implementations.
type ServerMessage interface {
	encodeTagged(e *codec.Encoder)
}

// AccountStateRequest asks for the current AccountState of Addr.
type AccountStateRequest struct {
	Addr chain.Address
}

// SubmitTransactionRequest asks the node to validate and forward Tx to its
// miner.
type SubmitTransactionRequest struct {
	Tx chain.Transaction
}

// GetChainRequest asks for the node's current canonical chain.
type GetChainRequest struct{}

// BroadcastBlockRequest announces a mined block to a peer.
type BroadcastBlockRequest struct {
	Block chain.Block
}

const (
	tagAccountStateRequest uint32 = iota
	tagSubmitTransactionRequest
	tagGetChainRequest
	tagBroadcastBlockRequest
)

func (m AccountStateRequest) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagAccountStateRequest)
	e.WriteFixed(m.Addr[:])
}

func (m SubmitTransactionRequest) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagSubmitTransactionRequest)
	m.Tx.Encode(e)
}

func (m GetChainRequest) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagGetChainRequest)
}

func (m BroadcastBlockRequest) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagBroadcastBlockRequest)
	m.Block.Encode(e)
}

// EncodeServerMessage appends the tagged encoding of msg to e.
func EncodeServerMessage(e *codec.Encoder, msg ServerMessage) {
	msg.encodeTagged(e)
}

// DecodeServerMessage reads a tagged ServerMessage from d.
func DecodeServerMessage(d *codec.Decoder) (ServerMessage, error) {
	tag, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("wireproto: read server message tag: %w", err)
	}
	switch tag {
	case tagAccountStateRequest:
		raw, err := d.ReadFixed(zcrypto.AddressSize)
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode AccountStateRequest: %w", err)
		}
		var addr chain.Address
		copy(addr[:], raw)
		return AccountStateRequest{Addr: addr}, nil
	case tagSubmitTransactionRequest:
		tx, err := chain.DecodeTransaction(d)
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode SubmitTransactionRequest: %w", err)
		}
		return SubmitTransactionRequest{Tx: tx}, nil
	case tagGetChainRequest:
		return GetChainRequest{}, nil
	case tagBroadcastBlockRequest:
		b, err := chain.DecodeBlock(d)
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode BroadcastBlockRequest: %w", err)
		}
		return BroadcastBlockRequest{Block: b}, nil
	default:
		return nil, fmt.Errorf("wireproto: unknown server message tag %d", tag)
	}
}

// ClientMessage is a response a node sends back to a client. The four
// concrete types below are its only implementations.
type ClientMessage interface {
	encodeTagged(e *codec.Encoder)
}

// AccountStateResponse carries the requested AccountState.
type AccountStateResponse struct {
	State chain.AccountState
}

// AckResponse acknowledges a successful SubmitTransactionRequest or
// BroadcastBlockRequest.
type AckResponse struct{}

// ErrorResponse carries a human-readable validation or processing failure.
type ErrorResponse struct {
	Message string
}

// ChainResponse carries the responder's canonical chain, genesis first.
type ChainResponse struct {
	Blocks []chain.Block
}

const (
	tagAccountStateResponse uint32 = iota
	tagAckResponse
	tagErrorResponse
	tagChainResponse
)

func (m AccountStateResponse) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagAccountStateResponse)
	m.State.Encode(e)
}

func (m AckResponse) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagAckResponse)
}

func (m ErrorResponse) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagErrorResponse)
	e.WriteString(m.Message)
}

func (m ChainResponse) encodeTagged(e *codec.Encoder) {
	e.WriteUint32(tagChainResponse)
	e.WriteUint32(uint32(len(m.Blocks)))
	for _, b := range m.Blocks {
		b.Encode(e)
	}
}

// EncodeClientMessage appends the tagged encoding of msg to e.
func EncodeClientMessage(e *codec.Encoder, msg ClientMessage) {
	msg.encodeTagged(e)
}

// DecodeClientMessage reads a tagged ClientMessage from d.
func DecodeClientMessage(d *codec.Decoder) (ClientMessage, error) {
	tag, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("wireproto: read client message tag: %w", err)
	}
	switch tag {
	case tagAccountStateResponse:
		state, err := chain.DecodeAccountState(d)
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode AccountStateResponse: %w", err)
		}
		return AccountStateResponse{State: state}, nil
	case tagAckResponse:
		return AckResponse{}, nil
	case tagErrorResponse:
		msg, err := d.ReadString()
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode ErrorResponse: %w", err)
		}
		return ErrorResponse{Message: msg}, nil
	case tagChainResponse:
		count, err := d.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("wireproto: decode ChainResponse count: %w", err)
		}
		blocks := make([]chain.Block, count)
		for i := range blocks {
			blocks[i], err = chain.DecodeBlock(d)
			if err != nil {
				return nil, fmt.Errorf("wireproto: decode ChainResponse block %d: %w", i, err)
			}
		}
		return ChainResponse{Blocks: blocks}, nil
	default:
		return nil, fmt.Errorf("wireproto: unknown client message tag %d", tag)
	}
}
