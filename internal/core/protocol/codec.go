package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the framing shared by every message.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Codec converts messages to and from their wire form.
type Codec interface {
	EncodeOp(op Op) ([]byte, error)
	DecodeOp(data []byte) (Op, error)
	EncodeRequest(req Request) ([]byte, error)
	DecodeRequest(data []byte) (Request, error)
}

// JSONCodec implements Codec with a {type, payload} JSON envelope.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

type decodeFunc[T any] func(payload json.RawMessage) (T, error)

func decodeAs[M interface{ Message }, T any](payload json.RawMessage) (T, error) {
	var msg M
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg); err != nil {
			var zero T
			return zero, err
		}
	}
	return any(msg).(T), nil
}

var opDecoders = map[MessageType]decodeFunc[Op]{
	TypeAddEntity:       decodeAs[AddEntity, Op],
	TypeRemoveEntity:    decodeAs[RemoveEntity, Op],
	TypeAddComponent:    decodeAs[AddComponent, Op],
	TypeUpdateComponent: decodeAs[UpdateComponent, Op],
	TypeRemoveComponent: decodeAs[RemoveComponent, Op],
	TypeAuthorityChange: decodeAs[AuthorityChange, Op],
	TypeFlagUpdate:      decodeAs[FlagUpdate, Op],
	TypeMetrics:         decodeAs[Metrics, Op],
	TypeCommandResponse: decodeAs[CommandResponse, Op],
	TypeLogMessage:      decodeAs[LogMessage, Op],
	TypeDisconnect:      decodeAs[Disconnect, Op],
}

var requestDecoders = map[MessageType]decodeFunc[Request]{
	TypeComponentUpdate: decodeAs[ComponentUpdate, Request],
	TypeInterestUpdate:  decodeAs[InterestUpdate, Request],
	TypeCommand:         decodeAs[Command, Request],
	TypeDeleteEntity:    decodeAs[DeleteEntity, Request],
	TypeMetricsReport:   decodeAs[MetricsReport, Request],
	TypeLogMessage:      decodeAs[LogMessage, Request],
}

func (JSONCodec) EncodeOp(op Op) ([]byte, error) {
	return encode(op)
}

func (JSONCodec) DecodeOp(data []byte) (Op, error) {
	return decode(data, opDecoders)
}

func (JSONCodec) EncodeRequest(req Request) ([]byte, error) {
	return encode(req)
}

func (JSONCodec) DecodeRequest(data []byte) (Request, error) {
	return decode(data, requestDecoders)
}

func encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, WrapError(fmt.Errorf("%w: %w", ErrSerializationFailed, err), "encode "+string(msg.Type()))
	}
	return json.Marshal(Envelope{Type: msg.Type(), Payload: payload})
}

func decode[T any](data []byte, decoders map[MessageType]decodeFunc[T]) (T, error) {
	var zero T
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, WrapError(fmt.Errorf("%w: %w", ErrDeserializationFailed, err), "decode envelope")
	}
	fn, ok := decoders[env.Type]
	if !ok {
		return zero, NewProtocolError(ErrorCodeUnknownMessageType, "decode envelope", ErrUnknownMessageType).
			WithContext("type", string(env.Type))
	}
	msg, err := fn(env.Payload)
	if err != nil {
		return zero, WrapError(fmt.Errorf("%w: %w", ErrDeserializationFailed, err), "decode "+string(env.Type))
	}
	return msg, nil
}
