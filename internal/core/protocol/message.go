// Package protocol defines the messages exchanged with the runtime, their
// JSON encoding and the connection contract the client loop consumes.
package protocol

// MessageType tags the payload of an envelope.
type MessageType string

// Inbound op types.
const (
	TypeAddEntity       MessageType = "add_entity"
	TypeRemoveEntity    MessageType = "remove_entity"
	TypeAddComponent    MessageType = "add_component"
	TypeUpdateComponent MessageType = "update_component"
	TypeRemoveComponent MessageType = "remove_component"
	TypeAuthorityChange MessageType = "authority_change"
	TypeFlagUpdate      MessageType = "flag_update"
	TypeMetrics         MessageType = "metrics"
	TypeCommandResponse MessageType = "command_response"
	TypeDisconnect      MessageType = "disconnect"
)

// Outbound request types.
const (
	TypeComponentUpdate MessageType = "component_update"
	TypeInterestUpdate  MessageType = "interest_update"
	TypeCommand         MessageType = "command"
	TypeDeleteEntity    MessageType = "delete_entity"
	TypeMetricsReport   MessageType = "metrics_report"
)

// TypeLogMessage travels both ways.
const TypeLogMessage MessageType = "log_message"

// Message is anything that can be put into an envelope.
type Message interface {
	Type() MessageType
}

// Op is a message received from the runtime.
type Op interface {
	Message
	op()
}

// Request is a message sent to the runtime.
type Request interface {
	Message
	request()
}

// LogMessage is a log line, either forwarded by the runtime or sent to it.
type LogMessage struct {
	Level   string `json:"level"`
	Logger  string `json:"logger,omitempty"`
	Message string `json:"message"`
}

func (LogMessage) Type() MessageType { return TypeLogMessage }
func (LogMessage) op()               {}
func (LogMessage) request()          {}

var (
	_ Op      = LogMessage{}
	_ Request = LogMessage{}
)
