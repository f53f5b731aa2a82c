package ipc

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/1broseidon/steward/internal/command"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandOpenOrFocusSettings          CommandType = "OPEN_OR_FOCUS_SETTINGS"
	CommandConfigureToolbarClickThrough CommandType = "CONFIGURE_TOOLBAR_CLICK_THROUGH"
	CommandGreet                        CommandType = "GREET"
	CommandShowMain                     CommandType = "SHOW_MAIN"
	CommandHideMain                     CommandType = "HIDE_MAIN"
	CommandQuit                         CommandType = "QUIT"
	CommandGetStatus                    CommandType = "GET_STATUS"
	CommandGetSetting                   CommandType = "GET_SETTING"
	CommandSetSetting                   CommandType = "SET_SETTING"
	CommandListKeybinds                 CommandType = "LIST_KEYBINDS"
	CommandSetKeybind                   CommandType = "SET_KEYBIND"
	CommandDeleteKeybind                CommandType = "DELETE_KEYBIND"
	CommandReloadKeybinds               CommandType = "RELOAD_KEYBINDS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	ID      string          `json:"id,omitempty"`
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	ID     string          `json:"id,omitempty"`
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ConfigureRegionsPayload is the payload of CONFIGURE_TOOLBAR_CLICK_THROUGH.
// Each region is [x, y, width, height].
type ConfigureRegionsPayload struct {
	Window  string    `json:"window"`
	Regions [][]int64 `json:"regions"`
}

type GreetPayload struct {
	Name string `json:"name"`
}

type GreetData struct {
	Message string `json:"message"`
}

type SettingPayload struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

type SettingData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type KeybindPayload struct {
	KeyCombination string `json:"key_combination"`
	Command        string `json:"command,omitempty"`
}

// RegionSpecs converts the wire tuples, rejecting malformed entries.
func (p ConfigureRegionsPayload) RegionSpecs() ([]command.RegionSpec, error) {
	specs := make([]command.RegionSpec, 0, len(p.Regions))
	for i, r := range p.Regions {
		if len(r) != 4 {
			return nil, fmt.Errorf("region %d: expected [x, y, width, height], got %d values", i, len(r))
		}
		for _, v := range r[:2] {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("region %d: offset %d out of range", i, v)
			}
		}
		for _, v := range r[2:] {
			if v < 0 || v > math.MaxUint32 {
				return nil, fmt.Errorf("region %d: size %d out of range", i, v)
			}
		}
		specs = append(specs, command.RegionSpec{
			X:      int(r[0]),
			Y:      int(r[1]),
			Width:  uint32(r[2]),
			Height: uint32(r[3]),
		})
	}
	return specs, nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
