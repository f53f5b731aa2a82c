package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/runtimepath"
	"github.com/1broseidon/steward/internal/store"
	"github.com/google/uuid"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithPath(socketPath)
}

// NewClientWithPath creates a client for a specific socket.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(cmd CommandType, payload any) (*Response, error) {
	req := &Request{
		ID:      uuid.NewString(),
		Command: cmd,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.ID != "" && resp.ID != req.ID {
		return nil, fmt.Errorf("response id %s does not match request %s", resp.ID, req.ID)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	resp, err := c.sendRequest(cmd, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// OpenOrFocusSettings opens or focuses the settings window.
func (c *Client) OpenOrFocusSettings() error {
	return c.call(CommandOpenOrFocusSettings, nil, nil)
}

// ConfigureToolbarClickThrough replaces the toolbar's interactive regions on
// behalf of the window labelled caller.
func (c *Client) ConfigureToolbarClickThrough(caller string, regions []command.RegionSpec) error {
	payload := ConfigureRegionsPayload{Window: caller, Regions: make([][]int64, 0, len(regions))}
	for _, r := range regions {
		payload.Regions = append(payload.Regions, []int64{int64(r.X), int64(r.Y), int64(r.Width), int64(r.Height)})
	}
	return c.call(CommandConfigureToolbarClickThrough, payload, nil)
}

// Greet returns the daemon's greeting for name.
func (c *Client) Greet(name string) (string, error) {
	var data GreetData
	if err := c.call(CommandGreet, GreetPayload{Name: name}, &data); err != nil {
		return "", err
	}
	return data.Message, nil
}

// ShowMain re-shows the main window.
func (c *Client) ShowMain() error {
	return c.call(CommandShowMain, nil, nil)
}

// HideMain hides the main window.
func (c *Client) HideMain() error {
	return c.call(CommandHideMain, nil, nil)
}

// Quit destroys the main window and ends the session.
func (c *Client) Quit() error {
	return c.call(CommandQuit, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*command.Status, error) {
	var status command.Status
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSetting reads one setting.
func (c *Client) GetSetting(key string) (string, error) {
	var data SettingData
	if err := c.call(CommandGetSetting, SettingPayload{Key: key}, &data); err != nil {
		return "", err
	}
	return data.Value, nil
}

// SetSetting writes one setting.
func (c *Client) SetSetting(key, value string) error {
	return c.call(CommandSetSetting, SettingPayload{Key: key, Value: value}, nil)
}

// ListKeybinds returns the stored keybinds.
func (c *Client) ListKeybinds() ([]store.Keybind, error) {
	var binds []store.Keybind
	if err := c.call(CommandListKeybinds, nil, &binds); err != nil {
		return nil, err
	}
	return binds, nil
}

// SetKeybind binds combo to a command name.
func (c *Client) SetKeybind(combo, name string) error {
	return c.call(CommandSetKeybind, KeybindPayload{KeyCombination: combo, Command: name}, nil)
}

// DeleteKeybind removes the binding for combo.
func (c *Client) DeleteKeybind(combo string) error {
	return c.call(CommandDeleteKeybind, KeybindPayload{KeyCombination: combo}, nil)
}

// ReloadKeybinds re-grabs keys from the stored keybinds.
func (c *Client) ReloadKeybinds() error {
	return c.call(CommandReloadKeybinds, nil, nil)
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
