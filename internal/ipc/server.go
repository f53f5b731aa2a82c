package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/runtimepath"
	"github.com/1broseidon/steward/internal/store"
)

// ErrDaemonRunning is returned by Start when another daemon owns the socket.
var ErrDaemonRunning = errors.New("another steward daemon is already running")

// requestTimeout bounds a single command.
const requestTimeout = 10 * time.Second

// Service is the command surface the server exposes.
type Service interface {
	Greet(name string) string
	OpenOrFocusSettings(ctx context.Context) error
	ConfigureToolbarClickThrough(ctx context.Context, caller string, regions []command.RegionSpec) error
	ShowMain(ctx context.Context) error
	HideMain(ctx context.Context) error
	Quit(ctx context.Context) error
	Status() command.Status
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListKeybinds(ctx context.Context) ([]store.Keybind, error)
	SetKeybind(ctx context.Context, combo, name string) error
	DeleteKeybind(ctx context.Context, combo string) error
	ReloadKeybinds(ctx context.Context) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	svc          Service
	logger       *slog.Logger
	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath uses the runtime
// directory default.
func NewServer(socketPath string, svc Service, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		svc:        svc,
		logger:     logger,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("%w (socket %s)", ErrDaemonRunning, s.socketPath)
	}
	// Stale socket from a crashed daemon.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp := s.HandleRequest(ctx, req)
	s.send(conn, resp)
}

// HandleRequest runs one request against the service.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command, "id", req.ID)

	resp := s.handleCommand(ctx, req)
	resp.ID = req.ID
	if resp.Status == StatusError {
		s.logger.Info("IPC command failed", "command", req.Command, "id", req.ID, "error", resp.Error)
	}
	return resp
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandOpenOrFocusSettings:
		return result(nil, s.svc.OpenOrFocusSettings(ctx))
	case CommandConfigureToolbarClickThrough:
		return s.handleConfigureRegions(ctx, req.Payload)
	case CommandGreet:
		var p GreetPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return result(GreetData{Message: s.svc.Greet(p.Name)}, nil)
	case CommandShowMain:
		return result(nil, s.svc.ShowMain(ctx))
	case CommandHideMain:
		return result(nil, s.svc.HideMain(ctx))
	case CommandQuit:
		return result(nil, s.svc.Quit(ctx))
	case CommandGetStatus:
		return result(s.svc.Status(), nil)
	case CommandGetSetting:
		var p SettingPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		v, err := s.svc.GetSetting(ctx, p.Key)
		return result(SettingData{Key: p.Key, Value: v}, err)
	case CommandSetSetting:
		var p SettingPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return result(nil, s.svc.SetSetting(ctx, p.Key, p.Value))
	case CommandListKeybinds:
		binds, err := s.svc.ListKeybinds(ctx)
		if binds == nil {
			binds = []store.Keybind{}
		}
		return result(binds, err)
	case CommandSetKeybind:
		var p KeybindPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return result(nil, s.svc.SetKeybind(ctx, p.KeyCombination, p.Command))
	case CommandDeleteKeybind:
		var p KeybindPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return result(nil, s.svc.DeleteKeybind(ctx, p.KeyCombination))
	case CommandReloadKeybinds:
		return result(nil, s.svc.ReloadKeybinds(ctx))
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleConfigureRegions(ctx context.Context, payload json.RawMessage) *Response {
	var p ConfigureRegionsPayload
	if err := decodePayload(payload, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	specs, err := p.RegionSpecs()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid regions: %v", err))
	}
	return result(nil, s.svc.ConfigureToolbarClickThrough(ctx, p.Window, specs))
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("Invalid payload: %v", err)
	}
	return nil
}

// result turns a command outcome into a response; the error message is the
// only thing that crosses the socket.
func result(data any, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, merr := NewOKResponse(data)
	if merr != nil {
		return NewErrorResponse(merr.Error())
	}
	return resp
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener == nil {
		return
	}
	s.listener.Close()
	s.conns.Wait()
	os.Remove(s.socketPath)
}
