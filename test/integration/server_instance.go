package integration

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/config"
	"github.com/doodlesbykumbi/keycustody/pkg/keys"
	"github.com/doodlesbykumbi/keycustody/pkg/server"
	"github.com/doodlesbykumbi/keycustody/pkg/server/endpoints"
	gormstore "github.com/doodlesbykumbi/keycustody/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

// ServerInstance represents a running custody server
type ServerInstance struct {
	Server        *server.Server
	ServerURL     string
	cancel        context.CancelFunc
	listener      net.Listener
	serverProcess *exec.Cmd // For binary mode
}

// StartServer starts the server in the mode the suite was started with.
func StartServer(tc *TestContext) (*ServerInstance, error) {
	if tc.InlineMode {
		return startInlineServer(tc)
	}
	return startBinaryServer(tc)
}

// startInlineServer starts an in-process server on a free port
func startInlineServer(tc *TestContext) (*ServerInstance, error) {
	cfg := config.NewDefault()
	cfg.TokenSecret = tokenSecret

	issuer, err := token.NewIssuer(token.Config{Secret: []byte(tokenSecret), TTL: cfg.TokenTTL()})
	if err != nil {
		return nil, err
	}

	s := server.NewServer(server.Options{
		Authenticator: authenticator.New(gormstore.NewUserStore(tc.DB)),
		Tokens:        issuer,
		Keys:          keys.NewService(gormstore.NewKeyStore(tc.DB)),
		HealthStore:   gormstore.NewHealthStore(tc.DB),
		Config:        cfg,
	}, "127.0.0.1", "0")
	endpoints.RegisterAll(s)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	instance := &ServerInstance{
		Server:    s,
		ServerURL: "http://" + listener.Addr().String(),
		listener:  listener,
	}

	go func() {
		_ = s.StartWithListener(listener)
	}()

	if err := waitForServer(instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// startBinaryServer starts the custodyctl server binary
func startBinaryServer(tc *TestContext) (*ServerInstance, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, tc.BinaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+tc.DatabaseURL,
		"CUSTODY_DATA_KEY="+base64.StdEncoding.EncodeToString(tc.DataKey),
		"CUSTODY_TOKEN_SECRET="+tokenSecret,
		"CUSTODY_CONFIG_PATH="+os.TempDir(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		ServerURL:     "http://127.0.0.1:" + port,
		cancel:        cancel,
		serverProcess: cmd,
	}

	if err := waitForServer(instance.ServerURL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = si.Server.Shutdown(ctx)
		cancel()
	}
	if si.cancel != nil {
		si.cancel()
	}
	if si.listener != nil {
		_ = si.listener.Close()
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Process.Kill()
		_ = si.serverProcess.Wait()
	}
}

func freePort() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer func() { _ = l.Close() }()
	_, port, err := net.SplitHostPort(l.Addr().String())
	return port, err
}
