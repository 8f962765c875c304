//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// Each test generates a client signing identity and a DCS encryption identity, writes them to a temporary
// directory and starts the server with the paths in its environment.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/information-sharing-networks/dcs-checker/internal/config"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto/testutil"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
	"github.com/information-sharing-networks/dcs-checker/internal/server"
)

// testEnv provides access to the running server and the identities it was configured with
type testEnv struct {
	baseURL  string
	cfg      *config.Environment
	client   *testutil.Identity
	dcs      *testutil.Identity
	shutdown func()
}

// startInProcessServer starts the server in-process and returns once /health responds.
// extraEnv is applied after the defaults, so a test can change any setting.
func startInProcessServer(t *testing.T, extraEnv map[string]string) *testEnv {
	t.Helper()

	env := &testEnv{
		client: testutil.NewIdentity(t, "client.example.com"),
		dcs:    testutil.NewIdentity(t, "dcs.example.com"),
	}

	dir := t.TempDir()
	port := findFreePort(t)

	logLevel := "error"
	enableServerLogs := os.Getenv("ENABLE_SERVER_LOGS") == "true"
	if enableServerLogs {
		logLevel = "debug"
	}

	testEnvVars := map[string]string{
		"HOST":           "localhost",
		"PORT":           fmt.Sprintf("%d", port),
		"ENVIRONMENT":    "test",
		"LOG_LEVEL":      logLevel,
		"RATE_LIMIT_RPS": "0",

		"SIGNING_CERTIFICATE_PATH":    testutil.WriteFile(t, dir, "client.crt", env.client.CertificatePEM()),
		"ENCRYPTION_CERTIFICATE_PATH": testutil.WriteFile(t, dir, "dcs.crt", env.dcs.CertificatePEM()),
		"ENCRYPTION_KEY_PATH":         testutil.WriteFile(t, dir, "dcs.jwk", env.dcs.JWK(t)),
	}
	for key, value := range extraEnv {
		testEnvVars[key] = value
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	env.cfg = cfg

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	checker, err := server.LoadChecker(cfg, appLogger)
	if err != nil {
		t.Fatalf("Failed to load key material: %v", err)
	}

	serverInstance := server.NewServer(cfg, checker, appLogger)

	serverCtx, serverCancel := context.WithCancel(context.Background())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	env.shutdown = func() {
		serverCancel()

		select {
		case err := <-serverDone:
			if err != nil {
				t.Errorf("Server shutdown with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Server shutdown timeout")
		}
	}
	t.Cleanup(env.shutdown)

	env.baseURL = fmt.Sprintf("http://localhost:%d", port)

	if !waitForServer(t, env.baseURL+"/health", 10*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}

	return env
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
