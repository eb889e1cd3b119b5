// Package sshexec provides the authenticated remote channel to fleet hosts.
// Each client is scoped to one host; sessions are opened per command and
// closed on every exit path.
package sshexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// =============================================================================
// Client Configuration
// =============================================================================

// Credentials identify how to reach one host.
type Credentials struct {
	Host    string
	User    string
	Port    int
	KeyFile string
}

// Config tunes connection behavior.
type Config struct {
	CommandTimeout time.Duration // Default: 60 seconds
	ConnectTimeout time.Duration // Default: 10 seconds
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CommandTimeout: 60 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// =============================================================================
// Client
// =============================================================================

// Client executes commands on a single remote host over SSH.
type Client struct {
	creds   Credentials
	signer  ssh.Signer
	timeout time.Duration
	connect time.Duration

	mu   sync.Mutex // Protects conn
	conn *ssh.Client
}

// NewClient prepares a client for the given host. The private key is read
// and parsed eagerly so credential problems surface before any remote work.
func NewClient(creds Credentials, cfg Config) (*Client, error) {
	if creds.Port == 0 {
		creds.Port = 22
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 60 * time.Second
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	key, err := os.ReadFile(creds.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read SSH key %s: %w", creds.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse SSH key %s: %w", creds.KeyFile, err)
	}

	return &Client{
		creds:   creds,
		signer:  signer,
		timeout: cfg.CommandTimeout,
		connect: cfg.ConnectTimeout,
	}, nil
}

// Host returns the hostname this client is scoped to.
func (c *Client) Host() string {
	return c.creds.Host
}

// dial establishes the SSH connection if not already connected.
func (c *Client) dial() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_, _, err := c.conn.SendRequest("keepalive@drydock", true, nil)
		if err == nil {
			return nil
		}
		c.conn.Close()
		c.conn = nil
	}

	config := &ssh.ClientConfig{
		User:            c.creds.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: known_hosts verification
		Timeout:         c.connect,
	}

	addr := net.JoinHostPort(c.creds.Host, strconv.Itoa(c.creds.Port))
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return fmt.Errorf("SSH dial %s: %w", addr, err)
	}

	c.conn = conn
	return nil
}

// Close tears down the connection. Safe to call on a never-connected client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// =============================================================================
// Command Execution
// =============================================================================

// Output carries the streams of one finished command.
type Output struct {
	Stdout string
	Stderr string
}

// Combined returns stdout and stderr joined, for log lines and error
// classification.
func (o Output) Combined() string {
	if o.Stdout == "" {
		return o.Stderr
	}
	if o.Stderr == "" {
		return o.Stdout
	}
	return o.Stdout + "\n" + o.Stderr
}

// Run executes one command on the host, waiting for it to finish. The
// session exists only for this call. stdin may be nil. Output is returned
// even when the command exited non-zero so callers can classify failures by
// message content; on timeout or cancellation the output is empty.
func (c *Client) Run(ctx context.Context, command string, stdin io.Reader) (Output, error) {
	if err := c.dial(); err != nil {
		return Output{}, err
	}

	c.mu.Lock()
	session, err := c.conn.NewSession()
	c.mu.Unlock()
	if err != nil {
		return Output{}, fmt.Errorf("create SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	return await(ctx, done, c.timeout, c.creds.Host, func() Output {
		return Output{Stdout: stdout.String(), Stderr: stderr.String()}
	})
}

// await waits for the running command or the first deadline. The session's
// stream copiers keep writing into the output buffers until the command
// finishes, so collect is invoked only once done fires; the deadline branches
// return an empty Output without touching the buffers.
func await(ctx context.Context, done <-chan error, timeout time.Duration, host string, collect func() Output) (Output, error) {
	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	case <-time.After(timeout):
		return Output{}, fmt.Errorf("command timeout after %v on %s", timeout, host)
	case err := <-done:
		out := collect()
		if err != nil {
			return out, fmt.Errorf("run on %s: %w", host, err)
		}
		return out, nil
	}
}
