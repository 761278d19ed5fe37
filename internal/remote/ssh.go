package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// missingStatus is the exit status the remote commands use for a missing
// file or directory.
const missingStatus = 44

// SSHConfig describes how to reach the shared host.
type SSHConfig struct {
	Host           string
	Port           int
	User           string
	KeyPath        string
	KnownHostsPath string
	Root           string
	Timeout        time.Duration
}

// SSH is a Remote reached over an SSH connection, driving the remote
// shell's file utilities.
type SSH struct {
	client *ssh.Client
	root   string
}

var _ Remote = (*SSH)(nil)

// DialSSH connects with public key authentication, checking the host key
// against a known_hosts file.
func DialSSH(ctx context.Context, cfg SSHConfig) (*SSH, error) {
	key, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}

	knownHosts := cfg.KnownHostsPath
	if knownHosts == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		knownHosts = filepath.Join(home, ".ssh", "known_hosts")
	}
	hostKeys, err := knownhosts.New(knownHosts)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return &SSH{client: ssh.NewClient(c, chans, reqs), root: cfg.Root}, nil
}

func (s *SSH) path(p string) string {
	return quote(path.Join(s.root, cleanPath(p)))
}

func (s *SSH) run(ctx context.Context, cmd string, stdin []byte) ([]byte, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr
	if stdin != nil {
		sess.Stdin = bytes.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()
	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case err := <-done:
		if err == nil {
			return stdout.Bytes(), nil
		}
		var exit *ssh.ExitError
		if errors.As(err, &exit) && exit.ExitStatus() == missingStatus {
			return nil, fs.ErrNotExist
		}
		return nil, fmt.Errorf("remote command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
}

func (s *SSH) ReadFile(ctx context.Context, p string) ([]byte, error) {
	target := s.path(p)
	return s.run(ctx, fmt.Sprintf("test -f %s || exit %d; cat -- %s", target, missingStatus, target), nil)
}

func (s *SSH) WriteFile(ctx context.Context, p string, data []byte) error {
	target := s.path(p)
	_, err := s.run(ctx, fmt.Sprintf("mkdir -p -- \"$(dirname -- %s)\" && cat > %s", target, target), data)
	return err
}

func (s *SSH) AppendFile(ctx context.Context, p string, data []byte) error {
	target := s.path(p)
	_, err := s.run(ctx, fmt.Sprintf("mkdir -p -- \"$(dirname -- %s)\" && cat >> %s", target, target), data)
	return err
}

func (s *SSH) List(ctx context.Context, dir string) ([]string, error) {
	target := s.path(dir)
	out, err := s.run(ctx, fmt.Sprintf("test -d %s || exit %d; ls -1A -- %s", target, missingStatus, target), nil)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *SSH) RemoveAll(ctx context.Context, p string) error {
	_, err := s.run(ctx, "rm -rf -- "+s.path(p), nil)
	return err
}

func (s *SSH) Close() error {
	return s.client.Close()
}

// quote makes s a single shell word.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
