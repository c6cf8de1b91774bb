package agent

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/vnicctl/vnicctl/pkg/util"
)

// SSHRunner executes commands on a remote instance over SSH. Sessions
// are created per call (stateless); the underlying connection is reused.
type SSHRunner struct {
	client *ssh.Client
	addr   string
}

// DialSSH connects to addr ("host" or "host:port", port defaults to 22)
// as user, authenticating with the private key in keyFile.
func DialSSH(addr, user, keyFile string) (*SSHRunner, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read SSH key %s: %w", keyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse SSH key %s: %w", keyFile, err)
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		// Instances are reached by ephemeral public IP right after
		// provisioning; there is no known_hosts entry to verify yet.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	util.Logger.Warnf("SSH to %s: host key verification disabled (InsecureIgnoreHostKey)", addr)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s@%s: %w", user, addr, err)
	}
	return &SSHRunner{client: client, addr: addr}, nil
}

// Close tears down the SSH connection.
func (s *SSHRunner) Close() error {
	return s.client.Close()
}

// Run executes the command remotely with combined stdout+stderr capture.
// The session is killed if the context is cancelled.
func (s *SSHRunner) Run(ctx context.Context, name string, args ...string) CommandResult {
	cmd := buildCommandLine(name, args)

	session, err := s.client.NewSession()
	if err != nil {
		return CommandResult{ExitCode: -1, Err: fmt.Errorf("SSH session: %w", err)}
	}
	defer session.Close()

	var outputBuf bytes.Buffer
	session.Stdout = &outputBuf
	session.Stderr = &outputBuf

	util.Debugf("exec (ssh %s): %s", s.addr, cmd)
	if err := session.Start(cmd); err != nil {
		return CommandResult{ExitCode: -1, Err: fmt.Errorf("SSH start '%s': %w", cmd, err)}
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		<-done
		return CommandResult{Output: outputBuf.Bytes(), ExitCode: -1, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				return CommandResult{Output: outputBuf.Bytes(), ExitCode: exitErr.ExitStatus()}
			}
			return CommandResult{Output: outputBuf.Bytes(), ExitCode: -1, Err: fmt.Errorf("SSH exec '%s': %w", cmd, err)}
		}
		return CommandResult{Output: outputBuf.Bytes(), ExitCode: 0}
	}
}

// buildCommandLine joins a name and args into a remote shell command,
// quoting arguments that contain whitespace or shell metacharacters.
func buildCommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]#~") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}
