// Package transfer moves feed and output files over SFTP.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

const defaultDialTimeout = 30 * time.Second

// Client downloads and uploads files against one SFTP endpoint. A fresh
// connection is opened per call; runs touch each endpoint once or twice.
type Client struct {
	host    string
	port    int
	user    string
	keyPath string

	dialTimeout time.Duration
	hostKey     ssh.HostKeyCallback
	log         logger.Logger
}

// New creates a Client for the given endpoint, authenticating with the
// private key at keyPath.
func New(host string, port int, user, keyPath string, opts ...Option) *Client {
	c := &Client{
		host:        host,
		port:        port,
		user:        user,
		keyPath:     keyPath,
		dialTimeout: defaultDialTimeout,
		// Endpoints live on a private network; host keys are not checked
		// unless WithHostKeyCallback supplies a verifier.
		hostKey: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download copies remotePath into localDir, keeping the remote base name.
// Returns the local path.
func (c *Client) Download(ctx context.Context, remotePath, localDir string) (string, error) {
	client, closeAll, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer closeAll()

	src, err := client.Open(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s on %s: %w", ErrTransfer, remotePath, c.host, err)
	}
	defer src.Close() //nolint:errcheck // read-only handle

	localPath := filepath.Join(localDir, path.Base(remotePath))
	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrTransfer, localPath, err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %w", ErrTransfer, remotePath, err)
	}
	if c.log != nil {
		c.log.Info(ctx, "downloaded file",
			logger.String("host", c.host),
			logger.String("remote", remotePath),
			logger.String("local", localPath),
			logger.Int64("bytes", n))
	}
	return localPath, nil
}

// Upload copies localPath into remoteDir, keeping the local base name.
// Returns the remote path.
func (c *Client) Upload(ctx context.Context, localPath, remoteDir string) (string, error) {
	client, closeAll, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer closeAll()

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", ErrTransfer, localPath, err)
	}
	defer src.Close() //nolint:errcheck // read-only handle

	remotePath := path.Join(remoteDir, filepath.Base(localPath))
	dst, err := client.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s on %s: %w", ErrTransfer, remotePath, c.host, err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", ErrTransfer, localPath, err)
	}
	if c.log != nil {
		c.log.Info(ctx, "uploaded file",
			logger.String("host", c.host),
			logger.String("local", localPath),
			logger.String("remote", remotePath),
			logger.Int64("bytes", n))
	}
	return remotePath, nil
}

func (c *Client) connect(ctx context.Context) (*sftp.Client, func(), error) {
	signer, err := loadSigner(c.keyPath)
	if err != nil {
		return nil, nil, err
	}

	addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDial, addr, err)
	}

	sshConf := &ssh.ClientConfig{
		User:            c.user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: c.hostKey,
		Timeout:         c.dialTimeout,
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConf)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDial, addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDial, addr, err)
	}

	closeAll := func() {
		_ = client.Close()
		_ = sshClient.Close()
	}
	return client, closeAll, nil
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read key %s: %w", ErrAuth, keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse key %s: %w", ErrAuth, keyPath, err)
	}
	return signer, nil
}
