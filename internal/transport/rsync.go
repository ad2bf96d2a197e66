// Package transport invokes the external rsync tool to transfer exported
// Parquet table directories to a remote store instance, retrying
// transient failures with exponential backoff.
package transport

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pumpfun-analytics/ingestor/internal/xlog"
)

const (
	rsyncTimeoutSeconds = 3000
	bwLimitKbps         = 2048
	maxRetries          = 5
	initialRetryDelay   = 5 * time.Second
)

// RemoteServer describes the destination for a transfer.
type RemoteServer struct {
	Address        string
	Port           int
	Username       string
	PrivateKeyPath string
	RemotePath     string
}

// Transport wraps the rsync CLI tool.
type Transport struct{}

// New creates a Transport.
func New() *Transport { return &Transport{} }

// SyncDirectory transfers localDir to the remote server with up to
// maxRetries attempts, exponential backoff starting at 5s and doubling.
func (t *Transport) SyncDirectory(ctx context.Context, localDir string, remote RemoteServer) error {
	sshCmd := fmt.Sprintf(
		"ssh -p%d -i%s -o ConnectTimeout=30 -o ServerAliveInterval=60 -o ServerAliveCountMax=3 -o TCPKeepAlive=yes",
		remote.Port, remote.PrivateKeyPath,
	)

	dest := fmt.Sprintf("%s@%s:%s", remote.Username, remote.Address, remote.RemotePath)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialRetryDelay
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := t.executeRsync(ctx, localDir, dest, sshCmd)
		if err != nil {
			xlog.Warnf("transport: rsync attempt %d failed: %v", attempt, err)
		}
		return err
	}

	return backoff.Retry(op, backoff.WithMaxRetries(bo, maxRetries-1))
}

func (t *Transport) executeRsync(ctx context.Context, localDir, dest, sshCmd string) error {
	args := []string{
		"-avz",
		"--progress",
		"--partial",
		fmt.Sprintf("--timeout=%d", rsyncTimeoutSeconds),
		fmt.Sprintf("--bwlimit=%d", bwLimitKbps),
		"-e", sshCmd,
		localDir + "/",
		dest,
	}

	cmd := exec.CommandContext(ctx, "rsync", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("transport: rsync failed: %w: %s", err, out)
	}
	return nil
}
