package testapp

import (
	"context"
	"net"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/api"
	"github.com/marmos91/newsletter/pkg/emailclient"
)

// ServiceTask is the handle of a running service. Cancelling it stops the
// server without waiting for in-flight requests.
type ServiceTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the service. It returns immediately and is safe to call
// more than once.
func (t *ServiceTask) Cancel() {
	if t != nil {
		t.cancel()
	}
}

// launchService builds the API server on listener and serves it on a new
// goroutine until the task is cancelled.
func launchService(listener net.Listener, pool *pgxpool.Pool, client *emailclient.Client, opts api.Options) (*ServiceTask, error) {
	server, err := api.Run(listener, pool, client, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := &ServiceTask{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(task.done)
		if err := server.Serve(ctx); err != nil {
			logger.Error("Test service stopped", logger.KeyAddr, server.Addr().String(), logger.Err(err))
		}
	}()

	return task, nil
}
