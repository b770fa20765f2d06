// ABOUTME: MCP server setup for the medication journal.
// ABOUTME: Wraps the MCP server with storage and dose service access.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/doses"
	"github.com/harperreed/medlog/internal/drugs"
	"github.com/harperreed/medlog/internal/schedule"
	"github.com/harperreed/medlog/internal/storage"
)

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	Scheduler *schedule.Scheduler
	Routine   *schedule.Routine
	Logger    *zap.Logger
}

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	doses     *doses.Service
	catalog   *drugs.Catalog
	routine   schedule.Routine
	logger    *zap.Logger
}

// NewServer creates a new MCP server with the given storage.
func NewServer(repo storage.Repository, opts Options) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "medlog",
			Version: "1.0.0",
		},
		nil,
	)

	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.New(schedule.Options{})
	}
	routine := schedule.DefaultRoutine()
	if opts.Routine != nil {
		routine = *opts.Routine
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		doses:     doses.New(repo, sched, logger),
		catalog:   drugs.Default(),
		routine:   routine,
		logger:    logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
