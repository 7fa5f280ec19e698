package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/mdoutline/internal/api"
	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/outline"
	"github.com/salmonumbrella/mdoutline/internal/store"
)

// notebookOptions selects and configures a backend.
type notebookOptions struct {
	// Backend overrides the resolved backend when set.
	Backend string
	// Batch queues Roam writes into one batch-actions request.
	Batch bool
}

// notebookHandle is an open notebook plus whatever must be released after
// use.
type notebookHandle struct {
	Notebook outline.Notebook
	Backend  string
	// Store is set for the sqlite backend.
	Store *store.Store
	// Graph is set for the roam backend.
	Graph *api.GraphNotebook

	closeFn func() error
}

// Close releases the notebook.
func (h *notebookHandle) Close() error {
	if h == nil || h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}

// openNotebook opens the configured backend.
func openNotebook(cmd *cobra.Command, opts notebookOptions) (*notebookHandle, error) {
	backend := opts.Backend
	if backend == "" {
		resolved, err := resolveBackend(cmd, loadedConfig)
		if err != nil {
			return nil, err
		}
		backend = resolved
	}
	logger := loggerFromContext(cmd.Context())

	switch backend {
	case config.BackendMemory:
		return &notebookHandle{Notebook: outline.NewMemoryNotebook(), Backend: backend}, nil

	case config.BackendSQLite:
		path, err := resolveDatabasePath(cmd, loadedConfig)
		if err != nil {
			return nil, err
		}
		st, err := openStoreFunc(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened notebook", "backend", backend, "path", path)
		return &notebookHandle{Notebook: st, Backend: backend, Store: st, closeFn: st.Close}, nil
	}

	creds := resolveCredentials(cmd, loadedConfig)
	if err := creds.validate(); err != nil {
		return nil, err
	}
	baseURL := ""
	if loadedConfig != nil {
		baseURL = strings.TrimSpace(loadedConfig.BaseURL)
	}

	if backend == config.BackendRoamAppend || isEncrypted(creds) {
		appendOpts := []api.AppendClientOption{api.WithAppendLogger(logger)}
		if baseURL != "" {
			appendOpts = append(appendOpts, api.WithAppendBaseURL(baseURL))
		}
		client := api.NewAppendClient(creds.Graph, creds.Token, appendOpts...)
		logger.Debug("opened notebook", "backend", config.BackendRoamAppend, "graph", creds.Graph)
		return &notebookHandle{Notebook: api.NewAppendNotebook(client), Backend: config.BackendRoamAppend}, nil
	}

	clientOpts := []api.ClientOption{api.WithLogger(logger)}
	if baseURL != "" {
		clientOpts = append(clientOpts, api.WithBaseURL(baseURL))
	}
	nbOpts := []api.NotebookOption{api.WithNotebookLogger(logger)}
	if opts.Batch {
		nbOpts = append(nbOpts, api.WithBatch())
	}
	graph := api.NewGraphNotebook(api.NewClient(creds.Graph, creds.Token, clientOpts...), nbOpts...)
	logger.Debug("opened notebook", "backend", backend, "graph", creds.Graph, "batch", opts.Batch)
	return &notebookHandle{Notebook: graph, Backend: backend, Graph: graph}, nil
}
