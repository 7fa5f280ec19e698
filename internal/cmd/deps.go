package cmd

import (
	"os"

	"github.com/salmonumbrella/mdoutline/internal/paste"
	"github.com/salmonumbrella/mdoutline/internal/secrets"
	"github.com/salmonumbrella/mdoutline/internal/store"
)

// Seams swapped in tests.
var (
	openSecretsStore  = secrets.OpenDefault
	openStoreFunc     = store.Open
	openNotebookFunc  = openNotebook
	envGet            = os.Getenv
	readClipboardFunc = paste.ClipboardSource{}.Read
)
