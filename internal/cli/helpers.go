package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imkarma/loom/internal/beadstore"
	"github.com/imkarma/loom/internal/config"
)

const loomDirName = ".loom"

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// loomPath returns the path to a file inside .loom/.
func loomPath(parts ...string) string {
	elems := append([]string{loomDirName}, parts...)
	return filepath.Join(elems...)
}

// mustConfig loads the project config, failing if loom is not initialized.
func mustConfig() (*config.Config, error) {
	path := loomPath("config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("loom not initialized. Run: loom init")
	}
	return config.Load(path)
}

// storeClient builds the bead store client from config, tolerating a missing
// config for the bare field commands (workers run them from arbitrary
// checkouts).
func storeClient() (*beadstore.Client, error) {
	var opts []beadstore.Option
	if cfg, err := mustConfig(); err == nil && cfg.Store.Binary != "" {
		opts = append(opts, beadstore.WithBinary(cfg.Store.Binary))
	}
	return beadstore.New(opts...)
}

// projectRoot is the directory loom resolves workers against.
func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
