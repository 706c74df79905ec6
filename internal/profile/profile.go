package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration of a taskchat instance.
type Profile struct {
	// Mode can be "prod" or "dev".
	Mode string
	// Addr is the binding address for the HTTP server.
	Addr string
	// Port is the binding port for the HTTP server.
	Port int
	// Data is the directory holding instance data (sqlite file by default).
	Data string
	// Driver is the database driver: sqlite, mysql, postgres.
	Driver string
	// DSN is the database connection string.
	DSN string
	// Secret signs and verifies access tokens.
	Secret string

	// AIBaseURL is the base URL of the OpenAI-compatible inference provider.
	AIBaseURL string
	// AIAPIKey authenticates against the inference provider. Empty disables
	// model-driven chat; the deterministic responder takes over.
	AIAPIKey string
	// AIModel is the model name sent with every completion request.
	AIModel string
	// AITimeout bounds a single inference call.
	AITimeout time.Duration
	// HistoryWindow is the number of recent messages loaded as chat context.
	HistoryWindow int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Validate normalizes the profile and fills derivable defaults.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}
	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrapf(err, "invalid data directory %q", p.Data)
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("taskchat_%s.db", p.Mode))
		}
	case "mysql", "postgres":
		if p.DSN == "" {
			return errors.Errorf("dsn is required for driver %q", p.Driver)
		}
	default:
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Secret == "" {
		p.Secret = "usetaskchat"
	}
	if p.AIBaseURL == "" {
		p.AIBaseURL = "https://api.openai.com/v1"
	}
	if p.AIModel == "" {
		p.AIModel = "gpt-4o-mini"
	}
	if p.AITimeout <= 0 {
		p.AITimeout = 30 * time.Second
	}
	if p.HistoryWindow <= 0 {
		p.HistoryWindow = 50
	}
	return nil
}

func checkDataDir(dataDir string) (string, error) {
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}
	dataDir = filepath.Clean(dataDir)
	fi, err := os.Stat(dataDir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", errors.Errorf("%s is not a directory", dataDir)
	}
	return dataDir, nil
}
