package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
)

// Agent configures the fieldsync device agent.
type Agent struct {
	Identity     Identity     `yaml:"identity"`
	Store        Store        `yaml:"store"`
	Remote       Remote       `yaml:"remote"`
	Retry        Retry        `yaml:"retry"`
	Connectivity Connectivity `yaml:"connectivity"`
	Verification Verification `yaml:"verification"`
	Sync         Sync         `yaml:"sync"`
	Log          Log          `yaml:"log"`
	Trace        Trace        `yaml:"trace"`
}

type Identity struct {
	Address string `yaml:"address"`
	KeyFile string `yaml:"keyfile"` // optional; without it entries stay unsigned
}

type Store struct {
	Path string `yaml:"path"`
}

type Remote struct {
	Endpoint      string `yaml:"endpoint"`
	Contract      string `yaml:"contract"`
	ProofContract string `yaml:"proofContract"`
}

type Retry struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
}

type Connectivity struct {
	ProbeInterval       time.Duration `yaml:"probeInterval"`
	InitialProbeTimeout time.Duration `yaml:"initialProbeTimeout"`
}

type Verification struct {
	ProofDir  string                      `yaml:"proofDir"`
	Providers map[domain.RoleClaim]string `yaml:"providers"`
}

type Sync struct {
	AutoResync bool `yaml:"autoResync"`
}

type Log struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type Trace struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// Docustore configures the remote document store server.
type Docustore struct {
	Server        Server   `yaml:"server"`
	Contract      string   `yaml:"contract"`
	ProofContract string   `yaml:"proofContract"`
	Admins        []string `yaml:"admins"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	SqlitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
}

func DefaultAgent() Agent {
	return Agent{
		Store: Store{Path: "fieldsync.db"},
		Remote: Remote{
			Endpoint:      "http://localhost:8000",
			Contract:      "carelog-records",
			ProofContract: "carelog-proofs",
		},
		Retry: Retry{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Connectivity: Connectivity{
			ProbeInterval:       5 * time.Second,
			InitialProbeTimeout: 3 * time.Second,
		},
		Verification: Verification{
			ProofDir:  "proofs",
			Providers: map[domain.RoleClaim]string{},
		},
		Log: Log{Level: "info"},
	}
}

func DefaultDocustore() Docustore {
	return Docustore{
		Server: Server{
			Listen:     ":8000",
			SqlitePath: "docustore.db",
			LogLevel:   "info",
		},
		Contract:      "carelog-records",
		ProofContract: "carelog-proofs",
	}
}

func (c Agent) Validate() error {
	var problems []string
	if c.Identity.Address != "" && !carelog.IsAddress(c.Identity.Address) {
		problems = append(problems, "identity.address is not a valid address")
	}
	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if c.Remote.Endpoint == "" {
		problems = append(problems, "remote.endpoint is required")
	}
	if c.Remote.Contract == "" || c.Remote.ProofContract == "" {
		problems = append(problems, "remote.contract and remote.proofContract are required")
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.maxAttempts must be at least 1")
	}
	if c.Retry.BaseDelay < 0 {
		problems = append(problems, "retry.baseDelay must not be negative")
	}
	if c.Connectivity.ProbeInterval <= 0 {
		problems = append(problems, "connectivity.probeInterval must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Trace.Enable && c.Trace.Endpoint == "" {
		problems = append(problems, "trace.endpoint is required when tracing is enabled")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid agent config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Docustore) Validate() error {
	var problems []string
	if c.Server.Listen == "" {
		problems = append(problems, "server.listen is required")
	}
	if c.Server.PostgresDsn == "" && c.Server.SqlitePath == "" {
		problems = append(problems, "one of server.postgresDsn or server.sqlitePath is required")
	}
	if c.Contract == "" || c.ProofContract == "" {
		problems = append(problems, "contract and proofContract are required")
	}
	for _, a := range c.Admins {
		if !carelog.IsAddress(a) {
			problems = append(problems, "admin "+a+" is not a valid address")
		}
	}
	if _, err := ParseLevel(c.Server.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		problems = append(problems, "server.traceEndpoint is required when tracing is enabled")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid docustore config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Contracts lists every contract ref the store answers to.
func (c Docustore) Contracts() []string {
	return []string{c.Contract, c.ProofContract}
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// LoadAgent reads path over DefaultAgent.
func LoadAgent(path string) (Agent, error) {
	config := DefaultAgent()
	if err := load(path, &config); err != nil {
		return Agent{}, err
	}
	return config, config.Validate()
}

// LoadDocustore reads path over DefaultDocustore.
func LoadDocustore(path string) (Docustore, error) {
	config := DefaultDocustore()
	if err := load(path, &config); err != nil {
		return Docustore{}, err
	}
	return config, config.Validate()
}

func load(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewDecoder(file).Decode(out)
}
