package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/postgrest"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
	"gorm.io/gorm"
)

const (
	BackendPostgREST = "postgrest"
	BackendDatabase  = "database"
	BackendNone      = "none"
)

// PersistenceConfig selects where waitlist rows live. An empty Backend means auto: PostgREST
// when fully configured, else a database when one is configured, else none.
type PersistenceConfig struct {
	Backend        string
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

func NewPersistenceConfig() *PersistenceConfig {
	return &PersistenceConfig{
		Backend:        strings.ToLower(utils.GetEnvTrimmed("WAITLIST_BACKEND")),
		URL:            sanitizeEnv(GetValueFromEnvironmentVariable("SUPABASE_URL", "")),
		AnonKey:        sanitizeEnv(GetValueFromEnvironmentVariable("SUPABASE_ANON_KEY", "")),
		ServiceRoleKey: sanitizeEnv(GetValueFromEnvironmentVariable("SUPABASE_SERVICE_ROLE_KEY", "")),
		Timeout:        utils.GetEnvDuration("SUPABASE_TIMEOUT", 10*time.Second),
	}
}

// PostgRESTConfigured requires the URL and both keys.
func (pc *PersistenceConfig) PostgRESTConfigured() bool {
	return pc.URL != "" && pc.AnonKey != "" && pc.ServiceRoleKey != ""
}

func (pc *PersistenceConfig) Validate() error {
	switch pc.Backend {
	case "", "auto", BackendPostgREST, BackendDatabase, BackendNone:
		return nil
	default:
		return fmt.Errorf("unsupported WAITLIST_BACKEND %q (allowed: postgrest, database, none)", pc.Backend)
	}
}

// Resolve picks the backend given whether a database is configured.
func (pc *PersistenceConfig) Resolve(databaseConfigured bool) string {
	switch pc.Backend {
	case BackendPostgREST, BackendDatabase, BackendNone:
		return pc.Backend
	}
	if pc.PostgRESTConfigured() {
		return BackendPostgREST
	}
	if databaseConfigured {
		return BackendDatabase
	}
	return BackendNone
}

// Persistence holds the constructed clients for the selected backend. Reader uses the anon key,
// Writer the service-role key.
type Persistence struct {
	Backend string
	Reader  *postgrest.Client
	Writer  *postgrest.Client
	DB      *gorm.DB
}

// Configured reports whether the selected backend has usable clients.
func (p *Persistence) Configured() bool {
	if p == nil {
		return false
	}
	switch p.Backend {
	case BackendPostgREST:
		return p.Reader != nil && p.Writer != nil
	case BackendDatabase:
		return p.DB != nil
	default:
		return false
	}
}

func (pc *PersistenceConfig) NewPostgRESTClients(logger *log.Logger) (reader, writer *postgrest.Client, err error) {
	if !pc.PostgRESTConfigured() {
		return nil, nil, fmt.Errorf("postgrest persistence requires SUPABASE_URL, SUPABASE_ANON_KEY and SUPABASE_SERVICE_ROLE_KEY")
	}

	reader, err = postgrest.NewClient(postgrest.Config{BaseURL: pc.URL, APIKey: pc.AnonKey, Timeout: pc.Timeout})
	if err != nil {
		return nil, nil, err
	}
	writer, err = postgrest.NewClient(postgrest.Config{BaseURL: pc.URL, APIKey: pc.ServiceRoleKey, Timeout: pc.Timeout})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("PostgREST persistence configured", "url", pc.URL, "timeout", pc.Timeout)
	return reader, writer, nil
}

// NewPersistence builds the selected backend. An explicitly selected backend that cannot be built
// is an error; auto selection degrades to none.
func NewPersistence(logger *log.Logger, pc *PersistenceConfig, dbCfg *DBConfig) (*Persistence, error) {
	if err := pc.Validate(); err != nil {
		return nil, err
	}

	explicit := pc.Backend == BackendPostgREST || pc.Backend == BackendDatabase
	backend := pc.Resolve(dbCfg.IsConfigured())

	switch backend {
	case BackendPostgREST:
		reader, writer, err := pc.NewPostgRESTClients(logger)
		if err != nil {
			return nil, err
		}
		return &Persistence{Backend: backend, Reader: reader, Writer: writer}, nil

	case BackendDatabase:
		if explicit {
			db, err := NewDatabase(logger, dbCfg)
			if err != nil {
				return nil, err
			}
			return &Persistence{Backend: backend, DB: db}, nil
		}
		if db := NewDatabaseOrNil(logger, dbCfg); db != nil {
			return &Persistence{Backend: backend, DB: db}, nil
		}
	}

	logger.Warn("Waitlist persistence is not configured; signups will be rejected and counts pinned to the baseline")
	return &Persistence{Backend: BackendNone}, nil
}
