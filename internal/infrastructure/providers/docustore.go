package providers

import (
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/totegamma/carelog/internal/config"
	"github.com/totegamma/carelog/internal/infrastructure/database"
	"github.com/totegamma/carelog/internal/infrastructure/repository"
	"github.com/totegamma/carelog/internal/service"
	"github.com/totegamma/carelog/internal/usecase"
)

// NewDatabase opens Postgres when a DSN is configured, sqlite otherwise, and migrates.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	if conf.PostgresDsn != "" {
		db, err = database.NewPostgres(conf.PostgresDsn)
	} else {
		db, err = database.NewSQLite(conf.SqlitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewMemcache returns nil when no address is configured.
func NewMemcache(addr string) *memcache.Client {
	if addr == "" {
		return nil
	}
	return database.NewMemcached(addr)
}

// NewSignal returns nil when no redis is configured.
func NewSignal(conf config.Server) *service.SignalService {
	if conf.RedisAddr == "" {
		slog.Info(
			"redis not configured, realtime disabled",
			slog.String("module", "providers"),
		)
		return nil
	}
	return service.NewSignalService(database.NewRedis(conf.RedisAddr, "", conf.RedisDB))
}

func NewDocumentUsecase(conf config.Docustore, db *gorm.DB, mc *memcache.Client, signal *service.SignalService) (*usecase.DocumentUsecase, error) {
	var publisher usecase.EventPublisher
	if signal != nil {
		publisher = signal
	}
	return usecase.NewDocumentUsecase(
		repository.NewDocumentRepository(db, mc),
		publisher,
		conf.Contracts(),
		conf.Admins,
	)
}
