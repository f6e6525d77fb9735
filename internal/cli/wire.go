package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/campusapi"
	"campusevents/internal/adapters/email"
	"campusevents/internal/adapters/storage"
	"campusevents/internal/adapters/transport"
	"campusevents/internal/domain"
	"campusevents/internal/filter"
	"campusevents/internal/services"
)

// New wires an App from cfg. The returned close function releases the credential store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, out, errOut io.Writer) (*App, func() error, error) {
	kv, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}

	holder := services.NewHolder()
	var session domain.SessionService
	gw := transport.New(cfg.APIURL, holder,
		transport.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		transport.WithLogger(logger),
		transport.WithUnauthorizedHandler(func() { session.HandleUnauthorized() }),
	)
	session = services.NewSessionService(campusapi.NewAuthClient(gw), holder, kv, auth.NewJWTInspector())
	eventsAPI := campusapi.NewEventsClient(gw)

	emailSvc, err := newEmailService(cfg.Mail, logger)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	app := &App{
		Session: session,
		Events:  services.NewEventStore(eventsAPI),
		Roster:  services.NewRosterService(eventsAPI, emailSvc),
		Filter:  filter.Evaluator{},
		Out:     out,
		Err:     errOut,
	}
	return app, closeStore, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (domain.KeyValueStore, func() error, error) {
	var (
		kv        domain.KeyValueStore
		closeFunc = func() error { return nil }
	)
	switch cfg.Driver {
	case config.StoreMemory:
		kv = storage.NewMemoryStore()
	case config.StorePostgres, config.StoreSQLite:
		db, err := storage.OpenSQL(ctx, sqlDriver(cfg.Driver), cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open credential store: %w", err)
		}
		kv = storage.NewSQLStore(db)
		closeFunc = db.Close
	case config.StoreBolt:
		bolt, err := storage.OpenBolt(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open credential store: %w", err)
		}
		kv = bolt
		closeFunc = bolt.Close
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	logger.Debug("credential store opened", "driver", cfg.Driver, "sealed", cfg.Secret != "")

	if cfg.Secret != "" {
		key, err := storage.ParseSecret(cfg.Secret)
		if err != nil {
			_ = closeFunc()
			return nil, nil, err
		}
		kv = storage.NewSealedStore(kv, key)
	}
	return kv, closeFunc, nil
}

func sqlDriver(driver string) string {
	if driver == config.StorePostgres {
		return storage.DriverPostgres
	}
	return storage.DriverSQLite
}

func newEmailService(cfg config.MailConfig, logger *slog.Logger) (domain.EmailService, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Provider,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		MailerSend: email.MailerSendConfig{APIKey: cfg.MailerSendAPIKey},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	return services.NewEmailService(mailer, renderer), nil
}
