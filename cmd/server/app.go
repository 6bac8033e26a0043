package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	authhandler "sacra360/internal/auth/handler"
	authservice "sacra360/internal/auth/service"
	cataloghandler "sacra360/internal/catalog/handler"
	catalogservice "sacra360/internal/catalog/service"
	bookstore "sacra360/internal/catalog/store/book"
	institutionstore "sacra360/internal/catalog/store/institution"
	certcache "sacra360/internal/certificate/cache"
	certhandler "sacra360/internal/certificate/handler"
	certservice "sacra360/internal/certificate/service"
	certstore "sacra360/internal/certificate/store"
	dochandler "sacra360/internal/document/handler"
	docservice "sacra360/internal/document/service"
	docstorage "sacra360/internal/document/storage"
	documentstore "sacra360/internal/document/store"
	httpapi "sacra360/internal/http"
	jwttoken "sacra360/internal/jwt_token"
	personhandler "sacra360/internal/person/handler"
	personservice "sacra360/internal/person/service"
	personstore "sacra360/internal/person/store"
	"sacra360/internal/platform/config"
	"sacra360/internal/platform/health"
	platformmetrics "sacra360/internal/platform/metrics"
	"sacra360/internal/platform/postgres"
	platformredis "sacra360/internal/platform/redis"
	reghandler "sacra360/internal/registration/handler"
	regservice "sacra360/internal/registration/service"
	"sacra360/internal/result/docstore"
	resulthandler "sacra360/internal/result/handler"
	resultmetrics "sacra360/internal/result/metrics"
	resultservice "sacra360/internal/result/service"
	resultstore "sacra360/internal/result/store"
	sachandler "sacra360/internal/sacrament/handler"
	sacmetrics "sacra360/internal/sacrament/metrics"
	sacservice "sacra360/internal/sacrament/service"
	sacstore "sacra360/internal/sacrament/store"
	userhandler "sacra360/internal/user/handler"
	userservice "sacra360/internal/user/service"
	userstore "sacra360/internal/user/store"
	"sacra360/pkg/platform/audit/publisher"
	auditstore "sacra360/pkg/platform/audit/store/postgres"
	"sacra360/pkg/platform/audit/worker"
	"sacra360/pkg/platform/circuit"
)

// app owns every long-lived resource built at startup.
type app struct {
	router  http.Handler
	outbox  *worker.OutboxWorker
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	if cfg.Database.RunMigrations {
		if err := postgres.Migrate(db); err != nil {
			return fail(err)
		}
		log.Info("database migrations applied")
	}

	checker := health.NewChecker(2 * time.Second)
	checker.Register("postgres", health.PingFunc(db.PingContext))

	txRunner := postgres.NewTxRunner(db)
	audits := auditstore.New(db)
	auditPublisher := publisher.NewPublisher(audits, publisher.WithLogger(log))

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	var certificateCache *certcache.RedisCache
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checker.Register("redis", redisClient)
		certificateCache = certcache.NewRedis(redisClient.Client, reg, certcache.WithTTL(cfg.Certificate.CacheTTL))
	} else {
		log.Info("REDIS_URL not set, certificate cache disabled")
	}

	if cfg.Kafka.Enabled() {
		producer, err := worker.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fail(fmt.Errorf("create kafka producer: %w", err))
		}
		a.closers = append(a.closers, producer.Close)
		checker.Register("kafka", producer)
		a.outbox = worker.NewOutboxWorker(audits, producer, txRunner,
			worker.WithInterval(cfg.Kafka.PollInterval),
			worker.WithBatchSize(cfg.Kafka.BatchSize),
			worker.WithLogger(log),
			worker.WithMetrics(worker.NewMetrics(reg)),
		)
	} else {
		log.Info("KAFKA_BROKERS not set, audit events stay in the outbox")
	}

	blob, err := newBlob(ctx, cfg.Storage)
	if err != nil {
		return fail(err)
	}

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, "sacra360", cfg.JWTTTL)
	routes, err := buildRoutes(cfg, log, reg, db, jwt, txRunner, auditPublisher, certificateCache, blob)
	if err != nil {
		return fail(err)
	}

	a.router = httpapi.NewRouter(httpapi.Config{
		Logger:      log,
		Metrics:     platformmetrics.New(reg),
		Gatherer:    reg,
		Tokens:      jwttoken.NewJWTServiceAdapter(jwt),
		Health:      checker.Handler(),
		CORSOrigins: cfg.CORSOrigins,
	}, routes)
	return a, nil
}

func buildRoutes(
	cfg config.Server,
	log *slog.Logger,
	reg prometheus.Registerer,
	db *sql.DB,
	jwt *jwttoken.JWTService,
	txRunner *postgres.TxRunner,
	auditPublisher *publisher.Publisher,
	certificateCache *certcache.RedisCache,
	blob docstorage.Blob,
) (httpapi.Routes, error) {
	people := personstore.NewPostgres(db)
	books := bookstore.NewPostgres(db)
	institutions := institutionstore.NewPostgres(db)
	users := userstore.NewPostgres(db)
	sacraments := sacstore.NewPostgres(db)
	sacramentMetrics := sacmetrics.New(reg)

	authSvc, err := authservice.New(users, jwt,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return httpapi.Routes{}, err
	}
	catalogOpts := []catalogservice.Option{
		catalogservice.WithLogger(log),
		catalogservice.WithAuditPublisher(auditPublisher),
		catalogservice.WithTxRunner(txRunner),
	}
	personOpts := []personservice.Option{
		personservice.WithLogger(log),
		personservice.WithAuditPublisher(auditPublisher),
		personservice.WithTxRunner(txRunner),
	}
	// Certificates embed person, book and institution names.
	if certificateCache != nil {
		catalogOpts = append(catalogOpts, catalogservice.WithCacheInvalidator(sacraments, certificateCache))
		personOpts = append(personOpts, personservice.WithCacheInvalidator(sacraments, certificateCache))
	}
	catalogSvc, err := catalogservice.New(books, institutions, catalogOpts...)
	if err != nil {
		return httpapi.Routes{}, err
	}
	personSvc, err := personservice.New(people, personOpts...)
	if err != nil {
		return httpapi.Routes{}, err
	}
	userSvc, err := userservice.New(users,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithTxRunner(txRunner),
	)
	if err != nil {
		return httpapi.Routes{}, err
	}

	sacOpts := []sacservice.Option{
		sacservice.WithLogger(log),
		sacservice.WithAuditPublisher(auditPublisher),
		sacservice.WithTxRunner(txRunner),
		sacservice.WithMetrics(sacramentMetrics),
	}
	certOpts := []certservice.Option{certservice.WithLogger(log)}
	if certificateCache != nil {
		sacOpts = append(sacOpts, sacservice.WithCacheInvalidator(certificateCache))
		certOpts = append(certOpts, certservice.WithCache(certificateCache))
	}
	sacramentSvc, err := sacservice.New(sacraments, sacOpts...)
	if err != nil {
		return httpapi.Routes{}, err
	}
	registrationSvc, err := regservice.New(people, sacraments,
		regservice.WithLogger(log),
		regservice.WithAuditPublisher(auditPublisher),
		regservice.WithTxRunner(txRunner),
		regservice.WithMetrics(sacramentMetrics),
	)
	if err != nil {
		return httpapi.Routes{}, err
	}
	certificateSvc, err := certservice.New(certstore.NewPostgres(db), certOpts...)
	if err != nil {
		return httpapi.Routes{}, err
	}
	documentSvc, err := docservice.New(documentstore.NewPostgres(db), blob,
		docservice.WithLogger(log),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithTxRunner(txRunner),
		docservice.WithMaxBytes(cfg.Storage.UploadMaxBytes),
	)
	if err != nil {
		return httpapi.Routes{}, err
	}

	resultOpts := []resultservice.Option{
		resultservice.WithLogger(log),
		resultservice.WithAuditPublisher(auditPublisher),
		resultservice.WithTxRunner(txRunner),
		resultservice.WithMetrics(resultmetrics.New(reg)),
	}
	if cfg.DocStore.Enabled() {
		resultOpts = append(resultOpts,
			resultservice.WithRemote(docstore.New(cfg.DocStore.URL, cfg.DocStore.APIKey, cfg.DocStore.Timeout)),
			resultservice.WithBreaker(circuit.New("docstore", circuit.WithCooldown(30*time.Second))),
		)
	} else {
		log.Info("DOCSTORE_URL not set, recognition results are stored locally")
	}
	resultSvc, err := resultservice.New(resultstore.NewPostgres(db), resultOpts...)
	if err != nil {
		return httpapi.Routes{}, err
	}

	return httpapi.Routes{
		Auth:         authhandler.New(authSvc, log),
		Catalog:      cataloghandler.New(catalogSvc, log),
		Person:       personhandler.New(personSvc, log),
		User:         userhandler.New(userSvc, log),
		Sacrament:    sachandler.New(sacramentSvc, log),
		Registration: reghandler.New(registrationSvc, log),
		Certificate:  certhandler.New(certificateSvc, log),
		Document:     dochandler.New(documentSvc, log),
		Result:       resulthandler.New(resultSvc, log),
	}, nil
}

func newBlob(ctx context.Context, cfg config.StorageConfig) (docstorage.Blob, error) {
	switch cfg.Backend {
	case "s3":
		return docstorage.NewS3(ctx, cfg.S3Bucket, cfg.S3Region)
	default:
		return docstorage.NewLocal(cfg.LocalPath)
	}
}
