package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"returns-service/config"
	"returns-service/internal/api"
	"returns-service/internal/audit"
	"returns-service/internal/broker"
	"returns-service/internal/intent"
	"returns-service/internal/rag"
	"returns-service/internal/redisclient"
	"returns-service/internal/service"
	"returns-service/internal/store"
	"returns-service/internal/util"
	"returns-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting returns service")

	tp, err := util.InitTracer("returns-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReturns)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	// Audit entries go to their own topic so observability consumers do not
	// share a stream with the carrier worker.
	auditProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAudit)
	defer auditProducer.Close()

	auditSink := audit.NewMultiSink(
		audit.NewStoreSink(db),
		audit.NewKafkaSink(broker.NewEventPublisher(auditProducer)),
	)

	classifier := intent.NewRuleClassifier()
	answerer := rag.NewHTTPAnswerer(cfg.Rag.AnswererURL)

	validator := service.NewValidator(db)
	policyEngine := service.NewPolicyEngine(cfg.Policy)
	labelGenerator := service.NewLabelGenerator(redisClient, db, cfg.Policy.HouseCarrier, cfg.Policy.LabelBaseURL)
	pipeline := service.NewPipeline(db, validator, policyEngine, labelGenerator, auditSink, redisClient)
	returnsService := service.NewReturnsService(classifier, pipeline, answerer, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	carrierConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReturns, cfg.Kafka.ConsumerGroup)
	carrierWorker := worker.NewCarrierWorker(carrierConsumer, db, eventPublisher)
	go func() {
		if err := carrierWorker.Start(workerCtx); err != nil {
			log.Printf("Carrier worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(returnsService, db, time.Duration(cfg.Policy.RequestTimeoutSeconds)*time.Second)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	carrierWorker.Stop()

	log.Println("Server exited")
}
