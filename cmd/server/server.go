package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/shortly/cmd"
	"github.com/axellelanca/shortly/internal/api"
	"github.com/axellelanca/shortly/internal/cache"
	"github.com/axellelanca/shortly/internal/config"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/monitor"
	"github.com/axellelanca/shortly/internal/repository"
	"github.com/axellelanca/shortly/internal/services"
	"github.com/axellelanca/shortly/internal/workers"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données et le cache Redis,
configure les APIs, démarre les workers de clics et l'archiveur de liens
expirés, puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		// Initialiser la base de données
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(
			&models.User{},
			&models.Link{},
			&models.ArchivedLink{},
			&models.Project{},
			&models.Click{},
		); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		// Initialiser le client Redis. Un Redis indisponible n'est pas fatal :
		// le service dégrade chaque lookup en cache miss.
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("WARN: Redis injoignable (%v), le cache sera traité comme vide.", err)
		}
		cancel()
		linkCache := cache.NewRedisCache(redisClient)

		// Initialiser les repositories
		linkRepo := repository.NewLinkRepository(db)
		userRepo := repository.NewUserRepository(db)
		projectRepo := repository.NewProjectRepository(db)
		clickRepo := repository.NewClickRepository(db)
		log.Println("Repositories initialisés.")

		// Initialiser les services métiers
		linkService := services.NewLinkService(linkRepo, linkCache, cfg.DefaultCacheTTL())
		authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.TokenTTL())
		projectService := services.NewProjectService(projectRepo, linkRepo)
		log.Println("Services métiers initialisés.")

		// Lancer les workers de clics
		clickEvents := make(chan models.ClickEvent, cfg.Analytics.BufferSize)
		workers.StartClickWorkers(cfg.Analytics.WorkerCount, clickEvents, clickRepo)
		log.Printf("Channel d'événements de clic initialisé avec un buffer de %d. %d worker(s) de clics démarré(s).",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		// Lancer l'archiveur de liens expirés
		archiverInterval := time.Duration(cfg.Archiver.IntervalMinutes) * time.Minute
		archiver := monitor.NewExpirationArchiver(linkRepo, linkCache, archiverInterval)
		go archiver.Start()

		// Configurer le routeur Gin et les handlers API
		router := gin.Default()
		handlers := api.NewHandlers(linkService, authService, projectService, clickEvents, cfg.Auth.JWTSecret)
		api.SetupRoutes(router, handlers)
		log.Println("Routes API configurées.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur Gin dans une goroutine pour ne pas bloquer
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Arrêt forcé du serveur HTTP : %v", err)
		}

		// Arrêter les processus de fond puis laisser les workers vider le channel
		archiver.Stop()
		close(clickEvents)
		time.Sleep(1 * time.Second)

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
