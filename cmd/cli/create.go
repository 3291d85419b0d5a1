package cli

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/shortly/cmd"
	"github.com/axellelanca/shortly/internal/cache"
	"github.com/axellelanca/shortly/internal/config"
	"github.com/axellelanca/shortly/internal/repository"
	"github.com/axellelanca/shortly/internal/services"
)

var (
	originalURLFlag string
	aliasFlag       string
	expiresFlag     string
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL fournie et affiche le code court.

Exemple:
  shortly create --url="https://www.google.com/search?q=go+lang"
  shortly create --url="https://example.com" --alias=promo --expires=2026-12-31T00:00:00Z`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if _, err := url.ParseRequestURI(originalURLFlag); err != nil {
			fmt.Printf("Error: Invalid URL format: %v\n", err)
			os.Exit(1)
		}

		var expiresAt *time.Time
		if expiresFlag != "" {
			parsed, err := time.Parse(time.RFC3339, expiresFlag)
			if err != nil {
				fmt.Printf("Error: Invalid expiration format (want RFC3339): %v\n", err)
				os.Exit(1)
			}
			expiresAt = &parsed
		}

		var alias *string
		if aliasFlag != "" {
			alias = &aliasFlag
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		// Le CLI parle directement au store, sans cache.
		linkRepo := repository.NewLinkRepository(db)
		linkService := services.NewLinkService(linkRepo, cache.NewNoopCache(), cfg.DefaultCacheTTL())

		link, err := linkService.CreateLink(services.CreateLinkInput{
			OriginalURL: originalURLFlag,
			CustomAlias: alias,
			ExpiresAt:   expiresAt,
		})
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fullShortURL := fmt.Sprintf("%s/links/%s", cfg.Server.BaseURL, link.ShortCode)
		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Code: %s\n", link.ShortCode)
		fmt.Printf("URL complète: %s\n", fullShortURL)
		if link.ExpiresAt != nil {
			fmt.Printf("Expire le: %s\n", link.ExpiresAt.Format(time.RFC3339))
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&originalURLFlag, "url", "", "The URL to shorten")
	CreateCmd.Flags().StringVar(&aliasFlag, "alias", "", "Optional custom alias")
	CreateCmd.Flags().StringVar(&expiresFlag, "expires", "", "Optional expiration timestamp (RFC3339)")
	CreateCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(CreateCmd)
}
