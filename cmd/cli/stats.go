package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/axellelanca/shortly/cmd"
	"github.com/axellelanca/shortly/internal/config"
	"github.com/axellelanca/shortly/internal/repository"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get statistics for a short URL",
	Long:  `Get click statistics for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	shortCode := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)

	link, err := linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Error: Short code '%s' not found\n", shortCode)
		} else {
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	// Le compteur du lien est la valeur de référence ; les lignes de clics
	// enregistrées par les workers donnent le détail analytique.
	recordedClicks, err := clickRepo.CountClicksByLinkID(link.ID)
	if err != nil {
		fmt.Printf("Error counting recorded clicks: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Statistiques pour le code court: %s\n", shortCode)
	fmt.Printf("URL cible: %s\n", link.OriginalURL)
	fmt.Printf("Total de clics: %d\n", link.Clicks)
	fmt.Printf("Clics enregistrés (analytics): %d\n", recordedClicks)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	if link.ExpiresAt != nil {
		fmt.Printf("Date d'expiration: %s\n", link.ExpiresAt.Format(time.RFC3339))
	}
	if link.LastAccessed != nil {
		fmt.Printf("Dernier accès: %s\n", link.LastAccessed.Format("2006-01-02 15:04:05"))
	}
}
