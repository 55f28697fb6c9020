package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/courtoo/booking-engine/internal/database"
	"github.com/courtoo/booking-engine/internal/directory"
)

// Simplified config loading for the script
func loadConfig() (dbName, primaryURL, authToken, migrationsDir string) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	dbName = os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "courtoo.db"
	}
	migrationsDir = os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	return dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), migrationsDir
}

func main() {
	log.Info("Starting database seeder...")
	dbName, primaryURL, authToken, migrationsDir := loadConfig()

	db, teardown, err := database.InitDB(dbName, primaryURL, authToken, migrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := directory.New(db)

	users := []directory.User{
		{ID: "user-1", FirstName: "Carlos", LastName: "Martinez", Phone: "+34600111222", Level: 4.2, Stats: directory.PlayerStats{MatchesPlayed: 45, MatchesWon: 28, MatchesLost: 17}},
		{ID: "user-2", FirstName: "Anna", LastName: "Petrova", Phone: "+34600333444", Level: 3.8, Stats: directory.PlayerStats{MatchesPlayed: 32, MatchesWon: 18, MatchesLost: 14}},
		{ID: "user-3", FirstName: "James", LastName: "Wilson", Phone: "+34600555666", Level: 2.1, Stats: directory.PlayerStats{MatchesPlayed: 12, MatchesWon: 4, MatchesLost: 8}},
		{ID: "user-4", FirstName: "Maria", LastName: "Garcia", Phone: "+34600777888", Level: 5.1, Stats: directory.PlayerStats{MatchesPlayed: 78, MatchesWon: 52, MatchesLost: 26}},
		{ID: "user-5", FirstName: "Lucas", LastName: "Silva", Phone: "+34600999000", Level: 3.5, Stats: directory.PlayerStats{MatchesPlayed: 25, MatchesWon: 13, MatchesLost: 12}},
		{ID: "user-6", FirstName: "Emma", LastName: "Johnson", Phone: "+34611222333", Level: 1.9, Stats: directory.PlayerStats{MatchesPlayed: 6, MatchesWon: 2, MatchesLost: 4}},
	}
	if err := store.UpsertUsers(users); err != nil {
		log.Fatalf("Failed to seed users: %s", err)
	}
	log.Info("Seeded users", "count", len(users))

	clubs := []directory.Club{
		{ID: "club-1", Name: "Riverside Padel Club", Address: "14 Riverside Way", Lat: 41.3851, Lng: 2.1734, Amenities: []string{"parking", "showers", "shop", "cafe"}, CancellationDeadlineHours: 24},
		{ID: "club-2", Name: "Northgate Racquets", Address: "2 Northgate Street", Lat: 41.4036, Lng: 2.1744, Amenities: []string{"parking", "showers"}, CancellationDeadlineHours: 12},
		{ID: "club-3", Name: "Harbour View Padel", Address: "88 Harbour Road", Lat: 41.3879, Lng: 2.1699, Amenities: []string{"showers", "cafe", "pro-shop"}, CancellationDeadlineHours: 24},
		{ID: "club-4", Name: "Westfield Sports Centre", Address: "51 Westfield Avenue", Lat: 41.3917, Lng: 2.1649, Amenities: []string{"parking"}, CancellationDeadlineHours: 6},
		{ID: "club-5", Name: "The Padel Yard", Address: "7 Old Mill Lane", Lat: 41.3984, Lng: 2.1592, Amenities: []string{"parking", "showers", "cafe", "gym"}, CancellationDeadlineHours: 48},
	}
	if err := store.UpsertClubs(clubs); err != nil {
		log.Fatalf("Failed to seed clubs: %s", err)
	}
	log.Info("Seeded clubs", "count", len(clubs))

	courts := []directory.Court{
		{ID: "court-1", ClubID: "club-1", Name: "Court 1", Type: directory.CourtIndoor},
		{ID: "court-2", ClubID: "club-1", Name: "Court 2", Type: directory.CourtIndoor},
		{ID: "court-3", ClubID: "club-1", Name: "Court 3", Type: directory.CourtOutdoor},
		{ID: "court-4", ClubID: "club-2", Name: "Centre Court", Type: directory.CourtIndoor},
		{ID: "court-5", ClubID: "club-2", Name: "Court 2", Type: directory.CourtOutdoor},
		{ID: "court-6", ClubID: "club-3", Name: "Court 1", Type: directory.CourtOutdoor},
		{ID: "court-7", ClubID: "club-3", Name: "Court 2", Type: directory.CourtOutdoor},
		{ID: "court-8", ClubID: "club-4", Name: "Hall A", Type: directory.CourtIndoor},
		{ID: "court-9", ClubID: "club-5", Name: "Court 1", Type: directory.CourtIndoor},
		{ID: "court-10", ClubID: "club-5", Name: "Court 2", Type: directory.CourtIndoor},
	}
	if err := store.UpsertCourts(courts); err != nil {
		log.Fatalf("Failed to seed courts: %s", err)
	}
	log.Info("Seeded courts", "count", len(courts))

	log.Info("Seeding complete.")
}
