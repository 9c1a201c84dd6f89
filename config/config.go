package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	MongoURI      string
	DBName        string
	Port          string
	Env           string
	SerpAPIKey    string
	GeminiAPIKey  string
	JWTSecret     string
	AWSRegion     string
	AWSBucketName string
	SeedCatalog   bool

	// EnableRenderedScrape turns on the headless-browser fallback for
	// og:image resolution. Off by default since it needs a local Chrome.
	EnableRenderedScrape bool
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017/"
	}

	DBName = os.Getenv("DB_NAME")
	if DBName == "" {
		DBName = "vesaki"
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	Env = os.Getenv("ENV")
	if Env == "" {
		Env = "development"
	}

	SerpAPIKey = os.Getenv("SERPAPI_API_KEY")
	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	JWTSecret = os.Getenv("JWT_SECRET")

	AWSRegion = os.Getenv("AWS_REGION")
	if AWSRegion == "" {
		AWSRegion = "us-east-1"
	}
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")

	SeedCatalog = os.Getenv("SEED_CATALOG") == "true"
	EnableRenderedScrape = os.Getenv("ENABLE_RENDERED_SCRAPE") == "true"
}
