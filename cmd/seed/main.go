package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/stocksense/backend-go/internal/config"
	"github.com/stocksense/backend-go/internal/drive"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/ingest"
	"github.com/stocksense/backend-go/internal/repository/postgres"
	"github.com/stocksense/backend-go/internal/service"
	"github.com/stocksense/backend-go/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newUserIDFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "user-id",
		Usage:    "User UUID the data is ingested for",
		Required: true,
		EnvVars:  []string{"SEED_USER_ID"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Ingest sales and product data into the database",
		Commands: []*cli.Command{
			{
				Name:  "sales",
				Usage: "Ingest sales CSV/XLSX files from a local directory",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newUserIDFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing sales files",
						Value:   "./data/sales",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: seedSales,
			},
			{
				Name:  "products",
				Usage: "Apply a bulk product catalog CSV",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newUserIDFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Bulk product CSV file",
						Required: true,
					},
				},
				Action: seedProducts,
			},
			{
				Name:  "drive",
				Usage: "Download sales files from a Google Drive folder and ingest them",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newUserIDFlag(),
					&cli.StringFlag{
						Name:    "folder",
						Usage:   "Drive folder path, e.g. sales/2026",
						EnvVars: []string{"DRIVE_FOLDER_PATH"},
					},
					&cli.StringFlag{
						Name:    "download-dir",
						Usage:   "Local directory for downloaded files",
						Value:   "./data/drive",
						EnvVars: []string{"DRIVE_DOWNLOAD_DIR"},
					},
				},
				Action: seedFromDrive,
			},
			{
				Name:  "archive",
				Usage: "Re-ingest a user's archived raw uploads from object storage",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newUserIDFlag(),
					&cli.StringFlag{
						Name:    "download-dir",
						Usage:   "Local directory for downloaded archives",
						Value:   "./data/archive",
						EnvVars: []string{"ARCHIVE_DOWNLOAD_DIR"},
					},
				},
				Action: seedFromArchive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newIngestService(c *cli.Context) (*service.IngestService, error) {
	db, err := postgres.NewDBFromURL("pgx", c.String("db-url"))
	if err != nil {
		return nil, err
	}

	return service.NewIngestService(
		postgres.NewIngestRepository(db),
		postgres.NewProductRepository(db),
		service.IngestServiceOptions{Policy: forecast.DefaultPolicy()},
	), nil
}

func parseUserID(c *cli.Context) (uuid.UUID, error) {
	userID, err := uuid.Parse(c.String("user-id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user-id: %w", err)
	}
	return userID, nil
}

func seedSales(c *cli.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	svc, err := newIngestService(c)
	if err != nil {
		return err
	}

	dataDir := c.String("data-dir")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return fmt.Errorf("failed to read data dir %s: %w", dataDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		paths = append(paths, filepath.Join(dataDir, entry.Name()))
	}
	if len(paths) == 0 {
		return fmt.Errorf("no sales files found in %s", dataDir)
	}

	return ingestFiles(c, svc, userID, paths)
}

func seedProducts(c *cli.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	svc, err := newIngestService(c)
	if err != nil {
		return err
	}

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open product file: %w", err)
	}
	defer file.Close()

	applied, err := svc.BulkUpsertProducts(c.Context, userID, file)
	if err != nil {
		return err
	}

	log.Printf("Applied %d products", applied)
	return nil
}

func seedFromDrive(c *cli.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	svc, err := newIngestService(c)
	if err != nil {
		return err
	}

	driveService, err := drive.NewService(os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		return fmt.Errorf("failed to initialize drive service: %w", err)
	}

	folderID, err := driveService.FindFolderByPath(c.String("folder"))
	if err != nil {
		return err
	}

	downloader := drive.NewDownloader(driveService)
	paths, err := downloader.DownloadSalesFiles(c.Context, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: c.String("download-dir"),
	})
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no sales files found in drive folder %s", c.String("folder"))
	}

	return ingestFiles(c, svc, userID, paths)
}

func seedFromArchive(c *cli.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return err
	}

	svc, err := newIngestService(c)
	if err != nil {
		return err
	}

	store, err := storage.NewMinioClient(config.Load().Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	// Archived keys are uploads/<user>/<uuid>-<filename>.
	prefix := fmt.Sprintf("uploads/%s/", userID)
	objects, err := store.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("no archived uploads under %s", prefix)
	}

	downloadDir := c.String("download-dir")
	var paths []string
	for _, obj := range objects {
		dest := filepath.Join(downloadDir, filepath.Base(obj.Key))
		if err := store.DownloadObject(c.Context, obj.Key, dest); err != nil {
			return err
		}
		paths = append(paths, dest)
	}
	log.Printf("Downloaded %d archived uploads from %s", len(paths), prefix)

	return ingestFiles(c, svc, userID, paths)
}

func ingestFiles(c *cli.Context, svc *service.IngestService, userID uuid.UUID, paths []string) error {
	if len(paths) > 1 {
		// Each upload replaces the user's sales snapshot wholesale, so only
		// the last file's sales survive.
		log.Printf("warning: ingesting %d files; each replaces the previous sales snapshot", len(paths))
	}

	for _, path := range paths {
		csvPath := path
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			csvPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
			if err := ingest.ConvertXLSXToCSV(path, csvPath); err != nil {
				return fmt.Errorf("failed to convert %s: %w", path, err)
			}
		}

		file, err := os.Open(csvPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", csvPath, err)
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			return fmt.Errorf("failed to stat %s: %w", csvPath, err)
		}

		result, _, err := svc.ProcessUpload(c.Context, userID, filepath.Base(csvPath), info.Size(), file)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", csvPath, err)
		}

		log.Printf("Ingested %s: %d rows (%d valid, %d cleaned, %d warning), %d products",
			result.Filename, result.RowsTotal, result.RowsValid, result.RowsCleaned,
			result.RowsWarning, result.ProductCount)
	}
	return nil
}
