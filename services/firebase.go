package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"citipulse/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	archivePath = "readings"
	summaryPath = "campus/summary"
)

// FirebaseService archives readings to the Realtime Database
type FirebaseService struct {
	client *db.Client
	logger *zap.Logger
}

func NewFirebaseService(ctx context.Context, dbURL, serviceAccountJSON string, logger *zap.Logger) (*FirebaseService, error) {
	conf := &firebase.Config{
		DatabaseURL: dbURL,
	}

	opt := option.WithCredentialsJSON([]byte(serviceAccountJSON))
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	fs := &FirebaseService{
		client: client,
		logger: logger,
	}

	if err := fs.testConnection(ctx); err != nil {
		logger.Error("Firebase connection test failed", zap.Error(err))
		return nil, fmt.Errorf("firebase connection test failed: %w", err)
	}

	return fs, nil
}

// testConnection reads the archive root with linear backoff
func (fs *FirebaseService) testConnection(ctx context.Context) error {
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		fs.logger.Info("Testing Firebase connection", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		var probe map[string]interface{}
		err := fs.client.NewRef(archivePath).OrderByKey().LimitToFirst(1).Get(ctx, &probe)
		if err == nil {
			fs.logger.Info("Firebase connection successful")
			return nil
		}

		fs.logger.Warn("Firebase connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return fmt.Errorf("failed to connect to Firebase after %d attempts", maxRetries)
}

// WriteBatch stores a batch of readings with a single multi-path update
func (fs *FirebaseService) WriteBatch(ctx context.Context, batch []models.ArchivedReading) error {
	if len(batch) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(batch))
	for _, r := range batch {
		updates[r.Key()] = r
	}

	if err := fs.client.NewRef(archivePath).Update(ctx, updates); err != nil {
		return fmt.Errorf("error writing reading batch: %w", err)
	}
	return nil
}

// WriteSummary replaces the stored campus summary
func (fs *FirebaseService) WriteSummary(ctx context.Context, summary models.CampusSummary) error {
	if err := fs.client.NewRef(summaryPath).Set(ctx, summary); err != nil {
		return fmt.Errorf("error writing campus summary: %w", err)
	}
	return nil
}

// ReadArchive returns up to limit of the most recent archived readings, oldest first.
// A sensorID of zero reads across all sensors.
func (fs *FirebaseService) ReadArchive(ctx context.Context, sensorID, limit int) ([]models.ArchivedReading, error) {
	ref := fs.client.NewRef(archivePath)

	var query *db.Query
	if sensorID > 0 {
		query = ref.OrderByChild("sensor_id").EqualTo(sensorID)
	} else {
		query = ref.OrderByKey()
	}
	if limit > 0 {
		query = query.LimitToLast(limit)
	}

	var data map[string]models.ArchivedReading
	if err := query.Get(ctx, &data); err != nil {
		return nil, fmt.Errorf("error reading archive: %w", err)
	}

	out := make([]models.ArchivedReading, 0, len(data))
	for _, r := range data {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].SensorID < out[j].SensorID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Close closes the Firebase connection
func (fs *FirebaseService) Close() error {
	fs.logger.Info("Closing Firebase service")
	// the database client holds no resources that need releasing
	return nil
}
