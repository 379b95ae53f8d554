package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// App - клиенты Firestore и Cloud Storage одного проекта Firebase
type App struct {
	Firestore *firestore.Client
	// Bucket nil, если STORAGE_BUCKET не задан
	Bucket     *gcs.BucketHandle
	BucketName string
}

// NewApp инициализирует Firebase по файлу сервисного аккаунта или по ADC
func NewApp(ctx context.Context, projectID, credentialsPath, bucket string) (*App, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		ProjectID:     projectID,
		StorageBucket: bucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	result := &App{Firestore: firestoreClient}
	if bucket == "" {
		return result, nil
	}

	storageClient, err := app.Storage(ctx)
	if err != nil {
		_ = firestoreClient.Close()
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	handle, err := storageClient.DefaultBucket()
	if err != nil {
		_ = firestoreClient.Close()
		return nil, fmt.Errorf("failed to open storage bucket %s: %w", bucket, err)
	}
	result.Bucket = handle
	result.BucketName = bucket
	return result, nil
}

func (a *App) Close() error {
	return a.Firestore.Close()
}

// NewBucket открывает бакет Cloud Storage без Firestore, для хранилищ mongo и postgres
func NewBucket(ctx context.Context, credentialsPath, bucket string) (*gcs.BucketHandle, func() error, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client.Bucket(bucket), client.Close, nil
}
