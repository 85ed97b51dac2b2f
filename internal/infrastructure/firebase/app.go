package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Credentials picks the service account source: inline JSON wins over a file
// path. Both empty means application default credentials.
func Credentials(serviceAccountJSON, serviceAccountPath string) []option.ClientOption {
	switch {
	case serviceAccountJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(serviceAccountJSON))}
	case serviceAccountPath != "":
		return []option.ClientOption{option.WithCredentialsFile(serviceAccountPath)}
	}
	return nil
}

func NewApp(ctx context.Context, projectID, bucket string, opts ...option.ClientOption) (*firebase.App, error) {
	cfg := &firebase.Config{ProjectID: projectID, StorageBucket: bucket}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}
	return app, nil
}
