package credential

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretManager reads keypair payloads from Google Cloud Secret Manager.
// Names are full version paths such as
// projects/<project>/secrets/<secret>/versions/latest.
type SecretManager struct{}

func (SecretManager) Fetch(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer client.Close()

	response, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret version: %w", err)
	}
	if response.GetPayload() == nil {
		return nil, fmt.Errorf("secret version %s has no payload", name)
	}
	return response.GetPayload().GetData(), nil
}
