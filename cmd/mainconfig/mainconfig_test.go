package mainconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	awsCfg, err := LoadAWSConfig(context.Background(), &appconfig.Config{
		AWSRegion:          "us-west-2",
		AWSAccessKeyID:     "test-key",
		AWSSecretAccessKey: "test-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)
	assert.Equal(t, appID, awsCfg.AppID)
	assert.Equal(t, retryMaxAttempts, awsCfg.RetryMaxAttempts)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", creds.AccessKeyID)
	assert.Equal(t, "test-secret", creds.SecretAccessKey)
}
