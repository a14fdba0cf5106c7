package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizedDirectory(t *testing.T) {
	d := SynthesizedDirectory{Domain: "providers.example.com"}

	c, err := d.ResolveProviderContact(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "dr.s1@providers.example.com", c.Email)

	c, err = d.ResolveProviderContact(context.Background(), " Smith, Jane ")
	require.NoError(t, err)
	assert.Equal(t, "dr.smith-jane@providers.example.com", c.Email)

	_, err = d.ResolveProviderContact(context.Background(), "!!!")
	assert.ErrorIs(t, err, ErrProviderUnknown)

	_, err = SynthesizedDirectory{}.ResolveProviderContact(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrProviderUnknown)
}

func TestStaticDirectoryFallsBack(t *testing.T) {
	d := StaticDirectory{
		Contacts: map[string]ProviderContact{"s1": {Email: "rivera@clinic.example.com", Name: "Dr. Rivera"}},
		Fallback: SynthesizedDirectory{Domain: "providers.example.com"},
	}

	c, err := d.ResolveProviderContact(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rivera", c.Name)

	c, err = d.ResolveProviderContact(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, "dr.s2@providers.example.com", c.Email)

	_, err = StaticDirectory{}.ResolveProviderContact(context.Background(), "s2")
	assert.ErrorIs(t, err, ErrProviderUnknown)
}
