package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatform_Supports(t *testing.T) {
	assert.True(t, PlatformTwitter.Supports(ActionLike))
	assert.True(t, PlatformTwitter.Supports(ActionRandomFromFeed))
	assert.False(t, PlatformFacebook.Supports(ActionLike))
	assert.False(t, PlatformWhatsApp.Supports(ActionVideo))
	assert.True(t, PlatformWhatsApp.Supports(ActionTemplate))
	assert.False(t, PlatformDiscord.Supports(ActionTemplate))
}

func TestPlatform_Supports_UniversalActions(t *testing.T) {
	for p := range capabilities {
		assert.True(t, p.Supports(ActionAuthorize), "%s must support authorize", p)
		assert.True(t, p.Supports(ActionSchedule), "%s must support schedule", p)
	}
}

func TestPlatform_CheckCapability(t *testing.T) {
	require.NoError(t, PlatformTwitter.CheckCapability(ActionPost))

	err := PlatformFacebook.CheckCapability(ActionLike)
	require.Error(t, err)
	assert.True(t, IsCapability(err))
	assert.Contains(t, err.Error(), "facebook")
	assert.Contains(t, err.Error(), "like")
}
