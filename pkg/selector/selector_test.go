package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

func TestEncode(t *testing.T) {

	t.Run("should encode equality and inequality", func(t *testing.T) {
		// when
		encoded, err := Encode([]Requirement{Eq("app", "nginx"), Neq("env", "dev")})

		// then
		require.NoError(t, err)
		assert.Equal(t, "app=nginx,env!=dev", encoded)
	})

	t.Run("should encode set operators", func(t *testing.T) {
		// when
		encoded, err := Encode([]Requirement{
			In("app", "nginx", "apache"),
			NotIn("env", "prod"),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "app in (nginx,apache),env notin (prod)", encoded)
	})

	t.Run("should encode existence operators", func(t *testing.T) {
		// when
		encoded, err := Encode([]Requirement{Exists("app"), DoesNotExist("legacy")})

		// then
		require.NoError(t, err)
		assert.Equal(t, "app,!legacy", encoded)
	})

	t.Run("should yield empty string for empty requirement list", func(t *testing.T) {
		// when
		encoded, err := Encode(nil)

		// then
		require.NoError(t, err)
		assert.Empty(t, encoded)
	})

	t.Run("should preserve caller order and duplicate keys", func(t *testing.T) {
		// when
		encoded, err := Encode([]Requirement{
			Eq("app", "nginx"),
			Eq("app", "apache"),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "app=nginx,app=apache", encoded)
	})

	t.Run("should fail on in operator without values", func(t *testing.T) {
		// when
		_, err := Encode([]Requirement{In("app")})

		// then
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidRequest(err))
	})

	t.Run("should fail on empty key", func(t *testing.T) {
		// when
		_, err := Encode([]Requirement{Eq("", "nginx")})

		// then
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidRequest(err))
	})

	t.Run("should fail on value with invalid characters", func(t *testing.T) {
		// when
		_, err := Encode([]Requirement{Eq("app", "ngi nx")})

		// then
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidRequest(err))
	})
}

func TestParse(t *testing.T) {

	t.Run("should round trip any valid requirement list", func(t *testing.T) {
		// given
		requirements := []Requirement{
			Eq("app", "nginx"),
			Neq("env", "dev"),
			In("tier", "web", "db"),
			NotIn("zone", "a"),
			Exists("owner"),
			DoesNotExist("legacy"),
			Eq("app", "apache"),
		}

		// when
		encoded, err := Encode(requirements)
		require.NoError(t, err)
		decoded, err := Parse(encoded)

		// then
		require.NoError(t, err)
		assert.Equal(t, requirements, decoded)
	})

	t.Run("should parse empty string to nil", func(t *testing.T) {
		// when
		decoded, err := Parse("")

		// then
		require.NoError(t, err)
		assert.Nil(t, decoded)
	})

	t.Run("should fail on malformed value set", func(t *testing.T) {
		// when
		_, err := Parse("app in nginx")

		// then
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidRequest(err))
	})
}

func TestEncodeFields(t *testing.T) {

	t.Run("should encode field requirements", func(t *testing.T) {
		// when
		encoded, err := EncodeFields([]FieldRequirement{
			FieldEq("status.phase", "Running"),
			FieldNeq("spec.nodeName", "node-1"),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "status.phase=Running,spec.nodeName!=node-1", encoded)
	})

	t.Run("should fail on empty path", func(t *testing.T) {
		// when
		_, err := EncodeFields([]FieldRequirement{FieldEq("", "Running")})

		// then
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidRequest(err))
	})
}
