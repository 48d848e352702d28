package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(id, alt string) InspirationImage {
	return InspirationImage{
		ID:             id,
		URLs:           ImageURLs{Thumb: "https://img.example/" + id + "/thumb", Regular: "https://img.example/" + id},
		AltDescription: StringPtr(alt),
	}
}

func TestNewCreativeSession(t *testing.T) {
	s := NewCreativeSession()

	assert.Equal(t, 7.5, s.GuidanceScale)
	assert.Equal(t, 0.5, s.CompositionInfluence)
	assert.Nil(t, s.Seed)
	assert.Nil(t, s.SelectedStyle)
	assert.Nil(t, s.CompositionGuideURL)
	assert.Empty(t, s.ApprovedImages)
	assert.NotNil(t, s.ApprovedImages, "JSON では null ではなく [] にする")
}

func TestCreativeSession_ApproveDislike(t *testing.T) {
	t.Run("承認と不採用は排他的", func(t *testing.T) {
		s := NewCreativeSession()
		img := testImage("a", "red barn")

		require.NoError(t, s.Approve(img))
		assert.True(t, s.IsApproved("a"))

		require.NoError(t, s.Dislike(img))
		assert.True(t, s.IsDisliked("a"))
		assert.False(t, s.IsApproved("a"))

		require.NoError(t, s.Approve(img))
		assert.True(t, s.IsApproved("a"))
		assert.False(t, s.IsDisliked("a"))
	})

	t.Run("同じリストへの再操作は取り消しになる", func(t *testing.T) {
		s := NewCreativeSession()
		img := testImage("a", "red barn")

		require.NoError(t, s.Approve(img))
		require.NoError(t, s.Approve(img))
		assert.Empty(t, s.ApprovedImages)

		require.NoError(t, s.Dislike(img))
		require.NoError(t, s.Dislike(img))
		assert.Empty(t, s.DislikedImages)
	})

	t.Run("IDは重複しない", func(t *testing.T) {
		s := NewCreativeSession()
		require.NoError(t, s.Approve(testImage("a", "x")))
		require.NoError(t, s.Approve(testImage("b", "y")))
		require.NoError(t, s.Dislike(testImage("a", "x")))
		require.NoError(t, s.Approve(testImage("a", "x")))

		ids := []string{}
		for _, img := range s.ApprovedImages {
			ids = append(ids, img.ID)
		}
		assert.Equal(t, []string{"b", "a"}, ids)
	})

	t.Run("IDが空ならエラー", func(t *testing.T) {
		s := NewCreativeSession()
		assert.ErrorIs(t, s.Approve(InspirationImage{}), ErrInvalidImage)
		assert.ErrorIs(t, s.Dislike(InspirationImage{}), ErrInvalidImage)
	})
}

func TestCreativeSession_CompositionGuide(t *testing.T) {
	img := testImage("a", "lighthouse")

	t.Run("承認済み画像のみガイドにできる", func(t *testing.T) {
		s := NewCreativeSession()
		err := s.ToggleCompositionGuide(img.URLs.Regular)
		assert.True(t, errors.Is(err, ErrGuideNotApproved))

		require.NoError(t, s.Approve(img))
		require.NoError(t, s.ToggleCompositionGuide(img.URLs.Regular))
		require.NotNil(t, s.CompositionGuideURL)
		assert.Equal(t, img.URLs.Regular, *s.CompositionGuideURL)
	})

	t.Run("同じURLを再指定すると解除される", func(t *testing.T) {
		s := NewCreativeSession()
		require.NoError(t, s.Approve(img))
		require.NoError(t, s.ToggleCompositionGuide(img.URLs.Regular))
		require.NoError(t, s.ToggleCompositionGuide(img.URLs.Regular))
		assert.Nil(t, s.CompositionGuideURL)
	})

	t.Run("承認から外れるとガイドも解除される", func(t *testing.T) {
		s := NewCreativeSession()
		require.NoError(t, s.Approve(img))
		require.NoError(t, s.ToggleCompositionGuide(img.URLs.Regular))

		require.NoError(t, s.Dislike(img))
		assert.Nil(t, s.CompositionGuideURL)
	})
}

func TestCreativeSession_Sliders(t *testing.T) {
	s := NewCreativeSession()

	require.NoError(t, s.SetGuidanceScale(1))
	require.NoError(t, s.SetGuidanceScale(20))
	assert.ErrorIs(t, s.SetGuidanceScale(0.5), ErrOutOfRange)
	assert.ErrorIs(t, s.SetGuidanceScale(20.1), ErrOutOfRange)
	assert.Equal(t, 20.0, s.GuidanceScale)

	require.NoError(t, s.SetCompositionInfluence(0))
	require.NoError(t, s.SetCompositionInfluence(1))
	assert.ErrorIs(t, s.SetCompositionInfluence(-0.1), ErrOutOfRange)
	assert.ErrorIs(t, s.SetCompositionInfluence(1.01), ErrOutOfRange)
	assert.ErrorIs(t, s.SetGuidanceScale(math.NaN()), ErrOutOfRange)
	assert.ErrorIs(t, s.SetCompositionInfluence(math.NaN()), ErrOutOfRange)
	assert.Equal(t, 1.0, s.CompositionInfluence)
}

func TestCreativeSession_CloneAndReset(t *testing.T) {
	s := NewCreativeSession()
	s.SetPrompt("a lighthouse")
	style, err := FindStyle("anime")
	require.NoError(t, err)
	s.SelectStyle(&style)
	require.NoError(t, s.Approve(testImage("a", "storm")))
	seed := int64(42)
	s.SetSeed(&seed)

	c := s.Clone()
	c.ApprovedImages[0].ID = "changed"
	*c.ApprovedImages[0].AltDescription = "changed"
	c.SelectedStyle.Name = "changed"
	*c.Seed = 7

	assert.Equal(t, "a", s.ApprovedImages[0].ID)
	desc, _ := s.ApprovedImages[0].Description()
	assert.Equal(t, "storm", desc)
	assert.Equal(t, "Anime", s.SelectedStyle.Name)
	assert.Equal(t, int64(42), *s.Seed)

	s.Reset()
	assert.Equal(t, NewCreativeSession(), s)
}
