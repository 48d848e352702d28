package domain

import "slices"

// IsApproved は id が承認リストにあるかを返します。
func (s *CreativeSession) IsApproved(id string) bool {
	return indexOf(s.ApprovedImages, id) >= 0
}

// IsDisliked は id が不採用リストにあるかを返します。
func (s *CreativeSession) IsDisliked(id string) bool {
	return indexOf(s.DislikedImages, id) >= 0
}

// Approve は画像を承認リストに入れます。
// すでに承認済みなら取り消し、不採用リストにあればそちらからは取り除きます。
func (s *CreativeSession) Approve(img InspirationImage) error {
	if img.ID == "" {
		return ErrInvalidImage
	}
	if s.IsApproved(img.ID) {
		s.ApprovedImages = removeImage(s.ApprovedImages, img.ID)
	} else {
		s.ApprovedImages = append(s.ApprovedImages, img)
		s.DislikedImages = removeImage(s.DislikedImages, img.ID)
	}
	s.dropDanglingGuide()
	return nil
}

// Dislike は画像を不採用リストに入れます。Approve と対称の動きです。
func (s *CreativeSession) Dislike(img InspirationImage) error {
	if img.ID == "" {
		return ErrInvalidImage
	}
	if s.IsDisliked(img.ID) {
		s.DislikedImages = removeImage(s.DislikedImages, img.ID)
	} else {
		s.DislikedImages = append(s.DislikedImages, img)
		s.ApprovedImages = removeImage(s.ApprovedImages, img.ID)
	}
	s.dropDanglingGuide()
	return nil
}

// ToggleCompositionGuide は承認済み画像の regular URL を構図ガイドに設定します。
// 現在のガイドと同じ URL なら解除します。
func (s *CreativeSession) ToggleCompositionGuide(url string) error {
	if s.CompositionGuideURL != nil && *s.CompositionGuideURL == url {
		s.CompositionGuideURL = nil
		return nil
	}
	if !s.hasApprovedURL(url) {
		return ErrGuideNotApproved
	}
	s.CompositionGuideURL = StringPtr(url)
	return nil
}

// ClearCompositionGuide は構図ガイドを解除します。
func (s *CreativeSession) ClearCompositionGuide() {
	s.CompositionGuideURL = nil
}

// dropDanglingGuide は承認リストから外れた画像を指すガイドを解除します。
func (s *CreativeSession) dropDanglingGuide() {
	if s.CompositionGuideURL != nil && !s.hasApprovedURL(*s.CompositionGuideURL) {
		s.CompositionGuideURL = nil
	}
}

func (s *CreativeSession) hasApprovedURL(url string) bool {
	return slices.ContainsFunc(s.ApprovedImages, func(img InspirationImage) bool {
		return img.URLs.Regular == url
	})
}

func indexOf(images []InspirationImage, id string) int {
	return slices.IndexFunc(images, func(img InspirationImage) bool { return img.ID == id })
}

func removeImage(images []InspirationImage, id string) []InspirationImage {
	out := make([]InspirationImage, 0, len(images))
	for _, img := range images {
		if img.ID != id {
			out = append(out, img)
		}
	}
	return out
}
