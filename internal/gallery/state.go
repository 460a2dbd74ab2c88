package gallery

import "gallery-service/internal/storage"

// Toast is a transient notice. OK distinguishes success from failure styling.
type Toast struct {
	Message string
	OK      bool
	Show    bool
}

// Lightbox is the full-size viewer over Images.
type Lightbox struct {
	Open  bool
	Index int
}

// State is everything a front end renders.
type State struct {
	Buckets        []storage.Bucket
	SelectedBucket string
	SelectedFiles  []SelectedFile
	UploadStatus   string
	CreateStatus   string
	Toast          Toast
	Images         []Image
	Lightbox       Lightbox
}

// Current returns the image under the lightbox, if it is open on one.
func (s State) Current() (Image, bool) {
	if !s.Lightbox.Open || s.Lightbox.Index < 0 || s.Lightbox.Index >= len(s.Images) {
		return Image{}, false
	}
	return s.Images[s.Lightbox.Index], true
}

func (s State) clone() State {
	out := s
	out.Buckets = append([]storage.Bucket(nil), s.Buckets...)
	out.SelectedFiles = append([]SelectedFile(nil), s.SelectedFiles...)
	out.Images = append([]Image(nil), s.Images...)
	return out
}

// UploadResult tallies one upload batch.
type UploadResult struct {
	Succeeded int
	Failed    int
}
