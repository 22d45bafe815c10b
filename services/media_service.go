package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/gatherlyhq/gatherly/config"
	apiError "github.com/gatherlyhq/gatherly/errors"
)

// MaxPhotoBytes caps uploaded photo size.
const MaxPhotoBytes = 5 << 20

// ThumbWidth is the pixel width of stored avatar thumbnails.
const ThumbWidth = 256

// MediaService handles photo bytes at the API boundary: upload validation,
// thumbnail generation and the two outbound representations (data URI and
// raw byte stream with a sniffed content type).
type MediaService interface {
	ValidatePhoto(blob []byte) *apiError.Error
	Thumbnail(blob []byte, width int) ([]byte, error)
	DataURI(blob []byte) string
	ContentType(blob []byte) string
	AvatarURL(username string) string
}

type mediaService struct {
	Config *config.Config
}

// NewMediaService instantiates a media service
func NewMediaService(conf *config.Config) MediaService {
	return &mediaService{Config: conf}
}

func (m *mediaService) ValidatePhoto(blob []byte) *apiError.Error {
	if len(blob) == 0 {
		return apiError.New("photo is empty", http.StatusBadRequest)
	}
	if len(blob) > MaxPhotoBytes {
		return apiError.New("photo exceeds the 5MB limit", http.StatusBadRequest)
	}
	switch m.ContentType(blob) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return nil
	default:
		return apiError.New("unsupported photo format", http.StatusBadRequest)
	}
}

// Thumbnail scales the image down to the given width, preserving aspect
// ratio. The thumbnail is re-encoded as JPEG regardless of source format.
func (m *mediaService) Thumbnail(blob []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	scaled := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI encodes the blob for inline embedding in JSON payloads. Empty
// blobs yield an empty string so clients can fall back to a placeholder.
func (m *mediaService) DataURI(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", m.ContentType(blob), base64.StdEncoding.EncodeToString(blob))
}

func (m *mediaService) ContentType(blob []byte) string {
	return http.DetectContentType(blob)
}

// AvatarURL points at the byte-stream profile photo endpoint. Chat and
// search payloads reference avatars by URL instead of inlining them.
func (m *mediaService) AvatarURL(username string) string {
	return fmt.Sprintf("%s/api/users/%s/profilephoto", m.Config.BaseUrl, username)
}
