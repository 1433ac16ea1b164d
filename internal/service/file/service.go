package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/storage"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// MaxIncidentFileSize is the upload ceiling for incident report attachments
	MaxIncidentFileSize = 10 << 20

	// Photos above this size are re-encoded before storage
	imageCompressThreshold = 1 << 20
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size of 10MB")
	ErrInvalidFileType = errors.New("invalid file type: only pdf, jpg, jpeg, png, doc, docx allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

var incidentExts = []string{".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx"}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// StoredFile describes an attachment after it has been written to storage
type StoredFile struct {
	Path        string
	URL         string
	Name        string
	Size        int64
	ContentType string
}

type FileService interface {
	// UploadIncidentDocument validates and stores an incident report attachment
	UploadIncidentDocument(ctx context.Context, userID string, file io.Reader, filename string, size int64) (StoredFile, error)

	// OpenFile reads a stored file back. The caller closes it.
	OpenFile(ctx context.Context, path string) (io.ReadCloser, error)

	// Generic operations
	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadIncidentDocument uploads an incident report attachment under incidents/{userID}/.
// Large photos are recompressed to JPEG; documents are stored as-is.
func (s *fileServiceImpl) UploadIncidentDocument(ctx context.Context, userID string, file io.Reader, filename string, size int64) (StoredFile, error) {
	if !validator.HasExtension(filename, incidentExts) {
		return StoredFile{}, ErrInvalidFileType
	}
	if size > MaxIncidentFileSize {
		return StoredFile{}, ErrFileTooLarge
	}

	// Read at most one byte past the limit so a lying size header is still caught
	buffer, err := io.ReadAll(io.LimitReader(file, MaxIncidentFileSize+1))
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	if len(buffer) == 0 {
		return StoredFile{}, ErrEmptyFile
	}
	if len(buffer) > MaxIncidentFileSize {
		return StoredFile{}, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType := contentTypes[ext]

	if (ext == ".jpg" || ext == ".jpeg" || ext == ".png") && len(buffer) > imageCompressThreshold {
		compressed, err := compressImage(buffer, imageCompressThreshold, 50*1024)
		if err == nil {
			buffer = compressed
			ext = ".jpg"
			contentType = "image/jpeg"
		}
		// Undecodable images are stored untouched
	}

	newFilename := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().Unix(), ext)
	path := filepath.Join("incidents", userID, newFilename)

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(buffer), path, contentType)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to upload incident document: %w", err)
	}

	url, err := s.storage.GetURL(ctx, uploadedPath, 0)
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to resolve file url: %w", err)
	}

	return StoredFile{
		Path:        uploadedPath,
		URL:         url,
		Name:        filepath.Base(filename),
		Size:        int64(len(buffer)),
		ContentType: contentType,
	}, nil
}

func (s *fileServiceImpl) OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, path)
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// GetFileURL generates URL to access file
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}

// ==================== HELPER FUNCTIONS ====================

// compressImage re-encodes an image as JPEG, lowering quality and then resolution
// until it fits under maxSize.
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	if len(buffer) <= maxSize && len(buffer) >= minSize {
		return buffer, nil
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	quality := 85
	var compressed []byte

	for quality >= 50 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}

		compressed = buf.Bytes()
		if len(compressed) <= maxSize {
			return compressed, nil
		}
		quality -= 5
	}

	// Still too large: scale down toward half the ceiling
	ratio := math.Sqrt(float64(maxSize/2) / float64(len(compressed)))
	newWidth := int(float64(originalWidth) * ratio)
	newHeight := int(float64(originalHeight) * ratio)
	if newWidth < 600 {
		newWidth = 600
	}
	if newHeight < 400 {
		newHeight = 400
	}

	resized := resizeImage(img, newWidth, newHeight)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: 70}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
