package services

import (
	"fmt"
	"mime/multipart"

	"github.com/dlehman/mechanic-shop-api/utils"
)

// PhotoService handles vehicle photo upload, retrieval, and deletion
type PhotoService interface {
	// UploadPhoto validates and uploads a photo for a ticket, returns the storage key
	UploadPhoto(ticketID uint, fileHeader *multipart.FileHeader) (string, error)

	// GetPhotoURL generates a URL for accessing an uploaded photo
	GetPhotoURL(photoKey string) (string, error)

	// DeletePhoto removes a photo from storage
	DeletePhoto(photoKey string) error
}

// S3PhotoService implements PhotoService using AWS S3 for storage
type S3PhotoService struct {
	s3Service S3Interface
}

// NewS3PhotoService creates a photo service with an S3 backend
func NewS3PhotoService(s3Service S3Interface) *S3PhotoService {
	return &S3PhotoService{s3Service: s3Service}
}

// UploadPhoto validates and uploads a vehicle photo to S3
func (s *S3PhotoService) UploadPhoto(ticketID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidatePhotoFile(fileHeader); err != nil {
		return "", err
	}

	s3Key, err := s.s3Service.UploadFile(ticketID, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s3Key, nil
}

// GetPhotoURL generates a presigned URL for a stored photo
func (s *S3PhotoService) GetPhotoURL(photoKey string) (string, error) {
	return s.s3Service.GetPresignedURL(photoKey)
}

// DeletePhoto removes a photo from S3
func (s *S3PhotoService) DeletePhoto(photoKey string) error {
	return s.s3Service.DeleteFile(photoKey)
}
